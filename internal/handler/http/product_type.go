package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/catalog-service/internal/service"
	"github.com/utafrali/catalog-service/internal/storage"
	"github.com/utafrali/catalog-service/pkg/httputil"
	"github.com/utafrali/catalog-service/pkg/validator"
)

// ProductTypeHandler handles HTTP requests for product type endpoints.
type ProductTypeHandler struct {
	service *service.ProductTypeService
	store   storage.Storage
	logger  *slog.Logger
}

// NewProductTypeHandler creates a new product type HTTP handler.
func NewProductTypeHandler(svc *service.ProductTypeService, store storage.Storage, logger *slog.Logger) *ProductTypeHandler {
	return &ProductTypeHandler{
		service: svc,
		store:   store,
		logger:  logger,
	}
}

type createProductTypeRequest struct {
	Title string `validate:"required,max=255"`
}

// CreateProductType handles POST /api/v1/product-types (multipart/form-data
// with a title field and an optional "file" icon part).
func (h *ProductTypeHandler) CreateProductType(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "failed to parse multipart form: " + err.Error()},
		})
		return
	}

	req := createProductTypeRequest{Title: r.FormValue("title")}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	icon, err := h.uploadIcon(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	input := &service.CreateProductTypeInput{Title: req.Title}
	if icon != nil {
		input.IconURL = icon.URL
	}

	pt, err := h.service.CreateProductType(r.Context(), input)
	if err != nil {
		if icon != nil {
			h.removeIcon(r, icon)
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: pt})
}

// GetProductType handles GET /api/v1/product-types/{id}.
func (h *ProductTypeHandler) GetProductType(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	pt, err := h.service.GetProductType(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: pt})
}

// ListProductTypes handles GET /api/v1/product-types.
func (h *ProductTypeHandler) ListProductTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.ListProductTypes(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: types})
}

// UpdateProductType handles PUT /api/v1/product-types/{id}
// (multipart/form-data, partial). A new "file" part replaces the icon.
func (h *ProductTypeHandler) UpdateProductType(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "failed to parse multipart form: " + err.Error()},
		})
		return
	}

	input := &service.UpdateProductTypeInput{}
	if v, present := formValue(r, "title"); present {
		input.Title = &v
	}

	icon, err := h.uploadIcon(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if icon != nil {
		input.IconURL = &icon.URL
	}

	pt, err := h.service.UpdateProductType(r.Context(), id, input)
	if err != nil {
		if icon != nil {
			h.removeIcon(r, icon)
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: pt})
}

// DeleteProductType handles DELETE /api/v1/product-types/{id}.
func (h *ProductTypeHandler) DeleteProductType(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteProductType(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]int64{"id": id}})
}

// uploadIcon stores the optional "file" part, returning nil when absent.
func (h *ProductTypeHandler) uploadIcon(r *http.Request) (*storage.UploadResult, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File["file"]) == 0 {
		return nil, nil
	}

	header := r.MultipartForm.File["file"][0]
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return h.store.Upload(r.Context(), &storage.UploadInput{
		OriginalName: header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Data:         file,
	})
}

func (h *ProductTypeHandler) removeIcon(r *http.Request, icon *storage.UploadResult) {
	if err := h.store.Delete(r.Context(), icon.Key); err != nil {
		h.logger.WarnContext(r.Context(), "failed to remove uploaded icon",
			slog.String("key", icon.Key),
			slog.String("error", err.Error()),
		)
	}
}
