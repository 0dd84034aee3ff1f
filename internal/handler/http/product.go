package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/catalog-service/internal/domain"
	"github.com/utafrali/catalog-service/internal/repository"
	"github.com/utafrali/catalog-service/internal/service"
	"github.com/utafrali/catalog-service/internal/storage"
	"github.com/utafrali/catalog-service/pkg/httputil"
	"github.com/utafrali/catalog-service/pkg/pagination"
	"github.com/utafrali/catalog-service/pkg/validator"
)

// maxUploadBytes bounds the whole multipart request body. Individual file
// size limits are enforced by the storage layer.
const maxUploadBytes = 64 << 20

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	service *service.ProductService
	store   storage.Storage
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, store storage.Storage, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		store:   store,
		logger:  logger,
	}
}

type createProductRequest struct {
	Title  string `validate:"required,max=500"`
	Price  int64  `validate:"gte=0"`
	TypeID int64  `validate:"required,gt=0"`
}

// CreateProduct handles POST /api/v1/products (multipart/form-data).
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "failed to parse multipart form: " + err.Error()},
		})
		return
	}

	price, err := formInt64(r, "price")
	if err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	typeID, err := formInt64(r, "type_id")
	if err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	req := createProductRequest{
		Title:  r.FormValue("title"),
		Price:  price,
		TypeID: typeID,
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.CreateProductInput{
		Title:            req.Title,
		Price:            req.Price,
		TypeID:           req.TypeID,
		SelectableValues: r.Form["selectable_values"],
	}

	if brand := r.FormValue("brand"); brand != "" {
		input.Brand = &brand
	}
	if raw := r.FormValue("memory_amount"); raw != "" {
		amount, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.WriteValidationError(w, errInvalidField("memory_amount"))
			return
		}
		input.MemoryAmount = &amount
	}

	if raw := r.FormValue("color"); raw != "" {
		var color service.ColorInput
		if err := json.Unmarshal([]byte(raw), &color); err != nil {
			httputil.WriteValidationError(w, errInvalidField("color"))
			return
		}
		input.Color = &color
	}
	if raw := r.FormValue("short_info"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.ShortInfo); err != nil {
			httputil.WriteValidationError(w, errInvalidField("short_info"))
			return
		}
	}
	if raw := r.FormValue("additional_info"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.AdditionalInfo); err != nil {
			httputil.WriteValidationError(w, errInvalidField("additional_info"))
			return
		}
	}

	results, err := h.uploadFiles(w, r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	input.ImageURLs = resultURLs(results)

	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		h.removeUploads(r, results)
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: product})
}

// GetProduct handles GET /api/v1/products/{id}.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// ListProducts handles GET /api/v1/products with filtering and pagination.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.ProductFilter{
		Page:    params.Page,
		PerPage: params.ItemsPerPage,
	}

	query := r.URL.Query()

	if raw := query.Get("type_id"); raw != "" {
		typeID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.WriteValidationError(w, errInvalidField("type_id"))
			return
		}
		filter.TypeID = &typeID
	}

	filter.Brands = splitMulti(query["brands"])

	for _, raw := range splitMulti(query["memory_amounts"]) {
		amount, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.WriteValidationError(w, errInvalidField("memory_amounts"))
			return
		}
		filter.MemoryAmounts = append(filter.MemoryAmounts, amount)
	}

	if raw := query.Get("price_from"); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.WriteValidationError(w, errInvalidField("price_from"))
			return
		}
		filter.PriceFrom = &price
	}
	if raw := query.Get("price_to"); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.WriteValidationError(w, errInvalidField("price_to"))
			return
		}
		filter.PriceTo = &price
	}

	items, total, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(items, total, params))
}

// UpdateProduct handles PUT /api/v1/products/{id} (multipart/form-data,
// partial). Absent form fields are left untouched; an empty value on a
// nullable field clears it. New files replace all images; clear_images=true
// removes them without replacement.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
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

	input := &service.UpdateProductInput{}

	if v, present := formValue(r, "title"); present {
		input.Title = &v
	}
	if v, present := formValue(r, "price"); present {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.WriteValidationError(w, errInvalidField("price"))
			return
		}
		input.Price = &price
	}
	if v, present := formValue(r, "type_id"); present {
		typeID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.WriteValidationError(w, errInvalidField("type_id"))
			return
		}
		input.TypeID = &typeID
	}

	if v, present := formValue(r, "brand"); present {
		if v == "" {
			input.Brand = domain.Clear[string]()
		} else {
			input.Brand = domain.Set(v)
		}
	}
	if v, present := formValue(r, "memory_amount"); present {
		if v == "" {
			input.MemoryAmount = domain.Clear[int64]()
		} else {
			amount, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				httputil.WriteValidationError(w, errInvalidField("memory_amount"))
				return
			}
			input.MemoryAmount = domain.Set(amount)
		}
	}

	if values, present := r.Form["selectable_values"]; present {
		input.SelectableValues = domain.Set(values)
	}

	if v, present := formValue(r, "color"); present {
		if v == "" {
			input.Color = domain.Clear[service.ColorInput]()
		} else {
			var color service.ColorInput
			if err := json.Unmarshal([]byte(v), &color); err != nil {
				httputil.WriteValidationError(w, errInvalidField("color"))
				return
			}
			input.Color = domain.Set(color)
		}
	}
	if v, present := formValue(r, "short_info"); present {
		if v == "" {
			input.ShortInfo = domain.Clear[[]service.ShortInfoInput]()
		} else {
			var items []service.ShortInfoInput
			if err := json.Unmarshal([]byte(v), &items); err != nil {
				httputil.WriteValidationError(w, errInvalidField("short_info"))
				return
			}
			input.ShortInfo = domain.Set(items)
		}
	}
	if v, present := formValue(r, "additional_info"); present {
		if v == "" {
			input.AdditionalInfo = domain.Clear[[]service.AdditionalInfoInput]()
		} else {
			var items []service.AdditionalInfoInput
			if err := json.Unmarshal([]byte(v), &items); err != nil {
				httputil.WriteValidationError(w, errInvalidField("additional_info"))
				return
			}
			input.AdditionalInfo = domain.Set(items)
		}
	}

	var uploaded []*storage.UploadResult
	if hasFiles(r) {
		results, err := h.uploadFiles(w, r)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		uploaded = results
		input.Images = domain.Set(resultURLs(results))
	} else if r.FormValue("clear_images") == "true" {
		input.Images = domain.Clear[[]string]()
	}

	product, err := h.service.UpdateProduct(r.Context(), id, input)
	if err != nil {
		h.removeUploads(r, uploaded)
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// DeleteProduct handles DELETE /api/v1/products/{id}.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]int64{"id": id}})
}

// uploadFiles stores all "files" parts sequentially, preserving part order.
func (h *ProductHandler) uploadFiles(w http.ResponseWriter, r *http.Request) ([]*storage.UploadResult, error) {
	headers := r.MultipartForm.File["files"]
	inputs := make([]*storage.UploadInput, 0, len(headers))

	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		defer file.Close()

		inputs = append(inputs, &storage.UploadInput{
			OriginalName: header.Filename,
			ContentType:  header.Header.Get("Content-Type"),
			Size:         header.Size,
			Data:         file,
		})
	}

	return storage.UploadAll(r.Context(), h.store, inputs)
}

// removeUploads cleans up stored files after a failed write so rejected
// requests don't leave orphans on disk.
func (h *ProductHandler) removeUploads(r *http.Request, results []*storage.UploadResult) {
	for _, result := range results {
		if err := h.store.Delete(r.Context(), result.Key); err != nil {
			h.logger.WarnContext(r.Context(), "failed to remove uploaded file",
				slog.String("key", result.Key),
				slog.String("error", err.Error()),
			)
		}
	}
}

func resultURLs(results []*storage.UploadResult) []string {
	urls := make([]string, 0, len(results))
	for _, result := range results {
		urls = append(urls, result.URL)
	}
	return urls
}

// formValue returns the first value for the key and whether the key was part
// of the form at all.
func formValue(r *http.Request, key string) (string, bool) {
	values, present := r.Form[key]
	if !present || len(values) == 0 {
		return "", present
	}
	return values[0], true
}

func hasFiles(r *http.Request) bool {
	return r.MultipartForm != nil && len(r.MultipartForm.File["files"]) > 0
}

func formInt64(r *http.Request, key string) (int64, error) {
	raw := r.FormValue(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errInvalidField(key)
	}
	return v, nil
}

// splitMulti accepts both repeated query parameters and comma-separated
// values, returning the flattened non-empty items.
func splitMulti(values []string) []string {
	var result []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}

type invalidFieldError struct {
	field string
}

func (e invalidFieldError) Error() string {
	return "invalid value for field '" + e.field + "'"
}

func errInvalidField(field string) error {
	return invalidFieldError{field: field}
}
