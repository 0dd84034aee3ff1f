package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog-service/internal/domain"
	"github.com/utafrali/catalog-service/internal/event"
	"github.com/utafrali/catalog-service/internal/repository"
	"github.com/utafrali/catalog-service/internal/service"
	"github.com/utafrali/catalog-service/internal/storage/memory"
	apperrors "github.com/utafrali/catalog-service/pkg/errors"
	"github.com/utafrali/catalog-service/pkg/health"
	"github.com/utafrali/catalog-service/pkg/httputil"
	pkgkafka "github.com/utafrali/catalog-service/pkg/kafka"
	"github.com/utafrali/catalog-service/pkg/middleware"
	"github.com/utafrali/catalog-service/pkg/pagination"
)

// listResponse is the paginated listing envelope.
type listResponse = pagination.Result[domain.ProductListItem]

// Ensure interfaces are satisfied at compile time.
var _ repository.ProductRepository = (*mockProductRepository)(nil)
var _ repository.ProductTypeRepository = (*mockProductTypeRepository)(nil)

// --- Mock ProductRepository ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id int64, hydration repository.Hydration) (*domain.Product, error) {
	args := m.Called(ctx, id, hydration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.ProductListItem, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ProductListItem), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Update(ctx context.Context, upd repository.ProductUpdate) error {
	args := m.Called(ctx, upd)
	return args.Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock ProductTypeRepository ---

type mockProductTypeRepository struct {
	mock.Mock
}

func (m *mockProductTypeRepository) Create(ctx context.Context, pt *domain.ProductType) error {
	args := m.Called(ctx, pt)
	return args.Error(0)
}

func (m *mockProductTypeRepository) GetByID(ctx context.Context, id int64) (*domain.ProductType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductType), args.Error(1)
}

func (m *mockProductTypeRepository) List(ctx context.Context) ([]domain.ProductType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductType), args.Error(1)
}

func (m *mockProductTypeRepository) Update(ctx context.Context, pt *domain.ProductType) error {
	args := m.Called(ctx, pt)
	return args.Error(0)
}

func (m *mockProductTypeRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProductTypeRepository) DeleteCascade(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProductTypeRepository) CountProducts(ctx context.Context, typeID int64) (int, error) {
	args := m.Called(ctx, typeID)
	return args.Int(0), args.Error(1)
}

// --- Test Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEventProducer() *event.Producer {
	logger := testLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

// newTestRouter wires the full routing tree over mock repositories and an
// in-memory file store.
func newTestRouter(repo *mockProductRepository, types *mockProductTypeRepository) (http.Handler, *memory.Storage) {
	logger := testLogger()
	producer := testEventProducer()
	store := memory.New("/uploads")

	productSvc := service.NewProductService(repo, types, producer, logger)
	typeSvc := service.NewProductTypeService(types, producer, logger, domain.TypeDeleteRestrict)

	router := NewRouter(
		NewProductHandler(productSvc, store, logger),
		NewProductTypeHandler(typeSvc, store, logger),
		health.NewHandler(),
		logger,
		RouterConfig{
			ServiceName: "catalog",
			CORS:        middleware.DefaultCORSConfig(),
		},
	)
	return router, store
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

type testFile struct {
	Field       string
	Name        string
	ContentType string
	Content     string
}

// buildMultipart creates a multipart form body. Fields are ordered pairs so
// repeated keys like selectable_values stay possible.
func buildMultipart(t *testing.T, fields [][2]string, files ...testFile) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	for _, kv := range fields {
		require.NoError(t, writer.WriteField(kv[0], kv[1]))
	}
	for _, f := range files {
		// CreatePart with an explicit Content-Type instead of CreateFormFile,
		// which defaults to application/octet-stream.
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.Field, f.Name))
		h.Set("Content-Type", f.ContentType)
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.Content))
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doRequest(router http.Handler, method, target, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	if body == nil {
		body = new(bytes.Buffer)
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sampleStoredProduct() *domain.Product {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	brand := "apple"
	return &domain.Product{
		ID:               1,
		Title:            "iphone 15 pro",
		Price:            129990,
		Brand:            &brand,
		TypeID:           2,
		SelectableValues: []string{"128", "256"},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ============================================================================
// POST /api/v1/products
// ============================================================================

func TestCreateProduct_Success(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	types.On("GetByID", mock.Anything, int64(2)).Return(&domain.ProductType{ID: 2, Title: "smartphones"}, nil)

	var created *domain.Product
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.Product)
			created.ID = 1
		}).
		Return(nil)

	body, contentType := buildMultipart(t,
		[][2]string{
			{"title", "iphone 15 pro"},
			{"price", "129990"},
			{"type_id", "2"},
			{"brand", "apple"},
			{"memory_amount", "256"},
			{"selectable_values", "128"},
			{"selectable_values", "256"},
			{"color", `{"title":"Natural Titanium","color_value":"#8A8D8F"}`},
			{"short_info", `[{"title":"Display","icon":"display","value":"6.1 inch"}]`},
		},
		testFile{Field: "files", Name: "front.jpg", ContentType: "image/jpeg", Content: "front bytes"},
		testFile{Field: "files", Name: "back.jpg", ContentType: "image/jpeg", Content: "back bytes"},
	)

	rec := doRequest(router, http.MethodPost, "/api/v1/products", contentType, body)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)

	require.NotNil(t, created)
	assert.Equal(t, "iphone 15 pro", created.Title)
	assert.Equal(t, []string{"128", "256"}, created.SelectableValues)
	require.Len(t, created.Images, 2)
	assert.Equal(t, "/uploads/1-front.jpg", created.Images[0].URL)
	assert.Equal(t, "/uploads/2-back.jpg", created.Images[1].URL)
	require.NotNil(t, created.Color)
	assert.Equal(t, "Natural Titanium", created.Color.Title)
	require.Len(t, created.ShortInfo, 1)
	assert.Equal(t, "6.1 inch", created.ShortInfo[0].Value)
	repo.AssertExpectations(t)
}

func TestCreateProduct_MissingTitle(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	body, contentType := buildMultipart(t, [][2]string{
		{"price", "1000"},
		{"type_id", "2"},
	})

	rec := doRequest(router, http.MethodPost, "/api/v1/products", contentType, body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "Title")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProduct_TypeNotFound_RemovesUploads(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, store := newTestRouter(repo, types)

	types.On("GetByID", mock.Anything, int64(99)).Return(nil, apperrors.NotFound("product type", 99))

	body, contentType := buildMultipart(t,
		[][2]string{
			{"title", "orphan"},
			{"price", "1000"},
			{"type_id", "99"},
		},
		testFile{Field: "files", Name: "front.jpg", ContentType: "image/jpeg", Content: "data"},
	)

	rec := doRequest(router, http.MethodPost, "/api/v1/products", contentType, body)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, store.Len())
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProduct_RejectsNonImageFile(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, store := newTestRouter(repo, types)

	types.On("GetByID", mock.Anything, int64(2)).Return(&domain.ProductType{ID: 2}, nil)

	body, contentType := buildMultipart(t,
		[][2]string{
			{"title", "iphone 15 pro"},
			{"price", "1000"},
			{"type_id", "2"},
		},
		testFile{Field: "files", Name: "notes.txt", ContentType: "text/plain", Content: "nope"},
	)

	rec := doRequest(router, http.MethodPost, "/api/v1/products", contentType, body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	assert.Equal(t, 0, store.Len())
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// ============================================================================
// GET /api/v1/products
// ============================================================================

func TestListProducts_ParsesFiltersAndPagination(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	var captured repository.ProductFilter
	image := "/uploads/1-front.jpg"
	items := []domain.ProductListItem{{ID: 1, Title: "iphone 15 pro", Price: 129990, Image: &image}}
	repo.On("List", mock.Anything, mock.AnythingOfType("repository.ProductFilter")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(repository.ProductFilter)
		}).
		Return(items, 45, nil)

	target := "/api/v1/products?type_id=2&brands=apple,samsung&memory_amounts=128&memory_amounts=256" +
		"&price_from=1000&price_to=200000&page=2&itemsPerPage=20"
	rec := doRequest(router, http.MethodGet, target, "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, captured.TypeID)
	assert.Equal(t, int64(2), *captured.TypeID)
	assert.Equal(t, []string{"apple", "samsung"}, captured.Brands)
	assert.Equal(t, []int64{128, 256}, captured.MemoryAmounts)
	require.NotNil(t, captured.PriceFrom)
	assert.Equal(t, int64(1000), *captured.PriceFrom)
	require.NotNil(t, captured.PriceTo)
	assert.Equal(t, int64(200000), *captured.PriceTo)
	assert.Equal(t, 2, captured.Page)
	assert.Equal(t, 20, captured.PerPage)

	var resp listResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 45, resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 20, resp.ItemsPerPage)
	assert.Equal(t, 3, resp.TotalPages)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "iphone 15 pro", resp.Data[0].Title)
}

func TestListProducts_InvalidTypeID(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	rec := doRequest(router, http.MethodGet, "/api/v1/products?type_id=abc", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

// ============================================================================
// GET /api/v1/products/{id}
// ============================================================================

func TestGetProduct_Success(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	repo.On("GetByID", mock.Anything, int64(1), repository.HydrateAll).Return(sampleStoredProduct(), nil)

	rec := doRequest(router, http.MethodGet, "/api/v1/products/1", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
}

func TestGetProduct_NotFound(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	repo.On("GetByID", mock.Anything, int64(42), repository.HydrateAll).
		Return(nil, apperrors.NotFound("product", 42))

	rec := doRequest(router, http.MethodGet, "/api/v1/products/42", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestGetProduct_InvalidID(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	rec := doRequest(router, http.MethodGet, "/api/v1/products/abc", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

// ============================================================================
// PUT /api/v1/products/{id}
// ============================================================================

func TestUpdateProduct_ClearImagesAndBrand(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	repo.On("GetByID", mock.Anything, int64(1), repository.HydrateNone).Return(sampleStoredProduct(), nil)

	var captured repository.ProductUpdate
	repo.On("Update", mock.Anything, mock.AnythingOfType("repository.ProductUpdate")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(repository.ProductUpdate)
		}).
		Return(nil)
	repo.On("GetByID", mock.Anything, int64(1), repository.HydrateAll).Return(sampleStoredProduct(), nil)

	body, contentType := buildMultipart(t, [][2]string{
		{"title", "iphone 15"},
		{"brand", ""},
		{"clear_images", "true"},
	})

	rec := doRequest(router, http.MethodPut, "/api/v1/products/1", contentType, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "iphone 15", captured.Product.Title)
	assert.Nil(t, captured.Product.Brand)
	assert.True(t, captured.Images.IsClear())
	assert.True(t, captured.Color.IsUnset())
	repo.AssertExpectations(t)
}

func TestUpdateProduct_UploadsReplacementImages(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	repo.On("GetByID", mock.Anything, int64(1), repository.HydrateNone).Return(sampleStoredProduct(), nil)

	var captured repository.ProductUpdate
	repo.On("Update", mock.Anything, mock.AnythingOfType("repository.ProductUpdate")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(repository.ProductUpdate)
		}).
		Return(nil)
	repo.On("GetByID", mock.Anything, int64(1), repository.HydrateAll).Return(sampleStoredProduct(), nil)

	body, contentType := buildMultipart(t, nil,
		testFile{Field: "files", Name: "new.jpg", ContentType: "image/jpeg", Content: "new bytes"},
	)

	rec := doRequest(router, http.MethodPut, "/api/v1/products/1", contentType, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	urls, ok := captured.Images.Value()
	require.True(t, ok)
	assert.Equal(t, []string{"/uploads/1-new.jpg"}, urls)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	repo.On("GetByID", mock.Anything, int64(42), repository.HydrateNone).
		Return(nil, apperrors.NotFound("product", 42))

	body, contentType := buildMultipart(t, [][2]string{{"title", "ghost"}})
	rec := doRequest(router, http.MethodPut, "/api/v1/products/42", contentType, body)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// ============================================================================
// DELETE /api/v1/products/{id}
// ============================================================================

func TestDeleteProduct_Success(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	repo.On("Delete", mock.Anything, int64(1)).Return(nil)

	rec := doRequest(router, http.MethodDelete, "/api/v1/products/1", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	repo.On("Delete", mock.Anything, int64(42)).Return(apperrors.NotFound("product", 42))

	rec := doRequest(router, http.MethodDelete, "/api/v1/products/42", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// Content type enforcement
// ============================================================================

func TestCreateProduct_UnsupportedContentType(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	body := bytes.NewBufferString("title=nope")
	rec := doRequest(router, http.MethodPost, "/api/v1/products", "application/x-www-form-urlencoded", body)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNSUPPORTED_MEDIA_TYPE", resp.Error.Code)
}
