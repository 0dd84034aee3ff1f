package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog-service/internal/domain"
	apperrors "github.com/utafrali/catalog-service/pkg/errors"
)

// ============================================================================
// POST /api/v1/product-types
// ============================================================================

func TestCreateProductType_WithIcon(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, store := newTestRouter(repo, types)

	var created *domain.ProductType
	types.On("Create", mock.Anything, mock.AnythingOfType("*domain.ProductType")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.ProductType)
			created.ID = 2
		}).
		Return(nil)

	body, contentType := buildMultipart(t,
		[][2]string{{"title", "smartphones"}},
		testFile{Field: "file", Name: "icon.png", ContentType: "image/png", Content: "icon bytes"},
	)

	rec := doRequest(router, http.MethodPost, "/api/v1/product-types", contentType, body)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, created)
	assert.Equal(t, "smartphones", created.Title)
	assert.Equal(t, "/uploads/1-icon.png", created.IconURL)
	assert.Equal(t, 1, store.Len())
	types.AssertExpectations(t)
}

func TestCreateProductType_WithoutIcon(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, store := newTestRouter(repo, types)

	types.On("Create", mock.Anything, mock.AnythingOfType("*domain.ProductType")).Return(nil)

	body, contentType := buildMultipart(t, [][2]string{{"title", "laptops"}})
	rec := doRequest(router, http.MethodPost, "/api/v1/product-types", contentType, body)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 0, store.Len())
}

func TestCreateProductType_MissingTitle(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	body, contentType := buildMultipart(t, nil)
	rec := doRequest(router, http.MethodPost, "/api/v1/product-types", contentType, body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	types.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// ============================================================================
// GET /api/v1/product-types
// ============================================================================

func TestListProductTypes_Handler(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	types.On("List", mock.Anything).Return([]domain.ProductType{
		{ID: 1, Title: "laptops"},
		{ID: 2, Title: "smartphones"},
	}, nil)

	rec := doRequest(router, http.MethodGet, "/api/v1/product-types", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	require.NotNil(t, resp.Data)
	assert.Len(t, resp.Data, 2)
}

// ============================================================================
// PUT /api/v1/product-types/{id}
// ============================================================================

func TestUpdateProductType_TitleOnly(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	current := &domain.ProductType{ID: 2, Title: "old", IconURL: "/uploads/old.png"}
	types.On("GetByID", mock.Anything, int64(2)).Return(current, nil)

	var updated *domain.ProductType
	types.On("Update", mock.Anything, mock.AnythingOfType("*domain.ProductType")).
		Run(func(args mock.Arguments) {
			updated = args.Get(1).(*domain.ProductType)
		}).
		Return(nil)

	body, contentType := buildMultipart(t, [][2]string{{"title", "smartphones"}})
	rec := doRequest(router, http.MethodPut, "/api/v1/product-types/2", contentType, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, updated)
	assert.Equal(t, "smartphones", updated.Title)
	assert.Equal(t, "/uploads/old.png", updated.IconURL)
}

func TestUpdateProductType_ReplacesIcon(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	current := &domain.ProductType{ID: 2, Title: "smartphones", IconURL: "/uploads/old.png"}
	types.On("GetByID", mock.Anything, int64(2)).Return(current, nil)

	var updated *domain.ProductType
	types.On("Update", mock.Anything, mock.AnythingOfType("*domain.ProductType")).
		Run(func(args mock.Arguments) {
			updated = args.Get(1).(*domain.ProductType)
		}).
		Return(nil)

	body, contentType := buildMultipart(t, nil,
		testFile{Field: "file", Name: "new-icon.png", ContentType: "image/png", Content: "icon"},
	)
	rec := doRequest(router, http.MethodPut, "/api/v1/product-types/2", contentType, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, updated)
	assert.Equal(t, "/uploads/1-new-icon.png", updated.IconURL)
}

func TestUpdateProductType_NotFoundHandler(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	types.On("GetByID", mock.Anything, int64(99)).Return(nil, apperrors.NotFound("product type", 99))

	body, contentType := buildMultipart(t, [][2]string{{"title", "ghost"}})
	rec := doRequest(router, http.MethodPut, "/api/v1/product-types/99", contentType, body)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	types.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// ============================================================================
// DELETE /api/v1/product-types/{id}
// ============================================================================

func TestDeleteProductType_Referenced(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	types.On("CountProducts", mock.Anything, int64(2)).Return(7, nil)

	rec := doRequest(router, http.MethodDelete, "/api/v1/product-types/2", "", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CONFLICT", resp.Error.Code)
	types.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteProductType_SuccessHandler(t *testing.T) {
	repo := new(mockProductRepository)
	types := new(mockProductTypeRepository)
	router, _ := newTestRouter(repo, types)

	types.On("CountProducts", mock.Anything, int64(2)).Return(0, nil)
	types.On("Delete", mock.Anything, int64(2)).Return(nil)

	rec := doRequest(router, http.MethodDelete, "/api/v1/product-types/2", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	types.AssertExpectations(t)
}
