package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/catalog-service/internal/domain"
	"github.com/utafrali/catalog-service/internal/event"
	"github.com/utafrali/catalog-service/internal/repository"
	apperrors "github.com/utafrali/catalog-service/pkg/errors"
)

// ProductService implements the business logic for product operations.
type ProductService struct {
	repo     repository.ProductRepository
	types    repository.ProductTypeRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	repo repository.ProductRepository,
	types repository.ProductTypeRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		repo:     repo,
		types:    types,
		producer: producer,
		logger:   logger,
	}
}

// ColorInput holds a product color attribute.
type ColorInput struct {
	Title      string `json:"title" validate:"required"`
	ColorValue string `json:"color_value" validate:"required"`
}

// ShortInfoInput holds one short specification line.
type ShortInfoInput struct {
	Title string `json:"title" validate:"required"`
	Icon  string `json:"icon"`
	Value string `json:"value" validate:"required"`
}

// AdditionalInfoInput holds one extended specification line.
type AdditionalInfoInput struct {
	Title string `json:"title" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// CreateProductInput holds the parameters for creating a product. ImageURLs
// are the already-uploaded file URLs in upload order.
type CreateProductInput struct {
	Title            string
	Price            int64
	Brand            *string
	MemoryAmount     *int64
	TypeID           int64
	SelectableValues []string
	ImageURLs        []string
	Color            *ColorInput
	ShortInfo        []ShortInfoInput
	AdditionalInfo   []AdditionalInfoInput
}

// UpdateProductInput holds the parameters for a partial product update.
// Pointer fields merge when non-nil; Patch fields distinguish "leave alone"
// from "clear" from "replace".
type UpdateProductInput struct {
	Title            *string
	Price            *int64
	TypeID           *int64
	Brand            domain.Patch[string]
	MemoryAmount     domain.Patch[int64]
	SelectableValues domain.Patch[[]string]
	Images           domain.Patch[[]string]
	Color            domain.Patch[ColorInput]
	ShortInfo        domain.Patch[[]ShortInfoInput]
	AdditionalInfo   domain.Patch[[]AdditionalInfoInput]
}

// CreateProduct validates the input, verifies the referenced product type
// exists, and persists the product with all child rows atomically.
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("product title is required")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if input.TypeID <= 0 {
		return nil, apperrors.InvalidInput("type id is required")
	}

	// The type check runs before any write so a dangling type id aborts cleanly.
	if _, err := s.types.GetByID(ctx, input.TypeID); err != nil {
		return nil, fmt.Errorf("resolve product type: %w", err)
	}

	now := time.Now().UTC()
	product := &domain.Product{
		Title:            input.Title,
		Price:            input.Price,
		Brand:            input.Brand,
		MemoryAmount:     input.MemoryAmount,
		TypeID:           input.TypeID,
		SelectableValues: input.SelectableValues,
		Images:           imagesFromURLs(input.ImageURLs),
		ShortInfo:        shortInfoFromInput(input.ShortInfo),
		AdditionalInfo:   additionalInfoFromInput(input.AdditionalInfo),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if input.Color != nil {
		product.Color = &domain.Color{Title: input.Color.Title, ColorValue: input.Color.ColorValue}
	}
	if product.SelectableValues == nil {
		product.SelectableValues = []string{}
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.Int64("product_id", product.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", product.ID),
		slog.String("title", product.Title),
	)

	return product, nil
}

// GetProduct retrieves a product with its full child graph.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id, repository.HydrateAll)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// ListProducts returns the listing projection with the total filtered count.
// Pagination values outside the allowed range fall back to defaults.
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.ProductListItem, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 10
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return items, total, nil
}

// UpdateProduct loads the product, merges the partial input, re-resolves the
// type when it changes, and writes everything in one transaction. It returns
// the fully hydrated product after the update.
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, input *UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id, repository.HydrateNone)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("product title must not be empty")
		}
		product.Title = *input.Title
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, apperrors.InvalidInput("price must not be negative")
		}
		product.Price = *input.Price
	}
	if input.TypeID != nil && *input.TypeID != product.TypeID {
		if _, err := s.types.GetByID(ctx, *input.TypeID); err != nil {
			return nil, fmt.Errorf("resolve product type: %w", err)
		}
		product.TypeID = *input.TypeID
	}

	product.Brand = input.Brand.ApplyPtr(product.Brand)
	product.MemoryAmount = input.MemoryAmount.ApplyPtr(product.MemoryAmount)

	if values, ok := input.SelectableValues.Value(); ok {
		product.SelectableValues = values
	} else if input.SelectableValues.IsClear() {
		product.SelectableValues = []string{}
	}

	product.UpdatedAt = time.Now().UTC()

	upd := repository.ProductUpdate{
		Product:        product,
		Images:         input.Images,
		Color:          convertColorPatch(input.Color),
		ShortInfo:      convertShortInfoPatch(input.ShortInfo),
		AdditionalInfo: convertAdditionalInfoPatch(input.AdditionalInfo),
	}

	if err := s.repo.Update(ctx, upd); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	updated, err := s.repo.GetByID(ctx, id, repository.HydrateAll)
	if err != nil {
		return nil, fmt.Errorf("reload product: %w", err)
	}

	if err := s.producer.PublishProductUpdated(ctx, updated); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated", slog.Int64("product_id", id))

	return updated, nil
}

// DeleteProduct removes a product and its child rows.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted", slog.Int64("product_id", id))

	return nil
}

func imagesFromURLs(urls []string) []domain.ProductImage {
	images := make([]domain.ProductImage, 0, len(urls))
	for _, url := range urls {
		images = append(images, domain.ProductImage{URL: url})
	}
	return images
}

func shortInfoFromInput(items []ShortInfoInput) []domain.ShortInfoItem {
	result := make([]domain.ShortInfoItem, 0, len(items))
	for _, item := range items {
		result = append(result, domain.ShortInfoItem{Title: item.Title, Icon: item.Icon, Value: item.Value})
	}
	return result
}

func additionalInfoFromInput(items []AdditionalInfoInput) []domain.AdditionalInfoItem {
	result := make([]domain.AdditionalInfoItem, 0, len(items))
	for _, item := range items {
		result = append(result, domain.AdditionalInfoItem{Title: item.Title, Value: item.Value})
	}
	return result
}

func convertColorPatch(p domain.Patch[ColorInput]) domain.Patch[domain.Color] {
	if c, ok := p.Value(); ok {
		return domain.Set(domain.Color{Title: c.Title, ColorValue: c.ColorValue})
	}
	if p.IsClear() {
		return domain.Clear[domain.Color]()
	}
	return domain.Patch[domain.Color]{}
}

func convertShortInfoPatch(p domain.Patch[[]ShortInfoInput]) domain.Patch[[]domain.ShortInfoItem] {
	if items, ok := p.Value(); ok {
		return domain.Set(shortInfoFromInput(items))
	}
	if p.IsClear() {
		return domain.Clear[[]domain.ShortInfoItem]()
	}
	return domain.Patch[[]domain.ShortInfoItem]{}
}

func convertAdditionalInfoPatch(p domain.Patch[[]AdditionalInfoInput]) domain.Patch[[]domain.AdditionalInfoItem] {
	if items, ok := p.Value(); ok {
		return domain.Set(additionalInfoFromInput(items))
	}
	if p.IsClear() {
		return domain.Clear[[]domain.AdditionalInfoItem]()
	}
	return domain.Patch[[]domain.AdditionalInfoItem]{}
}
