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

// ProductTypeService implements the business logic for product type operations.
type ProductTypeService struct {
	repo         repository.ProductTypeRepository
	producer     *event.Producer
	logger       *slog.Logger
	deletePolicy domain.TypeDeletePolicy
}

// NewProductTypeService creates a new product type service.
func NewProductTypeService(
	repo repository.ProductTypeRepository,
	producer *event.Producer,
	logger *slog.Logger,
	deletePolicy domain.TypeDeletePolicy,
) *ProductTypeService {
	return &ProductTypeService{
		repo:         repo,
		producer:     producer,
		logger:       logger,
		deletePolicy: deletePolicy,
	}
}

// CreateProductTypeInput holds the parameters for creating a product type.
// IconURL is the already-uploaded icon file URL, empty when no icon was sent.
type CreateProductTypeInput struct {
	Title   string
	IconURL string
}

// UpdateProductTypeInput holds the parameters for a partial type update.
type UpdateProductTypeInput struct {
	Title   *string
	IconURL *string
}

// CreateProductType validates and persists a new product type.
func (s *ProductTypeService) CreateProductType(ctx context.Context, input *CreateProductTypeInput) (*domain.ProductType, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("product type title is required")
	}

	now := time.Now().UTC()
	pt := &domain.ProductType{
		Title:     input.Title,
		IconURL:   input.IconURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, pt); err != nil {
		return nil, fmt.Errorf("create product type: %w", err)
	}

	if err := s.producer.PublishProductTypeCreated(ctx, pt); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product_type.created event",
			slog.Int64("product_type_id", pt.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product type created",
		slog.Int64("product_type_id", pt.ID),
		slog.String("title", pt.Title),
	)

	return pt, nil
}

// GetProductType retrieves a product type by id.
func (s *ProductTypeService) GetProductType(ctx context.Context, id int64) (*domain.ProductType, error) {
	pt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product type by id: %w", err)
	}
	return pt, nil
}

// ListProductTypes returns all product types ordered by id.
func (s *ProductTypeService) ListProductTypes(ctx context.Context) ([]domain.ProductType, error) {
	types, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list product types: %w", err)
	}
	return types, nil
}

// UpdateProductType merges the partial input into the stored type.
func (s *ProductTypeService) UpdateProductType(ctx context.Context, id int64, input *UpdateProductTypeInput) (*domain.ProductType, error) {
	pt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product type by id: %w", err)
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("product type title must not be empty")
		}
		pt.Title = *input.Title
	}
	if input.IconURL != nil {
		pt.IconURL = *input.IconURL
	}

	pt.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, pt); err != nil {
		return nil, fmt.Errorf("update product type: %w", err)
	}

	if err := s.producer.PublishProductTypeUpdated(ctx, pt); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product_type.updated event",
			slog.Int64("product_type_id", pt.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product type updated", slog.Int64("product_type_id", pt.ID))

	return pt, nil
}

// DeleteProductType removes a product type according to the configured
// delete policy: restrict rejects when products still reference the type,
// cascade removes the dependent products in the same transaction.
func (s *ProductTypeService) DeleteProductType(ctx context.Context, id int64) error {
	switch s.deletePolicy {
	case domain.TypeDeleteCascade:
		if err := s.repo.DeleteCascade(ctx, id); err != nil {
			return fmt.Errorf("delete product type cascade: %w", err)
		}
	default:
		count, err := s.repo.CountProducts(ctx, id)
		if err != nil {
			return fmt.Errorf("count products by type: %w", err)
		}
		if count > 0 {
			return apperrors.Conflict(fmt.Sprintf("product type is referenced by %d products", count))
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete product type: %w", err)
		}
	}

	if err := s.producer.PublishProductTypeDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product_type.deleted event",
			slog.Int64("product_type_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product type deleted", slog.Int64("product_type_id", id))

	return nil
}
