package repository

import (
	"context"

	"github.com/utafrali/catalog-service/internal/domain"
)

// Hydration selects which child sets GetByID loads alongside the product row.
type Hydration uint8

const (
	HydrateImages Hydration = 1 << iota
	HydrateColor
	HydrateShortInfo
	HydrateAdditionalInfo
	HydrateType

	HydrateNone Hydration = 0
	HydrateAll            = HydrateImages | HydrateColor | HydrateShortInfo | HydrateAdditionalInfo | HydrateType
)

// Has reports whether the given flag is part of the hydration set.
func (h Hydration) Has(flag Hydration) bool {
	return h&flag != 0
}

// ProductFilter defines filter criteria for listing products. Nil and empty
// fields impose no constraint; all present constraints are combined with AND,
// while slice fields match any of their values.
type ProductFilter struct {
	TypeID        *int64
	Brands        []string
	MemoryAmounts []int64
	PriceFrom     *int64
	PriceTo       *int64
	Page          int
	PerPage       int
}

// ProductUpdate carries the merged product row together with three-state
// patches for its child sets. An unset patch leaves the child rows untouched;
// Set replaces them wholesale; Clear deletes them.
type ProductUpdate struct {
	Product        *domain.Product
	Images         domain.Patch[[]string]
	Color          domain.Patch[domain.Color]
	ShortInfo      domain.Patch[[]domain.ShortInfoItem]
	AdditionalInfo domain.Patch[[]domain.AdditionalInfoItem]
}

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create inserts a product with all of its child rows atomically and
	// fills in the generated identifiers.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by id, loading the child sets named by
	// the hydration mask.
	GetByID(ctx context.Context, id int64, hydration Hydration) (*domain.Product, error)

	// List returns the listing projection for products matching the filter
	// along with the total filtered count. The count is computed with the
	// same predicate independently of pagination.
	List(ctx context.Context, filter ProductFilter) ([]domain.ProductListItem, int, error)

	// Update writes the merged product row and applies the child patches
	// within a single transaction.
	Update(ctx context.Context, upd ProductUpdate) error

	// Delete removes a product; child rows go with it via FK cascade.
	Delete(ctx context.Context, id int64) error
}

// ProductTypeRepository defines the interface for product type persistence.
type ProductTypeRepository interface {
	// Create inserts a product type and fills in the generated id.
	Create(ctx context.Context, pt *domain.ProductType) error

	// GetByID retrieves a product type by id.
	GetByID(ctx context.Context, id int64) (*domain.ProductType, error)

	// List returns all product types ordered by id.
	List(ctx context.Context) ([]domain.ProductType, error)

	// Update modifies an existing product type.
	Update(ctx context.Context, pt *domain.ProductType) error

	// Delete removes a product type. A FK violation from still-referencing
	// products surfaces as a conflict.
	Delete(ctx context.Context, id int64) error

	// DeleteCascade removes a product type together with its products and
	// their child rows in one transaction.
	DeleteCascade(ctx context.Context, id int64) error

	// CountProducts returns how many products reference the given type.
	CountProducts(ctx context.Context, typeID int64) (int, error)
}
