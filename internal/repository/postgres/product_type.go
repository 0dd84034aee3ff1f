package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/catalog-service/internal/domain"
	"github.com/utafrali/catalog-service/pkg/database"
	apperrors "github.com/utafrali/catalog-service/pkg/errors"
)

// ProductTypeRepository implements repository.ProductTypeRepository using PostgreSQL.
type ProductTypeRepository struct {
	pool database.DBTX
}

// NewProductTypeRepository creates a new PostgreSQL-backed product type repository.
func NewProductTypeRepository(pool database.DBTX) *ProductTypeRepository {
	return &ProductTypeRepository{pool: pool}
}

// Create inserts a new product type and fills in the generated id.
func (r *ProductTypeRepository) Create(ctx context.Context, pt *domain.ProductType) error {
	query := `
		INSERT INTO product_types (title, icon_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query, pt.Title, pt.IconURL, pt.CreatedAt, pt.UpdatedAt).Scan(&pt.ID)
	if err != nil {
		return fmt.Errorf("insert product type: %w", err)
	}

	return nil
}

// GetByID retrieves a product type by its id.
func (r *ProductTypeRepository) GetByID(ctx context.Context, id int64) (*domain.ProductType, error) {
	var pt domain.ProductType
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, icon_url, created_at, updated_at FROM product_types WHERE id = $1`, id).
		Scan(&pt.ID, &pt.Title, &pt.IconURL, &pt.CreatedAt, &pt.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product type", id)
		}
		return nil, fmt.Errorf("scan product type: %w", err)
	}

	return &pt, nil
}

// List returns all product types ordered by id.
func (r *ProductTypeRepository) List(ctx context.Context) ([]domain.ProductType, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, icon_url, created_at, updated_at FROM product_types ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list product types: %w", err)
	}
	defer rows.Close()

	types := []domain.ProductType{}
	for rows.Next() {
		var pt domain.ProductType
		if err := rows.Scan(&pt.ID, &pt.Title, &pt.IconURL, &pt.CreatedAt, &pt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product type row: %w", err)
		}
		types = append(types, pt)
	}

	return types, rows.Err()
}

// Update modifies an existing product type.
func (r *ProductTypeRepository) Update(ctx context.Context, pt *domain.ProductType) error {
	query := `
		UPDATE product_types
		SET title = $1, icon_url = $2, updated_at = $3
		WHERE id = $4`

	ct, err := r.pool.Exec(ctx, query, pt.Title, pt.IconURL, pt.UpdatedAt, pt.ID)
	if err != nil {
		return fmt.Errorf("update product type: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product type", pt.ID)
	}

	return nil
}

// Delete removes a product type. Products still referencing it trip the FK
// restriction, which is surfaced as a conflict.
func (r *ProductTypeRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM product_types WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.Conflict("product type is referenced by existing products")
		}
		return fmt.Errorf("delete product type: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product type", id)
	}

	return nil
}

// DeleteCascade removes a product type together with its dependent products
// in one transaction. Product child rows are removed by the FK cascade.
func (r *ProductTypeRepository) DeleteCascade(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM products WHERE type_id = $1`, id); err != nil {
		return fmt.Errorf("delete products of type: %w", err)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM product_types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product type: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product type", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// CountProducts returns how many products reference the given type.
func (r *ProductTypeRepository) CountProducts(ctx context.Context, typeID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products WHERE type_id = $1`, typeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count products by type: %w", err)
	}
	return count, nil
}

// isForeignKeyViolation checks if the error is a PostgreSQL foreign key constraint violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23503")
}
