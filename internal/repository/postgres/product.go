package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/catalog-service/internal/domain"
	"github.com/utafrali/catalog-service/internal/repository"
	"github.com/utafrali/catalog-service/pkg/database"
	apperrors "github.com/utafrali/catalog-service/pkg/errors"
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, title, price, brand, memory_amount, type_id, selectable_values, created_at, updated_at`

// Create inserts a product and its child rows atomically, filling in the
// generated identifiers on the passed product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO products (title, price, brand, memory_amount, type_id, selectable_values, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err = tx.QueryRow(ctx, query,
		p.Title,
		p.Price,
		p.Brand,
		p.MemoryAmount,
		p.TypeID,
		p.SelectableValues,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	images, err := insertImages(ctx, tx, p.ID, imageURLs(p.Images))
	if err != nil {
		return err
	}
	p.Images = images

	if p.Color != nil {
		if err := insertColor(ctx, tx, p.ID, p.Color); err != nil {
			return err
		}
	}

	if err := insertShortInfo(ctx, tx, p.ID, p.ShortInfo); err != nil {
		return err
	}

	if err := insertAdditionalInfo(ctx, tx, p.ID, p.AdditionalInfo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a product by id with the requested hydration.
func (r *ProductRepository) GetByID(ctx context.Context, id int64, hydration repository.Hydration) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	var p domain.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Title,
		&p.Price,
		&p.Brand,
		&p.MemoryAmount,
		&p.TypeID,
		&p.SelectableValues,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	if p.SelectableValues == nil {
		p.SelectableValues = []string{}
	}

	if hydration.Has(repository.HydrateImages) {
		if p.Images, err = r.loadImages(ctx, id); err != nil {
			return nil, err
		}
	}
	if hydration.Has(repository.HydrateColor) {
		if p.Color, err = r.loadColor(ctx, id); err != nil {
			return nil, err
		}
	}
	if hydration.Has(repository.HydrateShortInfo) {
		if p.ShortInfo, err = r.loadShortInfo(ctx, id); err != nil {
			return nil, err
		}
	}
	if hydration.Has(repository.HydrateAdditionalInfo) {
		if p.AdditionalInfo, err = r.loadAdditionalInfo(ctx, id); err != nil {
			return nil, err
		}
	}
	if hydration.Has(repository.HydrateType) {
		if p.Type, err = r.loadType(ctx, p.TypeID); err != nil {
			return nil, err
		}
	}

	return &p, nil
}

// List returns the listing projection for products matching the filter along
// with the total filtered count. The count runs as a separate query with the
// same predicate so it stays correct for pages past the last one.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.ProductListItem, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.TypeID != nil {
		conditions = append(conditions, fmt.Sprintf("type_id = $%d", argIndex))
		args = append(args, *filter.TypeID)
		argIndex++
	}

	if len(filter.Brands) > 0 {
		conditions = append(conditions, fmt.Sprintf("brand = ANY($%d)", argIndex))
		args = append(args, filter.Brands)
		argIndex++
	}

	if len(filter.MemoryAmounts) > 0 {
		conditions = append(conditions, fmt.Sprintf("memory_amount = ANY($%d)", argIndex))
		args = append(args, filter.MemoryAmounts)
		argIndex++
	}

	if filter.PriceFrom != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, *filter.PriceFrom)
		argIndex++
	}

	if filter.PriceTo != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", argIndex))
		args = append(args, *filter.PriceTo)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT count(*) FROM products %s`, whereClause)

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.title, p.price,
			   (SELECT pi.url FROM product_images pi WHERE pi.product_id = p.id ORDER BY pi.id ASC LIMIT 1) AS image
		FROM products p
		%s
		ORDER BY p.id ASC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 10
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var items []domain.ProductListItem
	for rows.Next() {
		var item domain.ProductListItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Price, &item.Image); err != nil {
			return nil, 0, fmt.Errorf("scan product list row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if items == nil {
		items = []domain.ProductListItem{}
	}

	return items, total, nil
}

// Update writes the merged product row and applies the child patches within
// a single transaction.
func (r *ProductRepository) Update(ctx context.Context, upd repository.ProductUpdate) error {
	p := upd.Product

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE products
		SET title = $1, price = $2, brand = $3, memory_amount = $4, type_id = $5,
		    selectable_values = $6, updated_at = $7
		WHERE id = $8`

	ct, err := tx.Exec(ctx, query,
		p.Title,
		p.Price,
		p.Brand,
		p.MemoryAmount,
		p.TypeID,
		p.SelectableValues,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	if !upd.Images.IsUnset() {
		if _, err := tx.Exec(ctx, `DELETE FROM product_images WHERE product_id = $1`, p.ID); err != nil {
			return fmt.Errorf("delete product images: %w", err)
		}
		if urls, ok := upd.Images.Value(); ok {
			images, err := insertImages(ctx, tx, p.ID, urls)
			if err != nil {
				return err
			}
			p.Images = images
		} else {
			p.Images = []domain.ProductImage{}
		}
	}

	if !upd.Color.IsUnset() {
		if _, err := tx.Exec(ctx, `DELETE FROM product_colors WHERE product_id = $1`, p.ID); err != nil {
			return fmt.Errorf("delete product color: %w", err)
		}
		if color, ok := upd.Color.Value(); ok {
			if err := insertColor(ctx, tx, p.ID, &color); err != nil {
				return err
			}
			p.Color = &color
		} else {
			p.Color = nil
		}
	}

	if !upd.ShortInfo.IsUnset() {
		if _, err := tx.Exec(ctx, `DELETE FROM product_short_info WHERE product_id = $1`, p.ID); err != nil {
			return fmt.Errorf("delete product short info: %w", err)
		}
		items, _ := upd.ShortInfo.Value()
		if err := insertShortInfo(ctx, tx, p.ID, items); err != nil {
			return err
		}
		p.ShortInfo = items
	}

	if !upd.AdditionalInfo.IsUnset() {
		if _, err := tx.Exec(ctx, `DELETE FROM product_additional_info WHERE product_id = $1`, p.ID); err != nil {
			return fmt.Errorf("delete product additional info: %w", err)
		}
		items, _ := upd.AdditionalInfo.Value()
		if err := insertAdditionalInfo(ctx, tx, p.ID, items); err != nil {
			return err
		}
		p.AdditionalInfo = items
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Delete removes a product by id. Child rows are removed by the FK cascade.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

func (r *ProductRepository) loadImages(ctx context.Context, productID int64) ([]domain.ProductImage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, url FROM product_images WHERE product_id = $1 ORDER BY id ASC`, productID)
	if err != nil {
		return nil, fmt.Errorf("load product images: %w", err)
	}
	defer rows.Close()

	images := []domain.ProductImage{}
	for rows.Next() {
		var img domain.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL); err != nil {
			return nil, fmt.Errorf("scan product image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *ProductRepository) loadColor(ctx context.Context, productID int64) (*domain.Color, error) {
	var c domain.Color
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, color_value FROM product_colors WHERE product_id = $1`, productID).
		Scan(&c.ID, &c.Title, &c.ColorValue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load product color: %w", err)
	}
	return &c, nil
}

func (r *ProductRepository) loadShortInfo(ctx context.Context, productID int64) ([]domain.ShortInfoItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, icon, value FROM product_short_info WHERE product_id = $1 ORDER BY id ASC`, productID)
	if err != nil {
		return nil, fmt.Errorf("load short info: %w", err)
	}
	defer rows.Close()

	items := []domain.ShortInfoItem{}
	for rows.Next() {
		var item domain.ShortInfoItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Icon, &item.Value); err != nil {
			return nil, fmt.Errorf("scan short info item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *ProductRepository) loadAdditionalInfo(ctx context.Context, productID int64) ([]domain.AdditionalInfoItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, value FROM product_additional_info WHERE product_id = $1 ORDER BY id ASC`, productID)
	if err != nil {
		return nil, fmt.Errorf("load additional info: %w", err)
	}
	defer rows.Close()

	items := []domain.AdditionalInfoItem{}
	for rows.Next() {
		var item domain.AdditionalInfoItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Value); err != nil {
			return nil, fmt.Errorf("scan additional info item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *ProductRepository) loadType(ctx context.Context, typeID int64) (*domain.ProductType, error) {
	var pt domain.ProductType
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, icon_url, created_at, updated_at FROM product_types WHERE id = $1`, typeID).
		Scan(&pt.ID, &pt.Title, &pt.IconURL, &pt.CreatedAt, &pt.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product type", typeID)
		}
		return nil, fmt.Errorf("load product type: %w", err)
	}
	return &pt, nil
}

func imageURLs(images []domain.ProductImage) []string {
	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, img.URL)
	}
	return urls
}

func insertImages(ctx context.Context, tx pgx.Tx, productID int64, urls []string) ([]domain.ProductImage, error) {
	images := make([]domain.ProductImage, 0, len(urls))
	for _, url := range urls {
		var img domain.ProductImage
		err := tx.QueryRow(ctx,
			`INSERT INTO product_images (product_id, url) VALUES ($1, $2) RETURNING id`,
			productID, url,
		).Scan(&img.ID)
		if err != nil {
			return nil, fmt.Errorf("insert product image: %w", err)
		}
		img.ProductID = productID
		img.URL = url
		images = append(images, img)
	}
	return images, nil
}

func insertColor(ctx context.Context, tx pgx.Tx, productID int64, c *domain.Color) error {
	err := tx.QueryRow(ctx,
		`INSERT INTO product_colors (product_id, title, color_value) VALUES ($1, $2, $3) RETURNING id`,
		productID, c.Title, c.ColorValue,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert product color: %w", err)
	}
	return nil
}

func insertShortInfo(ctx context.Context, tx pgx.Tx, productID int64, items []domain.ShortInfoItem) error {
	for i := range items {
		err := tx.QueryRow(ctx,
			`INSERT INTO product_short_info (product_id, title, icon, value) VALUES ($1, $2, $3, $4) RETURNING id`,
			productID, items[i].Title, items[i].Icon, items[i].Value,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("insert short info item: %w", err)
		}
	}
	return nil
}

func insertAdditionalInfo(ctx context.Context, tx pgx.Tx, productID int64, items []domain.AdditionalInfoItem) error {
	for i := range items {
		err := tx.QueryRow(ctx,
			`INSERT INTO product_additional_info (product_id, title, value) VALUES ($1, $2, $3) RETURNING id`,
			productID, items[i].Title, items[i].Value,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("insert additional info item: %w", err)
		}
	}
	return nil
}
