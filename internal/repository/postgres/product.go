package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oozye1/florist-sub000/internal/domain"
	"github.com/oozye1/florist-sub000/internal/repository"
	"github.com/oozye1/florist-sub000/pkg/database"
	apperrors "github.com/oozye1/florist-sub000/pkg/errors"
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, name, slug, description, category, tags, price, currency,
	   stock_quantity, image_urls, variants, is_active, created_at, updated_at`

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	tagsJSON, variantsJSON, imagesJSON, err := marshalProductFields(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (
			id, name, slug, description, category, tags, price, currency,
			stock_quantity, image_urls, variants, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Slug,
		p.Description,
		p.Category,
		tagsJSON,
		p.Price,
		p.Currency,
		p.StockQuantity,
		imagesJSON,
		variantsJSON,
		p.IsActive,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)
	return r.scanProduct(ctx, query, id)
}

// GetBySlug retrieves a product by its URL slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE slug = $1`, productColumns)
	return r.scanProduct(ctx, query, slug)
}

// List returns products matching the given filter with the total count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Category != nil {
		conditions = append(conditions, cond("category", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}
	if filter.Tag != nil {
		conditions = append(conditions, fmt.Sprintf("tags ? $%d", argIndex))
		args = append(args, *filter.Tag)
		argIndex++
	}
	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("name ILIKE '%%' || $%d || '%%'", argIndex))
		args = append(args, *filter.Search)
		argIndex++
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		productColumns, buildWhere(conditions), argIndex, argIndex+1,
	)

	limit, offset := pageArgs(filter.Page, filter.PerPage)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products   []domain.Product
		totalCount int
	)

	for rows.Next() {
		p, err := scanProductRow(rows, &totalCount)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}
	return products, totalCount, nil
}

// ListAll returns every product, newest first.
func (r *ProductRepository) ListAll(ctx context.Context) ([]domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products ORDER BY created_at DESC`, productColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProductRow(rows, nil)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// Update modifies an existing product in the database.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	tagsJSON, variantsJSON, imagesJSON, err := marshalProductFields(p)
	if err != nil {
		return err
	}

	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, slug = $2, description = $3, category = $4, tags = $5,
		    price = $6, currency = $7, stock_quantity = $8, image_urls = $9,
		    variants = $10, is_active = $11, updated_at = $12
		WHERE id = $13`

	ct, err := r.pool.Exec(ctx, query,
		p.Name,
		p.Slug,
		p.Description,
		p.Category,
		tagsJSON,
		p.Price,
		p.Currency,
		p.StockQuantity,
		imagesJSON,
		variantsJSON,
		p.IsActive,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	return nil
}

// AdjustStock atomically changes a product's stock by delta. The conditional
// guard keeps concurrent decrements from driving stock negative.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $1, updated_at = NOW()
		WHERE id = $2 AND stock_quantity + $1 >= 0`

	ct, err := r.pool.Exec(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("adjust product stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return apperrors.Conflict("insufficient stock")
	}

	return nil
}

func (r *ProductRepository) scanProduct(ctx context.Context, query string, arg any) (*domain.Product, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	p, err := scanProductFrom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProductFrom(row rowScanner) (*domain.Product, error) {
	var (
		p            domain.Product
		tagsJSON     []byte
		imagesJSON   []byte
		variantsJSON []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Category,
		&tagsJSON,
		&p.Price,
		&p.Currency,
		&p.StockQuantity,
		&imagesJSON,
		&variantsJSON,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalProductFields(&p, tagsJSON, imagesJSON, variantsJSON); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanProductRow(rows pgx.Rows, totalCount *int) (*domain.Product, error) {
	var (
		p            domain.Product
		tagsJSON     []byte
		imagesJSON   []byte
		variantsJSON []byte
	)
	dest := []any{
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Category,
		&tagsJSON,
		&p.Price,
		&p.Currency,
		&p.StockQuantity,
		&imagesJSON,
		&variantsJSON,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
	if totalCount != nil {
		dest = append(dest, totalCount)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan product row: %w", err)
	}
	if err := unmarshalProductFields(&p, tagsJSON, imagesJSON, variantsJSON); err != nil {
		return nil, err
	}
	return &p, nil
}

func marshalProductFields(p *domain.Product) (tags, variants, images []byte, err error) {
	tags, err = json.Marshal(p.Tags)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal tags: %w", err)
	}
	variants, err = json.Marshal(p.Variants)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal variants: %w", err)
	}
	images, err = json.Marshal(p.ImageURLs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal image_urls: %w", err)
	}
	return tags, variants, images, nil
}

func unmarshalProductFields(p *domain.Product, tagsJSON, imagesJSON, variantsJSON []byte) error {
	if tagsJSON != nil {
		if err := json.Unmarshal(tagsJSON, &p.Tags); err != nil {
			return fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	if imagesJSON != nil {
		if err := json.Unmarshal(imagesJSON, &p.ImageURLs); err != nil {
			return fmt.Errorf("unmarshal image_urls: %w", err)
		}
	}
	if variantsJSON != nil {
		if err := json.Unmarshal(variantsJSON, &p.Variants); err != nil {
			return fmt.Errorf("unmarshal variants: %w", err)
		}
	}
	return nil
}
