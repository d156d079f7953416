package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopscript/apiserver/types"
)

const productColumns = `id, name, description, price, image_url, stock, category, subcategory, details, sizes, size_prices, deleted, created_at, updated_at`

// ProductRepository handles persistence for products.
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns non-deleted products matching the filter and the total match count.
func (r *ProductRepository) List(ctx context.Context, filter types.ProductFilter) ([]types.Product, int, error) {
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}

	const where = `
		WHERE NOT deleted
		  AND ($1 = '' OR name ILIKE '%' || $1 || '%' ESCAPE '\')
		  AND ($2 = '' OR LOWER(category) = LOWER($2))`
	search := escapeLike(strings.TrimSpace(filter.Query))
	category := strings.TrimSpace(filter.Category)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM products`+where, search, category).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := `SELECT ` + productColumns + ` FROM products` + where + `
		ORDER BY id
		OFFSET $3 LIMIT $4`
	rows, err := r.db.QueryContext(ctx, listQuery, search, category, filter.Offset, filter.Limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := make([]types.Product, 0, filter.Limit)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// Get returns a product by id, including soft-deleted ones.
func (r *ProductRepository) Get(ctx context.Context, id int) (types.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProduct(r.db.QueryRowContext(ctx, query, id))
}

func (r *ProductRepository) Create(ctx context.Context, product types.Product) (types.Product, error) {
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	sizesJSON, sizePricesJSON, err := marshalSizes(product)
	if err != nil {
		return types.Product{}, err
	}

	const query = `
		INSERT INTO products (name, description, price, image_url, stock, category, subcategory, details, sizes, size_prices, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE, $11, $12)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		product.Name,
		product.Description,
		product.Price,
		product.ImageURL,
		product.Stock,
		product.Category,
		product.Subcategory,
		product.Details,
		sizesJSON,
		sizePricesJSON,
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&product.ID); err != nil {
		return types.Product{}, err
	}
	product.Deleted = false

	return product, nil
}

// Update replaces the editable fields of a non-deleted product.
func (r *ProductRepository) Update(ctx context.Context, product types.Product) (types.Product, error) {
	product.UpdatedAt = time.Now()

	sizesJSON, sizePricesJSON, err := marshalSizes(product)
	if err != nil {
		return types.Product{}, err
	}

	query := `
		UPDATE products
		SET name = $1,
			description = $2,
			price = $3,
			image_url = $4,
			stock = $5,
			category = $6,
			subcategory = $7,
			details = $8,
			sizes = $9,
			size_prices = $10,
			updated_at = $11
		WHERE id = $12 AND NOT deleted
		RETURNING ` + productColumns
	updated, err := scanProduct(r.db.QueryRowContext(
		ctx,
		query,
		product.Name,
		product.Description,
		product.Price,
		product.ImageURL,
		product.Stock,
		product.Category,
		product.Subcategory,
		product.Details,
		sizesJSON,
		sizePricesJSON,
		product.UpdatedAt,
		product.ID,
	))
	if err != nil {
		return types.Product{}, err
	}
	return updated, nil
}

// SoftDelete hides a product from the storefront while keeping order history intact.
func (r *ProductRepository) SoftDelete(ctx context.Context, id int) error {
	const query = `UPDATE products SET deleted = TRUE, updated_at = $1 WHERE id = $2 AND NOT deleted`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalSizes(product types.Product) ([]byte, []byte, error) {
	sizes := product.Sizes
	if sizes == nil {
		sizes = []string{}
	}
	sizePrices := product.SizePrices
	if sizePrices == nil {
		sizePrices = map[string]float64{}
	}
	sizesJSON, err := json.Marshal(sizes)
	if err != nil {
		return nil, nil, err
	}
	sizePricesJSON, err := json.Marshal(sizePrices)
	if err != nil {
		return nil, nil, err
	}
	return sizesJSON, sizePricesJSON, nil
}

func scanProduct(row rowScanner) (types.Product, error) {
	var product types.Product
	var sizesJSON, sizePricesJSON []byte
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.ImageURL,
		&product.Stock,
		&product.Category,
		&product.Subcategory,
		&product.Details,
		&sizesJSON,
		&sizePricesJSON,
		&product.Deleted,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Product{}, ErrNotFound
		}
		return types.Product{}, err
	}

	if len(sizesJSON) > 0 {
		if err := json.Unmarshal(sizesJSON, &product.Sizes); err != nil {
			return types.Product{}, fmt.Errorf("decode sizes of product %d: %w", product.ID, err)
		}
	}
	if len(sizePricesJSON) > 0 {
		if err := json.Unmarshal(sizePricesJSON, &product.SizePrices); err != nil {
			return types.Product{}, fmt.Errorf("decode size prices of product %d: %w", product.ID, err)
		}
	}
	return product, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
