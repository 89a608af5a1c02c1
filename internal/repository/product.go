package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/storefront/storefront/internal/model"
)

// ErrProductNotFound is returned when no product matches the given ID.
var ErrProductNotFound = errors.New("product not found")

const productColumns = `id, name, image, category, new_price, old_price, date, available`

// CreateProduct appends a product and sets its store-assigned ID.
func (r *Repository) CreateProduct(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (name, image, category, new_price, old_price, date, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		p.Name,
		p.Image,
		p.Category,
		p.NewPrice,
		p.OldPrice,
		p.Date,
		p.Available,
	).Scan(&p.ID)
	if err != nil {
		return wrapErr("failed to create product", err)
	}
	return nil
}

// GetProductByID retrieves a product by its ID.
func (r *Repository) GetProductByID(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, wrapErr("failed to get product", err)
	}
	return p, nil
}

// DeleteProduct removes a product and returns what was deleted.
func (r *Repository) DeleteProduct(ctx context.Context, id int64) (*model.Product, error) {
	query := `DELETE FROM products WHERE id = $1 RETURNING ` + productColumns

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, wrapErr("failed to delete product", err)
	}
	return p, nil
}

// ListProducts returns every product in ID order.
func (r *Repository) ListProducts(ctx context.Context) ([]*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id`
	return r.queryProducts(ctx, "failed to list products", query)
}

// ListNewCollection returns up to limit of the most recent products,
// skipping the very first product ever added, ordered oldest first.
func (r *Repository) ListNewCollection(ctx context.Context, limit int) ([]*model.Product, error) {
	query := `
		SELECT ` + productColumns + ` FROM (
			SELECT ` + productColumns + `
			FROM products
			WHERE id > (SELECT min(id) FROM products)
			ORDER BY id DESC
			LIMIT $1
		) recent
		ORDER BY id
	`
	return r.queryProducts(ctx, "failed to list new collection", query, limit)
}

// ListProductsByCategory returns up to limit products of a category in ID order.
func (r *Repository) ListProductsByCategory(ctx context.Context, category string, limit int) ([]*model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE category = $1
		ORDER BY id
		LIMIT $2
	`
	return r.queryProducts(ctx, "failed to list products by category", query, category, limit)
}

func (r *Repository) queryProducts(ctx context.Context, op, query string, args ...any) ([]*model.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	products := make([]*model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return products, nil
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Image,
		&p.Category,
		&p.NewPrice,
		&p.OldPrice,
		&p.Date,
		&p.Available,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
