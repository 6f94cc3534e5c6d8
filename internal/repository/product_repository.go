package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/fixer-backend/internal/model"
)

const productColumns = `id, provider_id, category_id, name, sku, COALESCE(description, ''), price, stock,
	specifications, dimensions, is_active, created_at, updated_at`

func scanProduct(s scanner) (*model.Product, error) {
	var (
		p        model.Product
		category sql.NullString
		dims     []byte
	)
	err := s.Scan(&p.ID, &p.ProviderID, &category, &p.Name, &p.SKU, &p.Description, &p.Price, &p.Stock,
		&p.Specifications, &dims, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	p.CategoryID = stringPtr(category)
	if len(dims) > 0 {
		var d model.Dimensions
		if err := d.Scan(dims); err != nil {
			return nil, err
		}
		p.Dimensions = &d
	}
	return &p, nil
}

// CreateProduct inserts a product.  SKUs are unique across the catalogue;
// a clash returns ErrDuplicate.
func (q *Queries) CreateProduct(ctx context.Context, p *model.Product) error {
	const query = `INSERT INTO products
		(provider_id, category_id, name, sku, description, price, stock, specifications, dimensions, is_active)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8::jsonb, $9::jsonb, $10)
		RETURNING id, created_at, updated_at`
	err := q.db.QueryRowContext(ctx, query,
		p.ProviderID, nullable(p.CategoryID), p.Name, p.SKU, p.Description, p.Price, p.Stock,
		p.Specifications, nullable(p.Dimensions), p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err)
}

func (q *Queries) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return scanProduct(q.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

func (q *Queries) UpdateProduct(ctx context.Context, p *model.Product) error {
	const query = `UPDATE products
		SET category_id = $2, name = $3, sku = $4, description = NULLIF($5, ''), price = $6, stock = $7,
		    specifications = $8::jsonb, dimensions = $9::jsonb, is_active = $10, updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	err := q.db.QueryRowContext(ctx, query,
		p.ID, nullable(p.CategoryID), p.Name, p.SKU, p.Description, p.Price, p.Stock,
		p.Specifications, nullable(p.Dimensions), p.IsActive,
	).Scan(&p.UpdatedAt)
	return mapError(err)
}

func (q *Queries) DeleteProduct(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	return expectOne(res, err)
}

func (q *Queries) ListProducts(ctx context.Context, f model.ProductFilter, p model.Page) ([]model.Product, int64, error) {
	var w whereBuilder
	if f.ProviderID != "" {
		w.eq("provider_id", f.ProviderID)
	}
	if f.CategoryID != "" {
		w.eq("category_id", f.CategoryID)
	}
	if f.Search != "" {
		w.addf(`LOWER(name) LIKE $%d ESCAPE '\'`, likePattern(f.Search))
	}
	if f.ActiveOnly {
		w.raw("is_active")
	}

	var total int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+w.clause(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	suffix, args := w.page(p.Limit, p.Offset())
	rows, err := q.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products`+w.clause()+` ORDER BY name, id`+suffix, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Product, 0, p.Limit)
	for rows.Next() {
		pr, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *pr)
	}
	return out, total, rows.Err()
}
