package repository

import (
	"context"

	"github.com/iliyamo/fixer-backend/internal/model"
)

// CreateCategory inserts a category; duplicate names return ErrDuplicate.
func (q *Queries) CreateCategory(ctx context.Context, c *model.Category) error {
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO categories (name, description) VALUES ($1, NULLIF($2, '')) RETURNING id, created_at`,
		c.Name, c.Description).Scan(&c.ID, &c.CreatedAt)
	return mapError(err)
}

func (q *Queries) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(description, ''), created_at FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// ListCategories returns every category ordered by name.
func (q *Queries) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, name, COALESCE(description, ''), created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
