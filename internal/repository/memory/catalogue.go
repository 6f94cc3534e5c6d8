package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/repository"
)

// errCheckViolation mirrors a failed table CHECK constraint.
var errCheckViolation = errors.New("check constraint violated")

func (v *view) CreateCategory(_ context.Context, c *model.Category) error {
	defer v.lock()()
	for _, existing := range v.db().categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return repository.ErrDuplicate
		}
	}
	c.ID = newID()
	c.CreatedAt = v.stamp()
	v.db().categories[c.ID] = *c
	return nil
}

func (v *view) GetCategory(_ context.Context, id string) (*model.Category, error) {
	defer v.lock()()
	c, ok := v.db().categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (v *view) ListCategories(_ context.Context) ([]model.Category, error) {
	defer v.lock()()
	out := make([]model.Category, 0, len(v.db().categories))
	for _, c := range v.db().categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (v *view) skuTaken(sku, exceptID string) bool {
	for id, p := range v.db().products {
		if id != exceptID && p.SKU == sku {
			return true
		}
	}
	return false
}

func (v *view) CreateProduct(_ context.Context, p *model.Product) error {
	defer v.lock()()
	if v.skuTaken(p.SKU, "") {
		return repository.ErrDuplicate
	}
	now := v.stamp()
	p.ID = newID()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Specifications == nil {
		p.Specifications = model.Specifications{}
	}
	v.db().products[p.ID] = *p
	return nil
}

func (v *view) GetProduct(_ context.Context, id string) (*model.Product, error) {
	defer v.lock()()
	p, ok := v.db().products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (v *view) UpdateProduct(_ context.Context, p *model.Product) error {
	defer v.lock()()
	cur, ok := v.db().products[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if v.skuTaken(p.SKU, p.ID) {
		return repository.ErrDuplicate
	}
	p.ProviderID = cur.ProviderID
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = v.stamp()
	v.db().products[p.ID] = *p
	return nil
}

func (v *view) DeleteProduct(_ context.Context, id string) error {
	defer v.lock()()
	if _, ok := v.db().products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(v.db().products, id)
	return nil
}

func (v *view) ListProducts(_ context.Context, f model.ProductFilter, p model.Page) ([]model.Product, int64, error) {
	defer v.lock()()
	var out []model.Product
	search := strings.ToLower(f.Search)
	for _, pr := range v.db().products {
		if f.ProviderID != "" && pr.ProviderID != f.ProviderID {
			continue
		}
		if f.CategoryID != "" && (pr.CategoryID == nil || *pr.CategoryID != f.CategoryID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(pr.Name), search) {
			continue
		}
		if f.ActiveOnly && !pr.IsActive {
			continue
		}
		out = append(out, pr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	items, total := paginate(out, p)
	return items, total, nil
}
