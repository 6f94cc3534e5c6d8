package service

import (
	"context"
	"errors"

	"github.com/iliyamo/fixer-backend/internal/apperror"
	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/repository"
)

// CategoryInput is the body of a category create request.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// ProductInput is the body used to create or replace a product.
type ProductInput struct {
	CategoryID     *string              `json:"category_id" validate:"omitempty,uuid"`
	Name           string               `json:"name" validate:"required,max=255"`
	SKU            string               `json:"sku" validate:"required,max=100"`
	Description    string               `json:"description" validate:"max=5000"`
	Price          float64              `json:"price" validate:"gte=0"`
	Stock          int                  `json:"stock" validate:"gte=0"`
	Specifications model.Specifications `json:"specifications"`
	Dimensions     *model.Dimensions    `json:"dimensions"`
	IsActive       *bool                `json:"is_active"`
}

// CatalogService manages categories and provider products.
type CatalogService struct {
	*Deps
}

func NewCatalogService(d *Deps) *CatalogService { return &CatalogService{Deps: d} }

func (s *CatalogService) CreateCategory(ctx context.Context, actor Actor, in CategoryInput) (*model.Category, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can create categories")
	}
	c := &model.Category{Name: in.Name, Description: in.Description}
	if err := s.Store.CreateCategory(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("category %q already exists", in.Name)
		}
		return nil, mapErr(err, "category")
	}
	return c, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	cs, err := s.Store.ListCategories(ctx)
	if err != nil {
		return nil, mapErr(err, "category")
	}
	return cs, nil
}

// CreateProduct lists a product for the calling verified provider.
func (s *CatalogService) CreateProduct(ctx context.Context, actor Actor, in ProductInput) (*model.Product, error) {
	if !actor.IsProvider() {
		return nil, apperror.Forbidden("only providers can list products")
	}
	if err := requireVerified(ctx, s.Store, actor.UserID); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	p := &model.Product{ProviderID: actor.UserID, IsActive: true}
	applyProductInput(p, in)
	if err := s.Store.CreateProduct(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("sku %q is already in use", in.SKU)
		}
		return nil, mapErr(err, "product")
	}
	return p, nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id *string) error {
	if id == nil {
		return nil
	}
	if _, err := s.Store.GetCategory(ctx, *id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.Validation("category %s does not exist", *id)
		}
		return mapErr(err, "category")
	}
	return nil
}

func applyProductInput(p *model.Product, in ProductInput) {
	p.CategoryID = in.CategoryID
	p.Name = in.Name
	p.SKU = in.SKU
	p.Description = in.Description
	p.Price = in.Price
	p.Stock = in.Stock
	p.Specifications = in.Specifications
	p.Dimensions = in.Dimensions
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

// GetProduct hides inactive products from everyone but their owner and
// admins.
func (s *CatalogService) GetProduct(ctx context.Context, actor Actor, id string) (*model.Product, error) {
	p, err := s.Store.GetProduct(ctx, id)
	if err != nil {
		return nil, mapErr(err, "product")
	}
	if !p.IsActive && !actor.IsAdmin() && p.ProviderID != actor.UserID {
		return nil, apperror.NotFound("product")
	}
	return p, nil
}

// ListProducts returns active products; providers listing their own
// catalogue and admins see inactive ones too.
func (s *CatalogService) ListProducts(ctx context.Context, actor Actor, f model.ProductFilter, p model.Page) (model.PageResult[model.Product], error) {
	f.ActiveOnly = !(actor.IsAdmin() || (f.ProviderID != "" && f.ProviderID == actor.UserID))
	items, total, err := s.Store.ListProducts(ctx, f, p)
	if err != nil {
		return model.PageResult[model.Product]{}, mapErr(err, "product")
	}
	return model.PageResult[model.Product]{Data: items, Pagination: p.Paginate(total)}, nil
}

func (s *CatalogService) ownedProduct(ctx context.Context, actor Actor, id string) (*model.Product, error) {
	p, err := s.Store.GetProduct(ctx, id)
	if err != nil {
		return nil, mapErr(err, "product")
	}
	if p.ProviderID != actor.UserID && !actor.IsAdmin() {
		return nil, apperror.Forbidden("not your product")
	}
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, actor Actor, id string, in ProductInput) (*model.Product, error) {
	p, err := s.ownedProduct(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	applyProductInput(p, in)
	if err := s.Store.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("sku %q is already in use", in.SKU)
		}
		return nil, mapErr(err, "product")
	}
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, actor Actor, id string) error {
	if _, err := s.ownedProduct(ctx, actor, id); err != nil {
		return err
	}
	return mapErr(s.Store.DeleteProduct(ctx, id), "product")
}
