package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/service"
)

// CatalogHandler serves /api/categories and /api/products.
type CatalogHandler struct {
	Svc *service.CatalogService
}

func NewCatalogHandler(s *service.CatalogService) *CatalogHandler { return &CatalogHandler{Svc: s} }

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	cs, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return err
	}
	return ok(c, "categories", cs)
}

func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var in service.CategoryInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	cat, err := h.Svc.CreateCategory(ctx, a, in)
	if err != nil {
		return err
	}
	return created(c, "category created", cat)
}

// ListProducts filters by provider_id, category_id and a name/sku search.
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	q, err := newQuery(c, "provider_id", "category_id", "search")
	if err != nil {
		return err
	}
	var f model.ProductFilter
	if f.ProviderID, err = q.uuid("provider_id"); err != nil {
		return err
	}
	if f.CategoryID, err = q.uuid("category_id"); err != nil {
		return err
	}
	f.Search = q.str("search")
	p, err := q.page()
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Svc.ListProducts(ctx, viewer(c), f, p)
	if err != nil {
		return err
	}
	return ok(c, "products", res)
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Svc.GetProduct(ctx, viewer(c), id)
	if err != nil {
		return err
	}
	return ok(c, "product", p)
}

func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var in service.ProductInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Svc.CreateProduct(ctx, a, in)
	if err != nil {
		return err
	}
	return created(c, "product created", p)
}

func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var in service.ProductInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Svc.UpdateProduct(ctx, a, id, in)
	if err != nil {
		return err
	}
	return ok(c, "product updated", p)
}

func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.DeleteProduct(ctx, a, id); err != nil {
		return err
	}
	return ok(c, "product deleted", nil)
}
