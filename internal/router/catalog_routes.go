package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fixer-backend/internal/middleware"
	"github.com/iliyamo/fixer-backend/internal/model"
)

// RegisterCatalog registers providers, categories and products.  Reads
// are public, with an optional token that widens what the caller sees,
// and go through the response cache.  Product pages are cached per user
// because owners also see their inactive products.
func RegisterCatalog(e *echo.Echo, h Handlers, opts Options) {
	limit := middleware.NewTokenBucket(opts.RateLimit, opts.Redis, opts.Log)
	optional := middleware.OptionalJWT(opts.JWTSecret)
	auth := middleware.JWTAuth(opts.JWTSecret)
	provider := middleware.RequireRole(model.UserProvider)
	admin := middleware.RequireRole(model.UserAdmin)

	productCache := opts.Cache
	productCache.KeyStrategy = "route_query_user"
	cacheProducts := middleware.NewRedisCache(productCache, opts.Redis)
	cacheCategories := middleware.NewRedisCache(opts.Cache, opts.Redis)

	p := e.Group("/api/providers", limit)
	p.GET("", h.Providers.List, optional)
	p.PUT("/me", h.Providers.UpdateMine, auth, provider)
	p.GET("/:id", h.Providers.Get)
	p.POST("", h.Providers.Create, auth, provider)
	p.PATCH("/:id/verification", h.Providers.SetVerification, auth, admin)

	c := e.Group("/api/categories", limit)
	c.GET("", h.Catalog.ListCategories, cacheCategories)
	c.POST("", h.Catalog.CreateCategory, auth, admin)

	pr := e.Group("/api/products", limit)
	pr.GET("", h.Catalog.ListProducts, optional, cacheProducts)
	pr.GET("/:id", h.Catalog.GetProduct, optional, cacheProducts)
	pr.POST("", h.Catalog.CreateProduct, auth, provider)
	pr.PUT("/:id", h.Catalog.UpdateProduct, auth, provider)
	pr.DELETE("/:id", h.Catalog.DeleteProduct, auth, provider)
}
