package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fixer-backend/internal/middleware"
	"github.com/iliyamo/fixer-backend/internal/model"
)

// RegisterMarketplace registers service requests, quotes and bookings.
// Every route requires a valid JWT; role checks that depend on ownership
// happen in the services.
func RegisterMarketplace(e *echo.Echo, h Handlers, opts Options) {
	api := e.Group("/api",
		middleware.JWTAuth(opts.JWTSecret),
		middleware.NewTokenBucket(opts.RateLimit, opts.Redis, opts.Log),
	)
	customer := middleware.RequireRole(model.UserCustomer)
	provider := middleware.RequireRole(model.UserProvider)
	admin := middleware.RequireRole(model.UserAdmin)

	sr := api.Group("/service-requests")
	sr.POST("", h.Requests.Create, customer)
	sr.GET("", h.Requests.List)
	sr.GET("/:id", h.Requests.Get)
	sr.PUT("/:id", h.Requests.Update, customer)
	sr.DELETE("/:id", h.Requests.Delete, customer)
	sr.POST("/:id/cancel", h.Requests.Cancel)
	sr.POST("/:id/images", h.Requests.UploadImage, customer)
	sr.PUT("/:id/status", h.Requests.UpdateStatus, admin)

	q := api.Group("/quotes")
	q.POST("", h.Quotes.Create, provider)
	q.GET("/my", h.Quotes.Mine, provider)
	q.GET("/service-request/:id", h.Quotes.ForRequest)
	q.GET("/:id", h.Quotes.Get)
	q.PUT("/:id", h.Quotes.Update, provider)
	q.DELETE("/:id", h.Quotes.Delete, provider)
	q.PATCH("/:id/status", h.Quotes.UpdateStatus, customer)

	b := api.Group("/bookings")
	b.POST("", h.Bookings.Create, customer)
	b.GET("", h.Bookings.List)
	b.GET("/availability", h.Bookings.Availability)
	b.GET("/:id", h.Bookings.Get)
	b.PATCH("/:id/status", h.Bookings.UpdateStatus)
}
