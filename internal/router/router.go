// Package router builds the echo instance and registers every route.
package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/fixer-backend/internal/config"
	"github.com/iliyamo/fixer-backend/internal/handler"
	"github.com/iliyamo/fixer-backend/internal/metrics"
	"github.com/iliyamo/fixer-backend/internal/middleware"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Auth      *handler.AuthHandler
	Requests  *handler.ServiceRequestHandler
	Quotes    *handler.QuoteHandler
	Bookings  *handler.BookingHandler
	Providers *handler.ProviderHandler
	Catalog   *handler.CatalogHandler
}

// Options carries the cross-cutting dependencies of the HTTP layer.
// Redis, Metrics and DB may be nil.
type Options struct {
	JWTSecret   string
	CORSOrigins []string
	BodyLimit   string
	Log         *slog.Logger
	Metrics     *metrics.Metrics
	Redis       *redis.Client
	RateLimit   config.RateLimitConfig
	Cache       config.CacheConfig
	DB          handler.Pinger
}

// New returns a configured echo instance with all routes registered.
func New(opts Options, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(opts.Log)
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	if opts.Metrics != nil {
		e.Use(opts.Metrics.Middleware())
	}
	e.Use(requestLogger(opts.Log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: opts.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if opts.BodyLimit != "" {
		e.Use(echomw.BodyLimit(opts.BodyLimit))
	}

	RegisterRoutes(e, opts)
	RegisterAuth(e, h.Auth, opts)
	RegisterMarketplace(e, h, opts)
	RegisterCatalog(e, h, opts)
	return e
}

// requestLogger writes one structured access log line per request.
func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.LogAttrs(c.Request().Context(), level, "request",
				slog.String("request_id", v.RequestID),
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			)
			return nil
		},
	})
}

// RegisterRoutes registers the operational endpoints that sit outside
// /api: the health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, opts Options) {
	e.GET("/healthz", handler.Health(opts.DB))
	if opts.Metrics != nil {
		e.GET("/metrics", opts.Metrics.Handler())
	}
}

// RegisterAuth registers /api/auth.  Register, login and refresh get a
// tighter rate-limit bucket than the rest of the API.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, opts Options) {
	authLimit := opts.RateLimit
	authLimit.Capacity = authLimit.AuthCapacity
	authLimit.Prefix = strings.TrimSuffix(authLimit.Prefix, ":") + ":auth"

	g := e.Group("/api/auth")
	g.POST("/register", a.Register, middleware.NewTokenBucket(authLimit, opts.Redis, opts.Log))
	g.POST("/login", a.Login, middleware.NewTokenBucket(authLimit, opts.Redis, opts.Log))
	g.POST("/refresh", a.Refresh, middleware.NewTokenBucket(authLimit, opts.Redis, opts.Log))
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, middleware.JWTAuth(opts.JWTSecret))
}
