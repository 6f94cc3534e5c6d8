package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/fixer-backend/internal/app"
	"github.com/iliyamo/fixer-backend/internal/config"
	"github.com/iliyamo/fixer-backend/internal/handler"
	"github.com/iliyamo/fixer-backend/internal/logger"
	"github.com/iliyamo/fixer-backend/internal/metrics"
	"github.com/iliyamo/fixer-backend/internal/queue"
	"github.com/iliyamo/fixer-backend/internal/router"
	"github.com/iliyamo/fixer-backend/internal/service"
	"github.com/iliyamo/fixer-backend/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	lg, closer, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := app.OpenBackend(ctx, cfg, lg)
	if err != nil {
		lg.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	storageCfg := config.LoadStorageConfig()
	blobs, err := storage.Open(ctx, storageCfg)
	if err != nil {
		lg.Error("storage init failed", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	queueCfg := config.LoadQueueConfig()
	var pub service.Publisher = queue.Nop{}
	if queueCfg.URL != "" {
		p := queue.NewPublisher(queueCfg.URL, queueCfg.Exchange, lg, m)
		defer p.Close()
		pub = p
	} else {
		lg.Warn("RABBITMQ_URL not set; events are not published")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Warn("redis unavailable; rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}

	deps := &service.Deps{Store: backend.Store, Publisher: pub, Log: lg, Metrics: m}
	h := router.Handlers{
		Auth:      handler.NewAuthHandler(cfg, backend.Users, backend.Tokens, lg),
		Requests:  handler.NewServiceRequestHandler(service.NewServiceRequestService(deps, blobs, storageCfg.MaxUploadBytes)),
		Quotes:    handler.NewQuoteHandler(service.NewQuoteService(deps, cfg.QuoteValidity)),
		Bookings:  handler.NewBookingHandler(service.NewBookingService(deps, cfg.BookingDuration)),
		Providers: handler.NewProviderHandler(service.NewProviderService(deps)),
		Catalog:   handler.NewCatalogHandler(service.NewCatalogService(deps)),
	}
	opts := router.Options{
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		BodyLimit:   fmt.Sprintf("%dK", storageCfg.MaxUploadBytes/1024+64),
		Log:         lg,
		Metrics:     m,
		Redis:       rdb,
		RateLimit:   config.LoadRateLimitConfig(),
		Cache:       config.LoadCacheConfig(),
	}
	if backend.DB != nil {
		opts.DB = backend.DB
	}
	e := router.New(opts, h)

	addr := ":" + cfg.Port
	go func() {
		lg.Info("listening", "addr", addr, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown", "error", err)
	}
	lg.Info("server stopped")
}
