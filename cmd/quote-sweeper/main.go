// Command quote-sweeper marks pending quotes past their valid_until as
// expired.  It runs on a cron schedule, or once with -once.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/iliyamo/fixer-backend/internal/app"
	"github.com/iliyamo/fixer-backend/internal/config"
	"github.com/iliyamo/fixer-backend/internal/logger"
	"github.com/iliyamo/fixer-backend/internal/service"
)

func main() {
	once := flag.Bool("once", false, "sweep once and exit")
	schedule := flag.String("schedule", "", "cron expression, overrides QUOTE_SWEEP_SCHEDULE")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.LoadStore()

	lg, closer, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer closer.Close()
	lg = lg.With("component", "quote-sweeper")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := app.OpenBackend(ctx, cfg, lg)
	if err != nil {
		lg.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	quotes := service.NewQuoteService(&service.Deps{Store: backend.Store, Log: lg}, cfg.QuoteValidity)
	sweep := func() {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		n, err := quotes.SweepExpired(runCtx)
		if err != nil {
			lg.Error("sweep failed", "error", err)
			return
		}
		lg.Info("sweep finished", "expired", n)
	}

	if *once {
		sweep()
		return
	}

	expr := *schedule
	if expr == "" {
		expr = os.Getenv("QUOTE_SWEEP_SCHEDULE")
	}
	if expr == "" {
		expr = "@every 5m"
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(expr, sweep); err != nil {
		lg.Error("invalid schedule", "schedule", expr, "error", err)
		os.Exit(1)
	}
	c.Start()
	lg.Info("scheduler started", "schedule", expr)

	<-ctx.Done()
	<-c.Stop().Done()
	lg.Info("scheduler stopped")
}
