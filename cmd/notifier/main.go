// Command notifier consumes marketplace events from RabbitMQ and appends
// one line per event to the marketplace log.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/fixer-backend/internal/config"
	"github.com/iliyamo/fixer-backend/internal/logger"
	"github.com/iliyamo/fixer-backend/internal/queue"
)

func main() {
	_ = godotenv.Load()
	qc := config.LoadQueueConfig()

	lg, closer, err := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE"))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer closer.Close()
	lg = lg.With("component", "notifier")

	if qc.URL == "" {
		lg.Error("RABBITMQ_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &queue.Consumer{URL: qc.URL, LogPath: qc.LogPath, Log: lg}
	lg.Info("consuming", "queues", queue.Queues, "log_path", qc.LogPath)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
}
