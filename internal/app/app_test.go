package app

import (
	"context"
	"testing"

	"github.com/iliyamo/fixer-backend/internal/config"
	"github.com/iliyamo/fixer-backend/internal/logger"
	"github.com/iliyamo/fixer-backend/internal/repository/memory"
)

func TestOpenBackendMemory(t *testing.T) {
	b, err := OpenBackend(context.Background(), config.Config{StoreDriver: config.StoreMemory}, logger.Discard())
	if err != nil {
		t.Fatalf("OpenBackend: %v", err)
	}
	if b.DB != nil {
		t.Fatalf("memory backend should not hold a pool")
	}
	if _, ok := b.Store.(*memory.Store); !ok {
		t.Fatalf("Store = %T, want *memory.Store", b.Store)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
