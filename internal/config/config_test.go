package config

import (
	"testing"
	"time"
)

func TestLoadMemoryDriverSkipsDatabase(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "7")
	t.Setenv("BOOKING_DEFAULT_DURATION_MIN", "90")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

	cfg := Load()
	if cfg.StoreDriver != StoreMemory {
		t.Fatalf("driver = %q", cfg.StoreDriver)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("unexpected database url %q", cfg.DatabaseURL)
	}
	if cfg.BookingDuration != 90*time.Minute {
		t.Fatalf("booking duration = %v", cfg.BookingDuration)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("cors origins = %v", cfg.CORSOrigins)
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("bcrypt cost default = %d", cfg.BcryptCost)
	}
}

func TestLoadAssemblesDatabaseURL(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "7")
	t.Setenv("DB_USER", "fixer")
	t.Setenv("DB_PASS", "pw")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_NAME", "fixer")

	cfg := Load()
	want := "postgres://fixer:pw@localhost:5433/fixer?sslmode=disable"
	if cfg.DatabaseURL != want {
		t.Fatalf("got %q want %q", cfg.DatabaseURL, want)
	}
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := LoadRateLimitConfig()
	if rl.Capacity != 1 {
		t.Fatalf("capacity = %d", rl.Capacity)
	}
	if rl.TTL != 10*time.Second {
		t.Fatalf("ttl = %v", rl.TTL)
	}
}

func TestLoadCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	c := LoadCacheConfig()
	if !c.Methods["GET"] || !c.Methods["HEAD"] || c.Methods["POST"] {
		t.Fatalf("methods = %v", c.Methods)
	}
}

func TestLoadStorageAndQueueDefaults(t *testing.T) {
	s := LoadStorageConfig()
	if s.Driver != "memory" || s.MaxUploadBytes != 5<<20 {
		t.Fatalf("storage = %+v", s)
	}
	q := LoadQueueConfig()
	if q.URL != "" || q.LogPath != "logs/marketplace.log" {
		t.Fatalf("queue = %+v", q)
	}
}

func TestLoadStoreNeedsNoAuthSettings(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("QUOTE_DEFAULT_VALIDITY", "48h")

	cfg := LoadStore()
	if cfg.StoreDriver != StoreMemory {
		t.Fatalf("driver = %q", cfg.StoreDriver)
	}
	if cfg.QuoteValidity != 48*time.Hour {
		t.Fatalf("quote validity = %v", cfg.QuoteValidity)
	}
	if cfg.JWTSecret != "" {
		t.Fatalf("LoadStore should not read JWT settings")
	}
}
