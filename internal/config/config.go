// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	StoreDriver    string // postgres or memory
	DatabaseURL    string // full Postgres DSN, assembled from DB_* when unset
	AutoMigrate    bool   // apply the embedded schema on startup
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	BookingDuration time.Duration // slot length when a booking omits one
	QuoteValidity   time.Duration // default valid_until offset for new quotes

	LogLevel    string
	LogFile     string
	CORSOrigins []string
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Database settings
// are only required for the postgres driver.
func Load() Config {
	cfg := LoadStore()
	cfg.Port = envStr("APP_PORT", "8080")
	cfg.JWTSecret = must("JWT_SECRET")
	cfg.AccessTTLMin = mustInt("ACCESS_TOKEN_TTL_MIN")
	cfg.RefreshTTLDays = mustInt("REFRESH_TOKEN_TTL_DAYS")
	cfg.BcryptCost = envInt("BCRYPT_COST", 10)
	cfg.BookingDuration = time.Duration(envInt("BOOKING_DEFAULT_DURATION_MIN", 60)) * time.Minute
	cfg.CORSOrigins = splitList(envStr("CORS_ORIGINS", "*"))
	if cfg.BookingDuration <= 0 {
		cfg.BookingDuration = time.Hour
	}
	return cfg
}

// LoadStore reads only what the background commands need: the store,
// logging and quote validity settings.
func LoadStore() Config {
	cfg := Config{
		Env:           envStr("APP_ENV", "dev"),
		StoreDriver:   strings.ToLower(envStr("STORE_DRIVER", StorePostgres)),
		AutoMigrate:   envBool("AUTO_MIGRATE", false),
		QuoteValidity: envDur("QUOTE_DEFAULT_VALIDITY", 7*24*time.Hour),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		LogFile:       os.Getenv("LOG_FILE"),
	}
	switch cfg.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = postgresURL(
				must("DB_USER"), os.Getenv("DB_PASS"), must("DB_HOST"),
				envStr("DB_PORT", "5432"), must("DB_NAME"), envStr("DB_SSLMODE", "disable"),
			)
		}
	default:
		log.Fatalf("invalid STORE_DRIVER: %q", cfg.StoreDriver)
	}
	return cfg
}

func postgresURL(user, pass, host, port, name, sslmode string) string {
	auth := user
	if pass != "" {
		auth = user + ":" + pass
	}
	return "postgres://" + auth + "@" + host + ":" + port + "/" + name + "?sslmode=" + sslmode
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
