package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Store selects the persistence behind the core services.
const (
	StoreREST     = "rest"
	StorePostgres = "postgres"
)

type Config struct {
	ServerPort     string
	AllowedOrigins string
	JWTSecret      string

	Store          string
	BackendURL     string
	BackendToken   string
	BackendTimeout time.Duration
	DatabaseURL    string

	OpenAIAPIKey string
	OpenAIModel  string

	CompanyName          string
	CatalogFile          string
	PlaceholderUnitPrice decimal.Decimal
}

// Load reads the environment. It fails on values that are present but malformed
// and on settings the selected store cannot run without.
func Load() (Config, error) {
	cfg := Config{
		ServerPort:     env("SERVER_PORT", "8080"),
		AllowedOrigins: env("ALLOWED_ORIGINS", ""),
		JWTSecret:      env("JWT_SECRET", ""),
		Store:          strings.ToLower(env("STORE", StoreREST)),
		BackendURL:     env("BACKEND_URL", ""),
		BackendToken:   env("BACKEND_TOKEN", ""),
		DatabaseURL:    env("DATABASE_URL", ""),
		OpenAIAPIKey:   env("OPENAI_API_KEY", ""),
		OpenAIModel:    env("OPENAI_MODEL", "gpt-4o"),
		CompanyName:    env("COMPANY_NAME", ""),
		CatalogFile:    env("CATALOG_FILE", ""),
	}

	secs, err := strconv.Atoi(env("BACKEND_TIMEOUT_SECONDS", "15"))
	if err != nil || secs <= 0 {
		return Config{}, fmt.Errorf("BACKEND_TIMEOUT_SECONDS must be a positive integer")
	}
	cfg.BackendTimeout = time.Duration(secs) * time.Second

	cfg.PlaceholderUnitPrice, err = decimal.NewFromString(env("PLACEHOLDER_UNIT_PRICE", "100"))
	if err != nil || cfg.PlaceholderUnitPrice.IsNegative() {
		return Config{}, fmt.Errorf("PLACEHOLDER_UNIT_PRICE must be a non-negative decimal")
	}

	switch cfg.Store {
	case StoreREST:
		if cfg.BackendURL == "" {
			return Config{}, fmt.Errorf("BACKEND_URL is required when STORE=%s", StoreREST)
		}
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when STORE=%s", StorePostgres)
		}
	default:
		return Config{}, fmt.Errorf("STORE must be %q or %q, got %q", StoreREST, StorePostgres, cfg.Store)
	}
	return cfg, nil
}

// MustLoad is Load for binaries: a bad environment is fatal.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func env(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
