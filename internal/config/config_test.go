package config_test

import (
	"testing"
	"time"

	"docflow/internal/config"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, cfg config.Config)
	}{
		{
			name: "rest defaults",
			env:  map[string]string{"BACKEND_URL": "http://backend:3000"},
			check: func(t *testing.T, cfg config.Config) {
				if cfg.Store != config.StoreREST || cfg.ServerPort != "8080" || cfg.BackendTimeout != 15*time.Second {
					t.Errorf("cfg = %+v", cfg)
				}
				if cfg.PlaceholderUnitPrice.String() != "100" {
					t.Errorf("placeholder = %s", cfg.PlaceholderUnitPrice)
				}
			},
		},
		{
			name: "postgres",
			env:  map[string]string{"STORE": "Postgres", "DATABASE_URL": "postgres://localhost/docflow", "BACKEND_TIMEOUT_SECONDS": "3", "CATALOG_FILE": " catalog.yaml "},
			check: func(t *testing.T, cfg config.Config) {
				if cfg.Store != config.StorePostgres || cfg.BackendTimeout != 3*time.Second || cfg.CatalogFile != "catalog.yaml" {
					t.Errorf("cfg = %+v", cfg)
				}
			},
		},
		{name: "rest without url", env: map[string]string{}, wantErr: true},
		{name: "postgres without url", env: map[string]string{"STORE": "postgres"}, wantErr: true},
		{name: "unknown store", env: map[string]string{"STORE": "sqlite"}, wantErr: true},
		{name: "bad timeout", env: map[string]string{"BACKEND_URL": "http://b", "BACKEND_TIMEOUT_SECONDS": "soon"}, wantErr: true},
		{name: "negative placeholder", env: map[string]string{"BACKEND_URL": "http://b", "PLACEHOLDER_UNIT_PRICE": "-1"}, wantErr: true},
	}

	keys := []string{"STORE", "BACKEND_URL", "DATABASE_URL", "BACKEND_TIMEOUT_SECONDS", "PLACEHOLDER_UNIT_PRICE", "SERVER_PORT", "CATALOG_FILE"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range keys {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := config.Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}
