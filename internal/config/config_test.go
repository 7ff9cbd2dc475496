package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/strokecare")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %q", cfg.Port)
	}
	if cfg.MongoDB != "patient_data" {
		t.Errorf("expected default mongo db patient_data, got %q", cfg.MongoDB)
	}
	if cfg.DoctorKey == "" {
		t.Error("expected a default doctor key")
	}
	if !cfg.IsDev() {
		t.Error("expected development env by default")
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("expected DATABASE_URL error, got %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/strokecare")
	t.Setenv("PORT", "9999")
	t.Setenv("MONGO_URI", "mongodb://db.internal:27017")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("expected port 9999, got %q", cfg.Port)
	}
	if cfg.MongoURI != "mongodb://db.internal:27017" {
		t.Errorf("unexpected mongo uri %q", cfg.MongoURI)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestValidate_ProductionSecret(t *testing.T) {
	cfg := &Config{Env: "production"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing production secret")
	}

	cfg.SessionSecret = "short"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for short production secret")
	}

	cfg.SessionSecret = strings.Repeat("s", 32)
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	dev := &Config{Env: "development"}
	if err := dev.Validate(); err != nil {
		t.Errorf("development must not require a secret, got %v", err)
	}
}
