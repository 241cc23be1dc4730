package config

import (
	"os"
	"testing"
)

func clearEnv() {
	envVars := []string{
		"APP_NAME", "APP_ENVIRONMENT", "APP_DEBUG",
		"SERVER_HOST", "SERVER_PORT",
		"DATABASE_HOST", "DATABASE_PORT", "DATABASE_USER", "DATABASE_PASSWORD", "DATABASE_DBNAME",
		"REDIS_ENABLED", "REDIS_HOST", "REDIS_PORT",
		"JWT_SECRET",
		"SHEETS_BASE_URL", "SHEETS_ACCESS_TOKEN",
		"OTEL_ENABLED",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	clearEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.App.Name != "sms-checkin-relay" {
		t.Errorf("App.Name = %q, want %q", cfg.App.Name, "sms-checkin-relay")
	}
	if cfg.App.Environment != "development" {
		t.Errorf("App.Environment = %q, want %q", cfg.App.Environment, "development")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want %d", cfg.Database.Port, 5432)
	}
	if cfg.Redis.Enabled {
		t.Error("Redis should be disabled by default")
	}
	if cfg.Sheets.BaseURL != "https://sheets.googleapis.com/v4" {
		t.Errorf("Sheets.BaseURL = %q", cfg.Sheets.BaseURL)
	}
	if cfg.OTel.Enabled {
		t.Error("OTel should be disabled by default")
	}
}

func TestLoad_WithEnvOverride(t *testing.T) {
	clearEnv()
	os.Setenv("APP_NAME", "test-app")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("DATABASE_HOST", "db.example.com")
	os.Setenv("SHEETS_ACCESS_TOKEN", "ya29.test")
	defer clearEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.App.Name != "test-app" {
		t.Errorf("App.Name = %q, want %q", cfg.App.Name, "test-app")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Database.Host != "db.example.com" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "db.example.com")
	}
	if cfg.Sheets.AccessToken != "ya29.test" {
		t.Errorf("Sheets.AccessToken = %q", cfg.Sheets.AccessToken)
	}
}

func TestValidate(t *testing.T) {
	clearEnv()

	base := func() *Config {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		return cfg
	}

	t.Run("default config is valid", func(t *testing.T) {
		if err := base().Validate(); err != nil {
			t.Errorf("Validate() failed: %v", err)
		}
	})

	t.Run("invalid port", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = 0
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for zero port")
		}
	})

	t.Run("missing JWT secret", func(t *testing.T) {
		cfg := base()
		cfg.JWT.Secret = ""
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for missing JWT secret")
		}
	})

	t.Run("default JWT secret rejected in production", func(t *testing.T) {
		cfg := base()
		cfg.App.Environment = "production"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for default JWT secret in production")
		}
	})
}

func TestEnvironmentHelpers(t *testing.T) {
	cfg := &Config{}

	cfg.App.Environment = "production"
	if !cfg.IsProduction() || cfg.IsDevelopment() {
		t.Error("production environment misreported")
	}

	cfg.App.Environment = "development"
	if cfg.IsProduction() || !cfg.IsDevelopment() {
		t.Error("development environment misreported")
	}
}
