package config

import (
	"os"
	"testing"
	"time"
)

func TestServerConfig_Timeouts_Defaults(t *testing.T) {
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}
}

func TestAuthConfig_Defaults(t *testing.T) {
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.SessionTTL != 12*time.Hour {
		t.Errorf("SessionTTL: got %v, want %v", cfg.Auth.SessionTTL, 12*time.Hour)
	}
	if cfg.Auth.SessionCookieName != "registrar_session" {
		t.Errorf("SessionCookieName: got %q", cfg.Auth.SessionCookieName)
	}
	if !cfg.Auth.PasswordResets {
		t.Error("PasswordResets: got false, want true")
	}
	if cfg.Auth.AttemptRetention != 90*24*time.Hour {
		t.Errorf("AttemptRetention: got %v", cfg.Auth.AttemptRetention)
	}
}

func TestLoad_MissingDBPassword(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing DB_PASSWORD")
	}
}

func TestLoad_InvalidSameSite(t *testing.T) {
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("COOKIE_SAMESITE", "sideways")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for invalid COOKIE_SAMESITE")
	}
}

func TestLoad_ShortSessionTTL(t *testing.T) {
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("SESSION_TTL", "5s")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for SESSION_TTL below minimum")
	}
}

func TestServerConfig_AllowedOrigins_Production(t *testing.T) {
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("ENV", "production")
	os.Setenv("ALLOWED_ORIGINS", "https://portal.example.edu, https://admin.example.edu")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Fatalf("AllowedOrigins: got %d entries, want 2", len(cfg.Server.AllowedOrigins))
	}
	if cfg.Server.AllowedOrigins[1] != "https://admin.example.edu" {
		t.Errorf("AllowedOrigins[1]: got %q", cfg.Server.AllowedOrigins[1])
	}
}
