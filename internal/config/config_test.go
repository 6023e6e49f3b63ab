package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_URL", "")
	os.Unsetenv("API_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 0 {
		t.Errorf("Timeout = %s, want none", cfg.Backend.Timeout)
	}
	if cfg.Session.Driver != "file" || cfg.Session.Key != "auth_token" {
		t.Errorf("Session = %+v", cfg.Session)
	}
	if cfg.Export.Enabled {
		t.Error("export enabled by default")
	}
	if got := cfg.Server.Address(); got != "127.0.0.1:3000" {
		t.Errorf("Address = %q", got)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("API_URL", "https://api.example.com")
	t.Setenv("API_TIMEOUT", "10s")
	t.Setenv("SESSION_DRIVER", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("Timeout = %s", cfg.Backend.Timeout)
	}
	if cfg.Session.Driver != "memory" {
		t.Errorf("Driver = %q", cfg.Session.Driver)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "file", cfg: Config{Session: Session{Driver: "file"}}},
		{name: "unknown driver", cfg: Config{Session: Session{Driver: "redis"}}, wantErr: true},
		{name: "postgres without dsn", cfg: Config{Session: Session{Driver: "postgres"}}, wantErr: true},
		{name: "postgres with dsn", cfg: Config{
			Session:  Session{Driver: "postgres"},
			Database: Database{PostgresDSN: "postgres://localhost/console"},
		}},
		{name: "negative timeout", cfg: Config{
			Session: Session{Driver: "memory"},
			Backend: Backend{Timeout: -time.Second},
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yaml")
	yaml := "backend:\n  base_url: http://backend:8000\nsession:\n  driver: memory\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Backend.BaseURL != "http://backend:8000" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Session.Driver != "memory" {
		t.Errorf("Driver = %q", cfg.Session.Driver)
	}
}
