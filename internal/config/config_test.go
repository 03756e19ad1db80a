package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != InsecureDefaultSecret {
		t.Errorf("Expected insecure default secret, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("Expected 24h token TTL, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.Database.Type != "memory" {
		t.Errorf("Expected memory database, got %q", cfg.Database.Type)
	}
	if cfg.Blacklist.Type != "memory" {
		t.Errorf("Expected memory blacklist, got %q", cfg.Blacklist.Type)
	}
	if cfg.ML.BaseURL != "http://localhost:5004" {
		t.Errorf("Unexpected ML base URL %q", cfg.ML.BaseURL)
	}
	if cfg.ML.Timeout != 30*time.Second {
		t.Errorf("Expected 30s ML timeout, got %v", cfg.ML.Timeout)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9090
auth:
  jwt_secret: file-secret
  token_ttl: 1h
database:
  type: postgres
  url: postgres://localhost/csrbot
blacklist:
  type: redis
  redis:
    addr: redis:6379
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "file-secret" {
		t.Errorf("Expected file-secret, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("Expected 1h TTL, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.Database.Type != "postgres" {
		t.Errorf("Expected postgres, got %q", cfg.Database.Type)
	}
	if cfg.Blacklist.Redis.Addr != "redis:6379" {
		t.Errorf("Expected redis:6379, got %q", cfg.Blacklist.Redis.Addr)
	}
	// Untouched keys keep their defaults.
	if cfg.ML.BaseURL != "http://localhost:5004" {
		t.Errorf("Default ML base URL lost: %q", cfg.ML.BaseURL)
	}
}

func TestLoadBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for malformed config, got none")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CSRBOT_SERVER_PORT", "7070")
	t.Setenv("CSRBOT_AUTH_JWT_SECRET", "env-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Expected env port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("Expected env secret, got %q", cfg.Auth.JWTSecret)
	}
}
