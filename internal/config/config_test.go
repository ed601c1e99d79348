package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHAT_DATABASE_URL", "postgres://localhost/chat")
	t.Setenv("CHAT_JWT_SECRET", "secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ListenAddress != defaultListenAddress {
		t.Fatalf("expected default listen address %s, got %s", defaultListenAddress, cfg.ListenAddress)
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Fatalf("expected default log level %s, got %s", defaultLogLevel, cfg.LogLevel)
	}
	if cfg.UploadDir != defaultUploadDir {
		t.Fatalf("expected default upload dir %s, got %s", defaultUploadDir, cfg.UploadDir)
	}
	if cfg.MetricsAddress != "" {
		t.Fatalf("expected metrics disabled by default, got %s", cfg.MetricsAddress)
	}
}

func TestLoadRequiredSettings(t *testing.T) {
	t.Setenv("CHAT_DATABASE_URL", "")
	t.Setenv("CHAT_JWT_SECRET", "")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error when database_url is missing")
	}

	t.Setenv("CHAT_DATABASE_URL", "postgres://localhost/chat")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error when jwt_secret is missing")
	}
}

func TestLoadWithFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(`
listen_address: "127.0.0.1:9001"
log_level: "debug"
database_url: "postgres://db/chat"
jwt_secret: "file-secret"
metrics_address: ":9100"
upload_dir: "/srv/uploads"
`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CHAT_LISTEN_ADDRESS", ":7000")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ListenAddress != ":7000" {
		t.Fatalf("expected env override for listen address, got %s", cfg.ListenAddress)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level debug, got %s", cfg.LogLevel)
	}
	if cfg.DatabaseURL != "postgres://db/chat" {
		t.Fatalf("expected database url from file, got %s", cfg.DatabaseURL)
	}
	if cfg.MetricsAddress != ":9100" {
		t.Fatalf("expected metrics address from file, got %s", cfg.MetricsAddress)
	}
	if cfg.UploadDir != "/srv/uploads" {
		t.Fatalf("expected upload dir from file, got %s", cfg.UploadDir)
	}
}
