package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Blob.Driver != "fs" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad storage driver", func(c *Config) { c.Storage.Driver = "oracle" }},
		{"bad blob driver", func(c *Config) { c.Blob.Driver = "floppy" }},
		{"s3 without bucket", func(c *Config) { c.Blob.Driver = "s3"; c.Blob.S3Bucket = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadFromFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "constructcore.yaml")
	body := []byte("storage:\n  driver: postgres\n  postgres_dsn: postgres://db/constructcore\nnats:\n  url: nats://localhost:4222\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.PostgresDSN != "postgres://db/constructcore" {
		t.Fatalf("file values not applied: %+v", cfg.Storage)
	}
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Fatalf("nats url not applied: %+v", cfg.NATS)
	}
	// Untouched sections keep defaults.
	if cfg.Blob.Driver != "fs" || cfg.Logging.Level != "info" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Storage.SQLitePath = "/var/lib/constructcore/state.db"
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Storage.SQLitePath != cfg.Storage.SQLitePath {
		t.Fatalf("round trip lost values: %+v", loaded.Storage)
	}
}

func TestMergePrecedence(t *testing.T) {
	base := DefaultConfig()
	base.Merge(&Config{
		Storage: StorageConfig{Driver: "memory"},
		Logging: LoggingConfig{Level: "debug"},
	})
	if base.Storage.Driver != "memory" || base.Logging.Level != "debug" {
		t.Fatalf("merge did not apply: %+v", base)
	}
	if base.Blob.FSRoot != "./blobdata" {
		t.Fatalf("merge clobbered unset field: %+v", base.Blob)
	}
	base.Merge(nil)
}

func TestApplyEnvWins(t *testing.T) {
	t.Setenv("CONSTRUCTCORE_STORAGE_DRIVER", "postgres")
	t.Setenv("CONSTRUCTCORE_POSTGRES_DSN", "postgres://env/constructcore")
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	if cfg.Storage.Driver != "postgres" || cfg.Storage.PostgresDSN != "postgres://env/constructcore" {
		t.Fatalf("env not applied: %+v", cfg.Storage)
	}
}

func TestLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", ""} {
		cfg := DefaultConfig()
		cfg.Logging.Level = level
		if cfg.Logger() == nil {
			t.Fatalf("nil logger for level %q", level)
		}
	}
}
