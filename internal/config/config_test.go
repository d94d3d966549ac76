package config

import (
	"strings"
	"testing"
	"time"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadMemoryDefaults(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "memory")
	t.Setenv("JWT_ACCESS_SECRET", secret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Matching.RequestTTL != 30*24*time.Hour {
		t.Errorf("request TTL = %v, want 720h", cfg.Matching.RequestTTL)
	}
	if !cfg.Matching.FallbackDefault {
		t.Error("fallback should default to on")
	}
	if cfg.Matching.GuardianEnforce {
		t.Error("guardian enforcement should default to off")
	}
	if cfg.Matching.DefaultPageSize != 20 || cfg.Matching.MaxPageSize != 100 {
		t.Errorf("page sizes = %d/%d", cfg.Matching.DefaultPageSize, cfg.Matching.MaxPageSize)
	}
	if cfg.Sweeper.Interval != time.Hour {
		t.Errorf("sweeper interval = %v", cfg.Sweeper.Interval)
	}
	if cfg.Redis.Enabled() {
		t.Error("redis should be disabled without a host")
	}
	if db := cfg.Database; db.MaxOpenConns != 100 || db.MaxIdleConns != 10 || db.ConnMaxLifetime != time.Hour {
		t.Errorf("pool = %d/%d/%v", db.MaxOpenConns, db.MaxIdleConns, db.ConnMaxLifetime)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database:   DatabaseConfig{Host: "localhost", User: "app", DBName: "intro"},
			JWT:        JWTConfig{AccessSecret: secret},
			Encryption: EncryptionConfig{Key: secret},
			Storage:    StorageConfig{Type: StoragePostgres},
			Logging:    LoggingConfig{Level: "info", Format: "json"},
			Matching: MatchingConfig{
				RequestTTL: time.Hour, CandidateCap: 10, DefaultPageSize: 20, MaxPageSize: 100,
			},
			Sweeper: SweeperConfig{Interval: time.Minute, BatchSize: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, "database host"},
		{"short key", func(c *Config) { c.Encryption.Key = "short" }, "encryption key"},
		{"memory skips db", func(c *Config) {
			c.Storage.Type = StorageMemory
			c.Database = DatabaseConfig{}
			c.Encryption.Key = ""
		}, ""},
		{"unknown storage", func(c *Config) { c.Storage.Type = "mongo" }, "unknown storage"},
		{"short jwt secret", func(c *Config) { c.JWT.AccessSecret = "x" }, "at least 32"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
		{"page sizes", func(c *Config) { c.Matching.MaxPageSize = 5 }, "page sizes"},
		{"sweeper batch", func(c *Config) { c.Sweeper.BatchSize = 0 }, "sweeper"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
