package database

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/gdugdh24/introductions-backend/internal/config"
)

// Port 1 on loopback refuses connections, so these run without a server.

func TestNewPostgresDBLogsUnreachableServer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cfg := &config.DatabaseConfig{Host: "127.0.0.1", Port: 1, User: "app", Password: "hunter2", DBName: "intro", SSLMode: "disable"}
	if _, err := NewPostgresDB(context.Background(), cfg, logger); err == nil {
		t.Fatal("expected an error for an unreachable database")
	}
	out := buf.String()
	if !strings.Contains(out, "postgres unreachable") || !strings.Contains(out, "database=intro") {
		t.Errorf("log = %q", out)
	}
	if strings.Contains(out, "hunter2") {
		t.Error("password leaked into the log")
	}
}

func TestNewRedisClientLogsUnreachableServer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cfg := &config.RedisConfig{Host: "127.0.0.1", Port: 1, Password: "hunter2"}
	if _, err := NewRedisClient(context.Background(), cfg, logger); err == nil {
		t.Fatal("expected an error for an unreachable redis")
	}
	out := buf.String()
	if !strings.Contains(out, "redis unreachable") || !strings.Contains(out, "addr=127.0.0.1:1") {
		t.Errorf("log = %q", out)
	}
	if strings.Contains(out, "hunter2") {
		t.Error("password leaked into the log")
	}
}
