package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdugdh24/introductions-backend/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const connectTimeout = 5 * time.Second

// NewPostgresDB opens the profile and request store and checks it answers
// before the server starts.
func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*sqlx.DB, error) {
	log := logger.With("host", cfg.Host, "port", cfg.Port, "database", cfg.DBName)

	db, err := sqlx.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	start := time.Now()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		log.Error("postgres unreachable", "error", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("postgres connected",
		"max_open_conns", cfg.MaxOpenConns,
		"latency", time.Since(start),
	)
	return db, nil
}
