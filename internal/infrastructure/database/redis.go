package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdugdh24/introductions-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects the notification inbox and sweeper lock backend.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	log := logger.With("addr", cfg.GetAddr(), "db", cfg.DB)

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  connectTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	start := time.Now()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		log.Error("redis unreachable", "error", err)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("redis connected", "latency", time.Since(start))
	return client, nil
}
