// Package redisconn opens and verifies the Redis connection that backs
// conversation session storage.
package redisconn

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"abitbot/core/logger"
	"log/slog"
)

// Config holds Redis connection settings.
type Config struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// Connect opens a Redis client and verifies connectivity with a ping.
func Connect(cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.DB.Error("redis connect failed",
			slog.String("event", "redis.connect"),
			slog.String("addr", cfg.Addr),
			slog.Int("db", cfg.DB),
			slog.String("err", err.Error()),
		)
		_ = client.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	logger.DB.Info("redis connected",
		slog.String("event", "redis.connect"),
		slog.String("addr", cfg.Addr),
		slog.Int("db", cfg.DB),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)

	return client, nil
}
