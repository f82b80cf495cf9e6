package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisConfig describes the connection for the recipe cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DefaultRedisConfig matches the docker-compose development cache.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr: "localhost:6379",
		DB:   0,
	}
}

// NewRedisClient connects and pings so a bad address fails at startup
// rather than on the first cache read.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
