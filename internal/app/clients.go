package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

// newRedisClient connects to redis when an address is configured. A nil
// return is fine; the event publisher degrades to a no-op.
func newRedisClient(cfg Config, log *logger.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Info("Redis not configured, event publishing disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis ping failed, event publishing disabled", "error", err)
		return nil
	}
	return client
}
