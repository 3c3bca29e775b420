package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient builds the client the session store runs on, with short
// timeouts so a slow Redis degrades into request errors, not hangs.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// PingRedis checks connectivity, used by the readiness probe.
func PingRedis(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
