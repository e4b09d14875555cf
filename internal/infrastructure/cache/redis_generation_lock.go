package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGenerationLock implements GenerationLock on Redis SETNX. Suitable for
// multi-instance deployments where concurrent generation requests for the
// same settlement key can land on different processes.
type RedisGenerationLock struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisGenerationLock creates a Redis-backed generation lock
func NewRedisGenerationLock(cfg RedisConfig) (*RedisGenerationLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisGenerationLock{
		client:    client,
		keyPrefix: "settlement:generation:",
	}, nil
}

// NewRedisGenerationLockWithClient creates a lock with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisGenerationLockWithClient(client *redis.Client, keyPrefix string) *RedisGenerationLock {
	if keyPrefix == "" {
		keyPrefix = "settlement:generation:"
	}
	return &RedisGenerationLock{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Acquire takes the lock via SETNX with a TTL in one atomic operation
func (l *RedisGenerationLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire generation lock: %w", err)
	}
	return ok, nil
}

// Release frees the lock
func (l *RedisGenerationLock) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release generation lock: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (l *RedisGenerationLock) Close() error {
	return l.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (l *RedisGenerationLock) GetClient() *redis.Client {
	return l.client
}

var _ GenerationLock = (*RedisGenerationLock)(nil)
