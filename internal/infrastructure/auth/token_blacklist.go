package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist invalidates JWT tokens before they expire, e.g. on logout
// or when an actor account is disabled.
type TokenBlacklist interface {
	// AddToBlacklist adds a token's JTI to the blacklist. The TTL should be
	// the remaining time until the token expires.
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error

	// IsBlacklisted checks if a token's JTI is in the blacklist
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// AddActorTokensToBlacklist blacklists every token for an actor by
	// storing the invalidation timestamp. Tokens issued before that time
	// are rejected.
	AddActorTokensToBlacklist(ctx context.Context, actorID string, ttl time.Duration) error

	// IsActorTokenInvalidated checks whether a token issued at the given
	// time predates the actor's invalidation timestamp
	IsActorTokenInvalidated(ctx context.Context, actorID string, tokenIssuedAt time.Time) (bool, error)
}

// RedisTokenBlacklist implements TokenBlacklist using Redis
type RedisTokenBlacklist struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTokenBlacklist creates a token blacklist on an existing Redis client
func NewRedisTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{
		client:    client,
		keyPrefix: "token:blacklist:",
	}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) actorKey(actorID string) string {
	return b.keyPrefix + "actor:" + actorID
}

// AddToBlacklist adds a token's JTI to the blacklist
func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsBlacklisted checks if a token's JTI is in the blacklist
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}

// AddActorTokensToBlacklist invalidates all tokens for an actor by storing
// the current timestamp
func (b *RedisTokenBlacklist) AddActorTokensToBlacklist(ctx context.Context, actorID string, ttl time.Duration) error {
	invalidationTime := time.Now().Unix()
	if err := b.client.Set(ctx, b.actorKey(actorID), invalidationTime, ttl).Err(); err != nil {
		return fmt.Errorf("failed to invalidate actor tokens: %w", err)
	}
	return nil
}

// IsActorTokenInvalidated checks if a token was issued before the actor's
// invalidation timestamp
func (b *RedisTokenBlacklist) IsActorTokenInvalidated(ctx context.Context, actorID string, tokenIssuedAt time.Time) (bool, error) {
	invalidationTimeStr, err := b.client.Get(ctx, b.actorKey(actorID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check actor token invalidation: %w", err)
	}

	var invalidationTime int64
	if _, err := fmt.Sscanf(invalidationTimeStr, "%d", &invalidationTime); err != nil {
		return false, fmt.Errorf("failed to parse invalidation timestamp: %w", err)
	}

	return tokenIssuedAt.Unix() <= invalidationTime, nil
}

// Close closes the Redis client
func (b *RedisTokenBlacklist) Close() error {
	return b.client.Close()
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist provides an in-memory implementation for tests and
// single-instance deployments without Redis
type InMemoryTokenBlacklist struct {
	mu                     sync.RWMutex
	jtiBlacklist           map[string]time.Time // JTI -> expiration time
	actorInvalidationTimes map[string]time.Time // actorID -> invalidation time
}

// NewInMemoryTokenBlacklist creates a new in-memory token blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		jtiBlacklist:           make(map[string]time.Time),
		actorInvalidationTimes: make(map[string]time.Time),
	}
}

// AddToBlacklist adds a token's JTI to the in-memory blacklist
func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtiBlacklist[jti] = time.Now().Add(ttl)
	return nil
}

// IsBlacklisted checks if a token's JTI is blacklisted and not yet expired
func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiration, exists := b.jtiBlacklist[jti]
	if !exists {
		return false, nil
	}
	if time.Now().After(expiration) {
		delete(b.jtiBlacklist, jti)
		return false, nil
	}
	return true, nil
}

// AddActorTokensToBlacklist invalidates all tokens for an actor
func (b *InMemoryTokenBlacklist) AddActorTokensToBlacklist(_ context.Context, actorID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.actorInvalidationTimes[actorID] = time.Now()
	return nil
}

// IsActorTokenInvalidated checks if a token predates the actor's invalidation
func (b *InMemoryTokenBlacklist) IsActorTokenInvalidated(_ context.Context, actorID string, tokenIssuedAt time.Time) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	invalidationTime, exists := b.actorInvalidationTimes[actorID]
	if !exists {
		return false, nil
	}
	// UnixNano keeps sub-second precision for fast-running tests
	return tokenIssuedAt.UnixNano() <= invalidationTime.UnixNano(), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
