// Package lock serializes story generation per character. Only one
// generation may run for a given character at a time; the lock is held in
// Redis so it survives multiple server instances.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// GenerationLock acquires and releases the per-character generation lock.
type GenerationLock interface {
	// Acquire takes the lock for the character. It returns false when another
	// generation currently holds it.
	Acquire(ctx context.Context, characterID uuid.UUID) (bool, error)
	Release(ctx context.Context, characterID uuid.UUID) error
}

type redisGenerationLock struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisGenerationLock creates a Redis-backed generation lock. The TTL is a
// safety net: a crashed holder frees the character after at most ttl.
func NewRedisGenerationLock(client *redis.Client, ttl time.Duration, logger *zap.Logger) GenerationLock {
	return &redisGenerationLock{
		client: client,
		ttl:    ttl,
		logger: logger.Named("GenerationLock"),
	}
}

func lockKey(characterID uuid.UUID) string {
	return fmt.Sprintf("generation_lock:%s", characterID.String())
}

func (l *redisGenerationLock) Acquire(ctx context.Context, characterID uuid.UUID) (bool, error) {
	key := lockKey(characterID)
	ok, err := l.client.SetNX(ctx, key, "1", l.ttl).Result()
	if err != nil {
		l.logger.Error("Failed to acquire generation lock",
			zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("failed to acquire generation lock: %w", err)
	}
	if !ok {
		l.logger.Debug("Generation lock already held", zap.String("key", key))
	}
	return ok, nil
}

func (l *redisGenerationLock) Release(ctx context.Context, characterID uuid.UUID) error {
	key := lockKey(characterID)
	if err := l.client.Del(ctx, key).Err(); err != nil {
		l.logger.Error("Failed to release generation lock",
			zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to release generation lock: %w", err)
	}
	return nil
}
