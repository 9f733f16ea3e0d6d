package redis

import (
	"context"
	"fmt"
	"time"

	"rabbit-moon/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const keyPrefix = "payment_lock:"

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &Redis{Client: client, TTL: ttl, Logger: log}
}

func lockKey(orderID string) string {
	return keyPrefix + orderID
}

// Acquire takes the per-order lock. ok is false when someone else holds it.
func (r *Redis) Acquire(ctx context.Context, orderID string) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = r.Client.SetNX(ctx, lockKey(orderID), token, r.TTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis lock %s: %w", orderID, err)
	}
	if !ok {
		r.Logger.Debug("REDIS", fmt.Sprintf("Lock for order %s is held elsewhere", orderID))
		return "", false, nil
	}
	return token, true, nil
}

// Release drops the lock if token still owns it; an expired lock is not an error.
func (r *Redis) Release(ctx context.Context, orderID, token string) error {
	if token == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, r.Client, []string{lockKey(orderID)}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("redis unlock %s: %w", orderID, err)
	}
	return nil
}

// IsLocked reports whether an order currently has a holder.
func (r *Redis) IsLocked(ctx context.Context, orderID string) (bool, error) {
	_, err := r.Client.Get(ctx, lockKey(orderID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NoopLock always grants the lock. Used when Redis is not configured; the
// ledger's version check still keeps writes consistent.
type NoopLock struct{}

func (NoopLock) Acquire(ctx context.Context, orderID string) (string, bool, error) {
	return "noop", true, nil
}

func (NoopLock) Release(ctx context.Context, orderID, token string) error {
	return nil
}
