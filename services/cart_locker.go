package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lindawangwe/mama-uncle-stores/apperrors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CartLocker serialises mutations of a single user's cart so a stock check
// and the write it gates cannot interleave with another request.
type CartLocker interface {
	Lock(ctx context.Context, userID string) (unlock func(), err error)
}

const cartLockPrefix = "lock:cart:"

// releases the lock only if it still holds our token
var releaseCartLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisCartLocker is a SET NX PX lock keyed per user.
type RedisCartLocker struct {
	client       *redis.Client
	ttl          time.Duration
	maxWait      time.Duration
	pollInterval time.Duration
	logger       *zap.Logger
}

func NewRedisCartLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCartLocker {
	if logger == nil {
		logger = zap.L()
	}
	return &RedisCartLocker{
		client:       client,
		ttl:          ttl,
		maxWait:      ttl,
		pollInterval: 25 * time.Millisecond,
		logger:       logger,
	}
}

// WithMaxWait bounds how long Lock polls before giving up.
func (l *RedisCartLocker) WithMaxWait(d time.Duration) *RedisCartLocker {
	l.maxWait = d
	return l
}

func (l *RedisCartLocker) Lock(ctx context.Context, userID string) (func(), error) {
	key := cartLockPrefix + userID
	token := uuid.NewString()
	deadline := time.Now().Add(l.maxWait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, apperrors.Conflict("Cart is busy, please retry")
			}
			return nil, fmt.Errorf("acquire cart lock: %w", err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}
		if time.Now().After(deadline) {
			return nil, apperrors.Conflict("Cart is busy, please retry")
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, apperrors.Conflict("Cart is busy, please retry")
			}
			return nil, ctx.Err()
		case <-time.After(l.pollInterval):
		}
	}
}

func (l *RedisCartLocker) release(key, token string) {
	// the request context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseCartLock.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		l.logger.Warn("Failed to release cart lock", zap.String("key", key), zap.Error(err))
	}
}
