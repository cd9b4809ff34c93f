package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errors.New("provider lock not acquired")

// Locker serializes the overlap-check-then-write path for one provider's
// schedule. Slot booking itself does not need it (the store's conditional
// write is the authority there); only availability creation and time-range
// updates do.
type Locker interface {
	WithProviderLock(ctx context.Context, providerID string, fn func(ctx context.Context) error) error
}

type providerLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProviderLocker creates a locker backed by a per-provider Redis key.
func NewProviderLocker(client *redis.Client, ttl time.Duration) Locker {
	return &providerLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *providerLocker) WithProviderLock(ctx context.Context, providerID string, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:provider:%s", providerID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire provider lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	lockCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(lockCtx)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *providerLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release provider lock: %w", err)
	}
	return nil
}
