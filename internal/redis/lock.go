package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("staff lock not acquired")
)

// Locker serializes bulk agenda generation per staff member. The
// conflict-check-then-batch-insert sequence runs inside the critical
// section so two concurrent agendas for the same staff member cannot
// interleave between check and insert.
type Locker interface {
	WithStaffLock(ctx context.Context, staffUserID string, fn func(ctx context.Context) error) error
}

type redisStaffLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStaffLocker creates a locker that uses a per staff member Redis key.
func NewRedisStaffLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisStaffLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisStaffLocker) WithStaffLock(ctx context.Context, staffUserID string, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:staff:%s", staffUserID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire staff lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisStaffLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release staff lock: %w", err)
	}
	return nil
}

type nopLocker struct{}

func (nopLocker) WithStaffLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// NopLocker runs the critical section without locking. Tests use it; the
// store's uniqueness constraint remains the consistency backstop.
func NopLocker() Locker { return nopLocker{} }
