package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultGenerationLockKey = "timetable:generation:lock"

// releaseScript deletes the key only when it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// GenerationLock guards against concurrent timetable generation runs.
// With a Redis client the lock is shared across instances; without one it falls back to the local process.
type GenerationLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger

	mu     sync.Mutex
	holder string
}

// NewGenerationLock constructs a lock. client may be nil.
func NewGenerationLock(client *redis.Client, ttl time.Duration, logger *zap.Logger) *GenerationLock {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationLock{client: client, key: defaultGenerationLockKey, ttl: ttl, logger: logger}
}

// TryAcquire attempts to take the lock without waiting. It returns the token required to release it.
func (l *GenerationLock) TryAcquire(ctx context.Context) (string, bool, error) {
	token := uuid.NewString()
	if l.client == nil {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.holder != "" {
			return "", false, nil
		}
		l.holder = token
		return token, true, nil
	}

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire generation lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the lock when token still owns it.
func (l *GenerationLock) Release(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if l.client == nil {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.holder == token {
			l.holder = ""
		}
		return nil
	}

	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int()
	if err != nil {
		return fmt.Errorf("release generation lock: %w", err)
	}
	if deleted == 0 {
		l.logger.Warn("generation lock expired before release", zap.String("key", l.key))
	}
	return nil
}
