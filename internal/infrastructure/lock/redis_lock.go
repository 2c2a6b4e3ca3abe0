package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only if it still carries our token
var releaseScript = redis.NewScript(releaseScriptSource)

const releaseScriptSource = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisLockConfig tunes the distributed lock
type RedisLockConfig struct {
	KeyPrefix    string
	TTL          time.Duration // lease; must outlive the longest critical section
	RetryInitial time.Duration
	RetryMax     time.Duration
}

// DefaultRedisLockConfig returns default configuration
func DefaultRedisLockConfig() RedisLockConfig {
	return RedisLockConfig{
		KeyPrefix:    "hydro:lock:",
		TTL:          30 * time.Second,
		RetryInitial: 10 * time.Millisecond,
		RetryMax:     250 * time.Millisecond,
	}
}

// RedisKeyedLocker is a KeyedLocker shared by every instance using the same Redis
type RedisKeyedLocker struct {
	client redis.UniversalClient
	config RedisLockConfig
	logger *zap.Logger
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisKeyedLocker creates a locker over an existing client
func NewRedisKeyedLocker(client redis.UniversalClient, cfg RedisLockConfig, logger *zap.Logger) *RedisKeyedLocker {
	def := DefaultRedisLockConfig()
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = def.KeyPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.RetryInitial <= 0 {
		cfg.RetryInitial = def.RetryInitial
	}
	if cfg.RetryMax < cfg.RetryInitial {
		cfg.RetryMax = cfg.RetryInitial
	}
	return &RedisKeyedLocker{client: client, config: cfg, logger: logger}
}

func (l *RedisKeyedLocker) redisKey(key string) string {
	return l.config.KeyPrefix + key
}

// Lock polls SET NX PX with exponential backoff until acquired or ctx is done.
// Redis errors are returned immediately.
func (l *RedisKeyedLocker) Lock(ctx context.Context, key string) (shared.UnlockFunc, error) {
	rkey := l.redisKey(key)
	token := uuid.NewString()
	wait := l.config.RetryInitial

	for {
		ok, err := l.client.SetNX(ctx, rkey, token, l.config.TTL).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return l.unlockFunc(rkey, token), nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		wait = min(wait*2, l.config.RetryMax)
	}
}

func (l *RedisKeyedLocker) unlockFunc(rkey, token string) shared.UnlockFunc {
	return func() {
		// Release must not depend on the caller's ctx, which may already be done.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := releaseScript.Run(ctx, l.client, []string{rkey}, token).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn("Failed to release lock", zap.String("key", rkey), zap.Error(err))
			return
		}
		if n == 0 {
			l.logger.Warn("Lock expired before release", zap.String("key", rkey))
		}
	}
}

var _ shared.KeyedLocker = (*RedisKeyedLocker)(nil)
