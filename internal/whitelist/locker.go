package whitelist

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/popchain/popchain-core/pkg/repo"
)

var ErrLocked = errors.New("a whitelist run is already in progress for this event")

// Locker gives one run at a time exclusive use of an event.
type Locker interface {
	Lock(ctx context.Context, eventID string) (unlock func(), err error)
}

var (
	_ Locker = (*LocalLocker)(nil)
	_ Locker = (*RedisLocker)(nil)
)

type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) Lock(_ context.Context, eventID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[eventID]; ok {
		return nil, errors.Wrap(ErrLocked, eventID)
	}
	l.held[eventID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, eventID)
			l.mu.Unlock()
		})
	}, nil
}

const lockKeyPrefix = "popchain:whitelist:lock:"

// KEYS[1] = lock key, ARGV[1] = owner token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// KEYS[1] = lock key, ARGV[1] = owner token, ARGV[2] = ttl in milliseconds
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker shares event exclusivity between processes. A held lock is
// refreshed every third of its ttl until released.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger logrus.FieldLogger
}

func NewRedisLocker(cfg repo.Redis, logger logrus.FieldLogger) *RedisLocker {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisLockerWithClient(client, cfg.LockTTL.ToDuration(), logger)
}

func NewRedisLockerWithClient(client redis.UniversalClient, ttl time.Duration, logger logrus.FieldLogger) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, logger: logger}
}

func (l *RedisLocker) Lock(ctx context.Context, eventID string) (func(), error) {
	key := lockKeyPrefix + eventID
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "acquire lock %s", key)
	}
	if !ok {
		return nil, errors.Wrap(ErrLocked, eventID)
	}

	stop := make(chan struct{})
	go l.refresh(key, token, stop)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.WithFields(logrus.Fields{"key": key, "err": err}).Warn("Release whitelist lock failed")
			}
		})
	}, nil
}

func (l *RedisLocker) refresh(key string, token string, stop <-chan struct{}) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.ttl/3)
			err := refreshScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Err()
			cancel()
			if err != nil {
				l.logger.WithFields(logrus.Fields{"key": key, "err": err}).Warn("Refresh whitelist lock failed")
			}
		}
	}
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}
