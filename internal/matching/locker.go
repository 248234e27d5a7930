// internal/matching/locker.go

package matching

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// PairLocker serializes read-modify-write cycles on a single pair. Pairs
// never block each other.
type PairLocker interface {
	Lock(ctx context.Context, key PairKey) (unlock func(), err error)
}

// LocalLocker is an in-process keyed mutex. Entries are reference counted
// and dropped once no goroutine holds or waits on them.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[PairKey]*pairLock
}

type pairLock struct {
	sem  chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[PairKey]*pairLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, key PairKey) (func(), error) {
	l.mu.Lock()
	pl, ok := l.locks[key]
	if !ok {
		pl = &pairLock{sem: make(chan struct{}, 1)}
		l.locks[key] = pl
	}
	pl.refs++
	l.mu.Unlock()

	select {
	case pl.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, pl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-pl.sem
			l.release(key, pl)
		})
	}, nil
}

func (l *LocalLocker) release(key PairKey, pl *pairLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pl.refs--
	if pl.refs == 0 {
		delete(l.locks, key)
	}
}

// held returns the number of live lock entries.
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

const (
	redisLockPrefix   = "mye:lock:pair:"
	redisLockAttempts = 40
	redisLockBackoff  = 25 * time.Millisecond
)

// RedisLocker is a PairLocker shared by every API instance. The lock expires
// after ttl so a crashed holder cannot wedge a pair.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Lock(ctx context.Context, key PairKey) (func(), error) {
	lockKey := redisLockPrefix + key.String()
	token := uuid.NewString()

	for attempt := 0; attempt < redisLockAttempts; attempt++ {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire pair lock: %w", err)
		}
		if ok {
			return func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				releaseScript.Run(ctx, l.client, []string{lockKey}, token)
			}, nil
		}

		select {
		case <-time.After(redisLockBackoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w: pair %s is busy", ErrPersistenceConflict, key)
}
