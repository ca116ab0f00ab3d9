package lock

import (
	"context"
	"errors"
	"sync"
	"thai_learn_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotAcquired = errors.New("lock not acquired")

// Locker 按 key 互斥，用于串行化同一用户的挑战评估
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LocalLocker 进程内实现，单实例部署或测试使用
type LocalLocker struct {
	mu      sync.Mutex
	entries map[string]*localEntry
}

type localEntry struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{entries: make(map[string]*localEntry)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &localEntry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ErrNotAcquired
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *LocalLocker) release(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// 仅当 token 匹配时删除，避免误删他人在 TTL 过期后获得的锁
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker 基于 SET NX PX 的分布式锁，多实例部署时使用
type RedisLocker struct {
	rdb        *redis.Client
	prefix     string
	ttl        time.Duration
	retryDelay time.Duration
}

func NewRedisLocker(rdb *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		rdb:        rdb,
		prefix:     prefix,
		ttl:        ttl,
		retryDelay: 50 * time.Millisecond,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryDelay)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, err
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ErrNotAcquired
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.unlock(fullKey, token) })
	}, nil
}

// unlock 释放失败只记录日志，锁会在 TTL 后自动过期
func (l *RedisLocker) unlock(fullKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := l.release(ctx, fullKey, token); err != nil {
		logger.Log.Warn("Failed to release redis lock",
			zap.String("key", fullKey),
			zap.Error(err),
		)
	}
}

// release 仅删除自己持有的锁；锁已过期或被他人持有时不视为错误
func (l *RedisLocker) release(ctx context.Context, fullKey, token string) error {
	err := releaseScript.Run(ctx, l.rdb, []string{fullKey}, token).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
