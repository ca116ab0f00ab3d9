package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"thai_learn_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLocalLocker_SerializesSameKey(t *testing.T) {
	l := NewLocalLocker()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "user:1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, l.entries)
}

func TestLocalLocker_DifferentKeysIndependent(t *testing.T) {
	l := NewLocalLocker()

	unlockA, err := l.Lock(context.Background(), "user:1")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	unlockB, err := l.Lock(ctx, "user:2")
	require.NoError(t, err)
	unlockB()
}

func TestLocalLocker_TimesOut(t *testing.T) {
	l := NewLocalLocker()

	unlock, err := l.Lock(context.Background(), "user:1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "user:1")
	assert.ErrorIs(t, err, ErrNotAcquired)

	unlock()
	// 重复调用 unlock 无副作用
	unlock()

	unlock2, err := l.Lock(context.Background(), "user:1")
	require.NoError(t, err)
	unlock2()
	assert.Empty(t, l.entries)
}

func TestRedisLocker_FailedReleaseIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	prev := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = prev })

	// 无人监听的端口，释放必然失败
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { rdb.Close() })
	l := NewRedisLocker(rdb, "test:", time.Second)

	l.unlock("test:user:1", "token")

	entries := logs.FilterMessage("Failed to release redis lock").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "test:user:1", entries[0].ContextMap()["key"])
}
