package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, time.Second), mr
}

func lockers(t *testing.T) map[string]Locker {
	rl, _ := newRedisLocker(t)
	return map[string]Locker{"local": NewLocalLocker(), "redis": rl}
}

func TestLocker_Exclusive(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				holders int
				maxSeen int
			)
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					unlock, err := l.Lock(ctx, "k")
					if !assert.NoError(t, err) {
						return
					}
					mu.Lock()
					holders++
					if holders > maxSeen {
						maxSeen = holders
					}
					mu.Unlock()

					time.Sleep(time.Millisecond)

					mu.Lock()
					holders--
					mu.Unlock()
					unlock()
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, maxSeen)
		})
	}
}

func TestLocker_TimesOutWhileHeld(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			unlock, err := l.Lock(context.Background(), "k")
			require.NoError(t, err)
			defer unlock()

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			_, err = l.Lock(ctx, "k")
			assert.ErrorIs(t, err, ErrLockTimeout)
		})
	}
}

func TestLocker_IndependentKeys(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			u1, err := l.Lock(ctx, "a")
			require.NoError(t, err)
			u2, err := l.Lock(ctx, "b")
			require.NoError(t, err)

			u1()
			u2()
		})
	}
}

func TestLocalLocker_ForgetsReleasedKeys(t *testing.T) {
	l := NewLocalLocker().(*localLocker)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()
	unlock()

	assert.Empty(t, l.locks)
}

func TestRedisLocker_UnlockOnlyReleasesOwnLock(t *testing.T) {
	l, mr := newRedisLocker(t)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	mr.Set(lockPrefix+"k", "someone-else")

	unlock()

	got, err := mr.Get(lockPrefix + "k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestService_WithRedisLocker(t *testing.T) {
	l, _ := newRedisLocker(t)
	tokens, _ := NewJWTTokenIssuer("k")
	svc := NewService(NewAccountRepository(), tokens, l, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerAccountRequest{"alice", "pw"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, registerAccountRequest{"alice", "pw"})
	assert.Equal(t, ErrExistingUsername, err)
}
