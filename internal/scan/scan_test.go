package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisGuard(t *testing.T, ttl time.Duration) (*RedisGuard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisGuard(rdb, ttl), mr
}

func TestGuards_AcquireRelease(t *testing.T) {
	redisGuard, _ := newRedisGuard(t, time.Minute)
	guards := map[string]Guard{
		"memory": NewMemoryGuard(),
		"redis":  redisGuard,
	}

	for name, g := range guards {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			ok, err := g.Acquire(ctx, "device-1")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = g.Acquire(ctx, "device-1")
			require.NoError(t, err)
			assert.False(t, ok, "second acquire of a held key")

			ok, err = g.Acquire(ctx, "device-2")
			require.NoError(t, err)
			assert.True(t, ok, "keys are independent")

			require.NoError(t, g.Release(ctx, "device-1"))
			ok, err = g.Acquire(ctx, "device-1")
			require.NoError(t, err)
			assert.True(t, ok, "acquire after release")
		})
	}
}

func TestRedisGuard_ExpiresAbandonedLock(t *testing.T) {
	g, mr := newRedisGuard(t, 2*time.Second)
	ctx := context.Background()

	ok, err := g.Acquire(ctx, "device-1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(3 * time.Second)

	other := NewRedisGuard(g.rdb, time.Minute)
	ok, err = other.Acquire(ctx, "device-1")
	require.NoError(t, err)
	assert.True(t, ok)

	// The first holder's late release must not free the new owner's lock.
	require.NoError(t, g.Release(ctx, "device-1"))
	assert.True(t, mr.Exists("scan:lock:device-1"))
}

func TestDispatcher_DropsWhileBusy(t *testing.T) {
	ctx := context.Background()
	d := NewDispatcher[int](NewMemoryGuard(), 4)

	release := make(chan struct{})
	runs := 0
	job := func(context.Context) (int, error) {
		runs++
		<-release
		return 42, nil
	}

	require.NoError(t, d.Submit(ctx, "device-1", job))
	err := d.Submit(ctx, "device-1", job)
	assert.ErrorIs(t, err, ErrInProgress)

	close(release)

	select {
	case res := <-d.Results():
		assert.Equal(t, "device-1", res.Key)
		assert.Equal(t, 42, res.Value)
		assert.NoError(t, res.Err)
	case <-time.After(time.Second):
		t.Fatal("no result")
	}
	assert.Equal(t, 1, runs)

	// Released after the job settled.
	require.NoError(t, d.Submit(ctx, "device-1", func(context.Context) (int, error) {
		return 0, errors.New("boom")
	}))
	res := <-d.Results()
	assert.EqualError(t, res.Err, "boom")
}

func TestDo_ReleasesOnError(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard()

	_, err := Do(ctx, g, "k", func(context.Context) (string, error) {
		_, inner := Do(ctx, g, "k", func(context.Context) (string, error) { return "nested", nil })
		assert.ErrorIs(t, inner, ErrInProgress)
		return "", errors.New("failed")
	})
	assert.EqualError(t, err, "failed")

	v, err := Do(ctx, g, "k", func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}
