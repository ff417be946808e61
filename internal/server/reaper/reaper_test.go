package reaper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/jigsawhub/internal/logging"
	"github.com/dmitrijs2005/jigsawhub/internal/server/locks"
	"github.com/dmitrijs2005/jigsawhub/internal/server/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	mu    sync.Mutex
	calls int
	idle  time.Duration
	out   []*models.Match
	err   error
}

func (f *fakeExpirer) ExpireIdle(_ context.Context, olderThan time.Duration) ([]*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.idle = olderThan
	return f.out, f.err
}

func (f *fakeExpirer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSweep(t *testing.T) {
	exp := &fakeExpirer{out: []*models.Match{{ID: 1}, {ID: 2}}}
	r := New(exp, locks.Local{}, 30*time.Minute, time.Minute, logging.Nop{})

	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 30*time.Minute, exp.idle)

	exp.err = errors.New("storage unavailable")
	_, err = r.Sweep(context.Background())
	assert.Error(t, err)
}

func TestSweep_OnlyLockHolderRuns(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	other := locks.NewRedisLocker(rdb)
	ok, err := other.TryLock(context.Background(), lockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	exp := &fakeExpirer{}
	r := New(exp, locks.NewRedisLocker(rdb), time.Hour, time.Minute, logging.Nop{})

	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, exp.count())

	_, err = other.Unlock(context.Background(), lockKey)
	require.NoError(t, err)

	_, err = r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, exp.count())
	assert.False(t, mr.Exists(lockKey), "lock is released after the sweep")
}

func TestRun_StopsOnCancel(t *testing.T) {
	exp := &fakeExpirer{}
	r := New(exp, locks.Local{}, time.Hour, 5*time.Millisecond, logging.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return exp.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}

func TestNew_NonPositiveIntervalFallsBack(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		r := New(&fakeExpirer{}, locks.Local{}, time.Minute, interval, logging.Nop{})
		assert.Equal(t, DefaultInterval, r.interval)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NotPanics(t, func() { r.Run(ctx) })
	}
}

func TestSweep_LockAlwaysExpires(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	exp := &fakeExpirer{}
	spy := &ttlSpy{Locker: locks.NewRedisLocker(rdb), mr: mr}

	r := New(exp, spy, time.Minute, 0, logging.Nop{})
	_, err = r.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, exp.count())
	assert.Equal(t, DefaultInterval, spy.ttl)
	assert.False(t, mr.Exists(lockKey))
}

// ttlSpy records the expiry of the lock just before it is released.
type ttlSpy struct {
	Locker
	mr  *miniredis.Miniredis
	ttl time.Duration
}

func (s *ttlSpy) Unlock(ctx context.Context, key string) (bool, error) {
	s.ttl = s.mr.TTL(key)
	return s.Locker.Unlock(ctx, key)
}
