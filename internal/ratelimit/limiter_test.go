package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topicseg/internal/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func TestDailyQuotaAndRollover(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 23, 59, 0, 0, time.Local)}
	l := newWithClock(Config{RequestsPerDay: 2}, clock.Now)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))
	err := l.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 2, l.Usage())

	clock.Set(time.Date(2026, 3, 2, 0, 0, 1, 0, time.Local))
	assert.Equal(t, 0, l.Usage())
	require.NoError(t, l.Wait(ctx))
	assert.Equal(t, 1, l.Usage())
}

func TestUnlimited(t *testing.T) {
	l := New(Config{})
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.Equal(t, 100, l.Usage())
}

func TestMinuteLimitRespectsCancellation(t *testing.T) {
	l := New(Config{RequestsPerMinute: 1})
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, l.Usage(), "cancelled wait must not consume daily quota")
}
