package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(l *Limiter, start time.Time) *time.Time {
	now := start
	l.now = func() time.Time { return now }
	return &now
}

func TestLimiter_BurstThenDeny(t *testing.T) {
	l := NewLimiter(Policy{Limit: 10, Window: time.Hour, Burst: 2})
	fixedClock(l, time.Unix(1_700_000_000, 0))

	first := l.Allow("10.0.0.1")
	assert.True(t, first.Allowed)
	assert.Equal(t, 10, first.Limit)
	assert.Equal(t, 1, first.Remaining)

	assert.True(t, l.Allow("10.0.0.1").Allowed)

	denied := l.Allow("10.0.0.1")
	assert.False(t, denied.Allowed)
	assert.Equal(t, 0, denied.Remaining)
	assert.InDelta(t, (6 * time.Minute).Seconds(), denied.RetryAfter.Seconds(), 0.01)
}

func TestLimiter_Refill(t *testing.T) {
	l := NewLimiter(Policy{Limit: 60, Window: time.Minute, Burst: 1})
	now := fixedClock(l, time.Unix(1_700_000_000, 0))

	assert.True(t, l.Allow("a").Allowed)
	assert.False(t, l.Allow("a").Allowed)

	*now = now.Add(time.Second)
	assert.True(t, l.Allow("a").Allowed)
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	l := NewLimiter(Policy{Limit: 1, Window: time.Hour, Burst: 1})
	fixedClock(l, time.Unix(1_700_000_000, 0))

	assert.True(t, l.Allow("a").Allowed)
	assert.False(t, l.Allow("a").Allowed)
	assert.True(t, l.Allow("b").Allowed)
}

func TestLimiter_DisabledAndWhitelist(t *testing.T) {
	disabled := NewLimiter(Policy{})
	for range 100 {
		assert.True(t, disabled.Allow("a").Allowed)
	}

	l := NewLimiter(Policy{Limit: 1, Window: time.Hour, Burst: 1}, "127.0.0.1")
	for range 5 {
		assert.True(t, l.Allow("127.0.0.1").Allowed)
	}
}

func TestLimiter_DefaultBurst(t *testing.T) {
	l := NewLimiter(Policy{Limit: 3, Window: time.Hour})
	fixedClock(l, time.Unix(1_700_000_000, 0))

	for range 3 {
		assert.True(t, l.Allow("a").Allowed)
	}
	assert.False(t, l.Allow("a").Allowed)
}

func TestLimiter_Prune(t *testing.T) {
	l := NewLimiter(DefaultPolicy())
	now := fixedClock(l, time.Unix(1_700_000_000, 0))

	l.Allow("old")
	*now = now.Add(2 * time.Hour)
	l.Allow("new")

	assert.Equal(t, 1, l.Prune(time.Hour))
	assert.Len(t, l.clients, 1)
	assert.Contains(t, l.clients, "new")
}

func TestLimiter_RunPruner(t *testing.T) {
	l := NewLimiter(Policy{Limit: 10, Window: time.Minute, Burst: 2})
	now := fixedClock(l, time.Unix(1_700_000_000, 0))

	l.Allow("10.0.0.1")
	l.Allow("10.0.0.2")
	require.Equal(t, 2, l.Len())
	*now = now.Add(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.RunPruner(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestLimiter_RunPrunerDisabledReturns(t *testing.T) {
	l := NewLimiter(Policy{})
	done := make(chan struct{})
	go func() {
		l.RunPruner(context.Background(), time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pruner kept running for a disabled policy")
	}
}
