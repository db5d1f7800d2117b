package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBusy = errors.New("429 too many requests")

func TestBackoffSucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Backoff(context.Background(), Policy{MaxAttempts: 4, BaseDelay: time.Millisecond, Jitter: true}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errBusy
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestBackoffGivesUp(t *testing.T) {
	calls := 0
	err := Backoff(context.Background(), Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(context.Context) error {
		calls++
		return errBusy
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, 3, calls)
}

func TestBackoffStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("forbidden")
	calls := 0
	err := Backoff(context.Background(), Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Retryable:   func(err error) bool { return errors.Is(err, errBusy) },
	}, func(context.Context) error {
		calls++
		return permanent
	})
	assert.Same(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestBackoffHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Backoff(ctx, Policy{MaxAttempts: 5, BaseDelay: time.Hour}, func(context.Context) error {
		calls++
		cancel()
		return errBusy
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPolicyDelay(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
	assert.Equal(t, 4*time.Second, p.Delay(3))
	assert.Equal(t, 5*time.Second, p.Delay(4))
	assert.Equal(t, 5*time.Second, p.Delay(60))
}

func TestPollTrue(t *testing.T) {
	n := 0
	ok, err := Poll(context.Background(), time.Second, time.Millisecond, func(context.Context) bool {
		n++
		return n == 3
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, n)
}

func TestPollTimeoutIsNotAnError(t *testing.T) {
	ok, err := Poll(context.Background(), 20*time.Millisecond, 5*time.Millisecond, func(context.Context) bool { return false })
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPollCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err := Poll(ctx, time.Second, time.Millisecond, func(context.Context) bool { return false })
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPollValue(t *testing.T) {
	n := 0
	v, ok, err := PollValue(context.Background(), time.Second, time.Millisecond, func(context.Context) (string, bool) {
		n++
		return "ready", n >= 2
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ready", v)
}

func TestStable(t *testing.T) {
	chunks := []string{"", "Anna", "Anna, Lee", "Anna, Lee, 3"}
	i := 0
	got, ok, err := Stable(context.Background(), time.Second, time.Millisecond, 10*time.Millisecond, func(context.Context) string {
		if i < len(chunks)-1 {
			i++
		}
		return chunks[i]
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Anna, Lee, 3", got)
}

func TestBreaker(t *testing.T) {
	now := time.Unix(1000, 0)
	b := NewBreaker(2, time.Minute)
	b.now = func() time.Time { return now }

	fail := func(context.Context) error { return errBusy }
	ok := func(context.Context) error { return nil }

	assert.ErrorIs(t, b.Call(context.Background(), fail), errBusy)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Call(context.Background(), fail), errBusy)
	assert.Equal(t, StateOpen, b.State())

	assert.ErrorIs(t, b.Call(context.Background(), ok), ErrOpen)

	now = now.Add(2 * time.Minute)
	require.NoError(t, b.Call(context.Background(), ok))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(1000, 0)
	b := NewBreaker(1, time.Minute)
	b.now = func() time.Time { return now }

	_ = b.Call(context.Background(), func(context.Context) error { return errBusy })
	now = now.Add(2 * time.Minute)
	_ = b.Call(context.Background(), func(context.Context) error { return errBusy })
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, "open", b.State().String())
}
