package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast() []Option {
	return []Option{WithInitialDelay(time.Millisecond), WithMaxDelay(2 * time.Millisecond), WithJitter(0)}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	var delays []time.Duration

	opts := append(fast(), WithMaxAttempts(4), WithOnRetry(func(_ int, _ error, d time.Duration) {
		delays = append(delays, d)
	}))
	err := Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, opts...)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, delays)
}

func TestDo_ReturnsLastError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("down")
	}, append(fast(), WithMaxAttempts(3))...)

	assert.EqualError(t, err, "down")
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentStops(t *testing.T) {
	cause := errors.New("bad credentials")
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(cause)
	}, fast()...)

	assert.ErrorIs(t, err, cause)
	assert.False(t, IsPermanent(err))
	assert.Equal(t, 1, calls)
	assert.Nil(t, Permanent(nil))
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoWithData(t *testing.T) {
	calls := 0
	v, err := DoWithData(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("flaky")
		}
		return "pong", nil
	}, fast()...)

	require.NoError(t, err)
	assert.Equal(t, "pong", v)
}

func TestDelay_CappedAndJittered(t *testing.T) {
	cfg := DefaultConfig()
	WithInitialDelay(time.Second)(&cfg)
	WithMaxDelay(3 * time.Second)(&cfg)
	WithJitter(0.5)(&cfg)

	for i := 0; i < 50; i++ {
		d := cfg.delay(5)
		assert.GreaterOrEqual(t, d, 1500*time.Millisecond)
		assert.LessOrEqual(t, d, 4500*time.Millisecond)
	}
}
