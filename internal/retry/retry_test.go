package retry

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient failure")

func failNTimes(n int, result string) (func() (string, error), *int) {
	calls := 0
	return func() (string, error) {
		calls++
		if calls <= n {
			return "", errTransient
		}
		return result, nil
	}, &calls
}

func TestDo_SucceedsWithinBudget(t *testing.T) {
	// Arrange
	op, calls := failNTimes(2, "ok")
	policy := Policy{MaxRetries: 3, InitialBackoff: time.Millisecond, Multiplier: 2, Jitter: 0.1}

	// Act
	value, err := Do(context.Background(), policy, nil, "op", op)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "ok", value)
	assert.Equal(t, 3, *calls)
}

func TestDo_ExhaustsBudget(t *testing.T) {
	// Arrange
	op, calls := failNTimes(10, "never")
	policy := Policy{MaxRetries: 2, InitialBackoff: time.Millisecond, Multiplier: 2}

	// Act
	_, err := Do(context.Background(), policy, nil, "op", op)

	// Assert: r+1 invocations, failure propagated
	require.Error(t, err)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, *calls)
}

func TestDo_NonRetryableShortCircuits(t *testing.T) {
	// Arrange
	permanent := errors.New("permanent failure")
	calls := 0
	op := func() (int, error) {
		calls++
		return 0, permanent
	}
	policy := Policy{
		MaxRetries:     5,
		InitialBackoff: time.Millisecond,
		Retryable:      func(err error) bool { return errors.Is(err, errTransient) },
	}

	// Act
	_, err := Do(context.Background(), policy, nil, "op", op)

	// Assert: invoked exactly once regardless of budget
	require.Error(t, err)
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_FirstSuccessReturnsImmediately(t *testing.T) {
	calls := 0
	op := func() (int, error) {
		calls++
		return 42, nil
	}

	value, err := Do(context.Background(), Policy{MaxRetries: 3}, nil, "op", op)

	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	op, _ := failNTimes(10, "never")

	_, err := Do(ctx, Policy{MaxRetries: 5, InitialBackoff: time.Second}, nil, "op", op)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolicy_DelaysAreMonotonicAndFloored(t *testing.T) {
	policy := Policy{MaxRetries: 5, InitialBackoff: 200 * time.Millisecond, Multiplier: 2}
	seq := policy.sequence()

	previous := time.Duration(0)
	for attempt := 0; attempt < 5; attempt++ {
		delay := policy.jittered(seq.Duration())
		assert.GreaterOrEqual(t, delay, minSleep)
		assert.GreaterOrEqual(t, delay, previous)
		previous = delay
	}
}

func TestPolicy_JitterStaysWithinFraction(t *testing.T) {
	policy := Policy{Jitter: 0.5}
	base := time.Second

	for i := 0; i < 100; i++ {
		delay := policy.jittered(base)
		assert.GreaterOrEqual(t, delay, 500*time.Millisecond)
		assert.LessOrEqual(t, delay, 1500*time.Millisecond)
	}
}

func TestPolicy_TinyDelaysFlooredAtMinimum(t *testing.T) {
	policy := Policy{Jitter: 1.0}

	delay := policy.jittered(time.Nanosecond)

	assert.Equal(t, minSleep, delay)
}
