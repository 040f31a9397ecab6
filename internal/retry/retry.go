package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/jpillora/backoff"

	"github.com/mailbear/mailbear/internal/logger"
)

// minSleep floors every computed delay so jitter can never produce a zero or
// negative sleep.
const minSleep = 100 * time.Millisecond

// Policy describes one call site's bounded-retry behavior. A Policy is a
// value, constructed where it is used, never shared mutable state.
type Policy struct {
	// MaxRetries is the number of re-attempts after the first try.
	MaxRetries int
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration
	// Multiplier is the exponential base applied per attempt.
	Multiplier float64
	// Jitter perturbs each delay by a uniform random fraction in [-Jitter, +Jitter].
	Jitter float64
	// Retryable classifies a failure as transient. A nil predicate retries
	// every failure.
	Retryable func(error) bool
}

func (p Policy) retryable(err error) bool {
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

func (p Policy) sequence() *backoff.Backoff {
	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}
	initial := p.InitialBackoff
	if initial <= 0 {
		initial = time.Second
	}
	return &backoff.Backoff{
		Min:    initial,
		Max:    10 * time.Minute,
		Factor: multiplier,
		Jitter: false,
	}
}

// jittered applies the policy's jitter fraction to a base delay and floors
// the result at minSleep.
func (p Policy) jittered(base time.Duration) time.Duration {
	d := base
	if p.Jitter > 0 {
		offset := float64(base) * p.Jitter * (rand.Float64()*2 - 1)
		d = base + time.Duration(offset)
	}
	if d < minSleep {
		d = minSleep
	}
	return d
}

// Do runs op with bounded retry per the policy. A retryable failure with
// attempts remaining sleeps an exponentially growing, jittered delay and
// tries again; a non-retryable failure, or an exhausted budget, propagates
// the failure immediately. The success value of the first successful attempt
// is returned.
func Do[T any](ctx context.Context, p Policy, log logger.Logger, name string, op func() (T, error)) (T, error) {
	var zero T
	seq := p.sequence()

	for attempt := 0; ; attempt++ {
		value, err := op()
		if err == nil {
			return value, nil
		}
		if !p.retryable(err) {
			return zero, err
		}
		if attempt >= p.MaxRetries {
			if log != nil {
				log.Errorf("%s failed after %d retries: %v", name, p.MaxRetries, err)
			}
			return zero, err
		}

		delay := p.jittered(seq.Duration())
		if log != nil {
			log.Warnf("retry %d/%d for %s after %s due to: %v", attempt+1, p.MaxRetries, name, delay, err)
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
}
