package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy is a bounded retry policy with linearly growing delays.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Increment    time.Duration
}

// Linear implements backoff.BackOff: Initial, Initial+Increment, Initial+2*Increment, ...
type Linear struct {
	Initial   time.Duration
	Increment time.Duration

	current time.Duration
}

func NewLinear(initial, increment time.Duration) *Linear {
	return &Linear{Initial: initial, Increment: increment, current: initial}
}

func (l *Linear) NextBackOff() time.Duration {
	d := l.current
	l.current += l.Increment
	return d
}

func (l *Linear) Reset() {
	l.current = l.Initial
}

// Do runs op until it succeeds, the policy runs out of attempts or ctx is
// done. onRetry, when non-nil, is called before each wait with the attempt
// number that just failed. The last error from op is returned on exhaustion.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error, onRetry func(attempt int, err error, wait time.Duration)) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(NewLinear(p.InitialDelay, p.Increment), uint64(attempts-1)),
		ctx,
	)

	attempt := 0
	operation := func() error {
		attempt++
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		return op(ctx)
	}

	notify := func(err error, wait time.Duration) {
		if onRetry != nil {
			onRetry(attempt, err, wait)
		}
	}

	return backoff.RetryNotify(operation, b, notify)
}
