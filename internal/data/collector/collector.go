package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/MustafAks/DexScreener/internal/data"
	"github.com/MustafAks/DexScreener/internal/models"
	"github.com/MustafAks/DexScreener/internal/utils/retry"
)

// ErrRetriesExhausted is returned by FetchBatch once every attempt failed.
var ErrRetriesExhausted = errors.New("fetch retries exhausted")

type Logger interface {
	Error(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

// RetryHook is called after each failed batch attempt that will be retried.
type RetryHook func(attempt int, err error, wait time.Duration)

// Collector wraps a data.TokenSource with the batch retry policy and a
// negative cache of detail lookups that found nothing.
type Collector struct {
	source  data.TokenSource
	policy  retry.Policy
	logger  Logger
	misses  *expirable.LRU[string, struct{}] // nil when disabled
	onRetry RetryHook
}

type Option func(*Collector)

// WithMissCache remembers up to size "not found" addresses for ttl.
// A zero ttl or size leaves the cache off.
func WithMissCache(size int, ttl time.Duration) Option {
	return func(c *Collector) {
		if size <= 0 || ttl <= 0 {
			return
		}
		c.misses = expirable.NewLRU[string, struct{}](size, nil, ttl)
	}
}

func WithRetryHook(hook RetryHook) Option {
	return func(c *Collector) {
		c.onRetry = hook
	}
}

func NewCollector(source data.TokenSource, policy retry.Policy, logger Logger, opts ...Option) *Collector {
	c := &Collector{
		source: source,
		policy: policy,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchBatch returns the latest token summaries, retrying with linear
// backoff. When every attempt fails the error wraps ErrRetriesExhausted
// and the last failure; a cancelled ctx is returned as is.
func (c *Collector) FetchBatch(ctx context.Context) ([]models.TokenSummary, error) {
	var batch []models.TokenSummary

	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		var err error
		batch, err = c.source.FetchLatest(ctx)
		return err
	}, func(attempt int, err error, wait time.Duration) {
		c.logger.Warn("failed to fetch latest tokens, retrying",
			"attempt", attempt, "max_attempts", c.policy.MaxAttempts, "wait", wait, "error", err)
		if c.onRetry != nil {
			c.onRetry(attempt, err, wait)
		}
	})

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
	}

	c.logger.Info("collected latest tokens", "count", len(batch))
	return batch, nil
}

// Detail returns the snapshot of one token. Addresses that recently had no
// pair are answered from the miss cache with data.ErrDetailNotFound.
func (c *Collector) Detail(ctx context.Context, tokenAddress string) (*models.TokenSnapshot, error) {
	if c.misses != nil && c.misses.Contains(tokenAddress) {
		return nil, fmt.Errorf("%s (cached): %w", tokenAddress, data.ErrDetailNotFound)
	}

	snapshot, err := c.source.FetchDetail(ctx, tokenAddress)
	if err != nil {
		if c.misses != nil && errors.Is(err, data.ErrDetailNotFound) {
			c.misses.Add(tokenAddress, struct{}{})
		}
		return nil, fmt.Errorf("failed to fetch token detail: %w", err)
	}

	return snapshot, nil
}
