package events

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mixcoach/internal/config"
)

// ErrEncode marks an event that cannot be serialized. It is never retried.
var ErrEncode = errors.New("encode event")

// RetryPublisher is a decorator that retries failed publishes with
// exponential backoff and jitter.
type RetryPublisher struct {
	inner Publisher
	cfg   config.RetryConfig
	log   *zap.Logger
	sleep func(context.Context, time.Duration) error
}

// WithRetry wraps p with retry logic.
func WithRetry(p Publisher, cfg config.RetryConfig, log *zap.Logger) *RetryPublisher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryPublisher{inner: p, cfg: cfg, log: log.Named("events.retry"), sleep: sleepCtx}
}

func (r *RetryPublisher) Publish(ctx context.Context, ev Event) error {
	var lastErr error
	for attempt := range r.cfg.MaxAttempts {
		err := r.inner.Publish(ctx, ev)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) || attempt == r.cfg.MaxAttempts-1 {
			break
		}

		wait := r.backoff(attempt)
		r.log.Debug("publish failed, retrying",
			zap.String("type", string(ev.Type)),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err))
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return lastErr
}

func (r *RetryPublisher) Close() error { return r.inner.Close() }

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errors.Is(err, ErrEncode)
}

// backoff computes the wait before the next attempt, with ±20% jitter.
func (r *RetryPublisher) backoff(attempt int) time.Duration {
	wait := float64(r.cfg.InitialWait) * math.Pow(r.cfg.Multiplier, float64(attempt))
	if ceiling := float64(r.cfg.MaxWait); wait > ceiling {
		wait = ceiling
	}
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
