package notifier

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"time"
)

// RetryConfig defines retry behavior for a channel. AttemptTimeout bounds
// each call and Budget bounds the whole delivery including backoff; zero
// leaves either unbounded.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	AttemptTimeout time.Duration
	Budget         time.Duration
}

// DefaultRetryConfig returns the retry policy used for HTTP channels.
// Delivery runs inline in the consumer loop, so one dead endpoint may hold
// an event for at most Budget.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2.0,
		AttemptTimeout: 3 * time.Second,
		Budget:         5 * time.Second,
	}
}

// Retrying retries a channel on transient failures with exponential backoff.
type Retrying struct {
	next Notifier
	cfg  RetryConfig
}

// WithRetry wraps n. Only errors IsRetryable accepts are retried.
func WithRetry(n Notifier, cfg RetryConfig) *Retrying {
	return &Retrying{next: n, cfg: cfg}
}

func (r *Retrying) Name() string { return r.next.Name() }

func (r *Retrying) Notify(ctx context.Context, alert *Alert) error {
	if r.cfg.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Budget)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		err := r.attempt(ctx, alert)
		if err == nil {
			if attempt > 0 {
				slog.Info("Alert delivered after retry", "channel", r.next.Name(), "attempt", attempt+1)
			}
			return nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == r.cfg.MaxRetries || ctx.Err() != nil {
			break
		}

		backoff := r.backoff(attempt)
		slog.Warn("Alert delivery failed, retrying",
			"channel", r.next.Name(),
			"device_id", alert.DeviceID,
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(backoff):
		}
	}
	return lastErr
}

func (r *Retrying) attempt(ctx context.Context, alert *Alert) error {
	if r.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.AttemptTimeout)
		defer cancel()
	}
	return r.next.Notify(ctx, alert)
}

// backoff grows exponentially up to MaxBackoff, with ±25% jitter.
func (r *Retrying) backoff(attempt int) time.Duration {
	d := float64(r.cfg.InitialBackoff) * math.Pow(r.cfg.BackoffFactor, float64(attempt))
	if d > float64(r.cfg.MaxBackoff) {
		d = float64(r.cfg.MaxBackoff)
	}
	d += d * 0.25 * (rand.Float64()*2 - 1)
	return time.Duration(d)
}

// IsRetryable reports whether err is transient: a network failure, a
// timeout, or a 429/5xx answer.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
