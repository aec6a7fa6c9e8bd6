package providers

import (
	"context"
	"math/rand"
	"time"

	"weather-proxy/internal/weather"
)

// RetryConfig controls the backoff behaviour of the retrying decorator.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt, so the
	// total attempt count is MaxRetries+1.
	MaxRetries int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// Multiplier grows the delay for each subsequent retry. Must be >= 1.
	Multiplier float64
	// MaxJitter bounds the uniform random term added on top of each delay.
	MaxJitter time.Duration
}

// retryingProvider wraps a Provider with bounded exponential backoff.
// Only retryable fetch errors (timeouts, 5xx, connection refused) trigger
// another attempt; everything else propagates immediately.
type retryingProvider struct {
	next weather.Provider
	cfg  RetryConfig
}

// WithRetry decorates next with the retry policy.
func WithRetry(next weather.Provider, cfg RetryConfig) weather.Provider {
	return &retryingProvider{next: next, cfg: cfg}
}

func (p *retryingProvider) Name() string {
	return p.next.Name()
}

func (p *retryingProvider) Fetch(ctx context.Context, lat, lon float64) (weather.Report, error) {
	delay := p.cfg.BaseDelay

	for attempt := 0; ; attempt++ {
		report, err := p.next.Fetch(ctx, lat, lon)
		if err == nil {
			return report, nil
		}
		if !weather.IsRetryable(err) || attempt >= p.cfg.MaxRetries {
			// The last classified error propagates unchanged.
			return weather.Report{}, err
		}

		wait := delay + jitter(p.cfg.MaxJitter)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return weather.Report{}, ctx.Err()
		case <-timer.C:
		}

		if p.cfg.Multiplier > 1 {
			delay = time.Duration(float64(delay) * p.cfg.Multiplier)
		}
	}
}

func jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}
