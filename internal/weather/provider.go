package weather

import (
	"context"
	"errors"
)

// Provider abstracts the upstream weather source. The production chain is
// the Open-Meteo client wrapped in the retrying decorator.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, lat, lon float64) (Report, error)
}

// FetchFunc produces a fresh report for a cache miss.
type FetchFunc func(ctx context.Context) (Report, error)

// ErrTooManyWaiters is returned by a Cache when the per-key waiter limit is
// reached. Excess callers are rejected immediately rather than queued.
var ErrTooManyWaiters = errors.New("too many concurrent requests for coordinates")

// Cache is the contract the coalescing cache must satisfy: a time-bounded
// store with at-most-one-fetch-in-flight-per-key semantics. It broadcasts
// the single leader outcome verbatim and never interprets error content.
type Cache interface {
	GetOrFetch(ctx context.Context, key string, fetch FetchFunc) (Report, error)
}
