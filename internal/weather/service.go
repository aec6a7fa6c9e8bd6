package weather

import (
	"context"
	"errors"
	"log"
)

// Service glues the coalescing cache and the upstream provider and owns the
// translation from internal error kinds to response-facing failure kinds.
// It is constructed once in main and passed to the handlers; there is no
// package-level instance.
type Service struct {
	cache    Cache
	provider Provider
}

// NewService creates a new Service.
func NewService(cache Cache, provider Provider) *Service {
	return &Service{
		cache:    cache,
		provider: provider,
	}
}

// CurrentWeather returns the current conditions for the given coordinates,
// served from cache when fresh. The cache key uses coordinates rounded to 4
// decimal places; the fetch closes over the caller's unrounded coordinates
// so the response location keeps the original precision.
func (s *Service) CurrentWeather(ctx context.Context, lat, lon float64) (Report, error) {
	key := CacheKey(lat, lon)

	report, err := s.cache.GetOrFetch(ctx, key, func(ctx context.Context) (Report, error) {
		return s.provider.Fetch(ctx, lat, lon)
	})
	if err != nil {
		return Report{}, s.classifyFailure(err)
	}

	return report, nil
}

// classifyFailure maps an internal error to the failure kind clients see.
// Raw upstream detail never reaches the response.
func (s *Service) classifyFailure(err error) *Failure {
	if errors.Is(err, ErrTooManyWaiters) {
		log.Printf("weather: coalescing limit reached: %v", err)
		return &Failure{
			Kind:    FailureUnavailable,
			Message: "service temporarily unavailable - too many concurrent requests",
		}
	}

	var fe *FetchError
	if errors.As(err, &fe) {
		log.Printf("weather: upstream fetch failed (%s): %v", fe.Kind, err)
		if fe.Kind == KindTimeout {
			return &Failure{
				Kind:    FailureGatewayTimeout,
				Message: "gateway timeout - upstream API did not respond in time",
			}
		}
		return &Failure{
			Kind:    FailureBadGateway,
			Message: "bad gateway - upstream API error",
		}
	}

	log.Printf("weather: unclassified error: %v", err)
	return &Failure{
		Kind:    FailureInternal,
		Message: "internal server error",
	}
}
