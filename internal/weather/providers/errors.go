package providers

import (
	"context"
	"errors"
	"net"
	"syscall"

	"weather-proxy/internal/weather"
)

// classifyTransportError maps a transport-level failure onto the fetch
// error taxonomy using the structured error chain rather than message text.
// Connection-refused is retryable; DNS failures and anything unrecognized
// are not.
func classifyTransportError(err error) *weather.FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &weather.FetchError{Kind: weather.KindTimeout, Retryable: true, Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &weather.FetchError{Kind: weather.KindNetwork, Retryable: false, Err: err}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return &weather.FetchError{Kind: weather.KindNetwork, Retryable: true, Err: err}
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &weather.FetchError{Kind: weather.KindTimeout, Retryable: true, Err: err}
	}

	return &weather.FetchError{Kind: weather.KindNetwork, Retryable: false, Err: err}
}
