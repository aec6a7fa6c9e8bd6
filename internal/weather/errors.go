package weather

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies an upstream fetch failure.
type FetchErrorKind int

const (
	// KindTimeout is a request that exceeded the upstream timeout.
	KindTimeout FetchErrorKind = iota
	// KindUpstream is an HTTP 5xx from the upstream.
	KindUpstream
	// KindClient is an HTTP 4xx from the upstream.
	KindClient
	// KindNetwork is a transport-level failure (connection refused,
	// DNS failure, or any other non-HTTP error).
	KindNetwork
)

func (k FetchErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindUpstream:
		return "upstream"
	case KindClient:
		return "client"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// FetchError is the classified error returned by the upstream client.
// Retryable is decided at classification time: 5xx, timeouts and
// connection-refused are retryable; 4xx and DNS failures are not.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream fetch failed: %s (status %d)", e.Kind, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream fetch failed: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("upstream fetch failed: %s", e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a classified fetch error that the
// retry policy may attempt again.
func IsRetryable(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Retryable
}

// FailureKind is the response-facing failure classification. The service
// is the only place that translates fetch errors into these.
type FailureKind int

const (
	FailureBadGateway FailureKind = iota
	FailureGatewayTimeout
	FailureUnavailable
	FailureInternal
)

// Failure is the error the service hands to the transport layer. Message is
// safe to return to clients; upstream detail stays out of it.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string { return f.Message }
