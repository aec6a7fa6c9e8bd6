package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"weather-proxy/internal/weather"
)

// scriptedProvider returns the queued errors in order, then succeeds.
type scriptedProvider struct {
	errs      []error
	calls     int
	callTimes []time.Time
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Fetch(ctx context.Context, lat, lon float64) (weather.Report, error) {
	p.callTimes = append(p.callTimes, time.Now())
	p.calls++
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		return weather.Report{}, err
	}
	return weather.Report{
		Location:    weather.Location{Lat: lat, Lon: lon},
		Source:      weather.Source,
		RetrievedAt: time.Now().UTC(),
	}, nil
}

func upstreamErr(status int) error {
	return &weather.FetchError{Kind: weather.KindUpstream, StatusCode: status, Retryable: true}
}

func TestRetrySucceedsAfterRetryableErrors(t *testing.T) {
	stub := &scriptedProvider{errs: []error{upstreamErr(503), upstreamErr(502)}}
	p := WithRetry(stub, RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, Multiplier: 2})

	if _, err := p.Fetch(context.Background(), 52.52, 13.41); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", stub.calls)
	}
}

func TestRetryExhaustionPropagatesLastError(t *testing.T) {
	stub := &scriptedProvider{errs: []error{
		upstreamErr(503), upstreamErr(503), upstreamErr(503), upstreamErr(503), upstreamErr(503),
	}}
	p := WithRetry(stub, RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, Multiplier: 2})

	_, err := p.Fetch(context.Background(), 52.52, 13.41)
	var fe *weather.FetchError
	if !errors.As(err, &fe) || fe.Kind != weather.KindUpstream {
		t.Fatalf("expected the classified upstream error, got %v", err)
	}
	if stub.calls != 3 {
		t.Fatalf("expected retryCount+1 = 3 attempts, got %d", stub.calls)
	}
}

func TestRetryKindSelection(t *testing.T) {
	cases := []struct {
		name         string
		err          error
		wantAttempts int
	}{
		{
			name:         "timeout retries",
			err:          &weather.FetchError{Kind: weather.KindTimeout, Retryable: true},
			wantAttempts: 3,
		},
		{
			name:         "5xx retries",
			err:          upstreamErr(500),
			wantAttempts: 3,
		},
		{
			name:         "connection refused retries",
			err:          &weather.FetchError{Kind: weather.KindNetwork, Retryable: true},
			wantAttempts: 3,
		},
		{
			name:         "4xx does not retry",
			err:          &weather.FetchError{Kind: weather.KindClient, StatusCode: 404, Retryable: false},
			wantAttempts: 1,
		},
		{
			name:         "dns failure does not retry",
			err:          &weather.FetchError{Kind: weather.KindNetwork, Retryable: false},
			wantAttempts: 1,
		},
		{
			name:         "unclassified does not retry",
			err:          errors.New("boom"),
			wantAttempts: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &scriptedProvider{errs: []error{tc.err, tc.err, tc.err, tc.err}}
			p := WithRetry(stub, RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, Multiplier: 2})

			_, err := p.Fetch(context.Background(), 52.52, 13.41)
			if err == nil {
				t.Fatal("expected an error")
			}
			if stub.calls != tc.wantAttempts {
				t.Fatalf("expected %d attempts, got %d", tc.wantAttempts, stub.calls)
			}
		})
	}
}

func TestRetryBackoffDelaysIncrease(t *testing.T) {
	stub := &scriptedProvider{errs: []error{upstreamErr(503), upstreamErr(503)}}
	p := WithRetry(stub, RetryConfig{MaxRetries: 2, BaseDelay: 20 * time.Millisecond, Multiplier: 2})

	if _, err := p.Fetch(context.Background(), 52.52, 13.41); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stub.callTimes) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(stub.callTimes))
	}

	first := stub.callTimes[1].Sub(stub.callTimes[0])
	second := stub.callTimes[2].Sub(stub.callTimes[1])
	if first < 20*time.Millisecond {
		t.Fatalf("first delay %v shorter than base delay", first)
	}
	if second < 40*time.Millisecond {
		t.Fatalf("second delay %v did not grow by the multiplier", second)
	}
}

func TestRetryHonorsContextDuringBackoff(t *testing.T) {
	stub := &scriptedProvider{errs: []error{upstreamErr(503), upstreamErr(503), upstreamErr(503)}}
	p := WithRetry(stub, RetryConfig{MaxRetries: 3, BaseDelay: time.Second, Multiplier: 2})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := p.Fetch(ctx, 52.52, 13.41)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("expected backoff to abort before a second attempt, got %d", stub.calls)
	}
}
