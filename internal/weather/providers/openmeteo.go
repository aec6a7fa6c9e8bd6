package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"weather-proxy/internal/weather"
)

// OpenMeteoClient fetches current conditions from the Open-Meteo API.
// Each Fetch is a single attempt with a hard timeout; retries are layered
// on top by WithRetry.
type OpenMeteoClient struct {
	name    string
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoClient creates the upstream client. apiKey may be empty; it is
// only appended to the query when configured.
func NewOpenMeteoClient(client *http.Client, baseURL, apiKey string, timeout time.Duration) *OpenMeteoClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenMeteoClient{
		name:    "openmeteo",
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
		client:  client,
		circuit: cb,
	}
}

func (c *OpenMeteoClient) Name() string {
	return c.name
}

// openMeteoResponse mirrors the upstream schema. Metadata fields are
// accepted but unused.
type openMeteoResponse struct {
	Latitude             float64           `json:"latitude"`
	Longitude            float64           `json:"longitude"`
	GenerationTimeMs     float64           `json:"generationtime_ms"`
	UTCOffsetSeconds     int               `json:"utc_offset_seconds"`
	Timezone             string            `json:"timezone"`
	TimezoneAbbreviation string            `json:"timezone_abbreviation"`
	Elevation            float64           `json:"elevation"`
	CurrentUnits         map[string]string `json:"current_units"`
	Current              struct {
		Time          string   `json:"time"`
		Interval      int      `json:"interval"`
		Temperature2m *float64 `json:"temperature_2m"`
		WindSpeed10m  *float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

// Fetch performs one upstream request and returns a normalized report. The
// response location keeps the caller's coordinates, not the ones the
// provider echoes back.
func (c *OpenMeteoClient) Fetch(ctx context.Context, lat, lon float64) (weather.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("current", "temperature_2m,wind_speed_10m")
	if c.apiKey != "" {
		values.Set("apikey", c.apiKey)
	}

	u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return weather.Report{}, err
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, classifyTransportError(doErr)
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, &weather.FetchError{
				Kind:       weather.KindUpstream,
				StatusCode: resp.StatusCode,
				Retryable:  true,
			}
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, &weather.FetchError{
				Kind:       weather.KindClient,
				StatusCode: resp.StatusCode,
				Retryable:  false,
			}
		}

		return resp, nil
	})
	if err != nil {
		// An open breaker fails fast; retrying into it cannot succeed.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return weather.Report{}, &weather.FetchError{
				Kind:      weather.KindUpstream,
				Retryable: false,
				Err:       err,
			}
		}
		return weather.Report{}, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return weather.Report{}, fmt.Errorf("unexpected result type from circuit breaker")
	}
	defer resp.Body.Close()

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Report{}, fmt.Errorf("decode open-meteo response: %w", err)
	}

	return normalizeReport(payload, lat, lon), nil
}

// normalizeReport reduces the upstream payload to the response shape,
// rounding measurements to 1 decimal place and stamping the fetch time.
func normalizeReport(payload openMeteoResponse, lat, lon float64) weather.Report {
	var temp, wind *float64
	if payload.Current.Temperature2m != nil {
		v := weather.Round1(*payload.Current.Temperature2m)
		temp = &v
	}
	if payload.Current.WindSpeed10m != nil {
		v := weather.Round1(*payload.Current.WindSpeed10m)
		wind = &v
	}

	return weather.Report{
		Location: weather.Location{Lat: lat, Lon: lon},
		Current: weather.Current{
			TemperatureC: temp,
			WindSpeedKmh: wind,
		},
		Source:      weather.Source,
		RetrievedAt: time.Now().UTC(),
	}
}
