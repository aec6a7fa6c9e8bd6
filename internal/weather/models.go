package weather

import (
	"strconv"
	"time"
)

// Source identifies the single upstream this proxy normalizes.
const Source = "open-meteo"

// Location holds the coordinates as supplied by the caller. The response
// carries these unrounded; only the cache key is rounded.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Current holds the normalized current conditions. Fields are pointers
// because the upstream may omit either value.
type Current struct {
	TemperatureC *float64 `json:"temperatureC"`
	WindSpeedKmh *float64 `json:"windSpeedKmh"`
}

// Report is the normalized weather result returned to clients and stored in
// the cache. RetrievedAt is stamped in UTC when the upstream fetch succeeds,
// not when a cached copy is read.
type Report struct {
	Location    Location  `json:"location"`
	Current     Current   `json:"current"`
	Source      string    `json:"source"`
	RetrievedAt time.Time `json:"retrievedAt"`
}

// roundTo rounds v to prec decimal places by formatting and re-parsing.
// strconv rounds half-to-even, and a round-tripped value re-formats to
// itself, so the operation is idempotent.
func roundTo(v float64, prec int) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', prec, 64), 64)
	return f
}

// Round1 rounds a measurement to 1 decimal place, ties to even.
func Round1(v float64) float64 {
	return roundTo(v, 1)
}

// Round4 rounds a coordinate to 4 decimal places for cache keying.
func Round4(v float64) float64 {
	return roundTo(v, 4)
}

// CacheKey builds the coalescing/cache key from raw coordinates. Requests
// differing only beyond the 4th decimal place map to the same key.
func CacheKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 4, 64) + "," + strconv.FormatFloat(lon, 'f', 4, 64)
}
