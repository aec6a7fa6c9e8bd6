package httpapi

import (
	"fmt"
	"strconv"
	"strings"
)

// resolveAlias picks a coordinate value from its case-insensitive aliases
// (e.g. lat, LAT, Latitude, ...). Aliases carrying distinct values are a
// conflict; equal duplicates are fine.
func resolveAlias(queries map[string]string, short, long string) (float64, error) {
	var (
		found  bool
		picked float64
	)

	for k, raw := range queries {
		lower := strings.ToLower(k)
		if lower != short && lower != long {
			continue
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q", long, raw)
		}

		if found && v != picked {
			return 0, fmt.Errorf("conflicting %s values provided (%s and %s)", long, short, long)
		}
		picked = v
		found = true
	}

	if !found {
		return 0, fmt.Errorf("%s parameter required (%s or %s)", long, short, long)
	}
	return picked, nil
}

// decimalPlaces counts the decimal digits of v's shortest representation,
// so trailing zeros in the query string do not count against the limit.
func decimalPlaces(v float64) int {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}
