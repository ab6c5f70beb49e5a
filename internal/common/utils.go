package common

import (
	"math"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used for keys, CSV exports and requests.
const DateLayout = "2006-01-02"

// Clamp limits v to [lo, hi]. NaN is returned unchanged.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Max(lo, math.Min(hi, v))
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a strict YYYY-MM-DD date. Out-of-range components such as
// month 13 are rejected by time.Parse.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// DateKey returns the canonical string key for t's calendar date.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// BoolToFloat encodes a flag as 0/1.
func BoolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
