package utils

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// ParseDate parses a yyyy-MM-dd string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected yyyy-MM-dd", s)
	}
	return t, nil
}

// ParseISOTime accepts RFC3339 timestamps and a few common fallbacks, which
// are read as UTC.
func ParseISOTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, fmt.Errorf("empty time string")
	}

	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return &t, nil
	}

	// e.g. 2025-10-13T09:30:00.123Z
	t, err = time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return &t, nil
	}

	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		DateLayout,
	}
	for _, layout := range layouts {
		if tt, e := time.ParseInLocation(layout, s, time.UTC); e == nil {
			return &tt, nil
		}
	}

	return nil, fmt.Errorf("failed to parse time: %v", s)
}

// EndOfDay returns the last millisecond of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1).Add(-time.Millisecond)
}
