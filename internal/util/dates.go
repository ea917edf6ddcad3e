package util

import (
	"fmt"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate accepts RFC 3339 timestamps, naive ISO timestamps and plain
// calendar dates. Results are in UTC.
func ParseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if value, err := time.Parse(layout, trimmed); err == nil {
			return value.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported date format %q", trimmed)
}

// ParseOptionalDate returns nil for an empty input.
func ParseOptionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	value, err := ParseDate(raw)
	if err != nil {
		return nil, err
	}

	return &value, nil
}

// EndOfDay moves a date-only bound to the last instant of that day so that
// "date_to=2024-03-31" includes transactions made during the 31st.
func EndOfDay(raw string, value time.Time) time.Time {
	if len(strings.TrimSpace(raw)) == len("2006-01-02") {
		return value.Add(24*time.Hour - time.Nanosecond)
	}
	return value
}
