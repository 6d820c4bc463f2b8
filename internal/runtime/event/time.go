package event

import "time"

const (
	// TimeFormat is the wire format for timestamps. Nanosecond precision
	// keeps encode/decode round trips lossless.
	TimeFormat = time.RFC3339Nano
)

// ParseTime parses a timestamp in the formats webhook senders actually
// produce: RFC3339 with or without fractional seconds, plus a few common
// fallbacks.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	fallbacks := []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range fallbacks {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &time.ParseError{
		Layout:  TimeFormat,
		Value:   s,
		Message: ": cannot parse as event time",
	}
}

// FormatTime renders a timestamp in the wire format. Zero times render as
// the empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeFormat)
}

// Now returns the current UTC time.
func Now() time.Time {
	return time.Now().UTC()
}
