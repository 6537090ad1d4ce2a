package booking

import (
	"strings"
	"time"

	"github.com/teemow/calbook/internal/availability"
	"github.com/teemow/calbook/internal/provider"
)

// Layouts for timestamps without an offset. They are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Offsets (including "Z") are
// kept as given; timestamps without one are interpreted as UTC. Failures are
// InvalidInput errors.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, provider.InvalidInput("timestamp is required")
	}
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}
	// An unencoded "+05:30" in a query string arrives as " 05:30".
	if i := len(s) - 6; i > 10 && s[i] == ' ' && s[i+3] == ':' {
		s = s[:i] + "+" + s[i+1:]
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, provider.InvalidInput("invalid timestamp %q: expected ISO-8601 such as 2025-01-01T09:00:00Z", s)
}

// FormatTimestamp renders t as RFC 3339 in its own offset, keeping any
// fractional seconds.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// ParseWindow parses a query range. end before start is InvalidInput; equal
// bounds produce an empty window.
func ParseWindow(startTime, endTime string) (availability.TimeWindow, error) {
	start, err := ParseTimestamp(startTime)
	if err != nil {
		return availability.TimeWindow{}, err
	}
	end, err := ParseTimestamp(endTime)
	if err != nil {
		return availability.TimeWindow{}, err
	}

	w := availability.TimeWindow{Start: start, End: end}
	if err := availability.Validate(w); err != nil {
		return availability.TimeWindow{}, provider.InvalidInput("end %s is before start %s", endTime, startTime)
	}
	return w, nil
}
