package provider

import (
	"context"
	"strings"
	"time"

	"github.com/teemow/calbook/internal/availability"
)

// EventStatus is the lifecycle state reported by the calendar provider.
type EventStatus string

const (
	StatusConfirmed EventStatus = "confirmed"
	StatusTentative EventStatus = "tentative"
	StatusCancelled EventStatus = "cancelled"
)

// ParseStatus maps a provider status string onto an EventStatus.
// Unknown or empty values are treated as confirmed.
func ParseStatus(s string) EventStatus {
	switch EventStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusTentative:
		return StatusTentative
	case StatusCancelled:
		return StatusCancelled
	default:
		return StatusConfirmed
	}
}

// Event is a calendar entry as returned by a Gateway.
type Event struct {
	ID          string
	Title       string
	Description string
	Link        string
	Start       time.Time
	End         time.Time
	Attendees   []string
	Status      EventStatus
}

// EventRequest describes an event to be created.
type EventRequest struct {
	Title       string
	Description string
	Window      availability.TimeWindow
	Attendees   []string
}

// Gateway is a calendar backend.
type Gateway interface {
	// FetchBusyIntervals returns the busy ranges that intersect window.
	FetchBusyIntervals(ctx context.Context, window availability.TimeWindow) ([]availability.BusyInterval, error)

	// CreateEvent creates an event and returns it as stored by the provider.
	CreateEvent(ctx context.Context, req EventRequest) (*Event, error)

	// ListEvents returns the events that intersect window ordered by start time.
	ListEvents(ctx context.Context, window availability.TimeWindow) ([]Event, error)
}

// NormalizeAttendees trims, drops empty entries and removes duplicates
// (case-insensitively) while keeping the first-seen order.
func NormalizeAttendees(attendees []string) []string {
	out := make([]string, 0, len(attendees))
	seen := make(map[string]struct{}, len(attendees))
	for _, a := range attendees {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		key := strings.ToLower(a)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
