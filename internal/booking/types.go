package booking

import (
	"github.com/teemow/calbook/internal/availability"
	"github.com/teemow/calbook/internal/provider"
)

// SlotView is a free slot as returned to callers.
type SlotView struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration_minutes"`
}

// EventView is a listed event as returned to callers.
type EventView struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Status  string `json:"status,omitempty"`
}

// CreatedEvent is the result of a successful createEvent.
type CreatedEvent struct {
	ID          string   `json:"id"`
	Link        string   `json:"link"`
	Status      string   `json:"status"`
	Summary     string   `json:"summary"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Description string   `json:"description"`
	Attendees   []string `json:"attendees"`
}

// CreateEventInput carries the raw caller input of createEvent.
type CreateEventInput struct {
	Title       string
	StartTime   string
	EndTime     string
	Description string
	Attendees   []string
}

// Served describes which data source answered a request.
type Served struct {
	Source   string `json:"source"`
	Degraded bool   `json:"degraded,omitempty"`
}

// AvailabilityResult is the result of GetAvailability.
type AvailabilityResult struct {
	Slots []SlotView `json:"slots"`
	Served
}

// EventsResult is the result of GetEvents.
type EventsResult struct {
	Events []EventView `json:"events"`
	Served
}

// CreateResult is the result of CreateEvent.
type CreateResult struct {
	Event CreatedEvent `json:"event"`
	Served
}

func toSlotViews(slots []availability.Slot) []SlotView {
	views := make([]SlotView, 0, len(slots))
	for _, s := range slots {
		views = append(views, SlotView{
			Start:           FormatTimestamp(s.Start),
			End:             FormatTimestamp(s.End),
			Title:           s.Label,
			DurationMinutes: int(s.Duration().Minutes()),
		})
	}
	return views
}

func toEventViews(events []provider.Event) []EventView {
	views := make([]EventView, 0, len(events))
	for _, e := range events {
		views = append(views, EventView{
			ID:      e.ID,
			Summary: e.Title,
			Start:   FormatTimestamp(e.Start),
			End:     FormatTimestamp(e.End),
			Status:  string(e.Status),
		})
	}
	return views
}

func toCreatedEvent(e *provider.Event) CreatedEvent {
	attendees := e.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	return CreatedEvent{
		ID:          e.ID,
		Link:        e.Link,
		Status:      string(e.Status),
		Summary:     e.Title,
		Start:       FormatTimestamp(e.Start),
		End:         FormatTimestamp(e.End),
		Description: e.Description,
		Attendees:   attendees,
	}
}
