package calendar

import (
	"fmt"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/calbook/internal/availability"
	"github.com/teemow/calbook/internal/provider"
)

const dateLayout = "2006-01-02"

func busyFromResponse(calendarID string, resp *calendar.FreeBusyResponse) ([]availability.BusyInterval, error) {
	const op = "freebusy.query"

	busy := []availability.BusyInterval{}
	if resp == nil {
		return busy, nil
	}

	cal, ok := resp.Calendars[calendarID]
	if !ok && len(resp.Calendars) == 1 {
		// Aliases such as "primary" may come back keyed by the owner's address.
		for _, only := range resp.Calendars {
			cal, ok = only, true
		}
	}
	if !ok {
		return busy, nil
	}

	if len(cal.Errors) > 0 {
		reasons := make([]string, 0, len(cal.Errors))
		for _, e := range cal.Errors {
			reasons = append(reasons, e.Reason)
		}
		return nil, &provider.Error{
			Kind: provider.KindProvider,
			Op:   op,
			Err:  fmt.Errorf("calendar %s: %s", calendarID, strings.Join(reasons, ", ")),
		}
	}

	for _, p := range cal.Busy {
		start, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			return nil, &provider.Error{Kind: provider.KindProvider, Op: op, Err: fmt.Errorf("malformed busy start %q: %w", p.Start, err)}
		}
		end, err := time.Parse(time.RFC3339, p.End)
		if err != nil {
			return nil, &provider.Error{Kind: provider.KindProvider, Op: op, Err: fmt.Errorf("malformed busy end %q: %w", p.End, err)}
		}
		busy = append(busy, availability.BusyInterval{Start: start, End: end})
	}
	return busy, nil
}

func toGoogleEvent(req provider.EventRequest) *calendar.Event {
	ev := &calendar.Event{
		Summary:     req.Title,
		Description: req.Description,
		Start:       toEventDateTime(req.Window.Start),
		End:         toEventDateTime(req.Window.End),
	}

	for _, email := range provider.NormalizeAttendees(req.Attendees) {
		ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: email})
	}
	return ev
}

// toEventDateTime keeps the caller's offset. UTC instants are labelled with
// the UTC zone so Google renders them without conversion.
func toEventDateTime(t time.Time) *calendar.EventDateTime {
	dt := &calendar.EventDateTime{DateTime: t.Format(time.RFC3339Nano)}
	if _, offset := t.Zone(); offset == 0 {
		dt.TimeZone = "UTC"
	}
	return dt
}

func toEvent(ev *calendar.Event) (provider.Event, error) {
	if ev == nil {
		return provider.Event{}, fmt.Errorf("empty event")
	}

	start, err := parseEventDateTime(ev.Start)
	if err != nil {
		return provider.Event{}, fmt.Errorf("event %s start: %w", ev.Id, err)
	}
	end, err := parseEventDateTime(ev.End)
	if err != nil {
		return provider.Event{}, fmt.Errorf("event %s end: %w", ev.Id, err)
	}

	attendees := make([]string, 0, len(ev.Attendees))
	for _, a := range ev.Attendees {
		if a != nil && a.Email != "" {
			attendees = append(attendees, a.Email)
		}
	}

	return provider.Event{
		ID:          ev.Id,
		Title:       ev.Summary,
		Description: ev.Description,
		Link:        ev.HtmlLink,
		Start:       start,
		End:         end,
		Attendees:   attendees,
		Status:      provider.ParseStatus(ev.Status),
	}, nil
}

// parseEventDateTime handles both timed events and all-day events, which
// carry only a date and are anchored at midnight UTC.
func parseEventDateTime(dt *calendar.EventDateTime) (time.Time, error) {
	if dt == nil {
		return time.Time{}, fmt.Errorf("missing time")
	}
	if dt.DateTime != "" {
		return time.Parse(time.RFC3339, dt.DateTime)
	}
	if dt.Date != "" {
		return time.Parse(dateLayout, dt.Date)
	}
	return time.Time{}, fmt.Errorf("missing time")
}
