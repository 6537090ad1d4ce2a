package synthetic

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/calbook/internal/availability"
	"github.com/teemow/calbook/internal/provider"
)

// Source is a rule-driven provider.Gateway.
type Source struct {
	rules Rules
	loc   *time.Location
	newID func() string
}

var _ provider.Gateway = (*Source)(nil)

// New creates a synthetic source from rules.
func New(rules Rules) (*Source, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	loc := rules.Location
	if loc == nil {
		loc = time.UTC
	}
	if rules.LinkBase == "" {
		rules.LinkBase = DefaultLinkBase
	}
	return &Source{rules: rules, loc: loc, newID: uuid.NewString}, nil
}

// Rules returns the rules the source was built with.
func (s *Source) Rules() Rules {
	return s.rules
}

// FetchBusyIntervals expands the rules over window.
func (s *Source) FetchBusyIntervals(ctx context.Context, window availability.TimeWindow) ([]availability.BusyInterval, error) {
	if err := ctx.Err(); err != nil {
		return nil, provider.Wrap(provider.KindNetwork, "synthetic.busy", err)
	}
	blocks := s.expand(window)
	busy := make([]availability.BusyInterval, 0, len(blocks))
	for _, b := range blocks {
		busy = append(busy, availability.BusyInterval{Start: b.Start, End: b.End})
	}
	return busy, nil
}

// ListEvents returns one confirmed event per busy block in window. IDs are
// derived from the seed, label and start so repeated calls agree.
func (s *Source) ListEvents(ctx context.Context, window availability.TimeWindow) ([]provider.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, provider.Wrap(provider.KindNetwork, "synthetic.list", err)
	}
	blocks := s.expand(window)
	events := make([]provider.Event, 0, len(blocks))
	for _, b := range blocks {
		id := s.stableID(b)
		events = append(events, provider.Event{
			ID:        id,
			Title:     b.Label,
			Link:      s.rules.LinkBase + id,
			Start:     b.Start,
			End:       b.End,
			Attendees: []string{},
			Status:    provider.StatusConfirmed,
		})
	}
	return events, nil
}

// CreateEvent echoes the request back as a confirmed event with a fresh ID.
func (s *Source) CreateEvent(ctx context.Context, req provider.EventRequest) (*provider.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, provider.Wrap(provider.KindNetwork, "synthetic.create", err)
	}
	if req.Window.IsEmpty() {
		return nil, provider.InvalidInput("event end %s must be after start %s",
			req.Window.End.Format(time.RFC3339), req.Window.Start.Format(time.RFC3339))
	}
	id := s.newID()
	return &provider.Event{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Link:        s.rules.LinkBase + id,
		Start:       req.Window.Start,
		End:         req.Window.End,
		Attendees:   provider.NormalizeAttendees(req.Attendees),
		Status:      provider.StatusConfirmed,
	}, nil
}

// expand returns the blocks intersecting window, ordered by start.
func (s *Source) expand(window availability.TimeWindow) []Block {
	var out []Block
	if window.IsEmpty() {
		return out
	}

	first := window.Start.In(s.loc)
	last := window.End.In(s.loc)
	day := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, s.loc)
	for !day.After(last) {
		y, m, d := day.Date()
		for _, rule := range s.rules.Daily {
			if !rule.appliesTo(day.Weekday()) {
				continue
			}
			b := Block{Label: rule.Label, Start: rule.Start.on(y, m, d, s.loc), End: rule.End.on(y, m, d, s.loc)}
			if intersects(b, window) {
				out = append(out, b)
			}
		}
		day = time.Date(y, m, d+1, 0, 0, 0, 0, s.loc)
	}

	for _, b := range s.rules.Blocked {
		if intersects(b, window) {
			out = append(out, b)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

func (s *Source) stableID(b Block) string {
	name := s.rules.Seed + "|" + b.Label + "|" + b.Start.UTC().Format(time.RFC3339)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func intersects(b Block, w availability.TimeWindow) bool {
	return availability.BusyInterval{Start: b.Start, End: b.End}.Overlaps(w.Start, w.End)
}
