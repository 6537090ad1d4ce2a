package synthetic

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" in 24-hour form.
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Clock{}, fmt.Errorf("invalid clock %q: expected HH:MM", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 24 {
		return Clock{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 || (hour == 24 && minute != 0) {
		return Clock{}, fmt.Errorf("invalid minute in %q", s)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) minutes() int {
	return c.Hour*60 + c.Minute
}

// on returns the instant of c on the given day in loc.
func (c Clock) on(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, c.Hour, c.Minute, 0, 0, loc)
}

// DailyBlock marks the same range busy every matching day.
type DailyBlock struct {
	Label string
	Start Clock
	End   Clock
	// Weekdays restricts the block to the listed days. Empty means every day.
	Weekdays []time.Weekday
}

// ParseDailyBlock parses "HH:MM-HH:MM" into a block with the given label.
func ParseDailyBlock(label, spec string) (DailyBlock, error) {
	from, to, ok := strings.Cut(spec, "-")
	if !ok {
		return DailyBlock{}, fmt.Errorf("invalid daily block %q: expected HH:MM-HH:MM", spec)
	}
	start, err := ParseClock(from)
	if err != nil {
		return DailyBlock{}, err
	}
	end, err := ParseClock(to)
	if err != nil {
		return DailyBlock{}, err
	}
	b := DailyBlock{Label: label, Start: start, End: end}
	return b, b.validate()
}

func (b DailyBlock) validate() error {
	if b.End.minutes() <= b.Start.minutes() {
		return fmt.Errorf("daily block %q: end %s must be after start %s", b.Label, b.End, b.Start)
	}
	return nil
}

func (b DailyBlock) appliesTo(day time.Weekday) bool {
	if len(b.Weekdays) == 0 {
		return true
	}
	for _, d := range b.Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// Block is an absolute busy range.
type Block struct {
	Label string
	Start time.Time
	End   time.Time
}

// Rules configures the synthetic source.
type Rules struct {
	Daily   []DailyBlock
	Blocked []Block
	// Location anchors daily blocks. Nil means UTC.
	Location *time.Location
	// Seed makes generated event IDs stable across processes.
	Seed string
	// LinkBase prefixes event IDs to build event links.
	LinkBase string
}

// DefaultLinkBase is used when Rules.LinkBase is empty.
const DefaultLinkBase = "https://calendar.example.com/event/"

// DefaultRules blocks a lunch hour every day.
func DefaultRules() Rules {
	return Rules{
		Daily: []DailyBlock{
			{Label: "Lunch", Start: Clock{Hour: 12}, End: Clock{Hour: 13}},
		},
		Location: time.UTC,
		Seed:     "calbook",
		LinkBase: DefaultLinkBase,
	}
}

// Validate checks every rule for consistency.
func (r Rules) Validate() error {
	for _, b := range r.Daily {
		if err := b.validate(); err != nil {
			return err
		}
	}
	for _, b := range r.Blocked {
		if !b.End.After(b.Start) {
			return fmt.Errorf("blocked range %q: end must be after start", b.Label)
		}
	}
	return nil
}

// ParseWeekdays parses names such as "mon", "Tuesday" into weekdays.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			full := strings.ToLower(d.String())
			if n == full || n == full[:3] {
				days = append(days, d)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown weekday %q", n)
		}
	}
	return days, nil
}
