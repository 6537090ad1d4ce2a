package availability

import (
	"fmt"
	"time"
)

// DefaultSlotDuration is the slot length used when Options.SlotDuration is unset.
const DefaultSlotDuration = 30 * time.Minute

// LabelLayout is the 12-hour clock layout used for slot labels.
const LabelLayout = "3:04 PM"

// TimeWindow is the half-open range [Start, End) searched for free slots.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Duration returns the length of the window, or zero for inverted windows.
func (w TimeWindow) Duration() time.Duration {
	if !w.End.After(w.Start) {
		return 0
	}
	return w.End.Sub(w.Start)
}

// IsEmpty reports whether the window contains no instants.
func (w TimeWindow) IsEmpty() bool {
	return !w.End.After(w.Start)
}

// String renders the window as an RFC3339 range.
func (w TimeWindow) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// BusyInterval is a range during which the calendar is occupied.
// Intervals may overlap each other and arrive in any order.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the interval conflicts with the half-open range [start, end).
func (b BusyInterval) Overlaps(start, end time.Time) bool {
	return start.Before(b.End) && end.After(b.Start)
}

// Slot is a free range of fixed duration inside the searched window.
type Slot struct {
	Start time.Time
	End   time.Time
	Label string
}

// Duration returns the slot length.
func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Options tunes slot computation.
type Options struct {
	// SlotDuration is the length of each slot. Non-positive values use DefaultSlotDuration.
	SlotDuration time.Duration

	// MaxSlots caps the number of returned slots. Zero or negative means unlimited.
	MaxSlots int
}

func (o Options) slotDuration() time.Duration {
	if o.SlotDuration <= 0 {
		return DefaultSlotDuration
	}
	return o.SlotDuration
}
