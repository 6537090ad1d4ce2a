package availability

import (
	"errors"
	"time"
)

// ErrInvertedWindow is returned by Validate when a window ends before it starts.
var ErrInvertedWindow = errors.New("window end is before start")

// Validate reports whether a window is usable as a query range.
// A zero-length window is valid and simply yields no slots.
func Validate(w TimeWindow) error {
	if w.End.Before(w.Start) {
		return ErrInvertedWindow
	}
	return nil
}

// ComputeAvailableSlots walks the window in steps of the slot duration and
// returns every candidate that does not overlap a busy interval, in
// chronological order. Candidates that would extend past the window end are
// never produced. The result is truncated to opts.MaxSlots when set.
func ComputeAvailableSlots(window TimeWindow, busy []BusyInterval, opts Options) []Slot {
	d := opts.slotDuration()
	slots := []Slot{}
	if window.IsEmpty() {
		return slots
	}

	for t := window.Start; !t.Add(d).After(window.End); t = t.Add(d) {
		end := t.Add(d)
		if conflicts(busy, t, end) {
			continue
		}
		slots = append(slots, Slot{Start: t, End: end, Label: FormatLabel(t)})
		if opts.MaxSlots > 0 && len(slots) >= opts.MaxSlots {
			break
		}
	}
	return slots
}

// Partition returns every candidate slot of the window regardless of busy
// time. With no busy intervals and no cap, ComputeAvailableSlots returns
// exactly this sequence.
func Partition(window TimeWindow, slotDuration time.Duration) []Slot {
	return ComputeAvailableSlots(window, nil, Options{SlotDuration: slotDuration})
}

// FormatLabel renders a slot start as a 12-hour clock label in the
// timestamp's own offset, e.g. "9:00 AM".
func FormatLabel(t time.Time) string {
	return t.Format(LabelLayout)
}

func conflicts(busy []BusyInterval, start, end time.Time) bool {
	for _, b := range busy {
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}
