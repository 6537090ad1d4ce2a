// Package availability computes bookable time slots inside a time window.
//
// The calculator is pure: it depends only on its inputs, never fails, and is
// safe to call concurrently. A candidate slot [t, t+d) conflicts with a busy
// interval b exactly when t < b.End and t+d > b.Start, so intervals that only
// touch a slot's endpoints do not block it.
//
// Example usage:
//
//	window := availability.TimeWindow{Start: nine, End: eleven}
//	busy := []availability.BusyInterval{{Start: ten, End: tenThirty}}
//	slots := availability.ComputeAvailableSlots(window, busy, availability.Options{})
//	// 09:00, 09:30, 10:30
package availability
