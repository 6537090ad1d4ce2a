// Package provider defines the contract between the booking service and a
// calendar backend.
//
// A Gateway answers three questions about a single calendar: which ranges are
// busy, which events exist, and how to create a new event. Failures are
// reported as *Error values whose Kind tells callers whether retrying,
// re-authenticating or falling back makes sense.
package provider
