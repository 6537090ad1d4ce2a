// Package calendar implements the provider.Gateway contract on top of the
// Google Calendar v3 API.
//
// Every call is bounded by a per-call timeout and retried with exponential
// backoff when the failure is transient (network errors, HTTP 429 and 5xx).
// Authentication and client errors fail fast. Failures are returned as
// *provider.Error values.
//
// Example usage:
//
//	tp := google.NewFileTokenProvider("", creds)
//	client, err := calendar.NewClient(ctx, "default", tp, calendar.Options{})
//	if err != nil {
//	    return err
//	}
//	busy, err := client.FetchBusyIntervals(ctx, window)
package calendar
