package google

import calendar "google.golang.org/api/calendar/v3"

// DefaultOAuthScopes are the scopes requested during authorization.
// Free/busy queries, event listing and event creation all fall under the
// events scope; free/busy additionally needs read access to calendars.
var DefaultOAuthScopes = []string{
	calendar.CalendarEventsScope,
	calendar.CalendarReadonlyScope,
}
