// Package calendar_tools provides the MCP tools for calendar booking:
//   - calendar_get_availability: free 30-minute slots between two timestamps
//   - calendar_list_events: events between two timestamps
//   - calendar_create_event: create an event (not registered in read-only mode)
//
// Timestamps are ISO-8601. Offsets are kept; timestamps without one are
// read as UTC.
package calendar_tools
