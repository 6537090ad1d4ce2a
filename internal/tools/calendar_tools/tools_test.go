package calendar_tools

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calbook/internal/availability"
	"github.com/teemow/calbook/internal/booking"
	"github.com/teemow/calbook/internal/provider"
	"github.com/teemow/calbook/internal/server"
	"github.com/teemow/calbook/internal/synthetic"
)

type failingGateway struct {
	err error
}

func (g failingGateway) FetchBusyIntervals(context.Context, availability.TimeWindow) ([]availability.BusyInterval, error) {
	return nil, g.err
}

func (g failingGateway) ListEvents(context.Context, availability.TimeWindow) ([]provider.Event, error) {
	return nil, g.err
}

func (g failingGateway) CreateEvent(context.Context, provider.EventRequest) (*provider.Event, error) {
	return nil, g.err
}

func newServerContext(t *testing.T, src booking.DataSource, readOnly bool) *server.ServerContext {
	t.Helper()
	if src == nil {
		syn, err := synthetic.New(synthetic.DefaultRules())
		require.NoError(t, err)
		src = booking.Synthetic(syn)
	}
	svc, err := booking.NewService(booking.Options{Source: src})
	require.NoError(t, err)
	sc, err := server.NewServerContext(context.Background(), svc, server.Options{ReadOnly: readOnly})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	result, err := handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestGetAvailability(t *testing.T) {
	sc := newServerContext(t, nil, false)

	result := callTool(t, availabilityHandler(sc), ToolGetAvailability, map[string]interface{}{
		"startTime": "2025-01-01T11:00:00Z",
		"endTime":   "2025-01-01T13:00:00Z",
	})
	require.False(t, result.IsError, resultText(t, result))

	var res booking.AvailabilityResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &res))
	assert.Equal(t, booking.SourceSynthetic, res.Source)
	require.Len(t, res.Slots, 2)
	assert.Equal(t, "11:00 AM", res.Slots[0].Title)
	assert.Equal(t, "11:30 AM", res.Slots[1].Title)
}

func TestGetAvailability_MissingArguments(t *testing.T) {
	sc := newServerContext(t, nil, false)

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{name: "no start", args: map[string]interface{}{"endTime": "2025-01-01T13:00:00Z"}, want: "startTime is required"},
		{name: "no end", args: map[string]interface{}{"startTime": "2025-01-01T13:00:00Z"}, want: "endTime is required"},
		{name: "wrong type", args: map[string]interface{}{"startTime": 42, "endTime": "2025-01-01T13:00:00Z"}, want: "startTime is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, availabilityHandler(sc), ToolGetAvailability, tt.args)
			assert.True(t, result.IsError)
			assert.Equal(t, tt.want, resultText(t, result))
		})
	}
}

func TestGetAvailability_InvalidTimestamp(t *testing.T) {
	sc := newServerContext(t, nil, false)

	result := callTool(t, availabilityHandler(sc), ToolGetAvailability, map[string]interface{}{
		"startTime": "next monday",
		"endTime":   "2025-01-01T13:00:00Z",
	})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid_input")
}

func TestListEvents(t *testing.T) {
	sc := newServerContext(t, nil, false)

	result := callTool(t, listEventsHandler(sc), ToolListEvents, map[string]interface{}{
		"startTime": "2025-01-01T00:00:00Z",
		"endTime":   "2025-01-03T00:00:00Z",
	})
	require.False(t, result.IsError, resultText(t, result))

	var res booking.EventsResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &res))
	require.Len(t, res.Events, 2)
	assert.Equal(t, "Lunch", res.Events[0].Summary)
	assert.Equal(t, "2025-01-02T12:00:00Z", res.Events[1].Start)
}

func TestListEvents_ProviderFailure(t *testing.T) {
	sc := newServerContext(t, booking.Live(failingGateway{err: &provider.Error{Kind: provider.KindAuth, Op: "list"}}), false)

	result := callTool(t, listEventsHandler(sc), ToolListEvents, map[string]interface{}{
		"startTime": "2025-01-01T00:00:00Z",
		"endTime":   "2025-01-02T00:00:00Z",
	})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Failed to list events")
	assert.Contains(t, resultText(t, result), "auth_error")
}

func TestCreateEvent(t *testing.T) {
	sc := newServerContext(t, nil, false)

	result := callTool(t, createEventHandler(sc), ToolCreateEvent, map[string]interface{}{
		"title":     "Sync",
		"startTime": "2025-01-01T14:00:00Z",
		"endTime":   "2025-01-01T15:00:00Z",
		"attendees": "a@x.com, b@y.org,,",
	})
	require.False(t, result.IsError, resultText(t, result))

	var res booking.CreateResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &res))
	assert.NotEmpty(t, res.Event.ID)
	assert.Equal(t, "confirmed", res.Event.Status)
	assert.Equal(t, "Sync", res.Event.Summary)
	assert.Equal(t, "", res.Event.Description)
	assert.Equal(t, []string{"a@x.com", "b@y.org"}, res.Event.Attendees)
}

func TestCreateEvent_Invalid(t *testing.T) {
	sc := newServerContext(t, nil, false)

	result := callTool(t, createEventHandler(sc), ToolCreateEvent, map[string]interface{}{
		"title":     "Sync",
		"startTime": "2025-01-01T15:00:00Z",
		"endTime":   "2025-01-01T14:00:00Z",
	})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Failed to create event")
}

func TestCreateEvent_AttendeeArray(t *testing.T) {
	sc := newServerContext(t, nil, false)

	result := callTool(t, createEventHandler(sc), ToolCreateEvent, map[string]interface{}{
		"title":     "Sync",
		"startTime": "2025-01-01T14:00:00Z",
		"endTime":   "2025-01-01T15:00:00Z",
		"attendees": []interface{}{"a@x.com", "b@y.org"},
	})
	require.False(t, result.IsError, resultText(t, result))

	var res booking.CreateResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &res))
	assert.Equal(t, []string{"a@x.com", "b@y.org"}, res.Event.Attendees)

	result = callTool(t, createEventHandler(sc), ToolCreateEvent, map[string]interface{}{
		"title":     "Sync",
		"startTime": "2025-01-01T14:00:00Z",
		"endTime":   "2025-01-01T15:00:00Z",
		"attendees": []interface{}{"a@x.com", 3},
	})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "attendees[1] must be a string")
}

func TestCreateEventTool_AttendeesSchema(t *testing.T) {
	tool := newCreateEventTool()

	prop, ok := tool.InputSchema.Properties["attendees"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "array", prop["type"])
	assert.Equal(t, map[string]any{"type": "string"}, prop["items"])
	assert.NotContains(t, tool.InputSchema.Required, "attendees")
}

func TestRegisterCalendarTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     []string
	}{
		{
			name: "read write",
			want: []string{ToolCreateEvent, ToolGetAvailability, ToolListEvents},
		},
		{
			name:     "read only",
			readOnly: true,
			want:     []string{ToolGetAvailability, ToolListEvents},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mcpserver.NewMCPServer("test", "1.0.0", mcpserver.WithToolCapabilities(false))
			require.NoError(t, RegisterCalendarTools(s, newServerContext(t, nil, tt.readOnly)))

			resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
			raw, err := json.Marshal(resp)
			require.NoError(t, err)

			var decoded struct {
				Result struct {
					Tools []struct {
						Name string `json:"name"`
					} `json:"tools"`
				} `json:"result"`
			}
			require.NoError(t, json.Unmarshal(raw, &decoded))

			var names []string
			for _, tool := range decoded.Result.Tools {
				names = append(names, tool.Name)
			}
			sort.Strings(names)
			assert.Equal(t, tt.want, names)
		})
	}
}
