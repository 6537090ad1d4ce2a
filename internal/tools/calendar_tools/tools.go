package calendar_tools

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calbook/internal/instrumentation"
	"github.com/teemow/calbook/internal/server"
	"github.com/teemow/calbook/internal/tools/common"
)

// Tool names.
const (
	ToolGetAvailability = "calendar_get_availability"
	ToolListEvents      = "calendar_list_events"
	ToolCreateEvent     = "calendar_create_event"
)

// RegisterCalendarTools registers all calendar tools with the MCP server.
// calendar_create_event is skipped in read-only mode.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	s.AddTool(newGetAvailabilityTool(), mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler(
		ToolGetAvailability, instrumentation.BookingAvailability, sc, availabilityHandler(sc))))

	s.AddTool(newListEventsTool(), mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler(
		ToolListEvents, instrumentation.BookingEvents, sc, listEventsHandler(sc))))

	if !sc.ReadOnly() {
		s.AddTool(newCreateEventTool(), mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler(
			ToolCreateEvent, instrumentation.BookingCreate, sc, createEventHandler(sc))))
	}

	return nil
}

func withRange() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("startTime",
			mcp.Required(),
			mcp.Description("Start of the range (ISO-8601, e.g., '2025-01-01T09:00:00Z')"),
		),
		mcp.WithString("endTime",
			mcp.Required(),
			mcp.Description("End of the range (ISO-8601, e.g., '2025-01-01T17:00:00Z')"),
		),
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	result, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(result))
}
