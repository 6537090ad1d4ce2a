package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/calbook/internal/booking"
	"github.com/teemow/calbook/internal/provider"
	"github.com/teemow/calbook/internal/server"
	"github.com/teemow/calbook/internal/tools/common"
)

func newListEventsTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("List calendar events between two timestamps"),
		mcp.WithReadOnlyHintAnnotation(true),
	}, withRange()...)
	return mcp.NewTool(ToolListEvents, opts...)
}

func newCreateEventTool() mcp.Tool {
	return mcp.NewTool(ToolCreateEvent,
		mcp.WithDescription("Create a calendar event and invite attendees"),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("startTime",
			mcp.Required(),
			mcp.Description("Start time (ISO-8601, e.g., '2025-01-15T14:00:00Z')"),
		),
		mcp.WithString("endTime",
			mcp.Required(),
			mcp.Description("End time (ISO-8601, e.g., '2025-01-15T15:00:00Z')"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithArray("attendees",
			mcp.Description("Attendee email addresses. A comma-separated string is also accepted"),
			mcp.WithStringItems(),
		),
	)
}

func listEventsHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		start, err := common.RequiredStringArg(args, "startTime")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		end, err := common.RequiredStringArg(args, "endTime")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, err := sc.Booking().GetEvents(ctx, start, end)
		if err != nil {
			return common.ErrorResult(ctx, "Failed to list events", err), nil
		}
		common.RecordServed(ctx, res.Served)

		return jsonResult(res), nil
	}
}

func createEventHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		attendees, err := common.StringListArg(args, "attendees")
		if err != nil {
			return common.ErrorResult(ctx, "Failed to create event", provider.InvalidInput("%v", err)), nil
		}

		in := booking.CreateEventInput{
			Title:       common.StringArg(args, "title"),
			StartTime:   common.StringArg(args, "startTime"),
			EndTime:     common.StringArg(args, "endTime"),
			Description: common.StringArg(args, "description"),
			Attendees:   attendees,
		}

		res, err := sc.Booking().CreateEvent(ctx, in)
		if err != nil {
			return common.ErrorResult(ctx, "Failed to create event", err), nil
		}
		common.RecordServed(ctx, res.Served)

		return jsonResult(res), nil
	}
}
