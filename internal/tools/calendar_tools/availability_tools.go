package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/calbook/internal/server"
	"github.com/teemow/calbook/internal/tools/common"
)

func newGetAvailabilityTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Find free 30-minute slots between two timestamps. Slots never overlap busy time."),
		mcp.WithReadOnlyHintAnnotation(true),
	}, withRange()...)
	return mcp.NewTool(ToolGetAvailability, opts...)
}

func availabilityHandler(sc *server.ServerContext) common.ToolHandler {
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

		res, err := sc.Booking().GetAvailability(ctx, start, end)
		if err != nil {
			return common.ErrorResult(ctx, "Failed to get availability", err), nil
		}
		common.RecordServed(ctx, res.Served)

		return jsonResult(res), nil
	}
}
