package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/calbook/internal/booking"
	"github.com/teemow/calbook/internal/instrumentation"
	"github.com/teemow/calbook/internal/provider"
	"github.com/teemow/calbook/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

type callInfoKey struct{}

// callInfo collects what a handler learns while serving a call.
type callInfo struct {
	served booking.Served
	kind   provider.Kind
}

func callInfoFrom(ctx context.Context) *callInfo {
	info, _ := ctx.Value(callInfoKey{}).(*callInfo)
	return info
}

// RecordServed notes which data source answered the call.
func RecordServed(ctx context.Context, served booking.Served) {
	if info := callInfoFrom(ctx); info != nil {
		info.served = served
	}
}

// ErrorResult builds a tool error result for err and records its kind.
func ErrorResult(ctx context.Context, msg string, err error) *mcp.CallToolResult {
	kind := provider.KindOf(err)
	if info := callInfoFrom(ctx); info != nil {
		info.kind = kind
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", msg, err))
}

// InstrumentedToolHandler wraps a tool handler with tracing, metrics and
// audit logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", instrumentation.BookingEvents, sc, handler))
func InstrumentedToolHandler(toolName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		info := &callInfo{}
		ctx = context.WithValue(ctx, callInfoKey{}, info)

		invocation := instrumentation.NewInvocation(instrumentation.SurfaceMCP, toolName, operation).
			WithSpanContext(ctx)
		if attendees, err := StringListArg(request.GetArguments(), "attendees"); err == nil && len(attendees) > 0 {
			invocation.WithAttendees(attendees)
		}

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		failed := err != nil || (result != nil && result.IsError)
		status := instrumentation.StatusSuccess
		var callErr error
		if failed {
			status = instrumentation.StatusError
			callErr = err
			if callErr == nil {
				callErr = errors.New(resultText(result))
			}
			if info.kind == "" {
				info.kind = provider.KindOf(callErr)
			}
			instrumentation.SetSpanError(span, callErr)
		} else {
			instrumentation.SetSpanSuccess(span)
		}

		sc.Metrics().RecordToolInvocationWithSource(ctx, toolName, status, info.served.Source, duration)
		invocation.WithSource(info.served.Source, info.served.Degraded)
		sc.Audit().Log(ctx, invocation.Complete(callErr, string(info.kind)))

		return result, err
	}
}

func resultText(result *mcp.CallToolResult) string {
	if result == nil {
		return "tool failed"
	}
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return "tool failed"
}
