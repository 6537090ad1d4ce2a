// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for calbook.
//
// # Metrics
//
// HTTP API:
//   - http_requests_total: requests by method, path and status
//   - http_request_duration_seconds: request latency
//
// Calendar provider:
//   - google_api_operations_total: Google Calendar calls by operation and status
//   - google_api_operation_duration_seconds: Google Calendar call latency
//   - google_api_retries_total: retried Google Calendar calls by operation and kind
//
// Booking:
//   - calendar_slots_returned: number of slots returned per availability query
//   - calendar_fallback_total: operations served by the fallback source
//
// MCP tools:
//   - mcp_tool_invocations_total: tool calls by tool and status
//   - mcp_tool_duration_seconds: tool latency
//
// # Tracing
//
// Spans are created for MCP tool calls (tool.<name>), booking operations
// (booking.<operation>) and Google Calendar calls (google.calendar.<operation>).
//
// # Configuration
//
// DefaultConfig reads the standard OpenTelemetry environment variables:
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - OTEL_SERVICE_NAME (default: calbook)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordGoogleAPIOperation(ctx, instrumentation.OperationFreeBusy,
//		instrumentation.StatusSuccess, time.Since(start))
package instrumentation
