// Package server provides the shared server context, the JSON HTTP API,
// health checks and the Prometheus metrics server of calbook.
//
// # Key Components
//
// ServerContext carries the booking service and its collaborators to every
// surface (MCP tools and HTTP API) and tracks shutdown.
//
// API serves the booking operations over HTTP:
//   - GET /availability?start_time=...&end_time=...
//   - GET /events?start_time=...&end_time=...
//   - POST /book (hidden in read-only mode)
//   - GET /health, /healthz, /readyz
//   - /mcp, the MCP streamable-http endpoint when configured
//
// Every API response carries an X-Request-ID header. Requests are limited
// per client IP with a token bucket. Provider failures map to HTTP statuses:
//   - invalid_input: 400 Bad Request
//   - auth_error: 401 Unauthorized
//   - network_error: 504 Gateway Timeout
//   - provider_error: 502 Bad Gateway
//
// MetricsServer exposes /metrics on a dedicated port so operational metrics
// stay off the application listener.
package server
