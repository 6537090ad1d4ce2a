package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	return rec
}

func TestAuditLogger_AnonymizesAttendees(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	inv := NewInvocation(SurfaceMCP, "calendar_create_event", BookingCreate).
		WithSource("live", false).
		WithAttendees([]string{"a@x.com", "b@y.com", "c@x.com"}).
		Complete(nil, "")
	logger.Log(context.Background(), inv)

	rec := decodeRecord(t, &buf)
	assert.Equal(t, "operation_executed", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "audit", rec["component"])
	assert.Equal(t, float64(3), rec["attendee_count"])
	assert.Equal(t, []any{"x.com", "y.com"}, rec["attendee_domains"])
	assert.NotContains(t, buf.String(), "a@x.com")
}

func TestAuditLogger_IncludePII(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAuditLoggerWithConfig(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{Enabled: true, IncludePII: true})

	inv := NewInvocation(SurfaceHTTP, "/book", BookingCreate).
		WithAttendees([]string{"a@x.com"}).
		Complete(errors.New("denied"), "auth_error")
	logger.Log(context.Background(), inv)

	rec := decodeRecord(t, &buf)
	assert.Equal(t, "operation_failed", rec["msg"])
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, []any{"a@x.com"}, rec["attendees"])
	assert.Equal(t, "auth_error", rec["error_kind"])
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAuditLoggerWithConfig(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{Enabled: false})
	logger.Log(context.Background(), NewInvocation(SurfaceCLI, "availability", BookingAvailability).Complete(nil, ""))
	assert.Zero(t, buf.Len())

	var nilLogger *AuditLogger
	nilLogger.Log(context.Background(), NewInvocation(SurfaceCLI, "availability", BookingAvailability))
}

func TestInvocation_Status(t *testing.T) {
	inv := NewInvocation(SurfaceMCP, "calendar_list_events", BookingEvents).WithSource("synthetic", true)
	inv.Complete(nil, "")
	assert.Equal(t, StatusSuccess, inv.Status())
	assert.True(t, inv.Fallback)

	inv.Complete(errors.New("x"), "network_error")
	assert.Equal(t, StatusError, inv.Status())
}

func TestAttendeeDomains(t *testing.T) {
	assert.Equal(t, []string{"unknown", "x.com"}, AttendeeDomains([]string{"a@X.com", "b@x.com", "broken"}))
	assert.Equal(t, []string{}, AttendeeDomains(nil))
}

func TestExtractUserDomain(t *testing.T) {
	assert.Equal(t, "example.com", ExtractUserDomain("jane@example.com"))
	assert.Equal(t, "unknown", ExtractUserDomain("invalid"))
	assert.Equal(t, "unknown", ExtractUserDomain(""))
	assert.Equal(t, "unknown", ExtractUserDomain("a@b@c"))
}
