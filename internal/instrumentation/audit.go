package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Surfaces through which an operation can be invoked.
const (
	SurfaceMCP  = "mcp"
	SurfaceHTTP = "http"
	SurfaceCLI  = "cli"
)

// Invocation captures one call of a booking operation for audit logging.
//
// Attendees may contain personal addresses. LogAttrs reduces them to domains;
// LogAuditAttrs keeps them verbatim and belongs in access-controlled streams.
type Invocation struct {
	Surface   string
	Name      string // tool name or HTTP route
	Operation string // availability, events, create
	Source    string // data source that served the call
	Fallback  bool
	Attendees []string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	ErrorKind string
	Error     string

	TraceID string
	SpanID  string
}

// NewInvocation starts timing an invocation.
func NewInvocation(surface, name, operation string) *Invocation {
	return &Invocation{
		Surface:   surface,
		Name:      name,
		Operation: operation,
		StartTime: time.Now(),
	}
}

// WithSource records which data source served the call.
func (inv *Invocation) WithSource(source string, fallback bool) *Invocation {
	inv.Source = source
	inv.Fallback = fallback
	return inv
}

// WithAttendees records the attendee list of a create call.
func (inv *Invocation) WithAttendees(attendees []string) *Invocation {
	inv.Attendees = attendees
	return inv
}

// WithSpanContext copies trace identifiers from the span in ctx.
func (inv *Invocation) WithSpanContext(ctx context.Context) *Invocation {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		inv.TraceID = sc.TraceID().String()
		inv.SpanID = sc.SpanID().String()
	}
	return inv
}

// Complete stops timing. kind classifies err and is ignored on success.
func (inv *Invocation) Complete(err error, kind string) *Invocation {
	inv.Duration = time.Since(inv.StartTime)
	inv.Success = err == nil
	if err != nil {
		inv.Error = err.Error()
		inv.ErrorKind = kind
	}
	return inv
}

// Status returns StatusSuccess or StatusError.
func (inv *Invocation) Status() string {
	if inv.Success {
		return StatusSuccess
	}
	return StatusError
}

func (inv *Invocation) baseAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("surface", inv.Surface),
		slog.String("name", inv.Name),
		slog.String("operation", inv.Operation),
		slog.Duration("duration", inv.Duration),
		slog.Bool("success", inv.Success),
	}
	if inv.Source != "" {
		attrs = append(attrs, slog.String("source", inv.Source))
	}
	if inv.Fallback {
		attrs = append(attrs, slog.Bool("fallback", true))
	}
	if inv.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", inv.TraceID))
	}
	return attrs
}

func (inv *Invocation) errorAttrs() []slog.Attr {
	if inv.Success {
		return nil
	}
	return []slog.Attr{
		slog.String("error_kind", inv.ErrorKind),
		slog.String("error", inv.Error),
	}
}

// LogAttrs returns attributes safe for operational logs.
func (inv *Invocation) LogAttrs() []slog.Attr {
	attrs := inv.baseAttrs()
	if len(inv.Attendees) > 0 {
		attrs = append(attrs,
			slog.Int("attendee_count", len(inv.Attendees)),
			slog.Any("attendee_domains", AttendeeDomains(inv.Attendees)))
	}
	return append(attrs, inv.errorAttrs()...)
}

// LogAuditAttrs returns attributes including attendee addresses.
func (inv *Invocation) LogAuditAttrs() []slog.Attr {
	attrs := inv.baseAttrs()
	if inv.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", inv.SpanID))
	}
	if len(inv.Attendees) > 0 {
		attrs = append(attrs, slog.Any("attendees", inv.Attendees))
	}
	return append(attrs, inv.errorAttrs()...)
}

// AuditLogger writes one structured record per invocation.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger that anonymizes attendees.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates an AuditLogger from config.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("component", "audit")),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// Log writes inv. Nil receivers and disabled loggers drop the record.
func (al *AuditLogger) Log(ctx context.Context, inv *Invocation) {
	if al == nil || !al.enabled {
		return
	}

	attrs := inv.LogAttrs()
	if al.includePII {
		attrs = inv.LogAuditAttrs()
	}

	level := slog.LevelInfo
	msg := "operation_executed"
	if !inv.Success {
		level = slog.LevelWarn
		msg = "operation_failed"
	}
	al.logger.LogAttrs(ctx, level, msg, attrs...)
}
