package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/calbook/internal/booking"
	"github.com/teemow/calbook/internal/instrumentation"
)

// Options configures a ServerContext.
type Options struct {
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger

	// ReadOnly hides operations that write to the calendar.
	ReadOnly bool
}

// ServerContext holds the dependencies shared by the MCP server and the HTTP API
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	booking  *booking.Service
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	audit    *instrumentation.AuditLogger
	readOnly bool
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context around the booking service
func NewServerContext(ctx context.Context, svc *booking.Service, opts Options) (*ServerContext, error) {
	if svc == nil {
		return nil, fmt.Errorf("booking service cannot be nil")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		booking:  svc,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		audit:    opts.Audit,
		readOnly: opts.ReadOnly,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Booking returns the booking service
func (sc *ServerContext) Booking() *booking.Service {
	return sc.booking
}

// Logger returns the server logger
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder. It may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Audit returns the audit logger. It may be nil.
func (sc *ServerContext) Audit() *instrumentation.AuditLogger {
	return sc.audit
}

// ReadOnly reports whether write operations are disabled
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
