package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teemow/calbook/internal/booking"
	"github.com/teemow/calbook/internal/instrumentation"
	"github.com/teemow/calbook/internal/logging"
	"github.com/teemow/calbook/internal/provider"
)

// HTTP API defaults.
const (
	DefaultAPIAddr  = ":8000"
	MCPEndpointPath = "/mcp"

	maxBookBodyBytes = 1 << 20
	pruneInterval    = time.Minute
)

// APIConfig configures the HTTP API.
type APIConfig struct {
	// RateLimit is the sustained requests per second allowed per client IP.
	RateLimit float64
	Burst     int

	// TrustProxy honours X-Forwarded-For and X-Real-IP for rate limiting.
	TrustProxy bool

	// MCPHandler, when set, is mounted at MCPEndpointPath.
	MCPHandler http.Handler
}

// BookRequest is the body of POST /book.
type BookRequest struct {
	Title       string   `json:"title"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Description string   `json:"description,omitempty"`
	Attendees   []string `json:"attendees,omitempty"`
}

// BookingResponse is the body of a successful POST /book.
type BookingResponse struct {
	Success   bool                  `json:"success"`
	BookingID string                `json:"booking_id,omitempty"`
	Message   string                `json:"message"`
	Details   *booking.CreatedEvent `json:"details,omitempty"`
	Source    string                `json:"source"`
	Degraded  bool                  `json:"degraded,omitempty"`
}

// AvailabilityResponse is the body of GET /availability.
type AvailabilityResponse struct {
	Availability []booking.SlotView `json:"availability"`
	booking.Served
}

// EventsResponse is the body of GET /events.
type EventsResponse struct {
	Events []booking.EventView `json:"events"`
	booking.Served
}

// API serves the booking operations as JSON over HTTP.
type API struct {
	sc      *ServerContext
	health  *HealthChecker
	limiter *RateLimiter
	logger  *slog.Logger
	mcp     http.Handler
	routes  map[string]bool
}

// NewAPI creates the HTTP API. health may be nil, in which case a fresh
// checker is used.
func NewAPI(sc *ServerContext, health *HealthChecker, cfg APIConfig) *API {
	if health == nil {
		health = NewHealthChecker(sc)
	}
	return &API{
		sc:      sc,
		health:  health,
		limiter: NewRateLimiter(cfg.RateLimit, cfg.Burst, cfg.TrustProxy),
		logger:  sc.Logger().With("component", "http_api"),
		mcp:     cfg.MCPHandler,
		routes:  map[string]bool{},
	}
}

// Handler returns the complete HTTP handler of the API.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	a.health.RegisterHealthEndpoints(mux)

	a.handle(mux, "GET /availability", a.handleAvailability)
	a.handle(mux, "GET /events", a.handleEvents)
	if !a.sc.ReadOnly() {
		a.handle(mux, "POST /book", a.handleBook)
	}
	if a.mcp != nil {
		mux.Handle(MCPEndpointPath, a.limiter.Middleware(a.mcp))
		a.routes[MCPEndpointPath] = true
	}
	for _, p := range []string{"/health", "/healthz", "/readyz", "/healthz/detailed"} {
		a.routes[p] = true
	}

	return requestIDMiddleware(a.observeMiddleware(mux))
}

func (a *API) handle(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.Handle(pattern, a.limiter.Middleware(fn))
	if _, path, ok := strings.Cut(pattern, " "); ok {
		a.routes[path] = true
	}
}

// Serve runs the API on addr until ctx is cancelled.
func (a *API) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAPIAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: DefaultMetricsReadTimeout,
		IdleTimeout:       DefaultMetricsIdleTimeout,
	}

	go a.pruneLimiters(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP API", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP API")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (a *API) pruneLimiters(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.limiter.Prune()
		}
	}
}

// queryParam returns the first non-empty value among names.
func queryParam(r *http.Request, names ...string) string {
	q := r.URL.Query()
	for _, n := range names {
		if v := q.Get(n); v != "" {
			return v
		}
	}
	return ""
}

func (a *API) handleAvailability(w http.ResponseWriter, r *http.Request) {
	start := queryParam(r, "start_time", "start_date")
	end := queryParam(r, "end_time", "end_date")

	var res *booking.AvailabilityResult
	err := a.observe(r, "/availability", instrumentation.BookingAvailability, nil, func(ctx context.Context) (booking.Served, error) {
		var err error
		res, err = a.sc.Booking().GetAvailability(ctx, start, end)
		if err != nil {
			return booking.Served{}, err
		}
		return res.Served, nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{Availability: res.Slots, Served: res.Served})
}

func (a *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	start := queryParam(r, "start_time", "start_date")
	end := queryParam(r, "end_time", "end_date")

	var res *booking.EventsResult
	err := a.observe(r, "/events", instrumentation.BookingEvents, nil, func(ctx context.Context) (booking.Served, error) {
		var err error
		res, err = a.sc.Booking().GetEvents(ctx, start, end)
		if err != nil {
			return booking.Served{}, err
		}
		return res.Served, nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EventsResponse{Events: res.Events, Served: res.Served})
}

func (a *API) handleBook(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBookBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, provider.InvalidInput("invalid request body: %v", err))
		return
	}

	var res *booking.CreateResult
	err := a.observe(r, "/book", instrumentation.BookingCreate, req.Attendees, func(ctx context.Context) (booking.Served, error) {
		var err error
		res, err = a.sc.Booking().CreateEvent(ctx, booking.CreateEventInput{
			Title:       req.Title,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			Description: req.Description,
			Attendees:   req.Attendees,
		})
		if err != nil {
			return booking.Served{}, err
		}
		return res.Served, nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BookingResponse{
		Success:   true,
		BookingID: res.Event.ID,
		Message:   "Appointment booked successfully",
		Details:   &res.Event,
		Source:    res.Source,
		Degraded:  res.Degraded,
	})
}

// observe runs fn and writes the audit record of the call.
func (a *API) observe(r *http.Request, route, op string, attendees []string, fn func(context.Context) (booking.Served, error)) error {
	ctx := r.Context()
	inv := instrumentation.NewInvocation(instrumentation.SurfaceHTTP, route, op).WithAttendees(attendees)

	served, err := fn(ctx)

	inv.WithSource(served.Source, served.Degraded).WithSpanContext(ctx)
	kind := ""
	if err != nil {
		kind = string(provider.KindOf(err))
		a.logger.WarnContext(ctx, "request failed",
			logging.RequestID(RequestIDFromContext(ctx)),
			logging.Operation(op),
			slog.String("kind", kind),
			logging.Err(err))
	}
	a.sc.Audit().Log(ctx, inv.Complete(err, kind))
	return err
}
