package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/calbook/internal/availability"
	"github.com/teemow/calbook/internal/instrumentation"
	"github.com/teemow/calbook/internal/logging"
	"github.com/teemow/calbook/internal/provider"
)

// Options configures a Service.
type Options struct {
	// Source answers every request. Required.
	Source DataSource

	// Fallback answers requests the Source failed when Policy is PolicyDegrade.
	Fallback DataSource

	// Policy selects between propagating and degrading on provider failure.
	Policy FallbackPolicy

	// FallbackOnCreate extends degradation to CreateEvent. The fallback event
	// is not stored by the real provider, so this is off by default.
	FallbackOnCreate bool

	// SlotDuration is the availability slot length (default: 30m).
	SlotDuration time.Duration

	// MaxSlots caps availability results in every mode. Zero means unlimited.
	MaxSlots int

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Service implements the booking operations. It is immutable and safe for
// concurrent use.
type Service struct {
	source           DataSource
	fallback         DataSource
	policy           FallbackPolicy
	fallbackOnCreate bool
	slotOpts         availability.Options
	logger           *slog.Logger
	metrics          *instrumentation.Metrics
}

// NewService validates opts and builds a Service.
func NewService(opts Options) (*Service, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("booking: a data source is required")
	}
	if opts.Policy == "" {
		opts.Policy = PolicyPropagate
	}
	if opts.Policy == PolicyDegrade && opts.Fallback == nil {
		return nil, fmt.Errorf("booking: fallback policy %q requires a fallback source", opts.Policy)
	}
	if opts.MaxSlots < 0 {
		return nil, fmt.Errorf("booking: max slots must not be negative, got %d", opts.MaxSlots)
	}
	if opts.SlotDuration <= 0 {
		opts.SlotDuration = availability.DefaultSlotDuration
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Service{
		source:           opts.Source,
		fallback:         opts.Fallback,
		policy:           opts.Policy,
		fallbackOnCreate: opts.FallbackOnCreate,
		slotOpts:         availability.Options{SlotDuration: opts.SlotDuration, MaxSlots: opts.MaxSlots},
		logger:           opts.Logger,
		metrics:          opts.Metrics,
	}, nil
}

// SourceName returns the name of the primary data source.
func (s *Service) SourceName() string {
	return s.source.Name()
}

// Policy returns the configured fallback policy.
func (s *Service) Policy() FallbackPolicy {
	return s.policy
}

// GetAvailability returns free slots between startTime and endTime.
func (s *Service) GetAvailability(ctx context.Context, startTime, endTime string) (*AvailabilityResult, error) {
	ctx, span := instrumentation.StartBookingSpan(ctx, instrumentation.BookingAvailability)
	defer span.End()

	window, err := ParseWindow(startTime, endTime)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	if window.IsEmpty() {
		return &AvailabilityResult{Slots: []SlotView{}, Served: Served{Source: s.source.Name()}}, nil
	}

	busy, served, err := run(ctx, s, instrumentation.BookingAvailability, true,
		func(ctx context.Context, src DataSource) ([]availability.BusyInterval, error) {
			return src.FetchBusyIntervals(ctx, window)
		})
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	slots := availability.ComputeAvailableSlots(window, busy, s.slotOpts)
	s.metrics.RecordSlotsReturned(ctx, served.Source, len(slots))
	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithSource(served.Source).WithSlots(len(slots)).Build()...)
	instrumentation.SetSpanSuccess(span)

	return &AvailabilityResult{Slots: toSlotViews(slots), Served: served}, nil
}

// GetEvents lists events between startTime and endTime.
func (s *Service) GetEvents(ctx context.Context, startTime, endTime string) (*EventsResult, error) {
	ctx, span := instrumentation.StartBookingSpan(ctx, instrumentation.BookingEvents)
	defer span.End()

	window, err := ParseWindow(startTime, endTime)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	if window.IsEmpty() {
		return &EventsResult{Events: []EventView{}, Served: Served{Source: s.source.Name()}}, nil
	}

	events, served, err := run(ctx, s, instrumentation.BookingEvents, true,
		func(ctx context.Context, src DataSource) ([]provider.Event, error) {
			return src.ListEvents(ctx, window)
		})
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithSource(served.Source).Build()...)
	instrumentation.SetSpanSuccess(span)
	return &EventsResult{Events: toEventViews(events), Served: served}, nil
}

// CreateEvent validates in and creates the event.
func (s *Service) CreateEvent(ctx context.Context, in CreateEventInput) (*CreateResult, error) {
	ctx, span := instrumentation.StartBookingSpan(ctx, instrumentation.BookingCreate)
	defer span.End()

	req, err := buildEventRequest(in)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	ev, served, err := run(ctx, s, instrumentation.BookingCreate, s.fallbackOnCreate,
		func(ctx context.Context, src DataSource) (*provider.Event, error) {
			return src.CreateEvent(ctx, req)
		})
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithSource(served.Source).WithEventID(ev.ID).Build()...)
	instrumentation.SetSpanSuccess(span)
	s.logger.InfoContext(ctx, "event created",
		logging.Operation(instrumentation.BookingCreate),
		logging.Source(served.Source),
		slog.Int("attendees", len(req.Attendees)))

	return &CreateResult{Event: toCreatedEvent(ev), Served: served}, nil
}

func buildEventRequest(in CreateEventInput) (provider.EventRequest, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return provider.EventRequest{}, provider.InvalidInput("title is required")
	}

	window, err := ParseWindow(in.StartTime, in.EndTime)
	if err != nil {
		return provider.EventRequest{}, err
	}
	if window.IsEmpty() {
		return provider.EventRequest{}, provider.InvalidInput("end %s must be after start %s", in.EndTime, in.StartTime)
	}

	attendees := provider.NormalizeAttendees(in.Attendees)
	for _, a := range attendees {
		addr, err := mail.ParseAddress(a)
		if err != nil || addr.Address != a {
			return provider.EventRequest{}, provider.InvalidInput("invalid attendee email %q", a)
		}
	}

	return provider.EventRequest{
		Title:       title,
		Description: in.Description,
		Window:      window,
		Attendees:   attendees,
	}, nil
}

// run calls fn on the primary source and, when the policy allows it, on the
// fallback source after a provider failure.
func run[T any](ctx context.Context, s *Service, op string, degradable bool, fn func(context.Context, DataSource) (T, error)) (T, Served, error) {
	res, err := fn(ctx, s.source)
	if err == nil {
		return res, Served{Source: s.source.Name()}, nil
	}

	logger := logging.WithOperation(s.logger, "booking."+op)
	kind := provider.KindOf(err)

	if !degradable || s.policy != PolicyDegrade || s.fallback == nil ||
		errors.Is(err, provider.ErrInvalidInput) || ctx.Err() != nil {
		logger.WarnContext(ctx, "calendar operation failed",
			logging.Source(s.source.Name()),
			slog.String("kind", string(kind)),
			logging.Err(err))
		var zero T
		return zero, Served{Source: s.source.Name()}, err
	}

	logger.WarnContext(ctx, "calendar operation failed, serving from fallback source",
		logging.Source(s.source.Name()),
		slog.String("fallback", s.fallback.Name()),
		slog.String("kind", string(kind)),
		logging.Err(err))
	s.metrics.RecordFallback(ctx, op, string(kind))
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		instrumentation.MarkFallback(span, s.fallback.Name(), err)
	}

	res, fbErr := fn(ctx, s.fallback)
	if fbErr != nil {
		var zero T
		return zero, Served{Source: s.fallback.Name(), Degraded: true},
			fmt.Errorf("%s source failed (%v), fallback %s also failed: %w", s.source.Name(), err, s.fallback.Name(), fbErr)
	}
	return res, Served{Source: s.fallback.Name(), Degraded: true}, nil
}
