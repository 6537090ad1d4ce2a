package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/calbook/internal/availability"
	"github.com/teemow/calbook/internal/google"
	"github.com/teemow/calbook/internal/instrumentation"
	"github.com/teemow/calbook/internal/logging"
	"github.com/teemow/calbook/internal/provider"
)

// Defaults applied to zero Options fields.
const (
	DefaultCalendarID = "primary"
	DefaultTimeout    = 10 * time.Second
)

// Options configures a Client.
type Options struct {
	// CalendarID is the calendar queried and written to (default: primary).
	CalendarID string

	// Timeout bounds each individual API call (default: 10s).
	Timeout time.Duration

	Retry   RetryPolicy
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Client is a provider.Gateway backed by Google Calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
	timeout    time.Duration
	retry      RetryPolicy
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

var _ provider.Gateway = (*Client)(nil)

// NewClient creates a client authenticated with the token stored for account.
func NewClient(ctx context.Context, account string, tp google.TokenProvider, opts Options) (*Client, error) {
	if tp == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	ts, err := tp.TokenSource(ctx, account)
	if err != nil {
		return nil, &provider.Error{Kind: provider.KindAuth, Op: "token", Err: fmt.Errorf("account %s: %w", account, err)}
	}

	httpClient := oauth2.NewClient(ctx, ts)
	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := httpClient.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{ForceAttemptHTTP2: false}
	}

	return NewClientWithOptions(ctx, opts, option.WithHTTPClient(httpClient))
}

// NewClientWithOptions creates a client from raw API client options, e.g. a
// custom endpoint in tests.
func NewClientWithOptions(ctx context.Context, opts Options, apiOpts ...option.ClientOption) (*Client, error) {
	svc, err := calendar.NewService(ctx, apiOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	if opts.CalendarID == "" {
		opts.CalendarID = DefaultCalendarID
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		svc:        svc,
		calendarID: opts.CalendarID,
		timeout:    opts.Timeout,
		retry:      opts.Retry.withDefaults(),
		metrics:    opts.Metrics,
		logger:     opts.Logger.With(logging.Calendar(opts.CalendarID)),
	}, nil
}

// CalendarID returns the calendar this client operates on.
func (c *Client) CalendarID() string {
	return c.calendarID
}

// FetchBusyIntervals queries free/busy information for the configured calendar.
func (c *Client) FetchBusyIntervals(ctx context.Context, window availability.TimeWindow) ([]availability.BusyInterval, error) {
	const op = instrumentation.OperationFreeBusy

	req := &calendar.FreeBusyRequest{
		TimeMin: window.Start.Format(time.RFC3339),
		TimeMax: window.End.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: c.calendarID}},
	}

	resp, err := do(ctx, c, op, func(ctx context.Context, _ int) (*calendar.FreeBusyResponse, error) {
		return c.svc.Freebusy.Query(req).Context(ctx).Do()
	})
	if err != nil {
		return nil, err
	}

	return busyFromResponse(c.calendarID, resp)
}

// ListEvents lists single (expanded) events in window ordered by start time,
// following pagination to the end.
func (c *Client) ListEvents(ctx context.Context, window availability.TimeWindow) ([]provider.Event, error) {
	const op = instrumentation.OperationListEvents

	events := []provider.Event{}
	pageToken := ""
	for {
		token := pageToken
		page, err := do(ctx, c, op, func(ctx context.Context, _ int) (*calendar.Events, error) {
			call := c.svc.Events.List(c.calendarID).
				TimeMin(window.Start.Format(time.RFC3339)).
				TimeMax(window.End.Format(time.RFC3339)).
				SingleEvents(true).
				OrderBy("startTime")
			if token != "" {
				call = call.PageToken(token)
			}
			return call.Context(ctx).Do()
		})
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			ev, err := toEvent(item)
			if err != nil {
				return nil, &provider.Error{Kind: provider.KindProvider, Op: op, Err: err}
			}
			events = append(events, ev)
		}

		if page.NextPageToken == "" {
			return events, nil
		}
		pageToken = page.NextPageToken
	}
}

// CreateEvent inserts an event. The event ID is chosen client-side so that a
// retried insert which already succeeded is recognised by its conflict and
// resolved by fetching the stored event.
func (c *Client) CreateEvent(ctx context.Context, req provider.EventRequest) (*provider.Event, error) {
	const op = instrumentation.OperationCreateEvent

	body := toGoogleEvent(req)
	body.Id = newEventID()

	created, err := do(ctx, c, op, func(ctx context.Context, attempt int) (*calendar.Event, error) {
		ev, err := c.svc.Events.Insert(c.calendarID, body).SendUpdates("all").Context(ctx).Do()
		var gerr *googleapi.Error
		if err != nil && attempt > 1 && errors.As(err, &gerr) && gerr.Code == http.StatusConflict {
			c.logger.DebugContext(ctx, "insert conflicted after retry, fetching stored event")
			return c.svc.Events.Get(c.calendarID, body.Id).Context(ctx).Do()
		}
		return ev, err
	})
	if err != nil {
		return nil, err
	}

	ev, err := toEvent(created)
	if err != nil {
		return nil, &provider.Error{Kind: provider.KindProvider, Op: op, Err: err}
	}
	return &ev, nil
}

// newEventID returns an ID in Google's base32hex alphabet.
func newEventID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
