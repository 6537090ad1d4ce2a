package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calbook/internal/availability"
	"github.com/teemow/calbook/internal/booking"
	"github.com/teemow/calbook/internal/provider"
	"github.com/teemow/calbook/internal/synthetic"
)

type failingGateway struct {
	err error
}

func (g failingGateway) FetchBusyIntervals(context.Context, availability.TimeWindow) ([]availability.BusyInterval, error) {
	return nil, g.err
}

func (g failingGateway) ListEvents(context.Context, availability.TimeWindow) ([]provider.Event, error) {
	return nil, g.err
}

func (g failingGateway) CreateEvent(context.Context, provider.EventRequest) (*provider.Event, error) {
	return nil, g.err
}

func newTestServerContext(t *testing.T, src booking.DataSource, readOnly bool) *ServerContext {
	t.Helper()
	svc, err := booking.NewService(booking.Options{Source: src})
	require.NoError(t, err)
	sc, err := NewServerContext(context.Background(), svc, Options{ReadOnly: readOnly})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func syntheticDataSource(t *testing.T) booking.DataSource {
	t.Helper()
	src, err := synthetic.New(synthetic.DefaultRules())
	require.NoError(t, err)
	return booking.Synthetic(src)
}

func newTestAPI(t *testing.T, src booking.DataSource, readOnly bool) http.Handler {
	t.Helper()
	sc := newTestServerContext(t, src, readOnly)
	return NewAPI(sc, nil, APIConfig{RateLimit: 1000, Burst: 1000}).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPI_Availability(t *testing.T) {
	h := newTestAPI(t, syntheticDataSource(t), false)

	rec := do(t, h, http.MethodGet, "/availability?start_time=2025-01-01T11:00:00Z&end_time=2025-01-01T13:30:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, booking.SourceSynthetic, resp.Source)
	require.Len(t, resp.Availability, 3)
	assert.Equal(t, "2025-01-01T11:00:00Z", resp.Availability[0].Start)
	assert.Equal(t, "11:00 AM", resp.Availability[0].Title)
	assert.Equal(t, 30, resp.Availability[0].DurationMinutes)
	assert.Equal(t, "2025-01-01T13:00:00Z", resp.Availability[2].Start)
}

func TestAPI_AvailabilityDateAliases(t *testing.T) {
	h := newTestAPI(t, syntheticDataSource(t), false)

	rec := do(t, h, http.MethodGet, "/availability?start_date=2025-01-01T09:00:00Z&end_date=2025-01-01T10:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Availability, 2)
}

func TestAPI_UnencodedOffset(t *testing.T) {
	h := newTestAPI(t, syntheticDataSource(t), false)

	// A literal "+" in a query string decodes to a space.
	rec := do(t, h, http.MethodGet, "/availability?start_time=2025-01-01T09:00:00+05:30&end_time=2025-01-01T10:00:00+05:30", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Availability, 2)
}

func TestAPI_ZeroLengthWindow(t *testing.T) {
	h := newTestAPI(t, syntheticDataSource(t), false)

	rec := do(t, h, http.MethodGet, "/availability?start_time=2025-01-01T09:00:00Z&end_time=2025-01-01T09:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"availability":[],"source":"synthetic"}`, rec.Body.String())
}

func TestAPI_Events(t *testing.T) {
	h := newTestAPI(t, syntheticDataSource(t), false)

	rec := do(t, h, http.MethodGet, "/events?start_time=2025-01-01T00:00:00Z&end_time=2025-01-02T00:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp EventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "Lunch", resp.Events[0].Summary)
	assert.Equal(t, "2025-01-01T12:00:00Z", resp.Events[0].Start)
}

func TestAPI_Book(t *testing.T) {
	h := newTestAPI(t, syntheticDataSource(t), false)

	rec := do(t, h, http.MethodPost, "/book", `{"title":"Sync","start_time":"2025-01-01T14:00:00Z","end_time":"2025-01-01T15:00:00Z","attendees":["a@x.com"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.BookingID)
	require.NotNil(t, resp.Details)
	assert.Equal(t, resp.BookingID, resp.Details.ID)
	assert.Equal(t, "confirmed", resp.Details.Status)
	assert.Equal(t, "2025-01-01T14:00:00Z", resp.Details.Start)
	assert.Equal(t, "2025-01-01T15:00:00Z", resp.Details.End)
	assert.Equal(t, []string{"a@x.com"}, resp.Details.Attendees)
}

func TestAPI_BookReadOnly(t *testing.T) {
	h := newTestAPI(t, syntheticDataSource(t), true)

	rec := do(t, h, http.MethodPost, "/book", `{"title":"Sync","start_time":"2025-01-01T14:00:00Z","end_time":"2025-01-01T15:00:00Z"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		src        booking.DataSource
		method     string
		target     string
		body       string
		wantStatus int
		wantKind   string
	}{
		{
			name:       "unparseable timestamp",
			src:        syntheticDataSource(t),
			method:     http.MethodGet,
			target:     "/availability?start_time=tomorrow&end_time=2025-01-01T10:00:00Z",
			wantStatus: http.StatusBadRequest,
			wantKind:   "invalid_input",
		},
		{
			name:       "unencoded offset out of range",
			src:        syntheticDataSource(t),
			method:     http.MethodGet,
			target:     "/availability?start_time=2025-01-01T09:00:00+25:00&end_time=2025-01-01T10:00:00Z",
			wantStatus: http.StatusBadRequest,
			wantKind:   "invalid_input",
		},
		{
			name:       "inverted window",
			src:        syntheticDataSource(t),
			method:     http.MethodGet,
			target:     "/events?start_time=2025-01-01T10:00:00Z&end_time=2025-01-01T09:00:00Z",
			wantStatus: http.StatusBadRequest,
			wantKind:   "invalid_input",
		},
		{
			name:       "malformed body",
			src:        syntheticDataSource(t),
			method:     http.MethodPost,
			target:     "/book",
			body:       `{"title":`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "invalid_input",
		},
		{
			name:       "unknown field",
			src:        syntheticDataSource(t),
			method:     http.MethodPost,
			target:     "/book",
			body:       `{"title":"Sync","when":"now"}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "invalid_input",
		},
		{
			name:       "auth",
			src:        booking.Live(failingGateway{err: &provider.Error{Kind: provider.KindAuth}}),
			method:     http.MethodGet,
			target:     "/availability?start_time=2025-01-01T09:00:00Z&end_time=2025-01-01T10:00:00Z",
			wantStatus: http.StatusUnauthorized,
			wantKind:   "auth_error",
		},
		{
			name:       "network",
			src:        booking.Live(failingGateway{err: &provider.Error{Kind: provider.KindNetwork}}),
			method:     http.MethodGet,
			target:     "/events?start_time=2025-01-01T09:00:00Z&end_time=2025-01-01T10:00:00Z",
			wantStatus: http.StatusGatewayTimeout,
			wantKind:   "network_error",
		},
		{
			name:       "provider",
			src:        booking.Live(failingGateway{err: &provider.Error{Kind: provider.KindProvider, StatusCode: 500}}),
			method:     http.MethodPost,
			target:     "/book",
			body:       `{"title":"Sync","start_time":"2025-01-01T14:00:00Z","end_time":"2025-01-01T15:00:00Z"}`,
			wantStatus: http.StatusBadGateway,
			wantKind:   "provider_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestAPI(t, tt.src, false)
			rec := do(t, h, tt.method, tt.target, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantKind, resp.Kind)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestAPI_RequestID(t *testing.T) {
	h := newTestAPI(t, syntheticDataSource(t), false)

	rec := do(t, h, http.MethodGet, "/health", "")
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, requestIDLength)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "caller-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "caller-id", rec.Header().Get(RequestIDHeader))
}

func TestAPI_RateLimited(t *testing.T) {
	sc := newTestServerContext(t, syntheticDataSource(t), false)
	h := NewAPI(sc, nil, APIConfig{RateLimit: 0.001, Burst: 1}).Handler()

	target := "/availability?start_time=2025-01-01T09:00:00Z&end_time=2025-01-01T10:00:00Z"
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, target, "").Code)

	rec := do(t, h, http.MethodGet, target, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// Health checks are not rate limited.
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
}

func TestAPI_MCPMount(t *testing.T) {
	sc := newTestServerContext(t, syntheticDataSource(t), false)

	var hits int
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusAccepted)
	})

	h := NewAPI(sc, nil, APIConfig{RateLimit: 1000, Burst: 1000, MCPHandler: mcp}).Handler()
	rec := do(t, h, http.MethodPost, MCPEndpointPath, `{"jsonrpc":"2.0"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, hits)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	without := newTestAPI(t, syntheticDataSource(t), false)
	assert.Equal(t, http.StatusNotFound, do(t, without, http.MethodPost, MCPEndpointPath, "{}").Code)
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusForError(provider.InvalidInput("bad")))
	assert.Equal(t, http.StatusUnauthorized, StatusForError(&provider.Error{Kind: provider.KindAuth}))
	assert.Equal(t, http.StatusGatewayTimeout, StatusForError(&provider.Error{Kind: provider.KindNetwork}))
	assert.Equal(t, http.StatusBadGateway, StatusForError(&provider.Error{Kind: provider.KindProvider}))
	assert.Equal(t, http.StatusBadGateway, StatusForError(assert.AnError))
}
