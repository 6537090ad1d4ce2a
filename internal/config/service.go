package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teemow/calbook/internal/booking"
	"github.com/teemow/calbook/internal/calendar"
	"github.com/teemow/calbook/internal/google"
	"github.com/teemow/calbook/internal/instrumentation"
	"github.com/teemow/calbook/internal/logging"
	"github.com/teemow/calbook/internal/provider"
	"github.com/teemow/calbook/internal/synthetic"
)

// Deps carries the shared collaborators of the booking service.
type Deps struct {
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics

	// TokenProvider overrides the file token provider rooted at TokenDir.
	TokenProvider google.TokenProvider
}

// ResolveSource returns the concrete source name, resolving auto against the
// token store. Only a missing token selects synthetic data; a token that
// exists but cannot be loaded is an auth error.
func (c *Config) ResolveSource(ctx context.Context, tp google.TokenProvider) (string, error) {
	if c.Source != SourceAuto {
		return c.Source, nil
	}
	if tp == nil {
		return booking.SourceSynthetic, nil
	}
	_, err := tp.TokenSource(ctx, c.Account)
	switch {
	case err == nil:
		return booking.SourceLive, nil
	case errors.Is(err, google.ErrNoToken):
		return booking.SourceSynthetic, nil
	default:
		return "", provider.Wrap(provider.KindAuth, "token.load", err)
	}
}

// NewBookingService builds the booking service described by cfg.
func NewBookingService(ctx context.Context, cfg *Config, deps Deps) (*booking.Service, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rules, err := cfg.SyntheticRules()
	if err != nil {
		return nil, fmt.Errorf("invalid synthetic rules: %w", err)
	}
	syn, err := synthetic.New(rules)
	if err != nil {
		return nil, err
	}

	tp := deps.TokenProvider
	if tp == nil {
		tp = google.NewFileTokenProvider(cfg.ResolvedTokenDir(), cfg.Credentials())
	}

	opts := booking.Options{
		Policy:           cfg.Policy(),
		FallbackOnCreate: cfg.FallbackOnCreate,
		SlotDuration:     cfg.SlotDuration,
		MaxSlots:         cfg.MaxSlots,
		Logger:           logger,
		Metrics:          deps.Metrics,
	}

	source, err := cfg.ResolveSource(ctx, tp)
	if err != nil {
		return nil, err
	}
	switch source {
	case booking.SourceLive:
		client, err := calendar.NewClient(ctx, cfg.Account, tp, calendar.Options{
			CalendarID: cfg.CalendarID,
			Timeout:    cfg.ProviderTimeout,
			Retry:      cfg.RetryPolicy(),
			Metrics:    deps.Metrics,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		opts.Source = booking.Live(client)
		if opts.Policy == booking.PolicyDegrade {
			opts.Fallback = booking.Synthetic(syn)
		}
	default:
		opts.Source = booking.Synthetic(syn)
		// Nothing to degrade to when already serving synthetic data.
		opts.Policy = booking.PolicyPropagate
	}

	logger.Info("booking service configured",
		logging.Source(source),
		logging.Account(cfg.Account),
		logging.Calendar(cfg.CalendarID),
		slog.String("fallback_policy", string(opts.Policy)),
		slog.Int("max_slots", cfg.MaxSlots))

	return booking.NewService(opts)
}
