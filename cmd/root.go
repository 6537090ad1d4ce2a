package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/calbook/internal/availability"
	"github.com/teemow/calbook/internal/booking"
	"github.com/teemow/calbook/internal/calendar"
	"github.com/teemow/calbook/internal/config"
	"github.com/teemow/calbook/internal/google"
	"github.com/teemow/calbook/internal/logging"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the CLI.
func SetVersion(v string) {
	version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the calbook command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calbook",
		Short: "Calendar availability and booking service",
		Long: `calbook computes bookable 30 minute slots from a calendar's busy time,
lists events and books new ones.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants
  - A JSON HTTP API (together with the streamable-http transport)
  - A CLI calling the booking service directly

Data comes from Google Calendar when a token is stored for the account and
from a configurable synthetic calendar otherwise.`,
		Version:      version,
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate(`{{printf "calbook version %s\n" .Version}}`)

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Config file (default: calbook.yaml in . or the user config dir)")
	flags.StringSlice("env-file", nil, "Dotenv files to load (default: .env)")
	flags.String("source", config.SourceAuto, "Data source: auto, live or synthetic")
	flags.String("fallback-policy", string(booking.PolicyPropagate), "On live failure: propagate the error or degrade to synthetic data")
	flags.Bool("fallback-on-create", false, "Also degrade createEvent to synthetic data")
	flags.Duration("slot-duration", availability.DefaultSlotDuration, "Length of a bookable slot")
	flags.Int("max-slots", 0, "Maximum number of slots returned (0: unlimited)")
	flags.Duration("provider-timeout", calendar.DefaultTimeout, "Timeout of a single provider call")
	flags.String("calendar-id", calendar.DefaultCalendarID, "Google calendar to read and book")
	flags.String("account", google.DefaultAccount, "Google account name whose token is used")
	flags.String("token-dir", "", "Directory of stored OAuth tokens (default: user cache dir)")
	flags.String("log-format", logging.FormatText, "Log format: text or json")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("google-client-id", "", "Google OAuth client ID. Can also use GOOGLE_CLIENT_ID env var.")
	flags.String("google-client-secret", "", "Google OAuth client secret. Can also use GOOGLE_CLIENT_SECRET env var.")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAvailabilityCmd())
	cmd.AddCommand(newEventsCmd())
	cmd.AddCommand(newBookCmd())
	cmd.AddCommand(newAuthCmd())
	cmd.AddCommand(newGenerateDocsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig resolves the layered configuration for cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFiles, err := cmd.Flags().GetStringSlice("env-file")
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	v := config.NewViper()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}

	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(v, configFile)
}

// newLogger builds the process logger and installs it as the slog default.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	logger, err := logging.New(w, cfg.LogFormat, cfg.Debug)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// setup loads config and builds the logger and booking service for the
// one-shot commands. Logs go to stderr so stdout stays parseable.
func setup(cmd *cobra.Command) (*config.Config, *booking.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	svc, err := config.NewBookingService(cmd.Context(), cfg, config.Deps{Logger: logger})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create booking service: %w", err)
	}
	return cfg, svc, nil
}
