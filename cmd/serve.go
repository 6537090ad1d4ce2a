package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/calbook/internal/config"
	"github.com/teemow/calbook/internal/instrumentation"
	"github.com/teemow/calbook/internal/server"
	"github.com/teemow/calbook/internal/tools/calendar_tools"
)

// Supported MCP transports.
const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

type serveOptions struct {
	transport        string
	readOnly         bool
	disableStreaming bool
	trustProxy       bool
	metricsEnabled   bool
	metricsAddr      string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start calbook as an MCP server exposing the calendar tools:
  - calendar_get_availability: free slots in a time window
  - calendar_list_events: events in a time window
  - calendar_create_event: book a new event (hidden with --read-only)

Supports multiple transports:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport at /mcp, served together with
    the JSON HTTP API (/availability, /events, /book, /health) and a
    Prometheus metrics server on a dedicated port`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTransport(opts.transport); err != nil {
				return err
			}
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().String("http-addr", server.DefaultAPIAddr, "HTTP server address (for streamable-http transport)")
	cmd.Flags().Float64("rate-limit", server.DefaultRateLimit, "Requests per second allowed per client IP on the HTTP API")
	cmd.Flags().Int("burst", server.DefaultBurst, "Burst size of the per client rate limiter")
	cmd.Flags().BoolVar(&opts.trustProxy, "trust-proxy", false, "Use X-Forwarded-For/X-Real-IP to identify clients (only behind a trusted proxy)")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "Hide the create operation on MCP and HTTP")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address")

	return cmd
}

func validateTransport(transport string) error {
	switch transport {
	case transportStdio, transportStreamableHTTP:
		return nil
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
	}
}

func runServe(cmd *cobra.Command, opts serveOptions) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stdout carries the stdio transport, so logs always go to stderr.
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("instrumentation shutdown failed", "error", err)
		}
	}()

	var audit *instrumentation.AuditLogger
	if provider.Enabled() {
		audit = instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)
	}

	svc, err := config.NewBookingService(ctx, cfg, config.Deps{
		Logger:  logger,
		Metrics: provider.Metrics(),
	})
	if err != nil {
		return fmt.Errorf("failed to create booking service: %w", err)
	}

	serverContext, err := server.NewServerContext(ctx, svc, server.Options{
		Logger:   logger,
		Metrics:  provider.Metrics(),
		Audit:    audit,
		ReadOnly: opts.readOnly,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", "error", err)
		}
	}()

	mcpSrv := newMCPServer()
	if err := calendar_tools.RegisterCalendarTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register calendar tools: %w", err)
	}

	if opts.readOnly {
		logger.Info("starting server in read-only mode")
	}

	switch opts.transport {
	case transportStreamableHTTP:
		return runStreamableHTTPServer(ctx, mcpSrv, serverContext, cfg, opts, provider)
	default:
		return runStdioServer(mcpSrv)
	}
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer(server.ServiceName, version,
		mcpserver.WithToolCapabilities(true),
	)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg *config.Config, opts serveOptions, provider *instrumentation.Provider) error {
	logger := sc.Logger()

	if opts.metricsEnabled && provider.PrometheusEnabled() {
		metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.metricsAddr,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", "error", err)
			}
		}()
	}

	mcpHandler := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(server.MCPEndpointPath),
		mcpserver.WithDisableStreaming(opts.disableStreaming),
	)

	api := server.NewAPI(sc, server.NewHealthChecker(sc), server.APIConfig{
		RateLimit:  cfg.HTTP.RateLimit,
		Burst:      cfg.HTTP.Burst,
		TrustProxy: opts.trustProxy,
		MCPHandler: mcpHandler,
	})

	logger.Info("starting calbook",
		slog.String("transport", opts.transport),
		slog.String("addr", cfg.HTTP.Addr),
		slog.String("source", sc.Booking().SourceName()))

	if err := api.Serve(ctx, cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server stopped with error: %w", err)
	}
	return nil
}
