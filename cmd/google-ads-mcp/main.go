package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/p-blackswan/google-ads-mcp/internal/config"
	"github.com/p-blackswan/google-ads-mcp/internal/docs"
	"github.com/p-blackswan/google-ads-mcp/internal/googleads"
	"github.com/p-blackswan/google-ads-mcp/internal/health"
	"github.com/p-blackswan/google-ads-mcp/internal/mcp"
	"github.com/p-blackswan/google-ads-mcp/internal/metrics"
	"github.com/p-blackswan/google-ads-mcp/internal/response"
	"github.com/p-blackswan/google-ads-mcp/internal/retry"
	"github.com/p-blackswan/google-ads-mcp/internal/tool"
)

var version = "dev"

func main() {
	// stdout carries the protocol, so logs go to stderr.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := newLogger("", os.Stderr)
	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger = newLogger(cfg.Environment, os.Stderr)
	log.Logger = logger
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("version", version).
		Str("environment", cfg.Environment).
		Str("api_version", cfg.APIVersion).
		Bool("configured", cfg.Configured()).
		Bool("docs_verify", cfg.DocsVerify).
		Msg("starting google ads mcp server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	checker := health.NewChecker(30*time.Second, logger)

	deps := tool.Deps{Logger: logger}
	if cfg.Configured() {
		httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.AccessToken,
			TokenType:   "Bearer",
		}))
		httpClient.Timeout = cfg.RequestTimeout

		raw := googleads.NewClient(googleads.Options{
			Endpoint:        cfg.APIEndpoint,
			Version:         cfg.APIVersion,
			DeveloperToken:  cfg.DeveloperToken,
			LoginCustomerID: cfg.LoginCustomerID,
			HTTPClient:      httpClient,
			Logger:          logger,
		})
		retrier := retry.New(cfg.RetryPolicy(), retry.WithLogger(logger), retry.WithRecorder(m))
		deps.Client = googleads.WithRetry(raw, retrier)

		// Probes go to the unretried client so a slow API fails readiness fast.
		checker.Register("google_ads", func(ctx context.Context) health.Status {
			if _, err := raw.CustomerService().ListAccessibleCustomers(ctx); err != nil {
				return health.StatusDown
			}
			return health.StatusOK
		})
	} else {
		logger.Warn().Msg("google ads credentials missing, remote tools will report not configured")
	}
	checker.Register("credentials", func(context.Context) health.Status {
		if cfg.Configured() {
			return health.StatusOK
		}
		return health.StatusDegraded
	})

	formatter := response.NewFormatter(nil)
	if cfg.DocsVerify {
		lookup := docs.NewLookup(docs.Options{
			Timeout:   cfg.DocsTimeout,
			CacheSize: cfg.DocsCacheSize,
			CacheTTL:  cfg.DocsCacheTTL,
			Recorder:  m,
			Logger:    logger,
		})
		deps.Docs = lookup
		// Resolve only reads verified links; misses warm in the background.
		formatter = response.NewFormatter(lookup)
	}

	registry := tool.NewRegistry()
	tool.RegisterAds(registry, deps)

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		mux.HandleFunc("/health", health.LivenessHandler())
		mux.HandleFunc("/ready", checker.ReadinessHandler())

		metricsServer = &http.Server{
			Addr:         cfg.MetricsAddr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	server := mcp.NewServer(registry, mcp.Options{
		Version:     version,
		IncludeDocs: true,
		Formatter:   formatter,
		Recorder:    m,
		Logger:      logger,
	})
	if err := server.Serve(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("mcp server stopped")
	}
	logger.Info().Msg("shutting down")

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}
}

// newLogger writes JSON, or console output in development.
func newLogger(environment string, w io.Writer) zerolog.Logger {
	if environment == "development" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	return zerolog.New(w).With().Timestamp().Caller().Logger()
}
