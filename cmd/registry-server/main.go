package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bidan/registry/internal/config"
	"github.com/bidan/registry/internal/domain/dashboard"
	"github.com/bidan/registry/internal/domain/normalize"
	"github.com/bidan/registry/internal/domain/visit"
	"github.com/bidan/registry/internal/platform/auth"
	"github.com/bidan/registry/internal/platform/db"
	"github.com/bidan/registry/internal/platform/locale"
	"github.com/bidan/registry/internal/platform/metrics"
	"github.com/bidan/registry/internal/platform/middleware"
	"github.com/bidan/registry/internal/platform/openapi"
	"github.com/bidan/registry/internal/platform/reminder"
	"github.com/bidan/registry/internal/platform/sandbox"
	"github.com/bidan/registry/internal/platform/sheets"
	"github.com/bidan/registry/internal/platform/webhook"
	"github.com/bidan/registry/internal/platform/websocket"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "registry-server",
		Short:        "Clinic patient visit registry",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(normalizeCmd())
	rootCmd.AddCommand(remindCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(seedCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the registry API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// store is the configured visit repository plus the pool behind it when
// STORE=postgres.
type store struct {
	repo visit.Repository
	pool *pgxpool.Pool
}

func (s *store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// openStore builds the visit repository for cfg.Store. m may be nil, in
// which case nothing is observed and reads are not cached.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) (*store, error) {
	var st store
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, db.PoolConfig{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
			Logger:   &logger,
		})
		if err != nil {
			return nil, err
		}
		st.pool = pool
		st.repo = visit.NewPGRepo(pool)
		logger.Info().Msg("connected to database")
	default:
		ts, err := sheets.TokenSource(ctx, cfg.SheetsCredentialsFile, cfg.SheetsAccessToken)
		if err != nil {
			return nil, err
		}
		opts := []sheets.Option{sheets.WithLogger(logger)}
		if m != nil {
			opts = append(opts, sheets.WithObserver(m))
		}
		client := sheets.New(sheets.Config{
			SpreadsheetID:   cfg.SheetsSpreadsheetID,
			SheetName:       cfg.SheetsSheetName,
			SheetID:         cfg.SheetsSheetID,
			APIKey:          cfg.SheetsAPIKey,
			BaseURL:         cfg.SheetsBaseURL,
			PublicFallbacks: cfg.SheetsPublicFallbacks,
			RetryCount:      2,
		}, ts, opts...)
		if !client.Authenticated() {
			logger.Warn().Msg("no spreadsheet credentials configured; the register is read-only")
		}
		st.repo = visit.NewSheetsRepo(client)
	}

	if m != nil {
		st.repo = visit.NewCachedRepo(st.repo, cfg.CacheTTL, m)
	}
	return &st, nil
}

func newVisitService(cfg *config.Config, repo visit.Repository) (*visit.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return visit.NewService(repo, loc), nil
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid config")
		return err
	}
	if cfg.IsDev() {
		logger.Warn().Msg("ENV=development: requests without a bearer token are served as admin")
	}

	catalog, err := locale.Load(cfg.Locale)
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}

	m := metrics.New()

	ctx := context.Background()
	st, err := openStore(ctx, cfg, logger, m)
	if err != nil {
		logger.Error().Err(err).Str("store", cfg.Store).Msg("failed to open visit store")
		return err
	}
	defer st.Close()

	svc, err := newVisitService(cfg, st.repo)
	if err != nil {
		return err
	}
	svc.SetRecorder(m)

	hub := websocket.NewHub(logger)
	svc.AddListener(hub)

	e := newServer(cfg, logger, catalog, m, svc, st.pool, hub)

	rem := reminder.New(svc, catalog.For(cfg.Locale), m, logger)
	rem.AddNotifier(reminder.NotifierFunc(func(ctx context.Context, res reminder.Result) error {
		return hub.Emit(ctx, websocket.TopicReminder, reminderEvent, 0, res)
	}))
	if err := attachWebhooks(rem, cfg, logger); err != nil {
		return err
	}
	if err := rem.Start(cfg.ReminderSchedule, svc.Location()); err != nil {
		return err
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("store", cfg.Store).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rem.Stop(shutdownCtx)
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer wires middleware and routes. pool is nil unless STORE=postgres;
// hub may be nil to leave out the live feed.
func newServer(cfg *config.Config, logger zerolog.Logger, catalog *locale.Catalog, m *metrics.Metrics, svc *visit.Service, pool *pgxpool.Pool, hub *websocket.Hub) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(m.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "Accept-Language", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	}

	// Auth middleware
	if cfg.IsDev() && cfg.AuthJWKSURL == "" && cfg.AuthSigningKey == "" {
		e.Use(auth.DevAuthMiddleware(auth.AuthSkipper))
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
			Skipper:    auth.AuthSkipper,
		}))
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1 := e.Group("/api/v1", middleware.RateLimit(rateLimitCfg))

	visit.NewHandler(svc, catalog).RegisterRoutes(apiV1)
	dashboard.NewHandler(dashboard.NewService(svc), catalog).RegisterRoutes(apiV1)
	normalize.NewHandler(catalog).RegisterRoutes(apiV1)
	if hub != nil {
		live := apiV1.Group("", auth.RequireRole(auth.ReadRoles...))
		websocket.NewHandler(hub, cfg.CORSOrigins).RegisterRoutes(live)
	}
	if cfg.IsDev() {
		write := apiV1.Group("", auth.RequireRole(auth.WriteRoles...))
		sandbox.NewSeedHandler(svc, svc.Today, logger).RegisterRoutes(write)
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
			"store":   cfg.Store,
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}
	e.GET("/metrics", m.Handler())

	openapi.NewGenerator(e, version, fmt.Sprintf("http://localhost:%s", cfg.Port)).RegisterRoutes(e)

	return e
}

// reminderEvent is the webhook event type for a run with unserved patients.
const reminderEvent = "reminder.unserved"

// attachWebhooks forwards reminder results to REMINDER_WEBHOOK_URLS, if any.
func attachWebhooks(rem *reminder.Reminder, cfg *config.Config, logger zerolog.Logger) error {
	if len(cfg.ReminderWebhookURLs) == 0 {
		return nil
	}
	sender, err := webhook.NewSender(
		webhook.Endpoints(cfg.ReminderWebhookURLs, cfg.ReminderWebhookSecret),
		webhook.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("reminder webhooks: %w", err)
	}
	rem.AddNotifier(reminder.NotifierFunc(func(ctx context.Context, res reminder.Result) error {
		_, err := sender.Send(ctx, reminderEvent, res)
		return err
	}))
	logger.Info().Int("endpoints", sender.Len()).Msg("reminder webhooks enabled")
	return nil
}
