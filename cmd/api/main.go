package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/medconsult-ai/cmd/mainconfig"
	"github.com/wolfman30/medconsult-ai/internal/api/router"
	"github.com/wolfman30/medconsult-ai/internal/app/bootstrap"
	appconfig "github.com/wolfman30/medconsult-ai/internal/config"
	httpmiddleware "github.com/wolfman30/medconsult-ai/internal/http/middleware"
	"github.com/wolfman30/medconsult-ai/internal/llm"
	"github.com/wolfman30/medconsult-ai/internal/observability/metrics"
	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info("starting medconsult API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
		"session_backend", cfg.SessionBackend,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(cfg *appconfig.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	metricsHandler, bookingMetrics := setupMetrics()

	completer, closeLLM, err := bootstrap.BuildCompleter(ctx, cfg, awsCfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeLLM() }()

	var healthChecks []router.HealthCheck

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, cfg.SessionBackend == "redis")
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		if cfg.SessionBackend == "redis" {
			healthChecks = append(healthChecks, router.HealthCheck{
				Name:  "redis",
				Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			})
		}
	}
	sessions, err := bootstrap.BuildSessionStore(cfg, redisClient, awsCfg, logger)
	if err != nil {
		return err
	}

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
		healthChecks = append(healthChecks, router.HealthCheck{Name: "postgres", Check: pool.Ping})
	}
	appointments := bootstrap.BuildAppointmentRepository(pool, logger)

	retriever, err := bootstrap.BuildRetriever(ctx, cfg, awsCfg, logger)
	if err != nil {
		return err
	}

	app, err := bootstrap.NewApp(cfg, bootstrap.Deps{
		Completer:    completer,
		Sessions:     sessions,
		Appointments: appointments,
		Retriever:    retriever,
		Metrics:      bookingMetrics,
	}, logger)
	if err != nil {
		return err
	}
	go app.Sweeper.Start(ctx)

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx.Done(), 5*time.Minute)

	r := router.New(&router.Config{
		Logger:              logger,
		ConversationHandler: app.Handler,
		MetricsHandler:      metricsHandler,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimiter:         limiter,
		HealthChecks:        healthChecks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Chat turns wait on up to three completions.
		WriteTimeout: cfg.LLMTimeout*3 + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// setupMetrics registers process, LLM and booking collectors on a fresh registry.
func setupMetrics() (http.Handler, *metrics.BookingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	llm.RegisterMetrics(reg)
	bookingMetrics := metrics.NewBookingMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), bookingMetrics
}
