package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/docsched/clinic-ai-platform/internal/api/router"
	"github.com/docsched/clinic-ai-platform/internal/availability"
	"github.com/docsched/clinic-ai-platform/internal/booking"
	appconfig "github.com/docsched/clinic-ai-platform/internal/config"
	"github.com/docsched/clinic-ai-platform/internal/gcal"
	"github.com/docsched/clinic-ai-platform/internal/observability/metrics"
	"github.com/docsched/clinic-ai-platform/internal/schedule"
	"github.com/docsched/clinic-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel).With("service", "calendar-api")
	logger.Info("starting calendar booking service",
		"env", cfg.Env,
		"port", cfg.CalendarPort,
	)

	hours, err := schedule.Parse(cfg.WorkingHoursJSON, cfg.Timezone)
	if err != nil {
		logger.Error("invalid working hours configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	opts := []option.ClientOption{option.WithScopes(calendar.CalendarScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	store, err := gcal.NewClient(ctx, cfg.CalendarID, cfg.Timezone, logger, opts...)
	if err != nil {
		logger.Error("failed to create calendar client", "error", err)
		os.Exit(1)
	}

	engine := availability.NewEngine(store, hours, cfg.LookaheadDays)

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	bookingHandler := booking.NewHandler(store, hours, engine, bookingMetrics, logger, booking.HandlerConfig{
		DefaultDurationMinutes: cfg.DefaultDuration,
		DefaultSlotLimit:       cfg.DefaultSlotLimit,
		UpstreamTimeout:        cfg.UpstreamTimeout,
	})

	r := router.NewCalendar(&router.CalendarConfig{
		Logger:             logger,
		BookingHandler:     bookingHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: strings.Split(cfg.CORSAllowedOrigins, ","),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.CalendarPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
