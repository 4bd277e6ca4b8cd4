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
	"github.com/redis/go-redis/v9"

	"github.com/docsched/clinic-ai-platform/internal/api/router"
	appconfig "github.com/docsched/clinic-ai-platform/internal/config"
	"github.com/docsched/clinic-ai-platform/internal/conversation"
	"github.com/docsched/clinic-ai-platform/internal/observability/metrics"
	"github.com/docsched/clinic-ai-platform/internal/schedule"
	"github.com/docsched/clinic-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel).With("service", "chat-api")
	logger.Info("starting chat front-end service",
		"env", cfg.Env,
		"port", cfg.ChatPort,
	)

	hours, err := schedule.Parse(cfg.WorkingHoursJSON, cfg.Timezone)
	if err != nil {
		logger.Error("invalid working hours configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	registry := prometheus.NewRegistry()
	chatMetrics := metrics.NewChatMetrics(registry)

	extractorLLM, err := conversation.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiExtractorModel)
	if err != nil {
		logger.Error("failed to create extractor model client", "error", err)
		os.Exit(1)
	}
	defer extractorLLM.Close()

	conversationalLLM, err := conversation.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiConversationModel)
	if err != nil {
		logger.Error("failed to create conversational model client", "error", err)
		os.Exit(1)
	}
	defer conversationalLLM.Close()

	var sessions conversation.SessionStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		sessions = conversation.NewRedisSessionStore(redisClient, cfg.SessionTTL, nil)
		logger.Info("using redis session store", "addr", cfg.RedisAddr)
	} else {
		sessions = conversation.NewMemorySessionStore()
		logger.Warn("REDIS_ADDR not set, sessions are in-memory and lost on restart")
	}

	extractorClient := conversation.InstrumentLLM(extractorLLM, chatMetrics, "extractor")
	conversationalClient := conversation.InstrumentLLM(conversationalLLM, chatMetrics, "conversational")

	classifier := conversation.NewIntentClassifier(extractorClient)
	extractor := conversation.NewExtractor(extractorClient, hours.Table(), nil)
	responder := conversation.NewResponder(conversationalClient, hours.Table())
	calendarClient := conversation.NewCalendarClient(cfg.CalendarServiceURL, logger)

	chatHandler := conversation.NewHandler(
		sessions, classifier, extractor, responder, calendarClient,
		chatMetrics, logger, cfg.DefaultDuration, cfg.DefaultSlotLimit,
	)

	r := router.NewChat(&router.ChatConfig{
		Logger:             logger,
		ChatHandler:        chatHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: strings.Split(cfg.CORSAllowedOrigins, ","),
		RateLimit:          float64(cfg.ChatRateLimitRPS),
		RateLimitBurst:     cfg.ChatRateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ChatPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
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
