// Package router wires the HTTP surfaces of the two services.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/docsched/clinic-ai-platform/internal/booking"
	"github.com/docsched/clinic-ai-platform/internal/conversation"
	httpmiddleware "github.com/docsched/clinic-ai-platform/internal/http/middleware"
	"github.com/docsched/clinic-ai-platform/pkg/logging"
)

// CalendarConfig holds calendar service router configuration.
type CalendarConfig struct {
	Logger             *logging.Logger
	BookingHandler     *booking.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// NewCalendar creates the calendar service router.
func NewCalendar(cfg *CalendarConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.BookingHandler.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Get("/available_slots", cfg.BookingHandler.AvailableSlots)
	r.Post("/book_slot", cfg.BookingHandler.BookSlot)

	return r
}

// ChatConfig holds chat service router configuration.
type ChatConfig struct {
	Logger             *logging.Logger
	ChatHandler        *conversation.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Requests/sec and burst for the per-IP limit on LLM-backed routes.
	RateLimit      float64
	RateLimitBurst int
}

// NewChat creates the chat service router.
func NewChat(cfg *ChatConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.ChatHandler.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(chat chi.Router) {
		if cfg.RateLimit > 0 {
			burst := cfg.RateLimitBurst
			if burst <= 0 {
				burst = 5
			}
			chat.Use(httpmiddleware.RateLimit(cfg.RateLimit, burst))
		}
		chat.Post("/chat", cfg.ChatHandler.Chat)
		chat.Post("/reset", cfg.ChatHandler.Reset)
	})

	return r
}
