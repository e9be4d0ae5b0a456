package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/medconsult-ai/internal/conversation"
	httpmiddleware "github.com/wolfman30/medconsult-ai/internal/http/middleware"
	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

// HealthCheck probes one backing dependency for /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *conversation.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
	// RateLimiter guards POST /chat when set.
	RateLimiter  *httpmiddleware.RateLimiter
	HealthChecks []HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
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

	r.Get("/health", healthHandler(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if h := cfg.ConversationHandler; h != nil {
		r.Group(func(chat chi.Router) {
			if cfg.RateLimiter != nil {
				chat.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
			}
			chat.Post("/chat", h.Chat)
		})
		r.Route("/appointments/{id}", func(appt chi.Router) {
			appt.Get("/", h.GetAppointment)
			appt.Post("/cancel", h.CancelAppointment)
		})
		// Singular paths kept for existing widget clients.
		r.Get("/appointment/{id}", h.GetAppointment)
		r.Post("/appointment/{id}/cancel", h.CancelAppointment)
		r.Get("/departments/{department}/slots", h.AvailableSlots)
	}

	return r
}

func healthHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		resp := map[string]string{"status": "ok"}
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				resp["status"] = "degraded"
				resp[c.Name] = err.Error()
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
