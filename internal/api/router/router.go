package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/webwerkstatt-nord/lead-service/internal/http/middleware"
	"github.com/webwerkstatt-nord/lead-service/internal/leads"
	"github.com/webwerkstatt-nord/lead-service/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	LeadsHandler   *leads.Handler
	CORSOrigins    []string
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.CORS(cfg.CORSOrigins))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Health check bypasses rate limiting so uptime monitors never
	// consume a client's quota.
	r.Get("/health", healthCheck)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Post("/api/lead", cfg.LeadsHandler.SubmitLead)

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return r
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UnixMilli(),
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(leads.ErrorResponse{Error: "Not found"})
}
