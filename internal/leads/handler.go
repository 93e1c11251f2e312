package leads

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/webwerkstatt-nord/lead-service/internal/observability/metrics"
	"github.com/webwerkstatt-nord/lead-service/pkg/logging"
)

// RateLimiter admits or rejects a request for the given client identifier.
type RateLimiter interface {
	Allow(ctx context.Context, clientID string) bool
}

// Dispatcher fans a validated lead out to the configured sinks and
// returns once every delivery has settled.
type Dispatcher interface {
	Dispatch(ctx context.Context, lead Lead)
}

// Handler handles HTTP requests for lead submissions
type Handler struct {
	limiter    RateLimiter
	dispatcher Dispatcher
	metrics    *metrics.LeadMetrics
	logger     *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(limiter RateLimiter, dispatcher Dispatcher, m *metrics.LeadMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		limiter:    limiter,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger,
	}
}

// SubmitResponse is the success payload for an accepted lead.
type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse carries the single actionable message for a client error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SubmitLead handles POST /api/lead requests: rate limit, parse,
// validate, normalize, fan out, respond.
func (h *Handler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	client := clientID(r)

	if h.limiter != nil && !h.limiter.Allow(r.Context(), client) {
		h.metrics.ObserveSubmission("rate_limited")
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: MsgRateLimited})
		return
	}

	var sub Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.logger.Warn("failed to decode lead submission", "error", err, "client", client)
		h.metrics.ObserveSubmission("malformed")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: MsgInvalidRequest})
		return
	}

	if violations := sub.Validate(); len(violations) > 0 {
		// Only the first violation is surfaced; the caller fixes and resubmits.
		h.metrics.ObserveSubmission("rejected")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: violations[0]})
		return
	}

	lead := sub.Normalize()
	if h.dispatcher != nil {
		h.dispatcher.Dispatch(r.Context(), lead)
	}

	h.logger.Info("lead accepted", "firma", lead.Firma, "quelle", lead.Quelle)
	h.metrics.ObserveSubmission("accepted")
	writeJSON(w, http.StatusOK, SubmitResponse{Success: true, Message: MsgSuccess})
}

// clientID derives the rate-limit bucket key for a request. The edge
// proxy's real-IP header wins; unidentifiable clients share one bucket.
func clientID(r *http.Request) string {
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
