package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/webwerkstatt-nord/lead-service/internal/leads"
	"github.com/webwerkstatt-nord/lead-service/internal/notify"
	"github.com/webwerkstatt-nord/lead-service/internal/ratelimit"
)

type recordingSink struct {
	name string
	err  error
	got  []leads.Lead
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Notify(_ context.Context, lead leads.Lead) error {
	s.got = append(s.got, lead)
	return s.err
}

type testStack struct {
	handler http.Handler
	store   *recordingSink
	chat    *recordingSink
}

func newTestStack(t *testing.T, limiter *ratelimit.Limiter) *testStack {
	t.Helper()
	store := &recordingSink{name: "airtable"}
	chat := &recordingSink{name: "telegram"}
	dispatcher := notify.NewService(nil, nil, store, chat)
	handler := leads.NewHandler(limiter, dispatcher, nil, nil)

	return &testStack{
		handler: New(&Config{
			LeadsHandler: handler,
			CORSOrigins:  []string{"https://webwerkstatt-nord.de", "https://www.webwerkstatt-nord.de"},
		}),
		store: store,
		chat:  chat,
	}
}

func TestSubmitLeadEndToEnd(t *testing.T) {
	stack := newTestStack(t, nil)

	body := `{"firma":"Acme GmbH","email":"INFO@ACME.DE","telefon":"+49 123","quelle":"ads"}`
	req := httptest.NewRequest(http.MethodPost, "/api/lead", strings.NewReader(body))
	req.Header.Set("Origin", "https://webwerkstatt-nord.de")
	rec := httptest.NewRecorder()

	stack.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://webwerkstatt-nord.de" {
		t.Fatalf("expected origin echoed back, got %q", got)
	}

	var resp leads.SubmitResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.Message != "Anfrage erhalten" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	for _, sink := range []*recordingSink{stack.store, stack.chat} {
		if len(sink.got) != 1 {
			t.Fatalf("expected sink %s to receive the lead", sink.name)
		}
		if sink.got[0].Email != "info@acme.de" {
			t.Fatalf("expected normalized email at sink %s, got %q", sink.name, sink.got[0].Email)
		}
	}
}

func TestSubmitLeadSinkFailureIsolated(t *testing.T) {
	stack := newTestStack(t, nil)
	stack.store.err = errors.New("airtable down")

	body := `{"firma":"Acme GmbH","email":"info@acme.de"}`
	req := httptest.NewRequest(http.MethodPost, "/api/lead", strings.NewReader(body))
	rec := httptest.NewRecorder()

	stack.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 despite sink failure, got %d", rec.Code)
	}
	if len(stack.chat.got) != 1 {
		t.Fatalf("expected chat sink to still run")
	}
}

func TestSubmitLeadValidationError(t *testing.T) {
	stack := newTestStack(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/lead", strings.NewReader(`{"firma":"A","email":"x@y.z"}`))
	rec := httptest.NewRecorder()

	stack.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	var resp leads.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error != "Firmenname ist erforderlich (min. 2 Zeichen)" {
		t.Fatalf("unexpected error message %q", resp.Error)
	}
}

func TestSubmitLeadRateLimited(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	limiter := ratelimit.New(client, 5, time.Hour, nil)
	stack := newTestStack(t, limiter)

	body := `{"firma":"Acme GmbH","email":"info@acme.de"}`
	var rec *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/lead", strings.NewReader(body))
		req.Header.Set("X-Real-Ip", "203.0.113.7")
		rec = httptest.NewRecorder()
		stack.handler.ServeHTTP(rec, req)
	}

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 6th request rejected with 429, got %d", rec.Code)
	}
	var resp leads.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error == "" {
		t.Fatal("expected a rate limit message")
	}
	if len(stack.store.got) != 5 {
		t.Fatalf("expected exactly 5 admitted leads, got %d", len(stack.store.got))
	}
}

func TestHealthCheck(t *testing.T) {
	stack := newTestStack(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://www.webwerkstatt-nord.de")
	rec := httptest.NewRecorder()

	stack.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Timestamp == 0 {
		t.Fatalf("unexpected health payload: %+v", resp)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://www.webwerkstatt-nord.de" {
		t.Fatalf("expected CORS headers on health, got %q", got)
	}
}

func TestPreflightAnyPath(t *testing.T) {
	stack := newTestStack(t, nil)

	for _, path := range []string{"/api/lead", "/health", "/no/such/route"} {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", "https://webwerkstatt-nord.de")
		rec := httptest.NewRecorder()

		stack.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204 preflight on %s, got %d", path, rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Fatalf("expected empty preflight body on %s", path)
		}
	}
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	stack := newTestStack(t, nil)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/lead"},
		{http.MethodPost, "/health"},
		{http.MethodGet, "/nope"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()

		stack.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404, got %d", tt.method, tt.path, rec.Code)
		}
		var resp leads.ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Error != "Not found" {
			t.Fatalf("unexpected 404 body %q", resp.Error)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Fatalf("expected no CORS headers for disallowed origin, got %q", got)
		}
	}
}
