package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewAirtableNotifier_NilWithoutCredentials(t *testing.T) {
	if n := NewAirtableNotifier(AirtableConfig{BaseID: "app123"}, nil); n != nil {
		t.Error("expected nil notifier without api key")
	}
	if n := NewAirtableNotifier(AirtableConfig{APIKey: "key"}, nil); n != nil {
		t.Error("expected nil notifier without base id")
	}
}

func TestNewAirtableNotifier_DefaultTable(t *testing.T) {
	n := NewAirtableNotifier(AirtableConfig{APIKey: "key", BaseID: "app123"}, nil)
	if n == nil {
		t.Fatal("expected notifier")
	}
	if n.table != "Leads" {
		t.Errorf("expected default table, got %q", n.table)
	}
}

func TestAirtableNotifier_Notify(t *testing.T) {
	var gotPath, gotAuth string
	var gotRecord airtableRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotRecord)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"rec123"}`))
	}))
	defer srv.Close()

	n := NewAirtableNotifier(AirtableConfig{
		APIKey: "key", BaseID: "app123", Table: "Leads", BaseURL: srv.URL,
	}, nil)
	if err := n.Notify(context.Background(), testLead()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/app123/Leads" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer key" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	want := map[string]string{
		"Firma":   "Acme GmbH",
		"Email":   "info@acme.de",
		"Telefon": "+49 123",
		"Quelle":  "ads",
		"Status":  "Neu",
	}
	for k, v := range want {
		if gotRecord.Fields[k] != v {
			t.Errorf("field %s: expected %q, got %q", k, v, gotRecord.Fields[k])
		}
	}
}

func TestAirtableNotifier_NotifyErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"INVALID_REQUEST_UNKNOWN"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	n := NewAirtableNotifier(AirtableConfig{APIKey: "key", BaseID: "app123", BaseURL: srv.URL}, nil)
	if err := n.Notify(context.Background(), testLead()); err == nil {
		t.Fatal("expected error on non-2xx status")
	}
}
