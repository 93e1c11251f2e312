package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/webwerkstatt-nord/lead-service/internal/leads"
	"github.com/webwerkstatt-nord/lead-service/pkg/logging"
)

const airtableAPIBase = "https://api.airtable.com/v0"

// Status every freshly captured lead starts out with in the record store.
const airtableNewLeadStatus = "Neu"

// AirtableNotifier persists each lead as a new record in an Airtable base.
type AirtableNotifier struct {
	client  *http.Client
	baseURL string
	apiKey  string
	baseID  string
	table   string
	logger  *logging.Logger
}

// AirtableConfig holds configuration for the Airtable sink.
type AirtableConfig struct {
	APIKey  string
	BaseID  string
	Table   string
	BaseURL string // overridable for tests
}

// NewAirtableNotifier creates the Airtable sink, or nil when credentials
// are absent.
func NewAirtableNotifier(cfg AirtableConfig, logger *logging.Logger) *AirtableNotifier {
	if cfg.APIKey == "" || cfg.BaseID == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Table == "" {
		cfg.Table = "Leads"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = airtableAPIBase
	}
	return &AirtableNotifier{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		baseID:  cfg.BaseID,
		table:   cfg.Table,
		logger:  logger,
	}
}

// Name identifies the sink in logs and metrics.
func (a *AirtableNotifier) Name() string { return "airtable" }

type airtableRecord struct {
	Fields map[string]string `json:"fields"`
}

// Notify creates one record for the lead.
func (a *AirtableNotifier) Notify(ctx context.Context, lead leads.Lead) error {
	record := airtableRecord{Fields: map[string]string{
		"Firma":   lead.Firma,
		"Email":   lead.Email,
		"Telefon": lead.Telefon,
		"Quelle":  lead.Quelle,
		"Status":  airtableNewLeadStatus,
	}}
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("notify: airtable marshal: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s", a.baseURL, a.baseID, url.PathEscape(a.table))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: airtable request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: airtable send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notify: airtable returned status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
