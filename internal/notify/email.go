package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/webwerkstatt-nord/lead-service/internal/leads"
	"github.com/webwerkstatt-nord/lead-service/pkg/logging"
)

// EmailNotifier mails each lead to a staff inbox via SendGrid. Optional
// third sink next to Airtable and Telegram.
type EmailNotifier struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	to        string
	logger    *logging.Logger
}

// EmailConfig holds configuration for the email sink.
type EmailConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	To        string
}

// NewEmailNotifier creates the email sink, or nil when the API key or
// recipient is absent.
func NewEmailNotifier(cfg EmailConfig, logger *logging.Logger) *EmailNotifier {
	if cfg.APIKey == "" || cfg.To == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Webwerkstatt Nord"
	}
	return &EmailNotifier{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		to:        cfg.To,
		logger:    logger,
	}
}

// Name identifies the sink in logs and metrics.
func (e *EmailNotifier) Name() string { return "email" }

// Notify sends one plain-text notification email for the lead.
func (e *EmailNotifier) Notify(ctx context.Context, lead leads.Lead) error {
	from := mail.NewEmail(e.fromName, e.fromEmail)
	to := mail.NewEmail("", e.to)
	subject := fmt.Sprintf("Neue Anfrage von %s", lead.Firma)
	body := emailBody(lead)

	message := mail.NewSingleEmail(from, subject, to, body, body)
	resp, err := e.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("notify: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("notify: sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

func emailBody(lead leads.Lead) string {
	var b strings.Builder
	b.WriteString("Neue Anfrage über die Website:\n\n")
	fmt.Fprintf(&b, "Firma: %s\n", lead.Firma)
	fmt.Fprintf(&b, "E-Mail: %s\n", lead.Email)
	if lead.Telefon != "" {
		fmt.Fprintf(&b, "Telefon: %s\n", lead.Telefon)
	}
	fmt.Fprintf(&b, "Quelle: %s\n", lead.Quelle)
	return b.String()
}
