package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/webwerkstatt-nord/lead-service/internal/leads"
	"github.com/webwerkstatt-nord/lead-service/pkg/logging"
)

const telegramAPIBase = "https://api.telegram.org"

// Characters Telegram's MarkdownV2 parser treats as markup.
const markdownV2Special = "_*[]()~`>#+=|{}.!-"

// TelegramNotifier posts new leads to a staff chat via the Telegram Bot API.
type TelegramNotifier struct {
	client  *http.Client
	baseURL string
	token   string
	chatID  string
	loc     *time.Location
	now     func() time.Time
	logger  *logging.Logger
}

// TelegramConfig holds configuration for the Telegram sink.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	BaseURL  string // overridable for tests
}

// NewTelegramNotifier creates the Telegram sink, or nil when credentials
// are absent (the sink is then simply not wired in).
func NewTelegramNotifier(cfg TelegramConfig, logger *logging.Logger) *TelegramNotifier {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = telegramAPIBase
	}
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		loc = time.UTC
	}
	return &TelegramNotifier{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
}

// Name identifies the sink in logs and metrics.
func (t *TelegramNotifier) Name() string { return "telegram" }

// Notify sends one formatted chat message for the lead.
func (t *TelegramNotifier) Notify(ctx context.Context, lead leads.Lead) error {
	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       t.message(lead),
		"parse_mode": "MarkdownV2",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: telegram marshal: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notify: telegram returned status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

// message renders the MarkdownV2 chat text. Every user-supplied value is
// escaped before interpolation so a crafted submission cannot inject markup.
func (t *TelegramNotifier) message(lead leads.Lead) string {
	ts := t.now().In(t.loc).Format("02.01.2006, 15:04")

	var b strings.Builder
	b.WriteString("🔔 *Neue Anfrage über die Website*\n\n")
	fmt.Fprintf(&b, "*Firma:* %s\n", EscapeMarkdownV2(lead.Firma))
	fmt.Fprintf(&b, "*E\\-Mail:* %s\n", EscapeMarkdownV2(lead.Email))
	if lead.Telefon != "" {
		fmt.Fprintf(&b, "*Telefon:* %s\n", EscapeMarkdownV2(lead.Telefon))
	}
	fmt.Fprintf(&b, "*Quelle:* %s\n", EscapeMarkdownV2(lead.Quelle))
	fmt.Fprintf(&b, "*Zeit:* %s Uhr", EscapeMarkdownV2(ts))
	return b.String()
}

// EscapeMarkdownV2 prefixes every MarkdownV2 special character with a
// backslash.
func EscapeMarkdownV2(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownV2Special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
