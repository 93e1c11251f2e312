package leads

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultSource is assigned when a submission carries no source tag.
const DefaultSource = "landing-page"

// Client-facing messages. The endpoint serves a German landing page, so
// every message the browser can show is German.
const (
	MsgFirmaRequired  = "Firmenname ist erforderlich (min. 2 Zeichen)"
	MsgFirmaTooLong   = "Firmenname ist zu lang (max. 200 Zeichen)"
	MsgEmailInvalid   = "Bitte geben Sie eine gültige E-Mail-Adresse an"
	MsgTelefonTooLong = "Telefonnummer ist zu lang (max. 30 Zeichen)"
	MsgInvalidRequest = "Ungültige Anfrage"
	MsgRateLimited    = "Zu viele Anfragen. Bitte versuchen Sie es später erneut."
	MsgSuccess        = "Anfrage erhalten"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Submission is the raw, untrusted form payload as posted by the browser.
// Website is the honeypot field; it is typed loosely because bots fill it
// with whatever they like.
type Submission struct {
	Firma   string `json:"firma"`
	Email   string `json:"email"`
	Telefon string `json:"telefon"`
	Quelle  string `json:"quelle"`
	Website any    `json:"website"`
}

// Lead is a validated, normalized submission. It is only constructed via
// Submission.Normalize after Validate returned no violations and is never
// mutated afterwards.
type Lead struct {
	Firma   string
	Email   string
	Telefon string
	Quelle  string
}

// Validate returns the list of violations in a fixed order. All checks run
// independently, so a name that is both blank after trimming and over the
// length cap yields two entries. The honeypot violation reuses the generic
// message so bots cannot tell it apart from an ordinary validation failure.
func (s Submission) Validate() []string {
	var violations []string

	if utf8.RuneCountInString(strings.TrimSpace(s.Firma)) < 2 {
		violations = append(violations, MsgFirmaRequired)
	}
	if utf8.RuneCountInString(s.Firma) > 200 {
		violations = append(violations, MsgFirmaTooLong)
	}
	if s.Email == "" || !emailPattern.MatchString(s.Email) {
		violations = append(violations, MsgEmailInvalid)
	}
	if utf8.RuneCountInString(s.Telefon) > 30 {
		violations = append(violations, MsgTelefonTooLong)
	}
	if isTruthy(s.Website) {
		violations = append(violations, MsgInvalidRequest)
	}

	return violations
}

// Normalize builds the Lead value handed to the notification sinks.
// Normalizing an already-normalized lead is a no-op.
func (s Submission) Normalize() Lead {
	quelle := strings.TrimSpace(s.Quelle)
	if quelle == "" {
		quelle = DefaultSource
	}
	return Lead{
		Firma:   strings.TrimSpace(s.Firma),
		Email:   strings.ToLower(strings.TrimSpace(s.Email)),
		Telefon: strings.TrimSpace(s.Telefon),
		Quelle:  quelle,
	}
}

// isTruthy mirrors the loose truthiness bots trip over when they populate
// the hidden field: non-empty strings, true, non-zero numbers, and any
// structured value all count.
func isTruthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	default:
		return true
	}
}
