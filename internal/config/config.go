package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// CORS allow-list. DevOrigins are added on top when Env is "dev".
	AllowedOrigins []string
	DevOrigins     []string

	// Rate limiting (Redis-backed fixed window). An empty RedisAddr
	// disables the store and the limiter admits everything.
	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Telegram Notification Configuration
	TelegramBotToken string
	TelegramChatID   string

	// Airtable Record Store Configuration
	AirtableAPIKey string
	AirtableBaseID string
	AirtableTable  string

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	LeadNotifyEmail   string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("APP_ENV", "production"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS",
			"https://webwerkstatt-nord.de,https://www.webwerkstatt-nord.de"),
		DevOrigins: getEnvAsSlice("DEV_ORIGINS",
			"http://localhost:3000,http://localhost:8788,http://127.0.0.1:3000"),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),
		RateLimitMax:    getEnvAsInt("RATE_LIMIT_MAX", 5),
		RateLimitWindow: getEnvAsDuration("RATE_LIMIT_WINDOW", time.Hour),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		AirtableAPIKey: getEnv("AIRTABLE_API_KEY", ""),
		AirtableBaseID: getEnv("AIRTABLE_BASE_ID", ""),
		AirtableTable:  getEnv("AIRTABLE_TABLE", "Leads"),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Webwerkstatt Nord"),
		LeadNotifyEmail:   getEnv("LEAD_NOTIFY_EMAIL", ""),
	}
}

// IsDev reports whether the deployment environment enables the extra
// local-development CORS origins.
func (c *Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "development"
}

// CORSOrigins returns the effective origin allow-list for this deployment.
func (c *Config) CORSOrigins() []string {
	origins := append([]string(nil), c.AllowedOrigins...)
	if c.IsDev() {
		origins = append(origins, c.DevOrigins...)
	}
	return origins
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice retrieves a comma-separated environment variable as a
// trimmed string slice, or parses the default value the same way.
func getEnvAsSlice(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
