package bootstrap

import (
	"context"
	"crypto/tls"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/webwerkstatt-nord/lead-service/internal/api/router"
	appconfig "github.com/webwerkstatt-nord/lead-service/internal/config"
	"github.com/webwerkstatt-nord/lead-service/internal/leads"
	"github.com/webwerkstatt-nord/lead-service/internal/notify"
	"github.com/webwerkstatt-nord/lead-service/internal/observability/metrics"
	"github.com/webwerkstatt-nord/lead-service/internal/ratelimit"
	"github.com/webwerkstatt-nord/lead-service/pkg/logging"
)

// Runtime is the fully wired request-handling stack shared by the HTTP
// server and the Lambda entrypoint.
type Runtime struct {
	Handler http.Handler

	redisClient *redis.Client
}

// BuildRedisClient returns a configured Redis client or nil when the
// rate-limit store is disabled. When verify is true, a ping is issued
// and failures return nil (the limiter then fails open).
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, rate limiting disabled", "error", err)
		return nil
	}
	return client
}

// BuildNotifiers assembles the configured sinks. Unconfigured sinks are
// skipped, which makes partial deployments (e.g. Telegram only) work.
func BuildNotifiers(cfg *appconfig.Config, logger *logging.Logger) []notify.Notifier {
	var notifiers []notify.Notifier

	if at := notify.NewAirtableNotifier(notify.AirtableConfig{
		APIKey: cfg.AirtableAPIKey,
		BaseID: cfg.AirtableBaseID,
		Table:  cfg.AirtableTable,
	}, logger); at != nil {
		notifiers = append(notifiers, at)
	}

	if tg := notify.NewTelegramNotifier(notify.TelegramConfig{
		BotToken: cfg.TelegramBotToken,
		ChatID:   cfg.TelegramChatID,
	}, logger); tg != nil {
		notifiers = append(notifiers, tg)
	}

	if em := notify.NewEmailNotifier(notify.EmailConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
		To:        cfg.LeadNotifyEmail,
	}, logger); em != nil {
		notifiers = append(notifiers, em)
	}

	return notifiers
}

// New wires the complete stack from configuration.
func New(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *Runtime {
	if logger == nil {
		logger = logging.Default()
	}

	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	limiter := ratelimit.New(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow, logger)

	registry := prometheus.NewRegistry()
	leadMetrics := metrics.NewLeadMetrics(registry)

	dispatcher := notify.NewService(logger, leadMetrics, BuildNotifiers(cfg, logger)...)
	logger.Info("notification sinks configured", "sinks", dispatcher.Sinks())

	handler := router.New(&router.Config{
		Logger:         logger,
		LeadsHandler:   leads.NewHandler(limiter, dispatcher, leadMetrics, logger),
		CORSOrigins:    cfg.CORSOrigins(),
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	return &Runtime{
		Handler:     handler,
		redisClient: redisClient,
	}
}

// Close releases the runtime's connections.
func (r *Runtime) Close() {
	if r.redisClient != nil {
		r.redisClient.Close()
	}
}
