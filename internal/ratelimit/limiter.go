package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/webwerkstatt-nord/lead-service/pkg/logging"
)

var tracer = otel.Tracer("github.com/webwerkstatt-nord/lead-service/internal/ratelimit")

const keyPrefix = "ratelimit:lead:"

// Limiter is a per-client fixed-window admission counter backed by Redis.
// The window starts with a client's first request and is never extended;
// a client can in principle land up to 2x the limit across a window
// boundary, which is an accepted approximation.
type Limiter struct {
	redis  *redis.Client
	max    int
	window time.Duration
	logger *logging.Logger
}

// New creates a limiter. A nil client disables enforcement entirely:
// availability of the lead-capture path wins over strict rate limiting.
func New(client *redis.Client, max int, window time.Duration, logger *logging.Logger) *Limiter {
	if logger == nil {
		logger = logging.Default()
	}
	if max <= 0 {
		max = 5
	}
	if window <= 0 {
		window = time.Hour
	}
	return &Limiter{
		redis:  client,
		max:    max,
		window: window,
		logger: logger,
	}
}

// Allow reports whether the client may submit another request in the
// current window. Store errors admit the request (fail-open). Rejection
// does not touch the counter, so hammering a closed window cannot extend it.
func (l *Limiter) Allow(ctx context.Context, clientID string) bool {
	if l == nil || l.redis == nil {
		return true
	}

	ctx, span := tracer.Start(ctx, "ratelimit.allow")
	defer span.End()
	span.SetAttributes(attribute.String("ratelimit.client", clientID))

	key := keyPrefix + clientID

	count, err := l.redis.Get(ctx, key).Int()
	if err == redis.Nil {
		if err := l.redis.Set(ctx, key, 1, l.window).Err(); err != nil {
			l.logger.Error("ratelimit: store write failed", "error", err, "client", clientID)
		}
		return true
	}
	if err != nil {
		l.logger.Error("ratelimit: store read failed", "error", err, "client", clientID)
		return true
	}

	if count >= l.max {
		span.SetAttributes(attribute.Bool("ratelimit.exceeded", true))
		l.logger.Warn("ratelimit: client over quota", "client", clientID, "count", count, "max", l.max)
		return false
	}

	// INCR preserves the remaining TTL, so the window never restarts mid-flight.
	if err := l.redis.Incr(ctx, key).Err(); err != nil {
		l.logger.Error("ratelimit: increment failed", "error", err, "client", clientID)
	}
	return true
}
