package notify

import (
	"context"
	"sync"

	"github.com/webwerkstatt-nord/lead-service/internal/leads"
	"github.com/webwerkstatt-nord/lead-service/internal/observability/metrics"
	"github.com/webwerkstatt-nord/lead-service/pkg/logging"
)

// Notifier delivers a lead to one downstream sink.
// Implementations can be swapped (Airtable, Telegram, email) without
// changing callers.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, lead leads.Lead) error
}

// Service fans a lead out to every configured sink. Sinks are independent:
// one failing, hanging, or being absent never affects the others or the
// caller. Deliveries are best-effort, never retried.
type Service struct {
	notifiers []Notifier
	metrics   *metrics.LeadMetrics
	logger    *logging.Logger
}

// NewService creates the fan-out service over the given sinks.
func NewService(logger *logging.Logger, m *metrics.LeadMetrics, notifiers ...Notifier) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		notifiers: notifiers,
		metrics:   m,
		logger:    logger,
	}
}

// Sinks returns the names of the configured sinks.
func (s *Service) Sinks() []string {
	names := make([]string, 0, len(s.notifiers))
	for _, n := range s.notifiers {
		names = append(names, n.Name())
	}
	return names
}

// Dispatch delivers the lead to all sinks concurrently and returns once
// every delivery has settled. Failures are logged and swallowed; the
// caller only ever learns that the submission was admitted.
func (s *Service) Dispatch(ctx context.Context, lead leads.Lead) {
	var wg sync.WaitGroup
	for _, n := range s.notifiers {
		wg.Add(1)
		go func(n Notifier) {
			defer wg.Done()
			if err := n.Notify(ctx, lead); err != nil {
				s.logger.Error("notify: delivery failed", "sink", n.Name(), "error", err)
				s.metrics.ObserveNotify(n.Name(), "error")
				return
			}
			s.logger.Info("notify: delivered", "sink", n.Name())
			s.metrics.ObserveNotify(n.Name(), "ok")
		}(n)
	}
	wg.Wait()
}
