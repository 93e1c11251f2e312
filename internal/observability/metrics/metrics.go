package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters for the lead-capture pipeline.
type LeadMetrics struct {
	submissionsTotal *prometheus.CounterVec
	deliveriesTotal  *prometheus.CounterVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadservice",
			Subsystem: "http",
			Name:      "submissions_total",
			Help:      "Total lead submissions by outcome",
		}, []string{"outcome"}),
		deliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadservice",
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Total sink deliveries by status",
		}, []string{"sink", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.deliveriesTotal)
	return m
}

// ObserveSubmission counts one submission outcome (accepted, rejected,
// malformed, rate_limited).
func (m *LeadMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveNotify counts one sink delivery result.
func (m *LeadMetrics) ObserveNotify(sink, status string) {
	if m == nil {
		return
	}
	m.deliveriesTotal.WithLabelValues(sink, status).Inc()
}
