package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestLeadMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLeadMetrics(reg)
	m.ObserveSubmission("accepted")
	m.ObserveSubmission("rate_limited")
	m.ObserveNotify("telegram", "ok")
	m.ObserveNotify("airtable", "error")
}

func TestLeadMetricsNilSafe(t *testing.T) {
	var m *LeadMetrics
	m.ObserveSubmission("accepted")
	m.ObserveNotify("telegram", "ok")
}
