// Package metrics holds the Prometheus collectors for settlement and
// payment activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Settlements        *prometheus.CounterVec
	SettlementDuration prometheus.Histogram
	Payments           *prometheus.CounterVec
	Circles            *prometheus.CounterVec
	ReportRebuilds     prometheus.Counter
	RemindersSent      prometheus.Counter
}

// New registers the collectors with reg. A nil reg uses a private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		Settlements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "thaoshare_settlements_total",
			Help: "Settlement attempts by outcome",
		}, []string{"outcome"}),
		SettlementDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "thaoshare_settlement_duration_seconds",
			Help:    "Time spent planning and committing a settlement",
			Buckets: prometheus.DefBuckets,
		}),
		Payments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "thaoshare_payments_total",
			Help: "Submitted payments by resulting status",
		}, []string{"status"}),
		Circles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "thaoshare_circles_total",
			Help: "Circles created and deleted",
		}, []string{"action"}),
		ReportRebuilds: factory.NewCounter(prometheus.CounterOpts{
			Name: "thaoshare_report_rebuilds_total",
			Help: "Dashboard rebuilds after a change",
		}),
		RemindersSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "thaoshare_reminders_sent_total",
			Help: "Due-date reminder notifications created",
		}),
	}
}
