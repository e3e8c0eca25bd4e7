package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	pauseStartedTotal     *prometheus.CounterVec
	reactivatedTotal      prometheus.Counter
	reaperTickErrorsTotal prometheus.Counter
	reaperEligible        prometheus.Gauge

	dispatchTotal   *prometheus.CounterVec
	dispatchLatency *prometheus.HistogramVec

	enrichmentTotal *prometheus.CounterVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		pauseStartedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "messaging",
			Name:      "pause_started_total",
			Help:      "Total number of agent pauses started.",
		}, []string{"kind"}),
		reactivatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "messaging",
			Name:      "reactivated_total",
			Help:      "Total number of conversations handed back to the agent by the sweep.",
		}),
		reaperTickErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "messaging",
			Name:      "reaper_tick_errors_total",
			Help:      "Total number of per-conversation failures during reactivation sweeps.",
		}),
		reaperEligible: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "messaging",
			Name:      "reaper_eligible",
			Help:      "Number of expired auto-paused conversations seen on the last sweep.",
		}),
		dispatchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "messaging",
			Name:      "dispatch_total",
			Help:      "Total number of external channel dispatch attempts.",
		}, []string{"media", "result"}),
		dispatchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "messaging",
			Name:      "dispatch_latency_seconds",
			Help:      "Latency distribution for external channel dispatch.",
			Buckets: []float64{
				0.01, 0.02, 0.05,
				0.1, 0.2, 0.5,
				1, 2, 5, 10, 30,
			},
		}, []string{"media", "result"}),
		enrichmentTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "messaging",
			Name:      "enrichment_total",
			Help:      "Total number of attachment enrichment attempts.",
		}, []string{"result"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
