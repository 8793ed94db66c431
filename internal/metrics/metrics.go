package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the bot's Prometheus instruments.
type Metrics struct {
	DownloadsCompleted *prometheus.CounterVec
	DownloadsFailed    *prometheus.CounterVec
	ChunksSent         prometheus.Counter
	BroadcastsSent     prometheus.Counter
	BroadcastFailures  prometheus.Counter
	ActiveJobs         prometheus.Gauge
}

// New registers the instruments on the default registry.
func New() *Metrics {
	return newWith(promauto.With(prometheus.DefaultRegisterer))
}

// NewForRegistry registers the instruments on a caller-supplied registry.
// Tests use this to avoid duplicate registration on the default one.
func NewForRegistry(reg prometheus.Registerer) *Metrics {
	return newWith(promauto.With(reg))
}

func newWith(factory promauto.Factory) *Metrics {
	return &Metrics{
		DownloadsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "telegrab_downloads_completed_total",
			Help: "Total number of fully delivered artifacts",
		}, []string{"kind"}),
		DownloadsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "telegrab_downloads_failed_total",
			Help: "Total number of failed extraction or delivery passes",
		}, []string{"kind"}),
		ChunksSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegrab_chunks_sent_total",
			Help: "Total number of delivery units transmitted",
		}),
		BroadcastsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegrab_broadcast_deliveries_total",
			Help: "Total number of successful broadcast deliveries",
		}),
		BroadcastFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegrab_broadcast_failures_total",
			Help: "Total number of failed broadcast deliveries",
		}),
		ActiveJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "telegrab_active_jobs",
			Help: "Current number of link jobs in flight",
		}),
	}
}
