package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	Turns              *prometheus.CounterVec
	TurnErrors         prometheus.Counter
	PhotoFetchErrors   *prometheus.CounterVec
	CardsSent          prometheus.Counter
	ActiveDialogs      prometheus.Gauge
	PhotoFetchDuration prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Turns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Handled turns by activity type.",
		}, []string{"type"}),
		TurnErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turn_errors_total",
			Help:      "Turns that failed and were answered with an apology.",
		}),
		PhotoFetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_fetch_errors_total",
			Help:      "Photo API fetch failures by reason.",
		}, []string{"reason"}),
		CardsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cards_sent_total",
			Help:      "Photo cards delivered to users.",
		}),
		ActiveDialogs: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_dialogs",
			Help:      "Conversations currently awaiting a photo count.",
		}),
		PhotoFetchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "photo_fetch_duration_seconds",
			Help:      "Latency of photo API fetches in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
	}
}

func (m *Metrics) ObservePhotoFetch(d time.Duration) {
	m.PhotoFetchDuration.Observe(d.Seconds())
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
