package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector tracks flushes. A nil *Collector discards everything.
type Collector struct {
	flushes       *prometheus.CounterVec
	flushDuration *prometheus.HistogramVec
	buffered      prometheus.Gauge
}

// New registers the collectors with reg, or with the default registry if reg is nil.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Collector{
		// Labels: operation (Sum, Count, Fetch), result ("ok" or the error kind).
		flushes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "octoframe_flushes_total",
			Help: "Total flushes by operation and result",
		}, []string{"operation", "result"}),

		flushDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "octoframe_flush_duration_seconds",
			Help:    "Time from issuing an eager operation to receiving the executor's response",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
		}, []string{"operation"}),

		buffered: factory.NewGauge(prometheus.GaugeOpts{
			Name: "octoframe_buffered_operations",
			Help: "Nodes currently buffered in the execution graph",
		}),
	}
}

func (c *Collector) ObserveFlush(operation, result string, d time.Duration) {
	if c == nil {
		return
	}
	c.flushes.WithLabelValues(operation, result).Inc()
	c.flushDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (c *Collector) SetBuffered(n int) {
	if c == nil {
		return
	}
	c.buffered.Set(float64(n))
}
