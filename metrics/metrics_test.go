package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveFlush("Sum", "ok", 10*time.Millisecond)
	c.ObserveFlush("Sum", "ok", 20*time.Millisecond)
	c.ObserveFlush("Count", "connection error", time.Millisecond)
	c.SetBuffered(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.flushes.WithLabelValues("Sum", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.flushes.WithLabelValues("Count", "connection error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.buffered))
	assert.Equal(t, 2, testutil.CollectAndCount(c.flushDuration))
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveFlush("Fetch", "ok", time.Second)
		c.SetBuffered(1)
	})
}
