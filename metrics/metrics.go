// Package metrics exports batch statistics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MasterOfBinary/flatbatch/batch"
)

const namespace = "flatbatch"

// Collector is a batch.StatsCollector that updates Prometheus metrics and
// keeps an in-memory snapshot for GetStats.
type Collector struct {
	basic *batch.BasicStatsCollector

	chunksTotal   *prometheus.CounterVec
	itemsTotal    *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	chunkDuration prometheus.Histogram
	chunkSize     prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
// It returns an error if any metric is already registered.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		basic: batch.NewBasicStatsCollector(),
		chunksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chunks_total",
				Help:      "Total chunks by phase (started, committed).",
			},
			[]string{"phase"},
		),
		itemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_total",
				Help:      "Total items by result (read, processed, skipped, written).",
			},
			[]string{"result"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total errors by stage.",
			},
			[]string{"stage"},
		),
		chunkDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "chunk_duration_seconds",
				Help:      "Time from reading a chunk to committing it.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		chunkSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "chunk_items",
				Help:      "Items per committed chunk.",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
	}

	for _, col := range []prometheus.Collector{
		c.chunksTotal,
		c.itemsTotal,
		c.errorsTotal,
		c.chunkDuration,
		c.chunkSize,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordChunkStart implements batch.StatsCollector.
func (c *Collector) RecordChunkStart(chunkSize int) {
	c.basic.RecordChunkStart(chunkSize)
	c.chunksTotal.WithLabelValues("started").Inc()
}

// RecordChunkComplete implements batch.StatsCollector.
func (c *Collector) RecordChunkComplete(chunkSize int, duration time.Duration) {
	c.basic.RecordChunkComplete(chunkSize, duration)
	c.chunksTotal.WithLabelValues("committed").Inc()
	c.chunkDuration.Observe(duration.Seconds())
	c.chunkSize.Observe(float64(chunkSize))
}

// RecordItemRead implements batch.StatsCollector.
func (c *Collector) RecordItemRead() {
	c.basic.RecordItemRead()
	c.itemsTotal.WithLabelValues("read").Inc()
}

// RecordItemProcessed implements batch.StatsCollector.
func (c *Collector) RecordItemProcessed() {
	c.basic.RecordItemProcessed()
	c.itemsTotal.WithLabelValues("processed").Inc()
}

// RecordItemSkipped implements batch.StatsCollector.
func (c *Collector) RecordItemSkipped() {
	c.basic.RecordItemSkipped()
	c.itemsTotal.WithLabelValues("skipped").Inc()
}

// RecordItemsWritten implements batch.StatsCollector.
func (c *Collector) RecordItemsWritten(n int) {
	c.basic.RecordItemsWritten(n)
	c.itemsTotal.WithLabelValues("written").Add(float64(n))
}

// RecordReaderError implements batch.StatsCollector.
func (c *Collector) RecordReaderError() {
	c.basic.RecordReaderError()
	c.errorsTotal.WithLabelValues("reader").Inc()
}

// RecordProcessorError implements batch.StatsCollector.
func (c *Collector) RecordProcessorError() {
	c.basic.RecordProcessorError()
	c.errorsTotal.WithLabelValues("processor").Inc()
}

// RecordWriterError implements batch.StatsCollector.
func (c *Collector) RecordWriterError() {
	c.basic.RecordWriterError()
	c.errorsTotal.WithLabelValues("writer").Inc()
}

// GetStats implements batch.StatsCollector.
func (c *Collector) GetStats() batch.Stats {
	return c.basic.GetStats()
}

// Handler returns the HTTP handler for metrics in gatherer and a health check.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
