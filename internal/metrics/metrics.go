// Package metrics exposes Prometheus collectors for list generation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "listas"

// Result labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Pipeline records batch and file outcomes.
type Pipeline struct {
	batches       *prometheus.CounterVec
	files         *prometheus.CounterVec
	rows          prometheus.Counter
	batchDuration prometheus.Histogram
	archiveBytes  prometheus.Histogram
}

// NewPipeline creates the collectors and registers them on reg.
// A nil reg creates unregistered collectors, which is handy in tests.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Generation batches by result.",
		}, []string{"result"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Uploaded files processed by result.",
		}, []string{"result"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_rendered_total",
			Help:      "Data rows written to generated sheets.",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time to turn a batch of uploads into an archive.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		archiveBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_bytes",
			Help:      "Size of generated archives.",
			Buckets:   prometheus.ExponentialBuckets(4<<10, 4, 8),
		}),
	}

	if reg != nil {
		reg.MustRegister(p.batches, p.files, p.rows, p.batchDuration, p.archiveBytes)
	}
	return p
}

// FileDone records one processed file.
func (p *Pipeline) FileDone(rows int, err error) {
	if err != nil {
		p.files.WithLabelValues(ResultFailure).Inc()
		return
	}
	p.files.WithLabelValues(ResultSuccess).Inc()
	p.rows.Add(float64(rows))
}

// BatchDone records a finished batch.
func (p *Pipeline) BatchDone(elapsed time.Duration, archiveSize int64, err error) {
	p.batchDuration.Observe(elapsed.Seconds())
	if err != nil {
		p.batches.WithLabelValues(ResultFailure).Inc()
		return
	}
	p.batches.WithLabelValues(ResultSuccess).Inc()
	p.archiveBytes.Observe(float64(archiveSize))
}
