package metrics

import (
	"github/chapool/go-sweeper/internal/sweep"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "sweeper"

// Service owns the Prometheus registry of the sweeper and implements
// sweep.Recorder.
type Service struct {
	Registry *prometheus.Registry

	wallets       *prometheus.CounterVec
	batches       *prometheus.CounterVec
	batchDuration prometheus.Histogram
}

var _ sweep.Recorder = (*Service)(nil)

// New creates the collectors on a fresh registry, including the Go runtime and
// process collectors.
func New() (*Service, error) {
	registry := prometheus.NewRegistry()

	s := &Service{
		Registry: registry,
		wallets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_wallets_total",
			Help:      "Evaluated wallets by outcome status and skip reason.",
		}, []string{"status", "reason"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_batches_total",
			Help:      "Sweep batches by result.",
		}, []string{"result"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_batch_duration_seconds",
			Help:      "Wall time of sweep batches.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
	}

	for _, c := range []prometheus.Collector{
		s.wallets,
		s.batches,
		s.batchDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// RecordOutcome implements sweep.Recorder.
func (s *Service) RecordOutcome(outcome sweep.Outcome) {
	s.wallets.WithLabelValues(string(outcome.Status), string(outcome.Reason)).Inc()
}

// RecordBatch implements sweep.Recorder.
func (s *Service) RecordBatch(report *sweep.Report, err error) {
	result := "completed"
	if err != nil {
		result = "aborted"
	}

	s.batches.WithLabelValues(result).Inc()

	if report != nil {
		s.batchDuration.Observe(report.Duration().Seconds())
	}
}
