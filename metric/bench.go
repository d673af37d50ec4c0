package metric

import (
	"github.com/arloliu/go-slmp/bench"
	"github.com/prometheus/client_golang/prometheus"
)

// BenchSink is a bench.Sink recording every cycle result into Prometheus metrics.
type BenchSink struct {
	cycles            prometheus.Counter
	integrityFailures prometheus.Counter
	mismatches        prometheus.Counter
	transferFailures  *prometheus.CounterVec
	passDuration      *prometheus.HistogramVec
	ratio             *prometheus.GaugeVec
}

var _ bench.Sink = (*BenchSink)(nil)

// NewBenchSink creates the benchmark metrics, labelled with variant, and registers them with reg.
func NewBenchSink(reg prometheus.Registerer, variant bench.Variant) (*BenchSink, error) {
	labels := prometheus.Labels{"variant": string(variant)}

	s := &BenchSink{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   Namespace,
			Subsystem:   "bench",
			Name:        "cycles_total",
			Help:        "Total number of completed benchmark cycles",
			ConstLabels: labels,
		}),
		integrityFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   Namespace,
			Subsystem:   "bench",
			Name:        "integrity_failures_total",
			Help:        "Total number of cycles whose integrity check failed",
			ConstLabels: labels,
		}),
		mismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   Namespace,
			Subsystem:   "bench",
			Name:        "mismatches_total",
			Help:        "Total number of integrity mismatches",
			ConstLabels: labels,
		}),
		transferFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Subsystem:   "bench",
			Name:        "transfer_failures_total",
			Help:        "Total number of failed transfers by direction",
			ConstLabels: labels,
		}, []string{"direction"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   Namespace,
			Subsystem:   "bench",
			Name:        "pass_duration_seconds",
			Help:        "Duration of one benchmark pass by pattern and direction",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 16),
		}, []string{"pattern", "direction"}),
		ratio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   Namespace,
			Subsystem:   "bench",
			Name:        "batched_sequential_ratio",
			Help:        "Batched over sequential duration of the last cycle",
			ConstLabels: labels,
		}, []string{"direction"}),
	}

	if err := register(reg,
		s.cycles, s.integrityFailures, s.mismatches, s.transferFailures, s.passDuration, s.ratio,
	); err != nil {
		return nil, err
	}

	return s, nil
}

// Record updates the metrics from r. It never fails.
func (s *BenchSink) Record(r *bench.Result) error {
	s.cycles.Inc()
	if !r.IntegrityOK {
		s.integrityFailures.Inc()
	}
	s.mismatches.Add(float64(len(r.Mismatches)))
	s.transferFailures.WithLabelValues("write").Add(float64(r.WriteFailures))
	s.transferFailures.WithLabelValues("read").Add(float64(r.ReadFailures))

	s.passDuration.WithLabelValues("batched", "write").Observe(r.BatchedWrite.Seconds())
	s.passDuration.WithLabelValues("sequential", "write").Observe(r.SequentialWrite.Seconds())
	s.passDuration.WithLabelValues("batched", "read").Observe(r.BatchedRead.Seconds())
	s.passDuration.WithLabelValues("sequential", "read").Observe(r.SequentialRead.Seconds())

	s.ratio.WithLabelValues("write").Set(r.WriteRatio())
	s.ratio.WithLabelValues("read").Set(r.ReadRatio())
	s.ratio.WithLabelValues("total").Set(r.TotalRatio())

	return nil
}
