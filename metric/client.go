package metric

import (
	"github.com/arloliu/go-slmp/client"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterClient exports the atomic counters of m, labelled with target.
// The values are read at scrape time.
func RegisterClient(reg prometheus.Registerer, m *client.Metrics, target string) error {
	labels := prometheus.Labels{"target": target}

	counter := func(name, help string, load func() uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   Namespace,
			Subsystem:   "client",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return float64(load()) })
	}

	return register(reg,
		counter("opens_total", "Total number of successful session opens", m.OpenCount.Load),
		counter("open_errors_total", "Total number of failed session opens", m.OpenErrCount.Load),
		counter("reads_total", "Total number of successful batch reads", m.ReadCount.Load),
		counter("read_errors_total", "Total number of failed or rejected batch reads", m.ReadErrCount.Load),
		counter("registers_read_total", "Total number of registers returned by batch reads", m.RegistersRead.Load),
		counter("writes_total", "Total number of successful batch writes", m.WriteCount.Load),
		counter("write_errors_total", "Total number of failed or rejected batch writes", m.WriteErrCount.Load),
		counter("registers_written_total", "Total number of registers transmitted by batch writes", m.RegistersWritten.Load),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   Namespace,
			Subsystem:   "client",
			Name:        "connected",
			Help:        "1 while a session is open",
			ConstLabels: labels,
		}, func() float64 { return float64(m.Connected.Load()) }),
	)
}
