package rio

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "rio"

// Label values for rio_opens_total.
const (
	resultOK    = "ok"
	resultError = "error"
)

// Label values for rio_bytes_total.
const (
	directionRead  = "read"
	directionWrite = "write"
)

// metrics holds the collectors maintained by a Table.
type metrics struct {
	opens *prometheus.CounterVec
	bytes *prometheus.CounterVec
	open  prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		opens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "opens_total",
			Help:      "Resource open attempts by scheme and result.",
		}, []string{"scheme", "result"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "bytes_total",
			Help:      "Bytes transferred by scheme and direction.",
		}, []string{"scheme", "direction"}),
		open: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "open_resources",
			Help:      "Resource contexts currently held by the identifier table.",
		}),
	}
	if reg == nil {
		return m
	}

	m.opens = register(reg, m.opens)
	m.bytes = register(reg, m.bytes)
	m.open = register(reg, m.open)
	return m
}

// register registers c with reg. If an identical collector is already registered
// (for example by another Table sharing reg) the existing one is returned instead.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *metrics) opened(scheme string, err error) {
	result := resultOK
	if err != nil {
		result = resultError
	}
	m.opens.WithLabelValues(scheme, result).Inc()
}

func (m *metrics) transferred(scheme, direction string, n int) {
	if n > 0 {
		m.bytes.WithLabelValues(scheme, direction).Add(float64(n))
	}
}
