// Package metrics counts reference resolution work for one generation run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "drygen"

// Metrics owns a private registry so concurrent runs (and tests) never share
// counters through the process-wide default registry.
type Metrics struct {
	registry *prometheus.Registry

	// Fetches counts artifacts read from disk or the network, by kind and source.
	Fetches *prometheus.CounterVec
	// CacheHits counts references answered from a resolver cache, by kind.
	CacheHits *prometheus.CounterVec
	// Diagnostics counts recoverable diagnostics emitted by the tree builder.
	Diagnostics prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "fetches_total",
			Help:      "External reference artifacts fetched and parsed.",
		}, []string{"kind", "source"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "cache_hits_total",
			Help:      "External references served from the per-kind cache.",
		}, []string{"kind"}),
		Diagnostics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "diagnostics_total",
			Help:      "Recoverable diagnostics emitted while building the schema tree.",
		}),
	}

	m.registry.MustRegister(m.Fetches, m.CacheHits, m.Diagnostics)
	return m
}

// Summary is a flattened view of the counters for end-of-run reporting.
type Summary struct {
	Fetches     int
	CacheHits   int
	Diagnostics int
}

// Summary sums every counter across its labels.
func (m *Metrics) Summary() (Summary, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return Summary{}, err
	}

	var s Summary
	for _, mf := range families {
		var total float64
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
		switch mf.GetName() {
		case namespace + "_resolver_fetches_total":
			s.Fetches = int(total)
		case namespace + "_resolver_cache_hits_total":
			s.CacheHits = int(total)
		case namespace + "_builder_diagnostics_total":
			s.Diagnostics = int(total)
		}
	}
	return s, nil
}
