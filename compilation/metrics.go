package compilation

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	exportsUsed       *prometheus.GaugeVec
	exportsUnused     *prometheus.GaugeVec
	fixpointIters     *prometheus.HistogramVec
	fragments         prometheus.Counter
	concatRegistered  prometheus.Counter
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	codegenInvocation prometheus.Counter
}

func newMetrics() *metrics {
	return &metrics{
		exportsUsed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "jsbundle_exports_used",
				Help: "Number of exports marked used in the last resolution.",
			},
			[]string{"runtime"},
		),
		exportsUnused: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "jsbundle_exports_unused",
				Help: "Number of exports marked unused in the last resolution.",
			},
			[]string{"runtime"},
		),
		fixpointIters: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jsbundle_fixpoint_iterations",
				Help:    "Iterations needed by the resolution fixpoints.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"pass"},
		),
		fragments: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jsbundle_init_fragments_total",
				Help: "Number of merged init fragments emitted by code generation.",
			},
		),
		concatRegistered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jsbundle_concatenation_exports_total",
				Help: "Number of exports registered into concatenation scopes.",
			},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jsbundle_codegen_cache_hits_total",
				Help: "Number of code generation results served from the cache.",
			},
		),
		cacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jsbundle_codegen_cache_misses_total",
				Help: "Number of code generation results computed.",
			},
		),
		codegenInvocation: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jsbundle_codegen_invocations_total",
				Help: "Number of module code generation invocations requested.",
			},
		),
	}
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.exportsUsed,
		m.exportsUnused,
		m.fixpointIters,
		m.fragments,
		m.concatRegistered,
		m.cacheHits,
		m.cacheMisses,
		m.codegenInvocation,
	}
}

func (m *metrics) register(r prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
