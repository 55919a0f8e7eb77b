package rewrite

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tgrit"

// Metrics counts what the runner does. Counters are registered on the
// registerer given to NewMetrics; a nil registerer keeps them unregistered.
type Metrics struct {
	FilesProcessed prometheus.Counter
	CacheHits      prometheus.Counter
	Revisions      prometheus.Counter
	Overlaps       prometheus.Counter
	Matches        *prometheus.CounterVec
	Effects        *prometheus.CounterVec
	Suppressed     *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FilesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Files parsed and matched.",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Files whose search results came from the cache.",
		}),
		Revisions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revisions_total",
			Help:      "File revisions produced by applying effects.",
		}),
		Overlaps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlapping_effects_total",
			Help:      "Rule applications rejected because their effects partially overlap.",
		}),
		Matches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Reported matches by rule.",
		}, []string{"rule"}),
		Effects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "effects_total",
			Help:      "Rewrite effects proposed by rule.",
		}, []string{"rule"}),
		Suppressed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suppressed_total",
			Help:      "Rule results silenced entirely by nolint comments.",
		}, []string{"rule"}),
	}
}
