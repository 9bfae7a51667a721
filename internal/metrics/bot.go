package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Query bot metrics.
var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Resolved queries by answering tier",
		},
		[]string{"tier"},
	)

	CorpusOperations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_operations",
			Help:      "Operations in the current corpus snapshot",
		},
	)

	CorpusDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_documents",
			Help:      "Documents loaded into the current corpus snapshot",
		},
	)

	CorpusLoadErrors = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_load_errors",
			Help:      "Sources that failed to load in the current corpus snapshot",
		},
	)

	ReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corpus_reloads_total",
			Help:      "Corpus reload attempts",
		},
		[]string{"result"}, // "success" / "failure"
	)
)

var registerOnce sync.Once

// Register registers all metrics with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			QueriesTotal,
			CorpusOperations,
			CorpusDocuments,
			CorpusLoadErrors,
			ReloadsTotal,
		)
	})
}

// ObserveTier counts a query answered by tier.
func ObserveTier(tier string) {
	QueriesTotal.WithLabelValues(tier).Inc()
}

// SetCorpus records the size of a newly published corpus.
func SetCorpus(documents, operations, failed int) {
	CorpusDocuments.Set(float64(documents))
	CorpusOperations.Set(float64(operations))
	CorpusLoadErrors.Set(float64(failed))
}

// ObserveReload counts a reload attempt.
func ObserveReload(err error) {
	if err != nil {
		ReloadsTotal.WithLabelValues("failure").Inc()
		return
	}
	ReloadsTotal.WithLabelValues("success").Inc()
}
