// Package metrics exposes engine counters through the Prometheus default registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ppiankov/fddmap/internal/model"
)

var (
	documentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fddmap",
		Subsystem: "pipeline",
		Name:      "documents_total",
		Help:      "Documents processed by outcome (ok, error)",
	}, []string{"status"})

	documentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fddmap",
		Subsystem: "pipeline",
		Name:      "document_duration_seconds",
		Help:      "Wall time to resolve one document",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})

	sectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fddmap",
		Subsystem: "match",
		Name:      "sections_total",
		Help:      "Resolved section entries by method",
	}, []string{"method"})

	findingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fddmap",
		Subsystem: "validate",
		Name:      "findings_total",
		Help:      "Structural validation findings by kind",
	}, []string{"kind"})

	verifierCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fddmap",
		Subsystem: "verify",
		Name:      "calls_total",
		Help:      "Verification backend calls by provider and outcome (ok, error)",
	}, []string{"provider", "outcome"})

	verifierCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fddmap",
		Subsystem: "verify",
		Name:      "cache_hits_total",
		Help:      "Verdicts served from the session cache",
	})

	verifierRateWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fddmap",
		Subsystem: "verify",
		Name:      "rate_wait_seconds",
		Help:      "Time spent waiting for the per-provider rate limiter",
		Buckets:   []float64{0, 0.01, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"provider"})

	verifierBudgetExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fddmap",
		Subsystem: "verify",
		Name:      "budget_exhausted_total",
		Help:      "Entries left unverified because the call budget ran out",
	})
)

// ObserveDocument records one processed document
func ObserveDocument(err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	documentsTotal.WithLabelValues(status).Inc()
	documentDuration.Observe(elapsed.Seconds())
}

// ObserveResult records per-section methods and findings of a result
func ObserveResult(res *model.Result) {
	if res == nil {
		return
	}
	for _, s := range res.Sections {
		sectionsTotal.WithLabelValues(string(s.Method)).Inc()
	}
	for _, f := range res.Findings {
		findingsTotal.WithLabelValues(string(f.Kind)).Inc()
	}
}

// ObserveVerifierCall records a backend call outcome
func ObserveVerifierCall(provider string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	verifierCallsTotal.WithLabelValues(provider, outcome).Inc()
}

// VerifierCacheHit records a cached verdict
func VerifierCacheHit() {
	verifierCacheHits.Inc()
}

// ObserveRateWait records how long a backend call waited for a token
func ObserveRateWait(provider string, waited time.Duration) {
	verifierRateWait.WithLabelValues(provider).Observe(waited.Seconds())
}

// VerifierBudgetExhausted records an entry skipped for budget
func VerifierBudgetExhausted() {
	verifierBudgetExhausted.Inc()
}

// WriteTextfile snapshots the default registry in the node-exporter textfile format
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
