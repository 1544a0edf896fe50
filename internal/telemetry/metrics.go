// Package telemetry registers the engine's prometheus metrics: hot-path
// firing counters/histograms, governor stage counters, and ontology
// install counters. No HTTP exporter lives here; cmd/enginectl mounts
// promhttp.Handler on its own mux.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// KernelFiringsTotal counts evaluate() calls per pattern id and outcome.
	KernelFiringsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ontoengine_kernel_firings_total",
		Help: "Total pattern kernel firings, labelled by pattern id and outcome.",
	}, []string{"pattern_id", "outcome"})

	// KernelTicksUsed observes the tick count consumed by each firing.
	KernelTicksUsed = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ontoengine_kernel_ticks_used",
		Help:    "Ticks consumed per kernel firing.",
		Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8},
	}, []string{"pattern_id"})

	// KernelBudgetExceededTotal counts firings that tripped the tick budget fault.
	KernelBudgetExceededTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ontoengine_kernel_budget_exceeded_total",
		Help: "Firings that exceeded the tick budget, by pattern id.",
	}, []string{"pattern_id"})

	// ReceiptRingDroppedTotal counts receipts dropped because the ring was full.
	ReceiptRingDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ontoengine_receipt_ring_dropped_total",
		Help: "Receipts dropped because the observation ring was full.",
	})

	// GovernorStageDuration observes MAPE-K stage latency.
	GovernorStageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ontoengine_governor_stage_duration_seconds",
		Help:    "MAPE-K stage duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	// GovernorOverlaysTotal counts overlays by terminal state.
	GovernorOverlaysTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ontoengine_governor_overlays_total",
		Help: "Overlays processed by terminal state.",
	}, []string{"state"})

	// OntologyInstallsTotal counts snapshot installs by outcome.
	OntologyInstallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ontoengine_ontology_installs_total",
		Help: "Ontology snapshot installs, by outcome.",
	}, []string{"outcome"})

	// ProofCacheHitsTotal counts proof cache lookups by hit/miss.
	ProofCacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ontoengine_proof_cache_lookups_total",
		Help: "Proof cache lookups, by result.",
	}, []string{"result"})

	// CircuitBreakerStateChanges counts breaker state transitions.
	CircuitBreakerStateChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ontoengine_circuit_breaker_state_changes_total",
		Help: "Circuit breaker state transitions, by target state.",
	}, []string{"breaker", "state"})
)

func init() {
	prometheus.MustRegister(
		KernelFiringsTotal,
		KernelTicksUsed,
		KernelBudgetExceededTotal,
		ReceiptRingDroppedTotal,
		GovernorStageDuration,
		GovernorOverlaysTotal,
		OntologyInstallsTotal,
		ProofCacheHitsTotal,
		CircuitBreakerStateChanges,
	)
}

// RecordFiring records one kernel evaluation outcome.
func RecordFiring(patternID uint8, ticksUsed uint8, outcome string) {
	label := patternIDLabel(patternID)
	KernelFiringsTotal.WithLabelValues(label, outcome).Inc()
	KernelTicksUsed.WithLabelValues(label).Observe(float64(ticksUsed))
	if outcome == "budget_exceeded" {
		KernelBudgetExceededTotal.WithLabelValues(label).Inc()
	}
}

// RecordReceiptDropped records one receipt lost to ring backpressure.
func RecordReceiptDropped() {
	ReceiptRingDroppedTotal.Inc()
}

// RecordGovernorStage records one MAPE-K stage's wall-clock duration.
func RecordGovernorStage(stage string, d time.Duration) {
	GovernorStageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordOverlayTerminal records one overlay reaching a terminal state.
func RecordOverlayTerminal(state string) {
	GovernorOverlaysTotal.WithLabelValues(state).Inc()
}

// RecordOntologyInstall records one snapshot install attempt outcome.
func RecordOntologyInstall(outcome string) {
	OntologyInstallsTotal.WithLabelValues(outcome).Inc()
}

// RecordProofCacheLookup records a proof cache hit or miss.
func RecordProofCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	ProofCacheHitsTotal.WithLabelValues(result).Inc()
}

// RecordBreakerStateChange records a circuit breaker transitioning state.
func RecordBreakerStateChange(breaker, state string) {
	CircuitBreakerStateChanges.WithLabelValues(breaker, state).Inc()
}

func patternIDLabel(id uint8) string {
	return patternLabels[id%uint8(len(patternLabels))]
}

// patternLabels avoids per-call strconv allocation on the hot path for the
// 43 defined pattern ids (plus index 0, unused).
var patternLabels = func() [64]string {
	var labels [64]string
	for i := range labels {
		labels[i] = itoa(i)
	}
	return labels
}()

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [3]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}
