// Package governor implements the MAPE-K autonomic control loop (warm
// path): Monitor drains the receipt ring, Analyse ranks gaps against
// Σ's declared expectations, Plan proposes an overlay, Verify discharges
// its proof obligations (pkg/governor/verify), Execute performs the
// atomic Σ pointer swap, and Knowledge persists the outcome. None of
// these stages ever block a hot-path firing; only Verify may itself
// suspend.
package governor

import (
	"time"

	"github.com/jordigilh/ontoengine/pkg/kernel"
	"github.com/jordigilh/ontoengine/pkg/observation"
	"github.com/jordigilh/ontoengine/pkg/ontology"
)

// RuntimeClass is one of the three latency classes the SLO table
// names: hot, warm, cold.
type RuntimeClass string

const (
	ClassHot  RuntimeClass = "R1"
	ClassWarm RuntimeClass = "W1"
	ClassCold RuntimeClass = "C1"
)

// classify maps a receipt to its runtime class. Every firing observed on
// the hot path is R1; this engine's warm/cold classes are reserved for
// governor-originated operations that do not yet produce kernel
// receipts, so classify is currently the identity R1 mapping — kept as
// a function, not a constant, so a future warm-path receipt source has
// a single place to plug into.
func classify(kernel.Receipt) RuntimeClass {
	return ClassHot
}

// GapKind is the closed set of gap categories Analyse ranks.
type GapKind string

const (
	GapLatencyRegression   GapKind = "latency_regression"
	GapSLOViolation        GapKind = "slo_violation"
	GapInvariantNearMiss   GapKind = "invariant_near_miss"
	GapStructuralMisconfig GapKind = "structural_misconfiguration"
)

// Gap is one ranked deviation between observed behaviour and Σ's
// declared expectations.
type Gap struct {
	Kind      GapKind
	PatternID uint8
	Class     RuntimeClass
	Observed  observation.Snapshot
	Score     float64 // higher = more urgent; Plan addresses the top-ranked gap
	SampleN   uint64
}

// DrainResult is what Monitor hands to Analyse: the batch just drained
// plus the updated rolling-window snapshot per pattern.
type DrainResult struct {
	Processed    int
	DroppedTotal uint64
	PerPattern   map[uint8]observation.Snapshot
	BudgetFaults map[uint8]uint64
	At           time.Time
}

// InstallOutcome is Execute's result: the new current snapshot (on
// success) or the cause of failure (on Rejected_on_install).
type InstallOutcome struct {
	Snapshot *ontology.Snapshot
	Overlay  *ontology.Overlay
	Err      error
}
