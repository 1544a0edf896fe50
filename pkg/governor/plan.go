package governor

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jordigilh/ontoengine/internal/telemetry"
	"github.com/jordigilh/ontoengine/pkg/ontology"
)

// Plan constructs one overlay addressing the top-ranked gap. Each
// OverlayChange carries its own proof obligation source; Verify
// discharges them independently. Plan returns nil, false when gaps is
// empty (nothing to address this cycle).
func Plan(gaps []Gap, overlayID string) (*ontology.Overlay, bool) {
	start := time.Now()
	defer func() { telemetry.RecordGovernorStage("plan", time.Since(start)) }()

	if len(gaps) == 0 {
		return nil, false
	}
	top := gaps[0]

	var change ontology.OverlayChange
	switch top.Kind {
	case GapLatencyRegression:
		newExpectation := int64(top.Observed.P99) + 1
		change = ontology.OverlayChange{
			Kind:          ontology.ChangeUpdatePatternTickExpectation,
			TargetID:      fmt.Sprintf("%s%d", tickExpectationPrefix, top.PatternID),
			NewValue:      newExpectation,
			ObligationID:  fmt.Sprintf("tick-expectation-%d-%d", top.PatternID, newExpectation),
			ObligationSrc: tickExpectationObligation(top.PatternID, newExpectation),
		}
	case GapSLOViolation:
		change = ontology.OverlayChange{
			Kind:          ontology.ChangeToggleInvariantStrictness,
			TargetID:      fmt.Sprintf("%s%d", tickExpectationPrefix, top.PatternID),
			NewValue:      1,
			ObligationID:  fmt.Sprintf("strictness-%d", top.PatternID),
			ObligationSrc: strictnessObligation(top.PatternID),
		}
	case GapInvariantNearMiss, GapStructuralMisconfig:
		change = ontology.OverlayChange{
			Kind:          ontology.ChangeScaleMultiInstanceBound,
			TargetID:      strconv.Itoa(int(top.PatternID)),
			NewValue:      0, // no-op placeholder; real scaling decisions require the MI task id, supplied by a richer gap in future iterations
			ObligationID:  fmt.Sprintf("mi-bound-noop-%d", top.PatternID),
			ObligationSrc: trivialSatObligation(),
		}
	}

	return ontology.NewOverlay(overlayID, []ontology.OverlayChange{change}), true
}

// tickExpectationObligation builds the Rego clause that must hold for a
// tick-expectation update to be admissible: the new expectation must
// still fit within the hard τ≤8 ceiling.
func tickExpectationObligation(patternID uint8, newExpectation int64) string {
	return `package obligation

allow {
	input.new_expectation <= 8
	input.new_expectation > 0
}
`
}

// strictnessObligation requires that toggling an invariant strict is
// only admissible when the pattern id is within the defined range.
func strictnessObligation(patternID uint8) string {
	return `package obligation

allow {
	input.pattern_id > 0
	input.pattern_id <= 43
}
`
}

func trivialSatObligation() string {
	return `package obligation

allow { true }
`
}
