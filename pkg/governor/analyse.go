package governor

import (
	"strconv"
	"strings"
	"time"

	"github.com/jordigilh/ontoengine/internal/telemetry"
	"github.com/jordigilh/ontoengine/pkg/ontology"
)

// minReliableSample is the minimum observation count before a gap is
// trusted enough to propose an overlay for — adapted from this
// codebase family's statistical-reliability assessment shape
// (AssessReliability / minimum-sample-size gating), here applied to
// pattern-latency regressions instead of ML model predictions: a
// regression seen across three samples is noise, not a gap.
const minReliableSample = 30

// tickExpectationPrefix names the Σ invariant convention this engine
// uses to declare a pattern's expected tick cost: an InvariantRule whose
// ID is "tick_expectation:<pattern_id>" and whose Source is the decimal
// expected tick count. The Projector's guard table never interprets
// this convention; only Analyse does.
const tickExpectationPrefix = "tick_expectation:"

// Analyse compares the Monitor's drained windows against snapshot's
// declared expectations, returning gaps ranked highest-score-first.
// Gaps below the minimum reliable sample size are never surfaced,
// regardless of how severe the observed deviation looks.
func Analyse(result DrainResult, snapshot *ontology.Snapshot) []Gap {
	start := time.Now()
	defer func() { telemetry.RecordGovernorStage("analyse", time.Since(start)) }()

	expectations := parseExpectations(snapshot.Invariants)

	var gaps []Gap
	for patternID, snap := range result.PerPattern {
		if snap.Count < minReliableSample {
			continue
		}

		if faults := result.BudgetFaults[patternID]; faults > 0 {
			rate := float64(faults) / float64(snap.Count)
			gaps = append(gaps, Gap{
				Kind:      GapSLOViolation,
				PatternID: patternID,
				Class:     ClassHot,
				Observed:  snap,
				Score:     rate,
				SampleN:   snap.Count,
			})
		}

		expected, ok := expectations[patternID]
		if !ok || expected <= 0 {
			continue
		}
		if snap.P99 > expected {
			regression := (snap.P99 - expected) / expected
			gaps = append(gaps, Gap{
				Kind:      GapLatencyRegression,
				PatternID: patternID,
				Class:     ClassHot,
				Observed:  snap,
				Score:     regression,
				SampleN:   snap.Count,
			})
		}
	}

	sortGapsDescending(gaps)
	return gaps
}

func parseExpectations(invariants []ontology.InvariantRule) map[uint8]float64 {
	out := make(map[uint8]float64)
	for _, inv := range invariants {
		if !strings.HasPrefix(inv.ID, tickExpectationPrefix) {
			continue
		}
		idStr := strings.TrimPrefix(inv.ID, tickExpectationPrefix)
		patternID, err := strconv.ParseUint(idStr, 10, 8)
		if err != nil {
			continue
		}
		expected, err := strconv.ParseFloat(inv.Source, 64)
		if err != nil {
			continue
		}
		out[uint8(patternID)] = expected
	}
	return out
}

func sortGapsDescending(gaps []Gap) {
	for i := 1; i < len(gaps); i++ {
		for j := i; j > 0 && gaps[j].Score > gaps[j-1].Score; j-- {
			gaps[j], gaps[j-1] = gaps[j-1], gaps[j]
		}
	}
}
