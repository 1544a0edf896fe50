package main

import (
	"strconv"

	"github.com/jordigilh/ontoengine/pkg/ontology"
	"github.com/jordigilh/ontoengine/pkg/patterns"
)

// Condition and task identifiers for the demonstration workflow wired
// below: a sequence task, an AND-split/AND-join pair, a deferred
// choice, and a cancellation region, all sharing one case lifecycle.
const (
	condStart    uint64 = 100
	condSeqOut   uint64 = 101
	condSplit    uint64 = 102
	condBranchA  uint64 = 103
	condBranchB  uint64 = 104
	condJoinOut  uint64 = 105
	condChoice   uint64 = 106
	condChoiceA  uint64 = 107
	condChoiceB  uint64 = 108
	condRegionIn uint64 = 109
	condRegionA  uint64 = 110
	condRegionB  uint64 = 111

	taskSequence  uint32 = 1
	taskAndSplit  uint32 = 2
	taskAndJoin   uint32 = 3
	taskDeferred  uint32 = 4
	taskCancelReg uint32 = 5
)

// demoSpecID is this module's one hard-coded workflow specification
// identity; a real deployment would content-address it like Σ itself.
const demoSpecID uint64 = 1

// buildDemoSpecification assembles the fixed workflow specification
// cmd/enginectl drives: one sequence task, one AND-split/AND-join pair,
// one deferred choice, and one cancellation region.
func buildDemoSpecification() *patterns.WorkflowSpecification {
	region := patterns.RegionInfo{
		ID:           "region-1",
		TaskIDs:      []uint32{taskCancelReg},
		ConditionIDs: []uint64{condRegionIn, condRegionA, condRegionB},
	}

	return &patterns.WorkflowSpecification{
		ID: demoSpecID,
		Tasks: map[uint32]patterns.TaskConfig{
			taskSequence: {
				ID:            taskSequence,
				PatternID:     1,
				InConditions:  []uint64{condStart},
				OutConditions: []uint64{condSeqOut},
			},
			taskAndSplit: {
				ID:            taskAndSplit,
				PatternID:     2,
				InConditions:  []uint64{condSplit},
				OutConditions: []uint64{condBranchA, condBranchB},
			},
			taskAndJoin: {
				ID:            taskAndJoin,
				PatternID:     3,
				InConditions:  []uint64{condBranchA, condBranchB},
				OutConditions: []uint64{condJoinOut},
				JoinArity:     2,
			},
			taskDeferred: {
				ID:            taskDeferred,
				PatternID:     16,
				InConditions:  []uint64{condChoice},
				OutConditions: []uint64{condChoiceA, condChoiceB},
			},
			taskCancelReg: {
				ID:        taskCancelReg,
				PatternID: 20,
				Region:    &region,
			},
		},
		Conditions: map[uint64]uint32{
			condStart: 1, condSeqOut: 1,
			condSplit: 1, condBranchA: 1, condBranchB: 1, condJoinOut: 1,
			condChoice: 1, condChoiceA: 1, condChoiceB: 1,
			condRegionIn: 1, condRegionA: 1, condRegionB: 1,
		},
		Regions: map[string]patterns.RegionInfo{region.ID: region},
	}
}

// baseObligationModule is Q's always-admissible base clause every
// obligation is conjoined against — see pkg/governor/verify's own test
// suite for the same shape.
const baseObligationModule = `package base

allow { true }
`

// buildGenesisSnapshot constructs Σ_0 with tick-expectation invariants
// for every pattern the demo specification exercises, so Analyse (pkg
// /governor/analyse.go) has a declared expectation to compare observed
// p99s against from the very first governor cycle.
func buildGenesisSnapshot() *ontology.Snapshot {
	invariants := []ontology.InvariantRule{
		tickExpectation(1, 1),
		tickExpectation(2, 2),
		tickExpectation(3, 2),
		tickExpectation(16, 1),
		tickExpectation(20, 1),
	}
	return ontology.Genesis(nil, invariants)
}

func tickExpectation(patternID uint8, ticks int) ontology.InvariantRule {
	return ontology.InvariantRule{
		ID:     ontology.TickExpectationPrefix + strconv.Itoa(int(patternID)),
		Source: strconv.Itoa(ticks),
	}
}
