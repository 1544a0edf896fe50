package projector

import (
	"testing"

	"github.com/jordigilh/ontoengine/pkg/kernel"
	"github.com/jordigilh/ontoengine/pkg/ontology"
	"github.com/jordigilh/ontoengine/pkg/patterns"
)

func sequenceSpec() *patterns.WorkflowSpecification {
	return &patterns.WorkflowSpecification{
		ID: 1,
		Tasks: map[uint32]patterns.TaskConfig{
			1: {ID: 1, PatternID: 1, InConditions: []uint64{10}, OutConditions: []uint64{20}},
		},
		Conditions: map[uint64]uint32{10: 1, 20: 1},
	}
}

func testSnapshot() *ontology.Snapshot {
	return ontology.Genesis(nil, nil)
}

func TestCompile_Deterministic(t *testing.T) {
	snap := testSnapshot()
	spec := sequenceSpec()

	p1, err := Compile(snap, spec, 64)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	p2, err := Compile(snap, spec, 64)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if p1.Hash != p2.Hash {
		t.Error("identical (snapshot, spec) should yield identical projection hash")
	}
}

func TestCompile_SequenceFiring(t *testing.T) {
	snap := testSnapshot()
	spec := sequenceSpec()
	p, err := Compile(snap, spec, 64)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	caseSnap := &kernel.CaseSnapshot{
		CaseID:        1,
		SpecID:        1,
		TaskID:        1,
		MarkingCounts: map[uint64]uint32{10: 1},
	}
	run := &kernel.PinnedRun{Len: 1}
	run.S[0], run.P[0], run.O[0] = 10, 1, 1

	delta, _, receipt := kernel.Evaluate(p.KernelTable, caseSnap, run, 1, kernel.TickBudget{Limit: 8}, kernel.FixedTickSource(1), 0, kernel.NewFiringScratch(4))
	if receipt.Fault != kernel.FaultNone {
		t.Fatalf("unexpected fault: %v", receipt.Fault)
	}
	if len(delta.Consume) != 1 || delta.Consume[0].ConditionID != 10 {
		t.Errorf("expected consume of condition 10, got %+v", delta.Consume)
	}
	if len(delta.Deposit) != 1 || delta.Deposit[0].ConditionID != 20 {
		t.Errorf("expected deposit to condition 20, got %+v", delta.Deposit)
	}
}

// Output triples come out of the firing through CONSTRUCT8: subject is
// the deposited condition, predicate the task id, object the pattern id.
func TestCompile_OutputsEmittedThroughConstruct8(t *testing.T) {
	snap := testSnapshot()
	spec := sequenceSpec()
	p, err := Compile(snap, spec, 64)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	caseSnap := &kernel.CaseSnapshot{CaseID: 1, SpecID: 1, TaskID: 1, MarkingCounts: map[uint64]uint32{10: 1}}
	run := &kernel.PinnedRun{Len: 1}
	run.S[0], run.P[0], run.O[0] = 10, 1, 1

	_, action, receipt := kernel.Evaluate(p.KernelTable, caseSnap, run, 1, kernel.TickBudget{Limit: 8}, kernel.FixedTickSource(1), 0, kernel.NewFiringScratch(4))
	if receipt.Fault != kernel.FaultNone {
		t.Fatalf("unexpected fault: %v", receipt.Fault)
	}
	if action.Outputs.Len != 1 {
		t.Fatalf("expected 1 output triple, got %d", action.Outputs.Len)
	}
	got := action.Outputs.Triple(0)
	want := kernel.Triple{S: 20, P: 1, O: 1}
	if got != want {
		t.Errorf("output triple = %+v, want %+v", got, want)
	}
	if action.ActionHash == ([32]byte{}) {
		t.Error("expected non-zero action hash over the emitted outputs")
	}
}

// A run whose predicate lanes disagree with the task's compiled
// template produces no action and a non-error receipt, and leaves the
// marking untouched.
func TestCompile_PredicateMismatchYieldsNoAction(t *testing.T) {
	snap := testSnapshot()
	spec := sequenceSpec()
	p, err := Compile(snap, spec, 64)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	caseSnap := &kernel.CaseSnapshot{CaseID: 1, SpecID: 1, TaskID: 1, MarkingCounts: map[uint64]uint32{10: 1}}
	run := &kernel.PinnedRun{Len: 1}
	run.S[0], run.P[0], run.O[0] = 10, 77, 1 // predicate 77 never bound to task 1

	delta, action, receipt := kernel.Evaluate(p.KernelTable, caseSnap, run, 1, kernel.TickBudget{Limit: 8}, kernel.FixedTickSource(1), 0, kernel.NewFiringScratch(4))
	if receipt.Fault != kernel.FaultNone {
		t.Fatalf("predicate mismatch must not fault, got %v", receipt.Fault)
	}
	if action.Outputs.Len != 0 {
		t.Errorf("predicate mismatch must yield no action, got %d outputs", action.Outputs.Len)
	}
	if len(delta.Consume) != 0 || len(delta.Deposit) != 0 {
		t.Errorf("predicate mismatch must leave the marking untouched, got %+v", delta)
	}
}

func TestCompile_UnknownTaskIsOntologyMismatch(t *testing.T) {
	snap := testSnapshot()
	spec := sequenceSpec()
	p, err := Compile(snap, spec, 64)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	caseSnap := &kernel.CaseSnapshot{CaseID: 1, SpecID: 1, TaskID: 99, MarkingCounts: map[uint64]uint32{10: 1}}
	run := &kernel.PinnedRun{Len: 1}
	run.S[0] = 10

	_, _, receipt := kernel.Evaluate(p.KernelTable, caseSnap, run, 1, kernel.TickBudget{Limit: 8}, kernel.FixedTickSource(1), 0, kernel.NewFiringScratch(4))
	if receipt.Fault&kernel.FaultOntologyMismatch == 0 {
		t.Errorf("expected FaultOntologyMismatch for unbound task id, got %v", receipt.Fault)
	}
}

func TestCompileORDecomposition(t *testing.T) {
	spec := &patterns.WorkflowSpecification{
		ID: 2,
		Tasks: map[uint32]patterns.TaskConfig{
			1: {ID: 1, PatternID: 6, InConditions: []uint64{1}, OutConditions: []uint64{2, 3}},
			2: {ID: 2, PatternID: 7, InConditions: []uint64{2, 3}, OutConditions: []uint64{4}},
		},
	}
	decomp := compileORDecomposition(spec)
	branches := decomp[2]
	if len(branches) != 2 {
		t.Fatalf("expected 2 OR-split-sourced branches, got %d: %v", len(branches), branches)
	}
}

func TestCompileMIBounds_FallsBackToHardCap(t *testing.T) {
	spec := &patterns.WorkflowSpecification{
		ID: 3,
		Tasks: map[uint32]patterns.TaskConfig{
			1: {ID: 1, PatternID: 15, MI: &patterns.MIParams{Bound: 0, NoAPriori: true}},
		},
	}
	bounds := compileMIBounds(spec, 64)
	if bounds[1] != 64 {
		t.Errorf("MIBounds[1] = %d, want fallback 64", bounds[1])
	}
}
