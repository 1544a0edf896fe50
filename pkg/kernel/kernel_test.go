package kernel

import "testing"

func sequenceFn(snap *CaseSnapshot, run *PinnedRun, budget *TickBudget, scratch *FiringScratch) (MarkingDelta, Action, FaultKind, uint8) {
	if run.Len == 0 {
		return MarkingDelta{}, Action{}, FaultNone, 0
	}
	delta := MarkingDelta{
		Consume: []ConditionDelta{{ConditionID: 1, Count: 1}},
		Deposit: []ConditionDelta{{ConditionID: 2, Count: 1}},
	}
	return delta, Action{}, FaultNone, 2
}

func budgetBusterFn(snap *CaseSnapshot, run *PinnedRun, budget *TickBudget, scratch *FiringScratch) (MarkingDelta, Action, FaultKind, uint8) {
	return MarkingDelta{}, Action{}, FaultNone, budget.Limit + 1
}

func newTestTable() *DispatchTable {
	var table DispatchTable
	table[1] = sequenceFn
	table[7] = budgetBusterFn
	return &table
}

func TestEvaluate_SequenceFiring(t *testing.T) {
	table := newTestTable()
	snap := &CaseSnapshot{CaseID: 1, SpecID: 1}
	run := &PinnedRun{Len: 1}
	run.S[0], run.P[0], run.O[0] = 10, 20, 30

	_, action, receipt := Evaluate(table, snap, run, 1, TickBudget{Limit: 8}, FixedTickSource(42), 0, NewFiringScratch(4))

	if receipt.Fault != FaultNone {
		t.Fatalf("unexpected fault: %v", receipt.Fault)
	}
	if receipt.TicksUsed < 1 || receipt.TicksUsed > 8 {
		t.Errorf("ticks_used = %d, want in [1,8]", receipt.TicksUsed)
	}
	if action.ActionHash == ([32]byte{}) {
		t.Error("expected non-zero action hash")
	}
}

func TestEvaluate_IdempotentReplay(t *testing.T) {
	table := newTestTable()
	snap := &CaseSnapshot{CaseID: 1, SpecID: 1}
	run := &PinnedRun{Len: 1}
	run.S[0], run.P[0], run.O[0] = 10, 20, 30

	_, a1, r1 := Evaluate(table, snap, run, 1, TickBudget{Limit: 8}, FixedTickSource(1), 0, NewFiringScratch(4))
	_, a2, r2 := Evaluate(table, snap, run, 1, TickBudget{Limit: 8}, FixedTickSource(1), 0, NewFiringScratch(4))

	if a1.ActionHash != a2.ActionHash {
		t.Error("replay should produce identical action hash")
	}
	if r1.TicksUsed != r2.TicksUsed {
		t.Error("replay should produce identical ticks_used")
	}
}

func TestEvaluate_EmptyRun(t *testing.T) {
	table := newTestTable()
	snap := &CaseSnapshot{CaseID: 1, SpecID: 1}
	run := &PinnedRun{}

	_, action, receipt := Evaluate(table, snap, run, 1, TickBudget{Limit: 8}, FixedTickSource(1), 0, NewFiringScratch(4))

	if receipt.Fault != FaultNone {
		t.Errorf("empty run should not fault, got %v", receipt.Fault)
	}
	if receipt.TicksUsed != 0 {
		t.Errorf("ticks_used = %d, want 0", receipt.TicksUsed)
	}
	if action.ActionHash != ([32]byte{}) {
		t.Error("empty run should produce no action")
	}
}

func TestEvaluate_PatternOutOfRange(t *testing.T) {
	table := newTestTable()
	snap := &CaseSnapshot{CaseID: 1, SpecID: 1}
	run := &PinnedRun{Len: 1}
	run.S[0], run.P[0], run.O[0] = 1, 2, 3

	_, _, receipt := Evaluate(table, snap, run, 44, TickBudget{Limit: 8}, FixedTickSource(1), 0, NewFiringScratch(4))

	if receipt.Fault&FaultOntologyMismatch == 0 {
		t.Errorf("expected FaultOntologyMismatch, got %v", receipt.Fault)
	}
}

func TestEvaluate_UnregisteredPattern(t *testing.T) {
	table := newTestTable()
	snap := &CaseSnapshot{CaseID: 1, SpecID: 1}
	run := &PinnedRun{Len: 1}
	run.S[0], run.P[0], run.O[0] = 1, 2, 3

	_, _, receipt := Evaluate(table, snap, run, 2, TickBudget{Limit: 8}, FixedTickSource(1), 0, NewFiringScratch(4))

	if receipt.Fault&FaultOntologyMismatch == 0 {
		t.Errorf("expected FaultOntologyMismatch for unregistered pattern, got %v", receipt.Fault)
	}
}

func TestEvaluate_BudgetExceeded(t *testing.T) {
	table := newTestTable()
	snap := &CaseSnapshot{CaseID: 1, SpecID: 1}
	run := &PinnedRun{Len: 1}
	run.S[0], run.P[0], run.O[0] = 1, 2, 3

	_, _, receipt := Evaluate(table, snap, run, 7, TickBudget{Limit: 8}, FixedTickSource(1), 0, NewFiringScratch(4))

	if receipt.Fault&FaultBudgetExceeded == 0 {
		t.Errorf("expected FaultBudgetExceeded, got %v", receipt.Fault)
	}
	if receipt.TicksUsed != 8 {
		t.Errorf("ticks_used = %d, want saturated 8", receipt.TicksUsed)
	}
}

func TestEvaluate_PartialLenLanesMasked(t *testing.T) {
	table := newTestTable()
	snap := &CaseSnapshot{CaseID: 1, SpecID: 1}
	run := &PinnedRun{Len: 3}
	for i := 0; i < 3; i++ {
		run.S[i], run.P[i], run.O[i] = uint64(i), uint64(i), uint64(i)
	}

	_, _, receipt := Evaluate(table, snap, run, 1, TickBudget{Limit: 8}, FixedTickSource(1), 0, NewFiringScratch(4))
	if receipt.Fault != FaultNone {
		t.Errorf("unexpected fault: %v", receipt.Fault)
	}
	for i := 3; i < 8; i++ {
		if run.S[i] != 0 || run.P[i] != 0 || run.O[i] != 0 {
			t.Errorf("lane %d should remain zeroed, got S=%d P=%d O=%d", i, run.S[i], run.P[i], run.O[i])
		}
	}
}

func TestTickBudget_Consume(t *testing.T) {
	b := TickBudget{Limit: 8}
	if !b.Consume(5) {
		t.Fatal("Consume(5) should succeed under limit 8")
	}
	if b.Used != 5 {
		t.Errorf("Used = %d, want 5", b.Used)
	}
	if !b.Consume(3) {
		t.Fatal("Consume(3) should reach exactly the limit")
	}
	if b.Used != 8 {
		t.Errorf("Used = %d, want 8", b.Used)
	}
	if b.Consume(1) {
		t.Error("Consume after exhaustion should report false")
	}
}

func TestConstruct8(t *testing.T) {
	in := &PinnedRun{Len: 3}
	in.S[0], in.P[0], in.O[0] = 1, 100, 10
	in.S[1], in.P[1], in.O[1] = 2, 200, 20
	in.S[2], in.P[2], in.O[2] = 3, 100, 30

	var out PinnedRun
	Construct8(Construct8Template{PredFixed: true, Pred: 100, ObjFixed: true, Obj: 999}, in, &out)

	if out.Len != 2 {
		t.Fatalf("out.Len = %d, want 2 (predicate-matched lanes only)", out.Len)
	}
	if out.O[0] != 999 || out.O[1] != 999 {
		t.Errorf("expected fixed object 999 in both output lanes, got %v %v", out.O[0], out.O[1])
	}
	if out.S[0] != 1 || out.S[1] != 3 {
		t.Errorf("subjects should pass through: got %v %v", out.S[0], out.S[1])
	}
}

func TestConstruct8_EmptyRun(t *testing.T) {
	in := &PinnedRun{}
	var out PinnedRun
	Construct8(Construct8Template{}, in, &out)
	if out.Len != 0 {
		t.Errorf("out.Len = %d, want 0", out.Len)
	}
}

func TestFaultKind_String(t *testing.T) {
	tests := map[FaultKind]string{
		FaultNone:                 "none",
		FaultBudgetExceeded:       "budget_exceeded",
		FaultOntologyMismatch:     "ontology_mismatch",
		FaultPreconditionViolated | FaultBudgetExceeded: "multiple",
	}
	for fault, want := range tests {
		if got := fault.String(); got != want {
			t.Errorf("FaultKind(%d).String() = %q, want %q", fault, got, want)
		}
	}
}
