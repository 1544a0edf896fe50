package ontology

import "testing"

func TestOverlay_HappyPathLifecycle(t *testing.T) {
	o := NewOverlay("ov-1", []OverlayChange{
		{Kind: ChangeScaleMultiInstanceBound, TargetID: "task-7", NewValue: 8, ObligationID: "obl-1"},
	})
	if o.State != OverlayUnproven {
		t.Fatalf("initial state = %s, want Unproven", o.State)
	}

	steps := []OverlayState{OverlayProofPending, OverlayProven, OverlayApplied}
	for _, next := range steps {
		if err := o.Transition(next); err != nil {
			t.Fatalf("Transition(%s) error = %v", next, err)
		}
	}
	if !o.IsTerminal() {
		t.Error("Applied should be terminal")
	}
}

func TestOverlay_RejectsBypassToApplied(t *testing.T) {
	o := NewOverlay("ov-1", nil)
	if err := o.Transition(OverlayApplied); err == nil {
		t.Error("Unproven -> Applied should be rejected")
	}
}

func TestOverlay_Reject(t *testing.T) {
	o := NewOverlay("ov-1", nil)
	_ = o.Transition(OverlayProofPending)
	if err := o.Reject("obligation unsat"); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if o.State != OverlayRejected || o.Cause != "obligation unsat" {
		t.Errorf("state/cause = %s/%s", o.State, o.Cause)
	}
	if !o.IsTerminal() {
		t.Error("Rejected should be terminal")
	}
}

func TestOverlay_RejectOnInstall(t *testing.T) {
	o := NewOverlay("ov-1", nil)
	_ = o.Transition(OverlayProofPending)
	_ = o.Transition(OverlayProven)
	if err := o.RejectOnInstall("parent hash mismatch"); err != nil {
		t.Fatalf("RejectOnInstall() error = %v", err)
	}
	if o.State != OverlayRejectedInstall {
		t.Errorf("state = %s, want Rejected_on_install", o.State)
	}
}

func TestOverlay_CannotReproveTerminalOverlay(t *testing.T) {
	o := NewOverlay("ov-1", nil)
	_ = o.Transition(OverlayProofPending)
	_ = o.Reject("unsat")
	if err := o.Transition(OverlayProofPending); err == nil {
		t.Error("transitions out of a terminal state should be rejected")
	}
}

func TestApplyToGraph_ToggleInvariantStrictness(t *testing.T) {
	invariants := []InvariantRule{{ID: "q1", Source: "ticks_used <= limit"}}
	o := NewOverlay("ov-1", []OverlayChange{
		{Kind: ChangeToggleInvariantStrictness, TargetID: "q1", NewValue: 1},
	})
	_, newInvariants := ApplyToGraph(nil, invariants, o)
	if newInvariants[0].Source != "strict(ticks_used <= limit)" {
		t.Errorf("Source = %q, want strict() wrapped", newInvariants[0].Source)
	}
}
