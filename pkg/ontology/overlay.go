package ontology

import (
	"fmt"
	"strconv"
)

// TickExpectationPrefix names the Σ invariant convention this engine
// uses to declare a pattern's expected tick cost: an InvariantRule whose
// ID is TickExpectationPrefix+"<pattern_id>" and whose Source is the
// decimal expected tick count. Defined here (not in pkg/governor) so
// ApplyToGraph can upsert the rule without this leaf package depending
// upward on the governor.
const TickExpectationPrefix = "tick_expectation:"

// OverlayState is one node of the overlay lifecycle:
// Unproven -> ProofPending -> (Proven | Rejected); Proven -> (Applied | RejectedOnInstall).
type OverlayState string

const (
	OverlayUnproven         OverlayState = "Unproven"
	OverlayProofPending     OverlayState = "ProofPending"
	OverlayProven           OverlayState = "Proven"
	OverlayApplied          OverlayState = "Applied"
	OverlayRejected         OverlayState = "Rejected"
	OverlayRejectedInstall  OverlayState = "Rejected_on_install"
)

// transitions enumerates the only legal moves; anything else is rejected
// by Overlay.Transition so the state machine can never be bypassed to
// Applied.
var transitions = map[OverlayState]map[OverlayState]bool{
	OverlayUnproven:     {OverlayProofPending: true},
	OverlayProofPending: {OverlayProven: true, OverlayRejected: true},
	OverlayProven:       {OverlayApplied: true, OverlayRejectedInstall: true},
}

// ChangeKind is the closed set of overlay change types.
type ChangeKind string

const (
	ChangeUpdatePatternTickExpectation ChangeKind = "update_pattern_tick_expectation"
	ChangeScaleMultiInstanceBound      ChangeKind = "scale_multi_instance_bound"
	ChangeToggleInvariantStrictness    ChangeKind = "toggle_invariant_strictness"
	ChangeRebindTimer                  ChangeKind = "rebind_timer"
)

// OverlayChange is one typed mutation an overlay proposes, with the
// obligation (against Q) that must be discharged before it can apply.
type OverlayChange struct {
	Kind          ChangeKind
	TargetID      string // pattern id, MI task id, invariant id, or timer id depending on Kind
	NewValue      int64  // tick expectation, MI bound, or 0/1 for strictness toggle
	ObligationID  string // content address of the proof obligation text
	ObligationSrc string // Rego/CEL obligation source the verifier discharges
}

// Overlay is a proposed Σ_t -> Σ_{t+1} transformation.
type Overlay struct {
	ID      string
	Changes []OverlayChange
	State   OverlayState
	Cause   string // populated on Rejected / Rejected_on_install
}

// NewOverlay creates an overlay in its initial Unproven state.
func NewOverlay(id string, changes []OverlayChange) *Overlay {
	return &Overlay{ID: id, Changes: changes, State: OverlayUnproven}
}

// Transition moves the overlay to next, rejecting any move not present
// in the state machine.
func (o *Overlay) Transition(next OverlayState) error {
	allowed, ok := transitions[o.State]
	if !ok || !allowed[next] {
		return fmt.Errorf("ontology: illegal overlay transition %s -> %s", o.State, next)
	}
	o.State = next
	return nil
}

// Reject moves the overlay to Rejected (from ProofPending) with a cause.
func (o *Overlay) Reject(cause string) error {
	if err := o.Transition(OverlayRejected); err != nil {
		return err
	}
	o.Cause = cause
	return nil
}

// RejectOnInstall moves a Proven overlay to Rejected_on_install with a cause.
func (o *Overlay) RejectOnInstall(cause string) error {
	if err := o.Transition(OverlayRejectedInstall); err != nil {
		return err
	}
	o.Cause = cause
	return nil
}

// IsTerminal reports whether the overlay has reached a terminal state.
func (o *Overlay) IsTerminal() bool {
	switch o.State {
	case OverlayApplied, OverlayRejected, OverlayRejectedInstall:
		return true
	default:
		return false
	}
}

// ApplyToGraph folds the overlay's changes into a graph/invariant pair,
// producing the inputs for Descendant. Only Proven overlays may be
// installed; callers enforce that before calling ApplyToGraph.
func ApplyToGraph(graph []Statement, invariants []InvariantRule, o *Overlay) ([]Statement, []InvariantRule) {
	newGraph := make([]Statement, len(graph))
	copy(newGraph, graph)
	newInvariants := make([]InvariantRule, len(invariants))
	copy(newInvariants, invariants)

	for _, change := range o.Changes {
		switch change.Kind {
		case ChangeToggleInvariantStrictness:
			for i, inv := range newInvariants {
				if inv.ID == change.TargetID {
					if change.NewValue != 0 {
						newInvariants[i].Source = "strict(" + inv.Source + ")"
					} else if n := len(inv.Source); n > len("strict()") && inv.Source[:len("strict(")] == "strict(" && inv.Source[n-1] == ')' {
						newInvariants[i].Source = inv.Source[len("strict(") : n-1]
					}
				}
			}
		case ChangeUpdatePatternTickExpectation:
			value := strconv.FormatInt(change.NewValue, 10)
			found := false
			for i, inv := range newInvariants {
				if inv.ID == change.TargetID {
					newInvariants[i].Source = value
					found = true
				}
			}
			if !found {
				newInvariants = append(newInvariants, InvariantRule{ID: change.TargetID, Source: value})
			}
		default:
			// ScaleMultiInstanceBound and RebindTimer are not applied:
			// the graph and invariants come out unchanged, so nothing in
			// the installed snapshot (and nothing the Projector compiles
			// from it) reflects these changes.
		}
	}
	return newGraph, newInvariants
}
