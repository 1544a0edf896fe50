package governor

import (
	"time"

	"github.com/jordigilh/ontoengine/internal/telemetry"
	"github.com/jordigilh/ontoengine/pkg/ontology"
)

// Execute installs a Proven overlay: it builds Σ_{t+1} as a functional
// descendant of the pointer's current snapshot, computes the new
// snapshot hash, and attempts the single atomic pointer swap
// — the install's linearisation point. On any failure the previous
// snapshot remains current and the overlay transitions to
// Rejected_on_install with a recorded cause; the caller decides whether
// to retry on a later cycle.
func Execute(pointer *ontology.Pointer, overlay *ontology.Overlay) InstallOutcome {
	start := time.Now()
	defer func() { telemetry.RecordGovernorStage("execute", time.Since(start)) }()

	if overlay.State != ontology.OverlayProven {
		err := overlay.RejectOnInstall("overlay not in Proven state")
		telemetry.RecordOntologyInstall("rejected")
		return InstallOutcome{Overlay: overlay, Err: err}
	}

	current := pointer.Load()
	newGraph, newInvariants := ontology.ApplyToGraph(current.Graph, current.Invariants, overlay)
	next := ontology.Descendant(current, newGraph, newInvariants)

	if err := pointer.Install(next); err != nil {
		if rejErr := overlay.RejectOnInstall(err.Error()); rejErr != nil {
			err = rejErr
		}
		telemetry.RecordOntologyInstall("rejected")
		return InstallOutcome{Overlay: overlay, Err: err}
	}

	if err := overlay.Transition(ontology.OverlayApplied); err != nil {
		telemetry.RecordOntologyInstall("rejected")
		return InstallOutcome{Overlay: overlay, Err: err}
	}

	telemetry.RecordOntologyInstall("applied")
	telemetry.RecordOverlayTerminal(string(ontology.OverlayApplied))
	return InstallOutcome{Snapshot: next, Overlay: overlay}
}
