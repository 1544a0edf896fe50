package governor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jordigilh/ontoengine/internal/obslog"
	"github.com/jordigilh/ontoengine/pkg/governor/verify"
	"github.com/jordigilh/ontoengine/pkg/observation"
	"github.com/jordigilh/ontoengine/pkg/ontology"
)

// Governor wires the five MAPE-K stages into one cooperative loop. It
// never blocks a hot-path worker: Monitor and Analyse are non-blocking
// batch operations, Plan is pure, Verify may suspend on the proof
// checker but the governor goroutine owns that wait exclusively, and
// Execute takes the Σ pointer's installer lock only for the duration of
// one atomic swap.
type Governor struct {
	monitor  *Monitor
	checker  verify.ProofChecker
	pointer  *ontology.Pointer
	knowl    *Knowledge
	log      *logrus.Logger
	cycleSeq uint64
}

// New constructs a Governor over the given ring, proof checker, and Σ
// pointer.
func New(ring *observation.Ring, batchSize int, sink AuditSink, checker verify.ProofChecker, pointer *ontology.Pointer, knowl *Knowledge, log *logrus.Logger) *Governor {
	if log == nil {
		log = logrus.New()
	}
	return &Governor{
		monitor: NewMonitor(ring, batchSize, sink, log),
		checker: checker,
		pointer: pointer,
		knowl:   knowl,
		log:     log,
	}
}

// CycleResult reports what one RunOnce iteration did, for callers
// (cmd/enginectl, tests) that want to observe governor behavior without
// a running loop.
type CycleResult struct {
	Drain      DrainResult
	Gaps       []Gap
	Overlay    *ontology.Overlay
	Proofs     []verify.ProofRecord
	Install    InstallOutcome
	DidInstall bool
}

// RunOnce performs exactly one Monitor -> Analyse -> Plan -> Verify ->
// Execute -> Knowledge pass. It never panics on a verify/install
// failure; those are recorded in the returned CycleResult and the
// overlay's own terminal state.
func (g *Governor) RunOnce(ctx context.Context) CycleResult {
	drain := g.monitor.Drain(ctx)

	current := g.pointer.Load()
	gaps := Analyse(drain, current)

	g.cycleSeq++
	overlayID := fmt.Sprintf("overlay-%d-%s", g.cycleSeq, uuid.NewString())

	overlay, hasOverlay := Plan(gaps, overlayID)
	result := CycleResult{Drain: drain, Gaps: gaps}
	if !hasOverlay {
		return result
	}
	result.Overlay = overlay

	proofs := g.verify(ctx, overlay)
	result.Proofs = proofs

	if overlay.State != ontology.OverlayProven {
		g.knowl.Persist(ctx, overlay, proofs)
		return result
	}

	install := Execute(g.pointer, overlay)
	result.Install = install
	result.DidInstall = install.Err == nil
	g.knowl.Persist(ctx, overlay, proofs)
	return result
}

// verify drives the overlay through Unproven -> ProofPending -> (Proven
// | Rejected), discharging every change's obligation. Any obligation
// that does not come back sat rejects the whole overlay — an overlay is
// admitted only when every obligation is sat (invariant 5).
func (g *Governor) verify(ctx context.Context, overlay *ontology.Overlay) []verify.ProofRecord {
	if err := overlay.Transition(ontology.OverlayProofPending); err != nil {
		g.log.WithFields(obslog.GovernorFields("verify").Error(err).ToLogrus()).Error("illegal overlay transition")
		return nil
	}

	var proofs []verify.ProofRecord
	allSat := true
	for _, change := range overlay.Changes {
		verdict, err := g.checker.Discharge(ctx, verify.Obligation{
			ID:      change.ObligationID,
			Source:  change.ObligationSrc,
			Query:   "data.obligation.allow",
			Context: obligationContext(change),
		})
		proofs = append(proofs, verify.ProofRecord{ObligationID: change.ObligationID, Sat: verdict == verify.VerdictSat, CachedAt: time.Now()})
		if err != nil || verdict != verify.VerdictSat {
			allSat = false
		}
	}

	if !allSat {
		_ = overlay.Reject("OverlayUnprovable: at least one obligation did not discharge to sat")
		return proofs
	}
	if err := overlay.Transition(ontology.OverlayProven); err != nil {
		g.log.WithFields(obslog.GovernorFields("verify").Error(err).ToLogrus()).Error("illegal overlay transition")
	}
	return proofs
}

// obligationContext builds the Rego input document for one overlay
// change: its target and new value, keyed the way tickExpectationObligation
// and strictnessObligation (pkg/governor/plan.go) read them back via
// input.new_expectation / input.pattern_id.
func obligationContext(change ontology.OverlayChange) map[string]interface{} {
	ctx := map[string]interface{}{
		"new_expectation": change.NewValue,
		"target_id":       change.TargetID,
	}
	idStr := strings.TrimPrefix(change.TargetID, tickExpectationPrefix)
	if patternID, err := strconv.ParseUint(idStr, 10, 8); err == nil {
		ctx["pattern_id"] = patternID
	}
	return ctx
}

// Run drives RunOnce on a fixed interval until ctx is cancelled. It is
// the governor's own goroutine, entirely independent of hot-path
// workers; stopping it never affects in-flight firings.
func (g *Governor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.RunOnce(ctx)
		}
	}
}
