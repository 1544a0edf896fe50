package projector

import (
	"strconv"

	"github.com/jordigilh/ontoengine/pkg/kernel"
	"github.com/jordigilh/ontoengine/pkg/patterns"
)

// buildKernelTable adapts the pattern-net layer's TaskConfig-parameterized
// PatternFn entries (pkg/patterns, pkg/patterns/catalogue) onto the
// kernel's flat, pattern-id-indexed DispatchTable. The binding
// convention, fixed here:
//
//   - kernel.CaseSnapshot.TaskID names which task of the specification is
//     firing; spec.Tasks is copied into a map at closure-build time, once,
//     and each firing looks its TaskConfig up by TaskID in that copy, never
//     in the specification itself.
//   - The pinned run's Subject lane (S[i], i < Len) carries the incoming
//     token set I the pattern contract expects — the condition ids a
//     deferred choice, OR-split, or discriminator is choosing among; it
//     is handed to the pattern as a direct reslice of the run's own
//     array, never copied.
//   - CaseSnapshot.Data and the pattern contract's data parameter share
//     the same uint64-condition-id keying, so no re-keying copy is
//     needed at this boundary either.
//   - Every per-firing working set (the mutable marking view, the
//     touched-condition scratch used to compute the resulting delta)
//     comes from the caller's kernel.FiringScratch, never from a map or
//     slice this closure allocates itself.
//
// One table is built per (Σ, spec) pair; every task sharing a pattern id
// is served by the same table slot, differentiated only by TaskID at
// firing time. The hot path dispatches through this one table and
// never re-compiles.
func buildKernelTable(patternTable *patterns.Table, spec *patterns.WorkflowSpecification, guards *GuardTable) *kernel.DispatchTable {
	tasks := make(map[uint32]patterns.TaskConfig, len(spec.Tasks))
	tmpls := make(map[uint32]kernel.Construct8Template, len(spec.Tasks))
	for id, cfg := range spec.Tasks {
		tasks[id] = cfg
		tmpls[id] = kernel.Construct8Template{
			PredFixed: true,
			Pred:      uint64(id),
			ObjFixed:  true,
			Obj:       uint64(cfg.PatternID),
		}
	}

	var kt kernel.DispatchTable
	for patternID := uint8(1); patternID <= kernel.MaxPatternID; patternID++ {
		fn, err := patternTable.Lookup(patternID)
		if err != nil {
			continue
		}
		kt[patternID] = adaptPattern(fn, tasks, tmpls, guards)
	}
	return &kt
}

// adaptPattern closes over one pattern-net entry, the specification's
// task registry, the per-task CONSTRUCT8 templates, and the compiled
// guard table, producing the kernel.PatternFn that slot of the dispatch
// table invokes for every firing against that pattern id. A task whose
// TaskConfig declares guard expressions is vetoed here, before
// Enabled/Fire ever run, the same way an unsatisfied precondition is:
// the guard table is the thing that makes GuardExprs load-bearing rather
// than a compiled-but-unread side artifact of Compile.
func adaptPattern(fn patterns.PatternFn, tasks map[uint32]patterns.TaskConfig, tmpls map[uint32]kernel.Construct8Template, guards *GuardTable) kernel.PatternFn {
	return func(snap *kernel.CaseSnapshot, run *kernel.PinnedRun, budget *kernel.TickBudget, scratch *kernel.FiringScratch) (kernel.MarkingDelta, kernel.Action, kernel.FaultKind, uint8) {
		cfg, ok := tasks[snap.TaskID]
		if !ok {
			return kernel.MarkingDelta{}, kernel.Action{}, kernel.FaultOntologyMismatch, 0
		}

		// A run whose predicate lanes disagree with the task's compiled
		// template produces no action and a non-error receipt, before any
		// guard or pattern state is touched.
		tmpl := tmpls[snap.TaskID]
		if !predicateMatches(&tmpl, run) {
			return kernel.MarkingDelta{}, kernel.Action{}, kernel.FaultNone, 0
		}

		if len(cfg.GuardExprs) > 0 {
			passed, err := guards.Evaluate(cfg.ID, guardActivation(snap))
			if err != nil || !passed {
				return kernel.MarkingDelta{}, kernel.Action{}, kernel.FaultPreconditionViolated, 0
			}
		}

		marking := patterns.Marking(scratch.Marking(snap.MarkingCounts))
		incoming := run.S[:run.Len]

		if !fn.Enabled(&cfg, marking, incoming) {
			return kernel.MarkingDelta{}, kernel.Action{}, kernel.FaultPreconditionViolated, 0
		}

		outcome, fault := fn.Fire(&cfg, marking, incoming, snap.Data)
		if fault != patterns.FaultNone {
			return kernel.MarkingDelta{}, kernel.Action{}, translateFault(fault), 0
		}

		delta := scratch.Diff(snap.MarkingCounts, outcome.Marking)
		action := kernel.Action{}
		if len(outcome.Outputs) > 0 {
			// Output triples are emitted through CONSTRUCT8: the firing's
			// deposited condition ids are staged as subject lanes and the
			// task's compiled template fixes predicate and object.
			var stage kernel.PinnedRun
			for _, id := range outcome.Outputs {
				if !stage.Push(kernel.Triple{S: id, P: tmpl.Pred}) {
					break
				}
			}
			kernel.Construct8(tmpl, &stage, &action.Outputs)
		}
		return delta, action, kernel.FaultNone, outcome.TickCost
	}
}

// predicateMatches reports whether every active lane of run carries the
// template's fixed predicate. Pinned runs share one predicate, so a
// mismatch on any lane is a mismatch of the whole run.
func predicateMatches(tmpl *kernel.Construct8Template, run *kernel.PinnedRun) bool {
	if !tmpl.PredFixed {
		return true
	}
	for i := 0; i < int(run.Len); i++ {
		if run.P[i] != tmpl.Pred {
			return false
		}
	}
	return true
}

// guardActivation builds the CEL activation a task's compiled guards
// evaluate against. Only tasks that declare GuardExprs reach this path,
// so the allocation here is bounded by how often a guarded task fires,
// not by every firing the dispatch table ever serves.
func guardActivation(snap *kernel.CaseSnapshot) map[string]interface{} {
	out := make(map[string]interface{}, len(snap.Data))
	for id, v := range snap.Data {
		out[strconv.FormatUint(id, 10)] = v
	}
	return out
}

func translateFault(f patterns.Fault) kernel.FaultKind {
	switch {
	case f&patterns.FaultPreconditionViolated != 0:
		return kernel.FaultPreconditionViolated
	case f&patterns.FaultBudgetExceeded != 0:
		return kernel.FaultBudgetExceeded
	case f&patterns.FaultDataFault != 0:
		return kernel.FaultDataFault
	case f&patterns.FaultMarkingUnderflow != 0:
		return kernel.FaultMarkingUnderflow
	default:
		return kernel.FaultOntologyMismatch
	}
}
