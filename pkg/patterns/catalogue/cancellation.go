package catalogue

import (
	"sort"

	"github.com/jordigilh/ontoengine/pkg/patterns"
)

// registerCancellation wires patterns 19-25: cancel task, cancel region
// (scenario D's numbering), cancel case, cancel MI activity, and their
// three compensation variants.
func registerCancellation(t *patterns.Table) {
	t[19] = cancelTaskFn()
	t[20] = cancelRegionFn()
	t[21] = cancelCaseFn()
	t[22] = cancelMIActivityFn()
	t[23] = compensateTaskFn()
	t[24] = compensateCaseFn()
	t[25] = compensateRegionFn()
}

func regionConditions(cfg *patterns.TaskConfig) []uint64 {
	if cfg.Region != nil {
		return cfg.Region.ConditionIDs
	}
	return cfg.InConditions
}

func cancelScopeFn(cfg *patterns.TaskConfig) []uint64 {
	return regionConditions(cfg)
}

// Pattern 19: cancel task. Drains a single task's in-condition; every
// token removed is reported as an output entry (one cancellation
// receipt per token, matching the region accounting in scenario D).
func cancelTaskFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			return m[inOf(cfg)] > 0
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			removed := drainRegion(m, []uint64{inOf(cfg)})
			return patterns.FireOutcome{Marking: m, Outputs: removed, TickCost: 1}, patterns.FaultNone
		},
		CancelScope: cancelScopeFn,
	}
}

// Pattern 20: cancel region. One firing drains exactly one token from
// the task's declared region; draining a region that holds n live
// tokens therefore takes n consecutive firings against the same task.
// This is deliberate, not an optimization left for later: the kernel's
// evaluate() produces exactly one receipt per firing, and the region-
// cancellation accounting requires one cancellation receipt per
// cancelled token (scenario D: three tokens in R yield three receipts,
// never one receipt bundling all three removals), so the fan-out has
// to live in how many times this pattern fires, not in how many
// outputs one firing reports. Enabled keeps returning true, and a
// further Fire keeps finding a token to drain, until the region is
// empty; the caller drives the repetition the same way it drives any
// other multi-step completion.
func cancelRegionFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			_, ok := firstEnabled(m, regionConditions(cfg))
			return ok
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			id, ok := firstEnabled(m, regionConditions(cfg))
			if !ok {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			m.Consume(id, 1)
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{id}, TickCost: 1}, patterns.FaultNone
		},
		CancelScope: cancelScopeFn,
	}
}

// Pattern 21: cancel case. Same one-token-per-firing contract as cancel
// region, scoped to every condition currently live anywhere in the
// case rather than to one declared region.
func cancelCaseFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			_, ok := firstLiveID(m)
			return ok
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			id, ok := firstLiveID(m)
			if !ok {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			m.Consume(id, 1)
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{id}, TickCost: 1}, patterns.FaultNone
		},
		CancelScope: cancelScopeFn,
	}
}

// Pattern 22: cancel MI activity. Cancels exactly one running instance
// without affecting its siblings: consumes one instance token and
// decrements the parent's outstanding-instance counter.
func cancelMIActivityFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			return m[inOf(cfg)] > 0
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			if m[inOf(cfg)] == 0 {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			m.Consume(inOf(cfg), 1)
			out := outOf(cfg)
			if out != 0 {
				m.Consume(out, 1)
			}
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{inOf(cfg)}, TickCost: 1}, patterns.FaultNone
		},
	}
}

// Pattern 23: compensate task. Like cancel task, but also deposits a
// compensation-ran marker at OutConditions[0].
func compensateTaskFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			return m[inOf(cfg)] > 0
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			removed := drainRegion(m, []uint64{inOf(cfg)})
			out := outOf(cfg)
			if out != 0 {
				m.Deposit(out, 1)
			}
			return patterns.FireOutcome{Marking: m, Outputs: append(removed, out), TickCost: 2}, patterns.FaultNone
		},
		CancelScope: cancelScopeFn,
	}
}

// Pattern 24: compensate case. Unlike cancel case, drains every token in
// the case in one firing (reporting each as an output), then deposits a
// compensation-ran marker at OutConditions[0].
func compensateCaseFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			return len(m) > 0
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			ids := make([]uint64, 0, len(m))
			for id := range m {
				ids = append(ids, id)
			}
			// Drain order must not inherit the map's randomized iteration
			// order: replays of the same compensation report identical
			// output order.
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			removed := drainRegion(m, ids)
			out := outOf(cfg)
			if out != 0 {
				m.Deposit(out, 1)
			}
			return patterns.FireOutcome{Marking: m, Outputs: append(removed, out), TickCost: 3}, patterns.FaultNone
		},
		CancelScope: cancelScopeFn,
	}
}

// Pattern 25: compensate region. Unlike cancel region, drains every token
// in the region in one firing (reporting each as an output), then
// deposits a compensation-ran marker at OutConditions[0].
func compensateRegionFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			return len(regionConditions(cfg)) > 0
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			ids := regionConditions(cfg)
			if len(ids) == 0 {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			removed := drainRegion(m, ids)
			out := outOf(cfg)
			if out != 0 {
				m.Deposit(out, 1)
			}
			return patterns.FireOutcome{Marking: m, Outputs: append(removed, out), TickCost: 3}, patterns.FaultNone
		},
		CancelScope: cancelScopeFn,
	}
}
