package catalogue

import "github.com/jordigilh/ontoengine/pkg/patterns"

// registerBranching wires patterns 6-11: OR-split, structured
// synchronising merge, multi-merge, discriminator, arbitrary cycles,
// implicit termination.
func registerBranching(t *patterns.Table) {
	t[6] = orSplitFn()
	t[7] = structuredSyncMergeFn()
	t[8] = multiMergeFn()
	t[9] = discriminatorFn()
	t[10] = arbitraryCyclesFn()
	t[11] = implicitTerminationFn()
}

// Pattern 6: OR-split. Deposits to whichever subset of out-conditions
// incoming names (the run's subject lanes), or to every out-condition
// when incoming is empty.
func orSplitFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			return m[inOf(cfg)] > 0
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			if m[inOf(cfg)] == 0 {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			m.Consume(inOf(cfg), 1)
			branches := incoming
			if len(branches) == 0 {
				branches = cfg.OutConditions
			}
			depositAll(m, branches, 1)
			return patterns.FireOutcome{Marking: m, Outputs: branches, TickCost: 2}, patterns.FaultNone
		},
	}
}

// Pattern 7: structured synchronising merge. Joins only the branches the
// upstream OR-split actually enabled (incoming), not the task's full
// static InConditions set. Tick cost scales with the decomposition's
// join arity: a pathological (wide) decomposition can legitimately
// saturate the tick budget (scenario E).
func structuredSyncMergeFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			active := incoming
			if len(active) == 0 {
				active = cfg.InConditions
			}
			return canConsumeAll(m, active, 1)
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			active := incoming
			if len(active) == 0 {
				active = cfg.InConditions
			}
			if !canConsumeAll(m, active, 1) {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			consumeAll(m, active, 1)
			out := outOf(cfg)
			m.Deposit(out, 1)
			arity := cfg.JoinArity
			if arity == 0 {
				arity = len(active)
			}
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{out}, TickCost: uint8clamp(2 + arity)}, patterns.FaultNone
		},
	}
}

// Pattern 8: multi-merge. Every arriving branch passes through
// independently; unlike XOR-join this does not withdraw siblings.
func multiMergeFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			_, ok := firstEnabled(m, cfg.InConditions)
			return ok
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			branch, ok := firstEnabled(m, cfg.InConditions)
			if !ok {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			m.Consume(branch, 1)
			out := outOf(cfg)
			m.Deposit(out, 1)
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{out}, TickCost: 1}, patterns.FaultNone
		},
	}
}

// Pattern 9: discriminator. Fires on the first completing branch; later
// arrivals on other branches are drained silently (no further deposit).
func discriminatorFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			_, ok := firstEnabled(m, cfg.InConditions)
			return ok
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			branch, ok := firstEnabled(m, cfg.InConditions)
			if !ok {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			m.Consume(branch, 1)
			out := outOf(cfg)
			m.Deposit(out, 1)
			// Silently drain any sibling branches that have also arrived.
			for _, id := range cfg.InConditions {
				if id != branch {
					delete(m, id)
				}
			}
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{out}, TickCost: 2}, patterns.FaultNone
		},
	}
}

// Pattern 10: arbitrary cycles. Structurally identical to sequence; the
// cycle itself is a property of the net topology (pkg/patterns.Arena),
// not of this firing function — a loop exists when OutConditions[0]
// equals one of the task's own InConditions.
func arbitraryCyclesFn() patterns.PatternFn {
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
			m.Deposit(out, 1)
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{out}, TickCost: 1}, patterns.FaultNone
		},
	}
}

// Pattern 11: implicit termination. Enabled once the task's in-condition
// holds a token and it has no declared out-conditions (nothing further
// to route to); firing consumes the token and produces no output.
func implicitTerminationFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			return m[inOf(cfg)] > 0 && len(cfg.OutConditions) == 0
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			if m[inOf(cfg)] == 0 {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			m.Consume(inOf(cfg), 1)
			return patterns.FireOutcome{Marking: m, TickCost: 1}, patterns.FaultNone
		},
	}
}

func uint8clamp(n int) uint8 {
	if n > 255 {
		return 255
	}
	if n < 0 {
		return 0
	}
	return uint8(n)
}
