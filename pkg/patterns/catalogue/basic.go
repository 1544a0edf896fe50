package catalogue

import "github.com/jordigilh/ontoengine/pkg/patterns"

// registerBasic wires patterns 1-5: sequence, AND-split, AND-join,
// XOR-split, XOR-join.
func registerBasic(t *patterns.Table) {
	t[1] = sequenceFn()
	t[2] = andSplitFn()
	t[3] = andJoinFn()
	t[4] = xorSplitFn()
	t[5] = xorJoinFn()
}

// Pattern 1: sequence. One in-condition, one out-condition.
func sequenceFn() patterns.PatternFn {
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

// Pattern 2: AND-split. One in-condition fans out to every out-condition.
func andSplitFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			return m[inOf(cfg)] > 0
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			if m[inOf(cfg)] == 0 {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			m.Consume(inOf(cfg), 1)
			depositAll(m, cfg.OutConditions, 1)
			return patterns.FireOutcome{Marking: m, Outputs: cfg.OutConditions, TickCost: 2}, patterns.FaultNone
		},
	}
}

// Pattern 3: AND-join. Fires only once every branch in InConditions has deposited.
func andJoinFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			return canConsumeAll(m, cfg.InConditions, 1)
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			if !canConsumeAll(m, cfg.InConditions, 1) {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			consumeAll(m, cfg.InConditions, 1)
			out := outOf(cfg)
			m.Deposit(out, 1)
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{out}, TickCost: 2}, patterns.FaultNone
		},
	}
}

// Pattern 4: XOR-split. Deposits to exactly one branch: the first entry
// of incoming when the caller has already narrowed it to one id, else
// the task's default out-condition. A task with declared guard
// expressions never reaches Fire at all once its guards fail: the
// Projector's compiled guard table vetoes the firing upstream, before
// Enabled is even consulted, so this function only ever sees markings
// for which the guards already passed.
func xorSplitFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			return m[inOf(cfg)] > 0
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			if m[inOf(cfg)] == 0 {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			m.Consume(inOf(cfg), 1)
			chosen := outOf(cfg)
			if len(incoming) > 0 {
				chosen = incoming[0]
			}
			m.Deposit(chosen, 1)
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{chosen}, TickCost: 1}, patterns.FaultNone
		},
	}
}

// Pattern 5: XOR-join. Any single arriving branch passes straight through.
func xorJoinFn() patterns.PatternFn {
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
