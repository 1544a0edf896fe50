package catalogue

import "github.com/jordigilh/ontoengine/pkg/patterns"

// registerStateBased wires patterns 16-18: deferred choice, interleaved
// parallel routing, milestone.
func registerStateBased(t *patterns.Table) {
	t[16] = deferredChoiceFn()
	t[17] = interleavedParallelRoutingFn()
	t[18] = milestoneFn()
}

// Pattern 16: deferred choice. The first environmental event that would
// enable any branch commits the case to that branch; incoming[0] names
// the branch the event selected. All other branches are withdrawn
// atomically — modeled as simply never depositing to them.
func deferredChoiceFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			return m[inOf(cfg)] > 0 && len(incoming) > 0
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			if m[inOf(cfg)] == 0 || len(incoming) == 0 {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			m.Consume(inOf(cfg), 1)
			chosen := incoming[0]
			m.Deposit(chosen, 1)
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{chosen}, TickCost: 1}, patterns.FaultNone
		},
	}
}

// Pattern 17: interleaved parallel routing. Tasks in the region execute
// one at a time; cfg.InConditions[1], when present, is a shared
// mutual-exclusion lock condition that must hold a token before this
// task may fire, and is released (re-deposited) on completion.
func interleavedParallelRoutingFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			if m[inOf(cfg)] == 0 {
				return false
			}
			if len(cfg.InConditions) > 1 {
				return m[cfg.InConditions[1]] > 0
			}
			return true
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			if m[inOf(cfg)] == 0 {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			var lock uint64
			hasLock := len(cfg.InConditions) > 1
			if hasLock {
				lock = cfg.InConditions[1]
				if m[lock] == 0 {
					return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
				}
				m.Consume(lock, 1)
			}
			m.Consume(inOf(cfg), 1)
			out := outOf(cfg)
			m.Deposit(out, 1)
			if hasLock {
				m.Deposit(lock, 1)
			}
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{out}, TickCost: 2}, patterns.FaultNone
		},
	}
}

// Pattern 18: milestone. Enabled only while a designated milestone
// condition (cfg.InConditions[1]) holds a token; that token is a shared
// guard, not a regular input, and is never consumed by this firing.
func milestoneFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			if m[inOf(cfg)] == 0 {
				return false
			}
			if len(cfg.InConditions) > 1 {
				return m[cfg.InConditions[1]] > 0
			}
			return true
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			if m[inOf(cfg)] == 0 {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			if len(cfg.InConditions) > 1 && m[cfg.InConditions[1]] == 0 {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			m.Consume(inOf(cfg), 1)
			out := outOf(cfg)
			m.Deposit(out, 1)
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{out}, TickCost: 1}, patterns.FaultNone
		},
	}
}
