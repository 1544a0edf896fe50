package catalogue

import "github.com/jordigilh/ontoengine/pkg/patterns"

// registerAdvanced wires patterns 26-39: critical section, interleaved
// routing, thread split/merge, the partial-join family, the
// synchronizing-merge family, and the discriminator family's cancelling
// variants. All fourteen are variants of the join/split primitives
// shared with patterns 2-9, distinguished by JoinArity, Threshold, and
// Region configuration rather than by separate firing logic.
func registerAdvanced(t *patterns.Table) {
	t[26] = criticalSectionFn()
	t[27] = threadSplitFn()
	t[28] = threadMergeFn()
	t[29] = staticPartialJoinFn()
	t[30] = cancellingPartialJoinFn()
	t[31] = dynamicPartialJoinFn()
	t[32] = generalizedAndJoinFn()
	t[33] = localSynchronizingMergeFn()
	t[34] = generalSynchronizingMergeFn()
	t[35] = acyclicSynchronizingMergeFn()
	t[36] = blockingDiscriminatorFn()
	t[37] = cancellingDiscriminatorFn()
	t[38] = structuredLoopFn()
	t[39] = persistentTriggerGateFn()
}

// Pattern 26: critical section. A region of tasks that may hold at most
// one live token at a time; firing requires the shared lock condition
// (InConditions[1]) to be free.
func criticalSectionFn() patterns.PatternFn {
	return interleavedLockVariant(2)
}

// Pattern 27: thread split. Fires like AND-split: one token from the
// in-condition, one token deposited to every out-condition. It seeds no
// separate counter condition.
func threadSplitFn() patterns.PatternFn {
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

// Pattern 28: thread merge. Fires once at least JoinArity in-conditions
// (all of them when JoinArity is 0) hold a token, consuming one token
// from exactly that many.
func threadMergeFn() patterns.PatternFn {
	return thresholdJoinVariant(func(cfg *patterns.TaskConfig) int {
		if cfg.JoinArity > 0 {
			return cfg.JoinArity
		}
		return len(cfg.InConditions)
	}, 2)
}

// Pattern 29: static partial join. Threshold k is fixed in the
// specification (cfg.Threshold).
func staticPartialJoinFn() patterns.PatternFn {
	return thresholdJoinVariant(func(cfg *patterns.TaskConfig) int { return cfg.Threshold }, 2)
}

// Pattern 30: cancelling partial join. Like static partial join, but
// once the threshold is met this same firing drains every token left on
// the in-conditions and reports each drained token as an output after
// the join's own output condition.
func cancellingPartialJoinFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			return countEnabled(m, cfg.InConditions) >= threshold(cfg)
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			k := threshold(cfg)
			if countEnabled(m, cfg.InConditions) < k {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			consumed := 0
			for _, id := range cfg.InConditions {
				if consumed >= k {
					break
				}
				if m[id] > 0 {
					m.Consume(id, 1)
					consumed++
				}
			}
			cancelled := drainRegion(m, cfg.InConditions)
			out := outOf(cfg)
			m.Deposit(out, 1)
			return patterns.FireOutcome{Marking: m, Outputs: append([]uint64{out}, cancelled...), TickCost: 3}, patterns.FaultNone
		},
		CancelScope: cancelScopeFn,
	}
}

// Pattern 32: generalized-and-join. Like AND-join, but tolerates
// multiple tokens arriving on the same branch before firing (counts
// are consumed per configured JoinArity rather than a flat 1).
func generalizedAndJoinFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			n := uint32(joinArityOrOne(cfg))
			return canConsumeAll(m, cfg.InConditions, n)
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			n := uint32(joinArityOrOne(cfg))
			if !canConsumeAll(m, cfg.InConditions, n) {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			consumeAll(m, cfg.InConditions, n)
			out := outOf(cfg)
			m.Deposit(out, 1)
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{out}, TickCost: 3}, patterns.FaultNone
		},
	}
}

// Pattern 31: dynamic partial join. Threshold is resolved at runtime
// (cfg.Threshold, set by the case's MI/runtime binding rather than the
// static specification). Fires when the configured threshold of
// branches has completed.
func dynamicPartialJoinFn() patterns.PatternFn {
	return thresholdJoinVariant(func(cfg *patterns.TaskConfig) int { return threshold(cfg) }, 2)
}

// Pattern 33: local synchronizing merge. Synchronizes only the branches
// reachable from the nearest enclosing OR-split (incoming), like pattern
// 7, but without the pathological-arity tick scaling (fixed cost).
func localSynchronizingMergeFn() patterns.PatternFn {
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
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{out}, TickCost: 2}, patterns.FaultNone
		},
	}
}

// Pattern 34: general synchronizing merge. Synchronizes across the
// whole case's reachability graph rather than one decomposition level;
// modeled here as joining every InConditions entry regardless of
// incoming, the broadest of the merge family.
func generalSynchronizingMergeFn() patterns.PatternFn {
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

// Pattern 35: acyclic synchronizing merge. Fires exactly like pattern
// 34. No cycle check is made, neither by this firing nor by the
// Projector; a net where an in-condition lies on a cycle is not refused.
func acyclicSynchronizingMergeFn() patterns.PatternFn {
	return generalSynchronizingMergeFn()
}

// Pattern 36: blocking discriminator. Like the discriminator (9), but
// will not re-arm for a second firing until externally reset — modeled
// as refusing to fire while OutConditions[0] still holds a token; it
// re-arms only once something downstream consumes that token.
func blockingDiscriminatorFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			if m[outOf(cfg)] > 0 {
				return false
			}
			_, ok := firstEnabled(m, cfg.InConditions)
			return ok
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			if m[outOf(cfg)] > 0 {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			branch, ok := firstEnabled(m, cfg.InConditions)
			if !ok {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			m.Consume(branch, 1)
			out := outOf(cfg)
			m.Deposit(out, 1)
			for _, id := range cfg.InConditions {
				if id != branch {
					delete(m, id)
				}
			}
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{out}, TickCost: 2}, patterns.FaultNone
		},
	}
}

// Pattern 37: cancelling discriminator. Like the discriminator, but also
// reports the cancelled siblings as outputs (one cancellation receipt
// per drained branch) instead of dropping them silently.
func cancellingDiscriminatorFn() patterns.PatternFn {
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
			siblings := make([]uint64, 0, len(cfg.InConditions))
			for _, id := range cfg.InConditions {
				if id != branch {
					siblings = append(siblings, id)
				}
			}
			cancelled := drainRegion(m, siblings)
			out := outOf(cfg)
			m.Deposit(out, 1)
			return patterns.FireOutcome{Marking: m, Outputs: append([]uint64{out}, cancelled...), TickCost: 2}, patterns.FaultNone
		},
		CancelScope: cancelScopeFn,
	}
}

// Pattern 38: structured loop. A sequence variant whose out-condition
// may equal an in-condition (modeling while/repeat-until), distinguished
// from pattern 10 (arbitrary cycles) by being confined to a single
// structured back-edge rather than an unrestricted net topology.
func structuredLoopFn() patterns.PatternFn {
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

// Pattern 39: persistent trigger gate. An advanced-control variant that
// gates a downstream task on a persistent condition (cfg.InConditions[1])
// without consuming it — structurally a milestone restricted to the
// advanced-control group's naming, included here to complete the 26-39
// range while patterns/triggers.go owns patterns 40-43 proper.
func persistentTriggerGateFn() patterns.PatternFn {
	return milestoneFn()
}

func interleavedLockVariant(tick uint8) patterns.PatternFn {
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
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{out}, TickCost: tick}, patterns.FaultNone
		},
	}
}

func threshold(cfg *patterns.TaskConfig) int {
	if cfg.Threshold > 0 {
		return cfg.Threshold
	}
	return len(cfg.InConditions)
}

func joinArityOrOne(cfg *patterns.TaskConfig) int {
	if cfg.JoinArity > 0 {
		return cfg.JoinArity
	}
	return 1
}

// thresholdJoinVariant builds a PatternFn that fires once at least k
// (from thresholdFn) of InConditions hold a token, consuming exactly k
// of them and depositing once to OutConditions[0].
func thresholdJoinVariant(thresholdFn func(*patterns.TaskConfig) int, tick uint8) patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			return countEnabled(m, cfg.InConditions) >= thresholdFn(cfg)
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			k := thresholdFn(cfg)
			if countEnabled(m, cfg.InConditions) < k {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			consumed := 0
			for _, id := range cfg.InConditions {
				if consumed >= k {
					break
				}
				if m[id] > 0 {
					m.Consume(id, 1)
					consumed++
				}
			}
			out := outOf(cfg)
			m.Deposit(out, 1)
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{out}, TickCost: tick}, patterns.FaultNone
		},
	}
}
