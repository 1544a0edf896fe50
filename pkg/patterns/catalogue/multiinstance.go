package catalogue

import "github.com/jordigilh/ontoengine/pkg/patterns"

// registerMultiInstance wires patterns 12-15: multi-instance without
// synchronisation, with design-time knowledge, with runtime knowledge,
// with no a-priori knowledge.
func registerMultiInstance(t *patterns.Table) {
	t[12] = miWithoutSyncFn()
	t[13] = miDesignTimeFn()
	t[14] = miRuntimeFn()
	t[15] = miNoAprioriFn()
}

func instanceCount(cfg *patterns.TaskConfig) int {
	if cfg.MI == nil {
		return 1
	}
	switch {
	case cfg.MI.DesignTimeN > 0:
		return cfg.MI.DesignTimeN
	case cfg.MI.RuntimeN > 0:
		return cfg.MI.RuntimeN
	default:
		return 1
	}
}

// Condition binding for the synchronised MI patterns (13-15):
// InConditions[0] is the parent in-condition, InConditions[1] the place
// instance completions are observed at (each instance's own task
// deposits there when it finishes), OutConditions[0] the instance place
// spawning deposits to, OutConditions[1] the parent's output once its
// completion rule is met.

// completedOf returns the condition instance completions are observed
// at, or 0 when the task declares no completion tracking.
func completedOf(cfg *patterns.TaskConfig) uint64 {
	if len(cfg.InConditions) > 1 {
		return cfg.InConditions[1]
	}
	return 0
}

// parentOutOf returns the condition the parent deposits to once its
// completion rule is met, or 0 when absent.
func parentOutOf(cfg *patterns.TaskConfig) uint64 {
	if len(cfg.OutConditions) > 1 {
		return cfg.OutConditions[1]
	}
	return 0
}

// miRequired resolves how many instance completions the parent waits
// for under cfg's completion rule, given n spawned instances.
func miRequired(cfg *patterns.TaskConfig, n int) int {
	switch cfg.MI.CompletionRule {
	case patterns.CompletionOne:
		return 1
	case patterns.CompletionThreshold:
		return cfg.MI.Threshold
	default:
		return n
	}
}

// miJoinReady reports whether the parent's completion rule is met: the
// completed-instance place holds at least the required completions.
func miJoinReady(cfg *patterns.TaskConfig, m patterns.Marking, n int) bool {
	completed := completedOf(cfg)
	if completed == 0 {
		return false
	}
	req := miRequired(cfg, n)
	return req > 0 && int(m[completed]) >= req
}

// miJoinFire consumes exactly the required completions and deposits one
// token at the parent's output condition.
func miJoinFire(cfg *patterns.TaskConfig, m patterns.Marking, n int) (patterns.FireOutcome, patterns.Fault) {
	completed := completedOf(cfg)
	req := miRequired(cfg, n)
	if completed == 0 || req <= 0 || int(m[completed]) < req {
		return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
	}
	m.Consume(completed, uint32(req))
	outputs := []uint64{completed}
	if out := parentOutOf(cfg); out != 0 {
		m.Deposit(out, 1)
		outputs = []uint64{out}
	}
	return patterns.FireOutcome{Marking: m, Outputs: outputs, TickCost: 2}, patterns.FaultNone
}

// Pattern 12: MI without synchronisation. Spawns N independent instance
// tokens; no join ever waits on them.
func miWithoutSyncFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			return m[inOf(cfg)] > 0
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			if m[inOf(cfg)] == 0 {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			m.Consume(inOf(cfg), 1)
			n := instanceCount(cfg)
			out := outOf(cfg)
			m.Deposit(out, uint32(n))
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{out}, TickCost: 2}, patterns.FaultNone
		},
	}
}

// Pattern 13: MI with design-time knowledge. N is fixed in the
// specification. Two phases share the one table slot: a token at the
// parent in-condition spawns all N instance tokens at once; with the
// in-condition drained, the parent fires once its completion rule is
// met against the completed-instance place, consuming exactly the
// required completions and depositing the parent's output token.
func miDesignTimeFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			if cfg.MI == nil || cfg.MI.DesignTimeN <= 0 {
				return false
			}
			return m[inOf(cfg)] > 0 || miJoinReady(cfg, m, cfg.MI.DesignTimeN)
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			if cfg.MI == nil || cfg.MI.DesignTimeN <= 0 {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			if m[inOf(cfg)] > 0 {
				m.Consume(inOf(cfg), 1)
				out := outOf(cfg)
				m.Deposit(out, uint32(cfg.MI.DesignTimeN))
				return patterns.FireOutcome{Marking: m, Outputs: []uint64{out}, TickCost: 2}, patterns.FaultNone
			}
			return miJoinFire(cfg, m, cfg.MI.DesignTimeN)
		},
	}
}

// Pattern 14: MI with runtime knowledge. N is resolved at case-start time
// (cfg.MI.RuntimeN), unknown at specification-compile time. Same
// spawn-then-join phases as pattern 13, against the runtime N.
func miRuntimeFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			if cfg.MI == nil || cfg.MI.RuntimeN <= 0 {
				return false
			}
			return m[inOf(cfg)] > 0 || miJoinReady(cfg, m, cfg.MI.RuntimeN)
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			if cfg.MI == nil || cfg.MI.RuntimeN <= 0 {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			if m[inOf(cfg)] > 0 {
				m.Consume(inOf(cfg), 1)
				out := outOf(cfg)
				m.Deposit(out, uint32(cfg.MI.RuntimeN))
				return patterns.FireOutcome{Marking: m, Outputs: []uint64{out}, TickCost: 2}, patterns.FaultNone
			}
			return miJoinFire(cfg, m, cfg.MI.RuntimeN)
		},
	}
}

// Pattern 15: MI with no a-priori knowledge. The creating task may spawn
// further instances one at a time, up to the hard upper bound
// cfg.MI.Bound; exceeding it is a precondition violation, not a silent
// cap. The join side has no declared N: under rule ALL the observed
// completion count stands in for N once no instance can still be live
// (parent in-condition and instance place both empty); ONE and
// THRESHOLD fire on their own counts regardless of live instances.
func miNoAprioriFn() patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			if cfg.MI == nil {
				return false
			}
			if m[inOf(cfg)] > 0 && int(m[outOf(cfg)]) < cfg.MI.Bound {
				return true
			}
			return miJoinReady(cfg, m, miNoAprioriN(cfg, m))
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			if cfg.MI == nil {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			out := outOf(cfg)
			if m[inOf(cfg)] > 0 && int(m[out]) < cfg.MI.Bound {
				m.Consume(inOf(cfg), 1)
				m.Deposit(out, 1)
				return patterns.FireOutcome{Marking: m, Outputs: []uint64{out}, TickCost: 2}, patterns.FaultNone
			}
			return miJoinFire(cfg, m, miNoAprioriN(cfg, m))
		},
	}
}

// miNoAprioriN resolves the effective instance count for a run that
// never declared one: the completions observed so far, valid only once
// no instance can still be live.
func miNoAprioriN(cfg *patterns.TaskConfig, m patterns.Marking) int {
	if m[inOf(cfg)] > 0 || m[outOf(cfg)] > 0 {
		return 0
	}
	return int(m[completedOf(cfg)])
}
