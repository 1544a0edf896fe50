package catalogue

import "github.com/jordigilh/ontoengine/pkg/patterns"

// registerTriggers wires patterns 40-43: transient one-off, transient
// repeated, persistent one-off, persistent repeated.
func registerTriggers(t *patterns.Table) {
	t[40] = triggerFn(false, false)
	t[41] = triggerFn(false, true)
	t[42] = triggerFn(true, false)
	t[43] = triggerFn(true, true)
}

// triggerFn builds the four trigger variants from two axes:
//
//   - persistent: if false (transient), the trigger is lost when no
//     listener (cfg.InConditions[1]) currently holds a token; if true,
//     the pulse is held until a listener arrives.
//   - repeated: if true, firing re-arms the trigger condition for a
//     subsequent occurrence instead of consuming it permanently.
func triggerFn(persistent, repeated bool) patterns.PatternFn {
	return patterns.PatternFn{
		Enabled: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64) bool {
			pulse := inOf(cfg)
			if m[pulse] == 0 {
				return false
			}
			if !persistent && len(cfg.InConditions) > 1 && m[cfg.InConditions[1]] == 0 {
				return false
			}
			return true
		},
		Fire: func(cfg *patterns.TaskConfig, m patterns.Marking, incoming []uint64, data map[uint64][]byte) (patterns.FireOutcome, patterns.Fault) {
			pulse := inOf(cfg)
			if m[pulse] == 0 {
				return patterns.FireOutcome{}, patterns.FaultPreconditionViolated
			}
			hasListener := len(cfg.InConditions) > 1 && m[cfg.InConditions[1]] > 0
			if !persistent && !hasListener {
				// Transient trigger with nobody listening: the pulse is
				// lost, not an error — consume it and produce no output.
				m.Consume(pulse, 1)
				return patterns.FireOutcome{Marking: m, TickCost: 1}, patterns.FaultNone
			}
			m.Consume(pulse, 1)
			out := outOf(cfg)
			m.Deposit(out, 1)
			if repeated {
				m.Deposit(pulse, 1)
			}
			return patterns.FireOutcome{Marking: m, Outputs: []uint64{out}, TickCost: 1}, patterns.FaultNone
		},
	}
}
