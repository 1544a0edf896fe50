package patterns

import "fmt"

// FireOutcome is a pattern firing's result: the marking after the
// firing, the set of condition ids newly enabled downstream, and the
// tick cost the kernel should charge against the firing's budget.
type FireOutcome struct {
	Marking  Marking
	Outputs  []uint64
	TickCost uint8
}

// Fault mirrors pkg/kernel's fault taxonomy at the pattern-net layer.
// Patterns return it instead of a Go error so the kernel can fold it
// straight into a receipt without an error-to-fault translation step.
type Fault uint32

const (
	FaultNone Fault = 0
	FaultPreconditionViolated Fault = 1 << iota
	FaultBudgetExceeded
	FaultDataFault
	FaultMarkingUnderflow
)

// PatternFn is the uniform contract every one of the 43 patterns
// satisfies: given the task's static config, the current marking, and
// the incoming token set, decide enablement and, if enabled, fire.
//
//   - Enabled reports whether the task may fire given m and incoming.
//   - Fire performs the transformation; callers must call Enabled first.
//   - CancelScope returns the condition/task ids a region cancellation
//     clears when this task is the target (empty for non-region patterns).
type PatternFn struct {
	Enabled     func(cfg *TaskConfig, m Marking, incoming []uint64) bool
	Fire        func(cfg *TaskConfig, m Marking, incoming []uint64, data map[uint64][]byte) (FireOutcome, Fault)
	CancelScope func(cfg *TaskConfig) []uint64
}

// Table is the pattern-net layer's own dispatch table, indexed 1..43,
// mirroring pkg/kernel.DispatchTable's shape at this layer. The
// Projector populates both tables from the same catalogue entries.
type Table [44]PatternFn

// Lookup returns the PatternFn for id, erroring for ids outside [1,43]
// or ids the table leaves unpopulated (an OntologyMismatch at the
// kernel layer; here just a plain error since patterns is a leaf that
// never talks in kernel.FaultKind terms).
func (t *Table) Lookup(id uint8) (PatternFn, error) {
	if id == 0 || id > 43 {
		return PatternFn{}, fmt.Errorf("patterns: pattern id %d out of range [1,43]", id)
	}
	fn := t[id]
	if fn.Fire == nil {
		return PatternFn{}, fmt.Errorf("patterns: pattern id %d not registered", id)
	}
	return fn, nil
}
