// Package patterns implements the pattern-net layer (L3'): the 43
// workflow control-flow patterns as state transformers over a case's
// token marking, plus the case and workflow-specification types they
// operate on. This package is a sibling of pkg/kernel, not a dependent
// of it — both sit at the same layer in the dependency order
// Σ ← Π ← (kernel, pattern nets) ← observation ← governor.
package patterns

// Marking maps a condition identifier to its current token count.
type Marking map[uint64]uint32

// Clone returns an independent copy of the marking.
func (m Marking) Clone() Marking {
	out := make(Marking, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Consume removes n tokens from condition id, reporting MarkingUnderflow
// (returned as ok=false) if that would drive the count below zero.
func (m Marking) Consume(id uint64, n uint32) bool {
	if m[id] < n {
		return false
	}
	m[id] -= n
	if m[id] == 0 {
		delete(m, id)
	}
	return true
}

// Deposit adds n tokens to condition id.
func (m Marking) Deposit(id uint64, n uint32) {
	m[id] += n
}

// CaseState is a case's lifecycle state.
type CaseState string

const (
	CaseEnabled   CaseState = "Enabled"
	CaseExecuting CaseState = "Executing"
	CaseSuspended CaseState = "Suspended"
	CaseCancelled CaseState = "Cancelled"
	CaseCompleted CaseState = "Completed"
	CaseFailed    CaseState = "Failed"
)

// IsTerminal reports whether no transitions may originate from this state.
func (s CaseState) IsTerminal() bool {
	return s == CaseCancelled || s == CaseCompleted
}

// Case is a workflow instance.
type Case struct {
	ID      uint64
	SpecID  uint64
	Marking Marking
	Data    map[uint64][]byte
	State   CaseState
	Epoch   uint64
}

// CompletionRule governs when a multi-instance parent fires relative to
// its instances, and independently when a dynamic partial join fires
// relative to its branches.
type CompletionRule uint8

const (
	CompletionAll CompletionRule = iota
	CompletionOne
	CompletionThreshold
)

// MIParams are a multi-instance task's static configuration.
type MIParams struct {
	Bound          int            // hard upper bound on spawned instances
	CompletionRule CompletionRule
	Threshold      int // meaningful only when CompletionRule == CompletionThreshold
	DesignTimeN    int // instance count known at design time; 0 if not design-time
	RuntimeN       int // instance count resolved at case start; 0 if not runtime-bound
	NoAPriori      bool
}

// RegionInfo names a cancellation region's member tasks and conditions.
type RegionInfo struct {
	ID           string
	TaskIDs      []uint32
	ConditionIDs []uint64
}

// TaskConfig is one task's static, Projector-compiled configuration: the
// parameters that differentiate pattern variants sharing the same
// PatternID (join arity, threshold, region membership, MI bounds, guard
// list). Patterns are parameterized state transformers over this
// config, not 43 hand-written special cases.
type TaskConfig struct {
	ID               uint32
	PatternID        uint8
	InConditions     []uint64 // conditions this task consumes from
	OutConditions    []uint64 // conditions this task deposits to
	JoinArity        int      // number of branches an AND/OR/structured join expects
	Threshold        int      // k for discriminator/partial-join/THRESHOLD completion
	Region           *RegionInfo
	MI               *MIParams
	DecompositionRef *uint64 // subnet specification identity, if this task decomposes
	GuardExprs       []string
	TimerBindingMS   int64
	TriggerKind      TriggerKind
}

// TriggerKind distinguishes the four trigger variants (patterns 40-43).
type TriggerKind uint8

const (
	TriggerNone TriggerKind = iota
	TriggerTransientOneOff
	TriggerTransientRepeated
	TriggerPersistentOneOff
	TriggerPersistentRepeated
)

// WorkflowSpecification is the immutable task/condition graph a case runs against.
type WorkflowSpecification struct {
	ID         uint64
	Tasks      map[uint32]TaskConfig
	Conditions map[uint64]uint32 // condition id -> static multiplicity bound
	Regions    map[string]RegionInfo
}
