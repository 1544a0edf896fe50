// Package kernel implements the bounded-tick μ-kernel: evaluate() consumes
// a pinned run of at most 8 triples against a compiled pattern dispatch
// table and produces a deterministic action plus receipt within τ≤8
// ticks. Nothing in this package allocates on the firing path; callers
// own all buffers.
package kernel

// Triple is a fixed-width identifier triple. All three components are
// 64-bit hashes of interned IRIs/literals; the kernel never sees strings.
type Triple struct {
	S uint64
	P uint64
	O uint64
}

// PinnedRun is a struct-of-arrays presentation of at most 8 triples
// sharing one predicate. Len is in [0,8]; lanes at index >= Len are
// inactive and must be zero.
type PinnedRun struct {
	S   [8]uint64
	P   [8]uint64
	O   [8]uint64
	Len uint8
}

// Triple returns lane i as a Triple. Callers must not read lanes >= Len.
func (r *PinnedRun) Triple(i int) Triple {
	return Triple{S: r.S[i], P: r.P[i], O: r.O[i]}
}

// Push appends one triple, returning false if the run is already at
// capacity (8 lanes).
func (r *PinnedRun) Push(t Triple) bool {
	if r.Len >= 8 {
		return false
	}
	r.S[r.Len] = t.S
	r.P[r.Len] = t.P
	r.O[r.Len] = t.O
	r.Len++
	return true
}

// Reset clears the run for reuse, zeroing all lanes.
func (r *PinnedRun) Reset() {
	*r = PinnedRun{}
}

// TickBudget is the {limit, used} pair with the invariant used <= limit <= 8.
// Consumption saturates: Consume never drives Used above Limit.
type TickBudget struct {
	Limit uint8
	Used  uint8
}

// Consume adds n ticks, saturating at Limit. It returns false if the
// budget was already exhausted before this call or if adding n would
// exceed Limit (the caller should treat this as BudgetExceeded).
func (b *TickBudget) Consume(n uint8) bool {
	if b.Used >= b.Limit {
		return false
	}
	newUsed := b.Used + n
	exceeded := newUsed > b.Limit
	if exceeded {
		b.Used = b.Limit
	} else {
		b.Used = newUsed
	}
	return !exceeded
}

// Exceeded reports whether Used has reached Limit.
func (b TickBudget) Exceeded() bool {
	return b.Used >= b.Limit
}

// FaultKind is the closed set of hot-path failure kinds. Hot-path faults
// are never Go errors; they are encoded into the Receipt's Fault field
// and OR-ed into the fault mask during validation.
type FaultKind uint32

const (
	FaultNone FaultKind = 0

	// FaultPreconditionViolated: pattern's enabling predicate was false.
	FaultPreconditionViolated FaultKind = 1 << iota
	// FaultBudgetExceeded: ticks_used would exceed limit.
	FaultBudgetExceeded
	// FaultDataFault: data mapping or local-variable evaluation failed.
	FaultDataFault
	// FaultMarkingUnderflow: firing would drive a condition below zero tokens.
	FaultMarkingUnderflow
	// FaultOntologyMismatch: receipt references a pattern/expectation absent from Σ.
	FaultOntologyMismatch
)

// String renders a single fault kind by name, "none" for FaultNone, or
// "multiple" when more than one fault bit is set.
func (f FaultKind) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultPreconditionViolated:
		return "precondition_violated"
	case FaultBudgetExceeded:
		return "budget_exceeded"
	case FaultDataFault:
		return "data_fault"
	case FaultMarkingUnderflow:
		return "marking_underflow"
	case FaultOntologyMismatch:
		return "ontology_mismatch"
	}
	return "multiple"
}

// Action is the deterministic outcome of one firing: the set of output
// triples CONSTRUCT8 produced (if any) plus a hash over the pattern id,
// input run, marking delta, and those output triples.
// The kernel never inspects Action contents beyond hashing them; the
// marking delta itself is applied by the pattern net (pkg/patterns), one
// layer up.
type Action struct {
	Outputs    PinnedRun
	ActionHash [32]byte
}

// Receipt is the canonical, auditable record of one firing.
type Receipt struct {
	CaseID      uint64
	SpecID      uint64
	PatternID   uint8
	ActionHash  [32]byte
	TicksUsed   uint8
	SpanID      uint64
	TraceID     uint64
	TimestampNS int64
	CycleID     uint64
	ShardID     uint32
	Fault       FaultKind
	MerkleProof []byte
}

// ReceiptHash computes the deterministic receipt hash over CaseID,
// SpecID, PatternID, ActionHash, TicksUsed, Fault, and ShardID. The
// span/trace identifiers, TimestampNS, CycleID, and MerkleProof are left
// out, since they vary by call site or clock reading rather than by the
// firing's actual inputs.
func (r Receipt) ReceiptHash() [32]byte {
	return hashReceipt(r)
}
