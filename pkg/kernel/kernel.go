package kernel

import "crypto/sha256"

// MaxPatternID is the highest defined pattern identifier.
const MaxPatternID = 43

// ConditionDelta names one condition and the token count to move.
type ConditionDelta struct {
	ConditionID uint64
	Count       uint32
}

// MarkingDelta is the set of consume/deposit operations a pattern firing
// produces. The kernel never applies a delta itself; it is returned to
// the pattern net layer (pkg/patterns) which owns the marking.
type MarkingDelta struct {
	Consume []ConditionDelta
	Deposit []ConditionDelta
}

// CaseSnapshot is the minimal view of a case the kernel needs to
// evaluate one firing. It intentionally does not depend on pkg/patterns'
// richer Case/Marking types, keeping the kernel a leaf package.
type CaseSnapshot struct {
	CaseID        uint64
	SpecID        uint64
	TaskID        uint32
	MarkingCounts map[uint64]uint32
	Data          map[uint64][]byte
}

// PatternFn is the uniform contract every pattern in
// pkg/patterns/catalogue satisfies: consume the snapshot, the pinned
// run, and the remaining budget; produce a marking delta, an action,
// and a fault mask. tick reports the ticks this firing consumed.
// scratch is the caller's reusable FiringScratch — the only buffer a
// conforming PatternFn may write through; it must never call make() or
// grow a slice it allocated itself.
type PatternFn func(snap *CaseSnapshot, run *PinnedRun, budget *TickBudget, scratch *FiringScratch) (delta MarkingDelta, action Action, fault FaultKind, tick uint8)

// DispatchTable is indexed 1..43 by pattern id; index 0 is unused. It is
// built once by the Projector and never mutated on the hot path, hence
// passed by pointer and never copied per firing.
type DispatchTable [MaxPatternID + 1]PatternFn

// TickSource abstracts a hardware cycle counter. Production wiring
// (MonotonicTickSource) returns unscaled time.Now().UnixNano() readings;
// this engine targets no specific CPU so no cgo RDTSC binding is introduced.
type TickSource interface {
	Now() uint64
}

// validate collapses all admission checks into a single bitwise-OR fault
// mask, matching the branchless-validation discipline: one gate, not a
// chain of early returns.
func validate(table *DispatchTable, patternID uint8) FaultKind {
	var faults FaultKind
	outOfRange := patternID == 0 || patternID > MaxPatternID
	faults |= boolMask(outOfRange, FaultOntologyMismatch)
	if !outOfRange && table[patternID] == nil {
		faults |= FaultOntologyMismatch
	}
	return faults
}

func boolMask(cond bool, f FaultKind) FaultKind {
	if cond {
		return f
	}
	return 0
}

// Evaluate is the μ-kernel's sole hot-path entry point:
// evaluate(case_snapshot, pinned_run, pattern_id, budget) -> (action, receipt).
//
// It is deterministic and idempotent for a fixed (snap, run, patternID)
// against a fixed dispatch table: same inputs produce bit-identical
// Action and Receipt.TicksUsed. Evaluate itself never allocates, and a
// conforming dispatch table entry only ever writes through the caller-
// owned scratch, so a caller that reuses the same scratch across
// firings sees no further heap growth once scratch's buffers have
// warmed up to the marking's working size. The returned MarkingDelta
// aliases scratch's buffers: a caller must apply or copy it before
// making another Evaluate call against the same scratch.
func Evaluate(
	table *DispatchTable,
	snap *CaseSnapshot,
	run *PinnedRun,
	patternID uint8,
	budget TickBudget,
	ts TickSource,
	shardID uint32,
	scratch *FiringScratch,
) (MarkingDelta, Action, Receipt) {
	cycleStart := ts.Now()

	faults := validate(table, patternID)
	if faults != 0 {
		return MarkingDelta{}, Action{}, Receipt{
			CaseID:      snap.CaseID,
			SpecID:      snap.SpecID,
			PatternID:   patternID,
			TicksUsed:   0,
			TimestampNS: int64(cycleStart),
			CycleID:     cycleStart,
			ShardID:     shardID,
			Fault:       faults,
		}
	}

	if run.Len == 0 {
		// Empty run: no action, non-error receipt with ticks_used=0.
		return MarkingDelta{}, Action{}, Receipt{
			CaseID:      snap.CaseID,
			SpecID:      snap.SpecID,
			PatternID:   patternID,
			TicksUsed:   0,
			TimestampNS: int64(cycleStart),
			CycleID:     cycleStart,
			ShardID:     shardID,
		}
	}

	delta, action, fnFault, tick := table[patternID](snap, run, &budget, scratch)

	ok := budget.Consume(tick)
	used := budget.Used
	fault := fnFault
	if !ok {
		fault |= FaultBudgetExceeded
		used = budget.Limit
	}

	if fault == FaultNone {
		action.ActionHash = hashAction(patternID, run, delta, &action.Outputs)
	}

	receipt := Receipt{
		CaseID:      snap.CaseID,
		SpecID:      snap.SpecID,
		PatternID:   patternID,
		ActionHash:  action.ActionHash,
		TicksUsed:   used,
		TimestampNS: int64(cycleStart),
		CycleID:     cycleStart,
		ShardID:     shardID,
		Fault:       fault,
	}
	return delta, action, receipt
}

// hashAction computes a deterministic action hash over the full canonical
// encoding of the action: the pattern id, input run, resulting marking
// delta, and the emitted output triples. Field order is fixed so the
// encoding is stable across Go versions and map-iteration order never
// leaks in (Consume/Deposit are encoded as ordered slices, not maps).
func hashAction(patternID uint8, run *PinnedRun, delta MarkingDelta, outputs *PinnedRun) [32]byte {
	h := sha256.New()
	h.Write([]byte{patternID})
	for i := 0; i < int(run.Len); i++ {
		writeUint64(h, run.S[i])
		writeUint64(h, run.P[i])
		writeUint64(h, run.O[i])
	}
	for _, c := range delta.Consume {
		h.Write([]byte("C"))
		writeUint64(h, c.ConditionID)
		writeUint64(h, uint64(c.Count))
	}
	for _, d := range delta.Deposit {
		h.Write([]byte("D"))
		writeUint64(h, d.ConditionID)
		writeUint64(h, uint64(d.Count))
	}
	for i := 0; i < int(outputs.Len); i++ {
		h.Write([]byte("O"))
		writeUint64(h, outputs.S[i])
		writeUint64(h, outputs.P[i])
		writeUint64(h, outputs.O[i])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func hashReceipt(r Receipt) [32]byte {
	h := sha256.New()
	writeUint64(h, r.CaseID)
	writeUint64(h, r.SpecID)
	h.Write([]byte{r.PatternID})
	h.Write(r.ActionHash[:])
	h.Write([]byte{r.TicksUsed})
	writeUint64(h, uint64(r.Fault))
	writeUint64(h, uint64(r.ShardID))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func writeUint64(h interface{ Write([]byte) (int, error) }, v uint64) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	h.Write(buf[:])
}
