package kernel

// FiringScratch is the set of buffers one caller reuses across every
// Evaluate call instead of letting each firing allocate its own. A
// shard goroutine owns exactly one FiringScratch and threads it through
// every Evaluate call it makes; sharing one across concurrent callers
// is not safe, the same way a single PinnedRun is not shared.
//
// The marking map, the touched-id slice, and the consume/deposit delta
// slices are all cleared and refilled in place rather than reallocated,
// so a dispatch table function that only ever touches ids already seen
// by a prior firing allocates nothing after the first few calls have
// grown these buffers to their working size.
type FiringScratch struct {
	marking map[uint64]uint32
	seen    map[uint64]bool
	touched []uint64
	consume []ConditionDelta
	deposit []ConditionDelta
}

// NewFiringScratch allocates one FiringScratch sized for a marking of
// roughly capacity live conditions. capacity need not be exact; the
// buffers grow via normal slice/map growth if a firing ever touches
// more ids than anticipated.
func NewFiringScratch(capacity int) *FiringScratch {
	if capacity <= 0 {
		capacity = 8
	}
	return &FiringScratch{
		marking: make(map[uint64]uint32, capacity),
		seen:    make(map[uint64]bool, capacity),
		touched: make([]uint64, 0, capacity),
		consume: make([]ConditionDelta, 0, capacity),
		deposit: make([]ConditionDelta, 0, capacity),
	}
}

// Marking clears the scratch's reusable marking map and refills it from
// src, returning it for the caller to hand to the pattern function.
// The returned map aliases s's buffer; it is only valid until the next
// call that touches s.
func (s *FiringScratch) Marking(src map[uint64]uint32) map[uint64]uint32 {
	clear(s.marking)
	for id, count := range src {
		if count > 0 {
			s.marking[id] = count
		}
	}
	return s.marking
}

// Diff computes the MarkingDelta between before and after, visiting
// every touched condition id in ascending order so hashAction hashes a
// deterministic Consume/Deposit sequence regardless of either map's
// iteration order. The returned slices alias s's buffers; they are
// only valid until the next call that touches s.
func (s *FiringScratch) Diff(before, after map[uint64]uint32) MarkingDelta {
	s.touchedIDs(before, after)

	consume := s.consume[:0]
	deposit := s.deposit[:0]
	for _, id := range s.touched {
		b, a := before[id], after[id]
		switch {
		case a < b:
			consume = append(consume, ConditionDelta{ConditionID: id, Count: b - a})
		case a > b:
			deposit = append(deposit, ConditionDelta{ConditionID: id, Count: a - b})
		}
	}
	s.consume, s.deposit = consume, deposit
	return MarkingDelta{Consume: consume, Deposit: deposit}
}

// touchedIDs fills s.touched with the sorted union of before's and
// after's keys, using s.seen to dedupe without allocating a new set.
func (s *FiringScratch) touchedIDs(before, after map[uint64]uint32) {
	clear(s.seen)
	s.touched = s.touched[:0]
	for id := range before {
		s.noteTouched(id)
	}
	for id := range after {
		s.noteTouched(id)
	}
}

func (s *FiringScratch) noteTouched(id uint64) {
	if s.seen[id] {
		return
	}
	s.seen[id] = true
	s.touched = insertSortedUint64(s.touched, id)
}

// insertSortedUint64 inserts v into the already-sorted s, shifting
// larger elements up by one. A hand-written insertion rather than
// sort.Slice: the cardinality of touched ids in one firing is small
// (the lanes of one pinned run plus whatever the pattern touches), and
// sort.Slice's closure argument escapes to the heap through the
// sort.Interface it builds, which would reintroduce the allocation this
// buffer exists to avoid.
func insertSortedUint64(s []uint64, v uint64) []uint64 {
	i := len(s)
	s = append(s, v)
	for i > 0 && s[i-1] > v {
		s[i] = s[i-1]
		i--
	}
	s[i] = v
	return s
}
