// Package observation implements the receipt ring and the percentile
// statistics the governor's Monitor stage drains from it.
package observation

import (
	"sync/atomic"

	"github.com/jordigilh/ontoengine/pkg/kernel"
)

// ringCapacity is the fixed size of a receipt ring. Must be a power of
// two so index wrapping can use a bitwise mask.
const ringCapacity = 4096

// ringSeqEmpty is the sentinel sequence value for an unwritten slot,
// chosen away from 0 so a legitimately wrapped sequence number can never
// be mistaken for "never written".
const ringSeqEmpty = uint64(1) << 63

// Ring is a fixed-capacity, single-producer/single-consumer lock-free
// queue of kernel.Receipt values. Unlike a growable ring this one never
// spills to an overflow buffer: when full, TryPush reports saturation
// and the caller is responsible for parking the receipt (drop-to-park
// backpressure) rather than blocking the hot path.
type Ring struct {
	buffer [ringCapacity]kernel.Receipt
	valid  [ringCapacity]atomic.Bool
	seq    [ringCapacity]atomic.Uint64

	head atomic.Uint64 // consumer index, advanced only by Pop
	tail atomic.Uint64 // producer index, advanced only by TryPush

	dropped atomic.Uint64
}

// NewRing constructs an empty ring.
func NewRing() *Ring {
	r := &Ring{}
	for i := range r.seq {
		r.seq[i].Store(ringSeqEmpty)
	}
	return r
}

// TryPush attempts to enqueue a receipt without blocking. It reports
// false when the ring is at capacity; the caller owns the drop-to-park
// decision (typically: log, increment a drop counter, move on).
func (r *Ring) TryPush(rec kernel.Receipt) bool {
	tail := r.tail.Load()
	head := r.head.Load()
	if tail-head >= ringCapacity {
		r.dropped.Add(1)
		return false
	}
	idx := tail % ringCapacity
	r.buffer[idx] = rec
	r.valid[idx].Store(true)
	r.seq[idx].Store(tail + 1)
	r.tail.Store(tail + 1)
	return true
}

// Pop removes and returns the oldest receipt. The second return value is
// false when the ring is empty.
func (r *Ring) Pop() (kernel.Receipt, bool) {
	head := r.head.Load()
	tail := r.tail.Load()
	if head >= tail {
		return kernel.Receipt{}, false
	}
	idx := head % ringCapacity
	if !r.valid[idx].Load() || r.seq[idx].Load() == ringSeqEmpty {
		return kernel.Receipt{}, false
	}
	rec := r.buffer[idx]
	r.valid[idx].Store(false)
	r.seq[idx].Store(ringSeqEmpty)
	r.head.Store(head + 1)
	return rec, true
}

// DrainBatch pops up to n receipts in FIFO order. It is the Monitor
// stage's usual entry point: drain in bounded batches instead of
// draining the whole ring in one pass, so a single shard can never
// starve its siblings.
func (r *Ring) DrainBatch(n int) []kernel.Receipt {
	out := make([]kernel.Receipt, 0, n)
	for i := 0; i < n; i++ {
		rec, ok := r.Pop()
		if !ok {
			break
		}
		out = append(out, rec)
	}
	return out
}

// Len reports the number of receipts currently queued.
func (r *Ring) Len() int {
	head := r.head.Load()
	tail := r.tail.Load()
	if tail <= head {
		return 0
	}
	return int(tail - head)
}

// Dropped reports the cumulative count of receipts that TryPush refused
// due to saturation.
func (r *Ring) Dropped() uint64 {
	return r.dropped.Load()
}
