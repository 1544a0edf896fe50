package ontology

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Pointer is the process-wide Σ pointer: single-writer (the governor's
// Execute stage), multiple-reader (every hot-path firing). Readers are
// wait-free; the only contention is the writer's mutex, held only for
// the duration of validating and publishing the swap, never for a
// firing's duration.
type Pointer struct {
	current atomic.Pointer[Snapshot]
	mu      sync.Mutex // serializes installers; readers never take it
}

// NewPointer seeds the pointer with an initial snapshot. The pointer is
// never nil during operation.
func NewPointer(initial *Snapshot) *Pointer {
	p := &Pointer{}
	p.current.Store(initial)
	return p
}

// Load returns the currently installed snapshot. Read-side wait-free:
// exactly one atomic load, no lock.
func (p *Pointer) Load() *Snapshot {
	return p.current.Load()
}

// Install publishes next as the current Σ, provided it chains correctly
// from the snapshot installed at call time. On any failure the previous
// snapshot remains current and an error is returned; the caller (the
// governor's Execute stage) records the overlay as Rejected_on_install.
func (p *Pointer) Install(next *Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.current.Load()
	if prev.SnapshotHash == next.SnapshotHash {
		// Idempotent replay of an already-installed snapshot is a no-op,
		// not an error (invariant 8).
		return nil
	}
	if !ChainsFrom(prev, next) {
		return fmt.Errorf("ontology: snapshot %d does not chain from current snapshot %d", next.Version, prev.Version)
	}
	p.current.Store(next)
	return nil
}
