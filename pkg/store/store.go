// Package store declares the engine's persistence-boundary interfaces: loading Σ snapshots from a
// content-addressed store, appending receipts to an audit log, and
// recording overlays alongside their proofs. This module never gives
// these interfaces a concrete SQL/Kafka/HTTP body — that wiring belongs
// to connector implementations — but it does provide small
// in-memory implementations so cmd/enginectl can demonstrate the full
// engine end to end without a real backing store.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/jordigilh/ontoengine/pkg/governor/verify"
	"github.com/jordigilh/ontoengine/pkg/kernel"
	"github.com/jordigilh/ontoengine/pkg/ontology"
)

// SnapshotLoader loads a raw, not-yet-verified Σ snapshot by its
// declared hash. The engine always recomputes and checks the hash
// itself (ontology.Verify) before trusting what the loader returns.
type SnapshotLoader interface {
	Load(ctx context.Context, hash [32]byte) (ontology.RawSnapshot, error)
}

// ReceiptSink is the durable audit log receipts are appended to.
type ReceiptSink interface {
	Append(ctx context.Context, r kernel.Receipt) error
}

// OverlaySink persists a proven-or-rejected overlay alongside its
// discharged obligations, for the governor's Knowledge stage.
type OverlaySink interface {
	Record(ctx context.Context, o *ontology.Overlay, proofs []verify.ProofRecord) error
}

// InMemorySnapshotStore is a capacity-bounded, concurrency-safe
// SnapshotLoader double keyed by snapshot hash — grounded on the same
// guarded-map-with-bound shape as the proof cache (pkg/governor/verify),
// here with no TTL since snapshots, once content-addressed, never go
// stale.
type InMemorySnapshotStore struct {
	mu       sync.RWMutex
	capacity int
	byHash   map[[32]byte]ontology.RawSnapshot
	order    [][32]byte
}

// NewInMemorySnapshotStore constructs an empty store.
func NewInMemorySnapshotStore(capacity int) *InMemorySnapshotStore {
	return &InMemorySnapshotStore{capacity: capacity, byHash: make(map[[32]byte]ontology.RawSnapshot)}
}

// Put records raw under its declared hash, evicting the oldest entry
// once at capacity.
func (s *InMemorySnapshotStore) Put(raw ontology.RawSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byHash[raw.DeclaredHash]; !exists && s.capacity > 0 && len(s.byHash) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.byHash, oldest)
	}
	if _, exists := s.byHash[raw.DeclaredHash]; !exists {
		s.order = append(s.order, raw.DeclaredHash)
	}
	s.byHash[raw.DeclaredHash] = raw
}

// Load implements SnapshotLoader.
func (s *InMemorySnapshotStore) Load(_ context.Context, hash [32]byte) (ontology.RawSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.byHash[hash]
	if !ok {
		return ontology.RawSnapshot{}, errNotFound{hash: hash}
	}
	return raw, nil
}

type errNotFound struct{ hash [32]byte }

func (e errNotFound) Error() string { return "store: no snapshot recorded for declared hash" }

// InMemoryReceiptLog is a bounded, time-partitioned-by-append-order
// ReceiptSink double.
type InMemoryReceiptLog struct {
	mu       sync.Mutex
	capacity int
	records  []recordedReceipt
}

type recordedReceipt struct {
	Receipt kernel.Receipt
	At      time.Time
}

// NewInMemoryReceiptLog constructs an empty log bounded to capacity
// entries (oldest dropped first, matching the audit horizon's eventual
// pruning without implementing real retention policy here).
func NewInMemoryReceiptLog(capacity int) *InMemoryReceiptLog {
	return &InMemoryReceiptLog{capacity: capacity}
}

// Append implements ReceiptSink.
func (l *InMemoryReceiptLog) Append(_ context.Context, r kernel.Receipt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, recordedReceipt{Receipt: r, At: time.Now()})
	if l.capacity > 0 && len(l.records) > l.capacity {
		l.records = l.records[len(l.records)-l.capacity:]
	}
	return nil
}

// Len reports the number of receipts currently retained.
func (l *InMemoryReceiptLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// ByShard returns every retained receipt for one shard, in append order
// — the ordering the engine guarantees within a shard.
func (l *InMemoryReceiptLog) ByShard(shardID uint32) []kernel.Receipt {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []kernel.Receipt
	for _, rec := range l.records {
		if rec.Receipt.ShardID == shardID {
			out = append(out, rec.Receipt)
		}
	}
	return out
}

// InMemoryOverlayLog is an OverlaySink double recording every overlay's
// terminal state and the proofs that led there.
type InMemoryOverlayLog struct {
	mu      sync.Mutex
	records []overlayRecord
}

type overlayRecord struct {
	Overlay *ontology.Overlay
	Proofs  []verify.ProofRecord
	At      time.Time
}

// NewInMemoryOverlayLog constructs an empty log.
func NewInMemoryOverlayLog() *InMemoryOverlayLog {
	return &InMemoryOverlayLog{}
}

// Record implements OverlaySink.
func (l *InMemoryOverlayLog) Record(_ context.Context, o *ontology.Overlay, proofs []verify.ProofRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, overlayRecord{Overlay: o, Proofs: proofs, At: time.Now()})
	return nil
}

// Len reports the number of overlays recorded.
func (l *InMemoryOverlayLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
