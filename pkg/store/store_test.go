package store

import (
	"context"
	"testing"

	"github.com/jordigilh/ontoengine/pkg/governor/verify"
	"github.com/jordigilh/ontoengine/pkg/kernel"
	"github.com/jordigilh/ontoengine/pkg/ontology"
)

func TestInMemorySnapshotStore_PutLoadRoundTrip(t *testing.T) {
	s := NewInMemorySnapshotStore(2)
	raw := ontology.RawSnapshot{Version: 0, DeclaredHash: [32]byte{1}}
	s.Put(raw)

	got, err := s.Load(context.Background(), raw.DeclaredHash)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got.Version != raw.Version {
		t.Errorf("Version = %d, want %d", got.Version, raw.Version)
	}
}

func TestInMemorySnapshotStore_LoadMissingFails(t *testing.T) {
	s := NewInMemorySnapshotStore(2)
	if _, err := s.Load(context.Background(), [32]byte{9}); err == nil {
		t.Fatal("Load on unrecorded hash should fail")
	}
}

func TestInMemorySnapshotStore_EvictsOldestAtCapacity(t *testing.T) {
	s := NewInMemorySnapshotStore(1)
	first := ontology.RawSnapshot{Version: 0, DeclaredHash: [32]byte{1}}
	second := ontology.RawSnapshot{Version: 1, DeclaredHash: [32]byte{2}}
	s.Put(first)
	s.Put(second)

	if _, err := s.Load(context.Background(), first.DeclaredHash); err == nil {
		t.Fatal("oldest entry should have been evicted once capacity was exceeded")
	}
	if _, err := s.Load(context.Background(), second.DeclaredHash); err != nil {
		t.Fatalf("most recent entry should still be loadable: %v", err)
	}
}

func TestInMemoryReceiptLog_AppendAndByShard(t *testing.T) {
	l := NewInMemoryReceiptLog(0)
	if err := l.Append(context.Background(), kernel.Receipt{ShardID: 1, PatternID: 1}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Append(context.Background(), kernel.Receipt{ShardID: 2, PatternID: 2}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}
	shard1 := l.ByShard(1)
	if len(shard1) != 1 || shard1[0].PatternID != 1 {
		t.Errorf("ByShard(1) = %+v, want one receipt with PatternID 1", shard1)
	}
}

func TestInMemoryReceiptLog_DropsOldestAtCapacity(t *testing.T) {
	l := NewInMemoryReceiptLog(1)
	l.Append(context.Background(), kernel.Receipt{CycleID: 1})
	l.Append(context.Background(), kernel.Receipt{CycleID: 2})
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
	if got := l.ByShard(0); len(got) != 1 || got[0].CycleID != 2 {
		t.Errorf("expected only the most recent receipt to remain, got %+v", got)
	}
}

func TestInMemoryOverlayLog_RecordAndLen(t *testing.T) {
	l := NewInMemoryOverlayLog()
	overlay := &ontology.Overlay{ID: "ov-1"}
	proofs := []verify.ProofRecord{{ObligationID: "ob-1", Sat: true}}

	if err := l.Record(context.Background(), overlay, proofs); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
}
