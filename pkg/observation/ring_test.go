package observation

import (
	"sync"
	"testing"

	"github.com/jordigilh/ontoengine/pkg/kernel"
)

func TestRing_PushPopFIFO(t *testing.T) {
	r := NewRing()
	for i := uint8(0); i < 5; i++ {
		if !r.TryPush(kernel.Receipt{PatternID: i}) {
			t.Fatalf("TryPush %d should succeed", i)
		}
	}
	for i := uint8(0); i < 5; i++ {
		rec, ok := r.Pop()
		if !ok {
			t.Fatalf("Pop %d should succeed", i)
		}
		if rec.PatternID != i {
			t.Errorf("Pop order: got PatternID %d, want %d", rec.PatternID, i)
		}
	}
	if _, ok := r.Pop(); ok {
		t.Error("Pop on empty ring should fail")
	}
}

func TestRing_SaturationDropsAndCounts(t *testing.T) {
	r := NewRing()
	for i := 0; i < ringCapacity; i++ {
		if !r.TryPush(kernel.Receipt{}) {
			t.Fatalf("TryPush %d should succeed while under capacity", i)
		}
	}
	if r.TryPush(kernel.Receipt{}) {
		t.Fatal("TryPush should fail once the ring is saturated")
	}
	if r.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", r.Dropped())
	}
	if r.Len() != ringCapacity {
		t.Errorf("Len() = %d, want %d", r.Len(), ringCapacity)
	}
}

func TestRing_DrainBatch(t *testing.T) {
	r := NewRing()
	for i := 0; i < 10; i++ {
		r.TryPush(kernel.Receipt{PatternID: uint8(i)})
	}
	batch := r.DrainBatch(4)
	if len(batch) != 4 {
		t.Fatalf("len(batch) = %d, want 4", len(batch))
	}
	for i, rec := range batch {
		if rec.PatternID != uint8(i) {
			t.Errorf("batch[%d].PatternID = %d, want %d", i, rec.PatternID, i)
		}
	}
	if r.Len() != 6 {
		t.Errorf("Len() after partial drain = %d, want 6", r.Len())
	}

	rest := r.DrainBatch(100)
	if len(rest) != 6 {
		t.Fatalf("len(rest) = %d, want 6", len(rest))
	}
	if r.Len() != 0 {
		t.Errorf("Len() after full drain = %d, want 0", r.Len())
	}
}

func TestRing_ConcurrentProducerConsumer(t *testing.T) {
	r := NewRing()
	const n = 2000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for !r.TryPush(kernel.Receipt{CaseID: uint64(i)}) {
			}
		}
	}()

	seen := 0
	for seen < n {
		if _, ok := r.Pop(); ok {
			seen++
		}
	}
	wg.Wait()
	if r.Len() != 0 {
		t.Errorf("Len() after drain = %d, want 0", r.Len())
	}
}
