package ontology

import (
	"sync"
	"testing"
)

func TestPointer_LoadReturnsSeeded(t *testing.T) {
	initial := Genesis(sampleGraph(), nil)
	p := NewPointer(initial)
	if p.Load().SnapshotHash != initial.SnapshotHash {
		t.Error("Load() should return the seeded snapshot")
	}
}

func TestPointer_InstallValidDescendant(t *testing.T) {
	initial := Genesis(sampleGraph(), nil)
	p := NewPointer(initial)
	child := Descendant(initial, sampleGraph(), nil)

	if err := p.Install(child); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if p.Load().SnapshotHash != child.SnapshotHash {
		t.Error("Load() should reflect the installed child")
	}
}

func TestPointer_InstallRejectsNonChainingSnapshot(t *testing.T) {
	initial := Genesis(sampleGraph(), nil)
	p := NewPointer(initial)
	orphan := Genesis(append(sampleGraph(), Statement{S: 99, P: 1, O: 1}), nil)
	orphan.Version = 5

	if err := p.Install(orphan); err == nil {
		t.Error("Install() should reject a snapshot that does not chain")
	}
	if p.Load().SnapshotHash != initial.SnapshotHash {
		t.Error("failed install must leave the previous snapshot current")
	}
}

func TestPointer_InstallIdempotentReplay(t *testing.T) {
	initial := Genesis(sampleGraph(), nil)
	p := NewPointer(initial)
	child := Descendant(initial, sampleGraph(), nil)

	if err := p.Install(child); err != nil {
		t.Fatalf("first install error = %v", err)
	}
	if err := p.Install(child); err != nil {
		t.Fatalf("replaying the same proven overlay should be a no-op, got error = %v", err)
	}
	if p.Load().SnapshotHash != child.SnapshotHash {
		t.Error("replayed install should leave the same snapshot current")
	}
}

func TestPointer_ConcurrentReadersDuringInstall(t *testing.T) {
	initial := Genesis(sampleGraph(), nil)
	p := NewPointer(initial)
	child := Descendant(initial, sampleGraph(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap := p.Load()
			if snap.SnapshotHash != initial.SnapshotHash && snap.SnapshotHash != child.SnapshotHash {
				t.Error("reader observed a snapshot that was never installed")
			}
		}()
	}
	if err := p.Install(child); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	wg.Wait()
}
