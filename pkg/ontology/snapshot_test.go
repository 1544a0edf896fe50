package ontology

import "testing"

func sampleGraph() []Statement {
	return []Statement{
		{S: 3, P: 1, O: 1},
		{S: 1, P: 2, O: 5},
		{S: 1, P: 1, O: 9},
	}
}

func TestCanonicalize_Sorted(t *testing.T) {
	got := Canonicalize(sampleGraph())
	want := []Statement{
		{S: 1, P: 1, O: 9},
		{S: 1, P: 2, O: 5},
		{S: 3, P: 1, O: 1},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Canonicalize()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestGenesis(t *testing.T) {
	s := Genesis(sampleGraph(), nil)
	if s.Version != 0 {
		t.Errorf("Version = %d, want 0", s.Version)
	}
	if s.ParentHash != ([32]byte{}) {
		t.Error("genesis parent hash should be zero")
	}
	recomputed := ComputeHash(s.Graph, s.Invariants, s.ParentHash, s.Version)
	if recomputed != s.SnapshotHash {
		t.Error("hash(canonicalise(graph)) should equal snapshot_hash")
	}
}

func TestDescendant_ChainsFromParent(t *testing.T) {
	parent := Genesis(sampleGraph(), nil)
	child := Descendant(parent, sampleGraph(), []InvariantRule{{ID: "q1", Source: "true"}})

	if child.Version != parent.Version+1 {
		t.Errorf("child version = %d, want %d", child.Version, parent.Version+1)
	}
	if child.ParentHash != parent.SnapshotHash {
		t.Error("child parent hash should equal parent snapshot hash")
	}
	if !ChainsFrom(parent, child) {
		t.Error("ChainsFrom(parent, child) should be true")
	}
}

func TestComputeHash_Deterministic(t *testing.T) {
	g := sampleGraph()
	var parent [32]byte
	h1 := ComputeHash(g, nil, parent, 0)
	h2 := ComputeHash(g, nil, parent, 0)
	if h1 != h2 {
		t.Error("ComputeHash should be deterministic for identical inputs")
	}

	h3 := ComputeHash(append(sampleGraph(), Statement{S: 9, P: 9, O: 9}), nil, parent, 0)
	if h1 == h3 {
		t.Error("ComputeHash should differ when the graph differs")
	}
}

func TestVerify_AcceptsMatchingHash(t *testing.T) {
	g := sampleGraph()
	var parent [32]byte
	hash := ComputeHash(g, nil, parent, 0)
	raw := RawSnapshot{Graph: g, Version: 0, ParentHash: parent, DeclaredHash: hash}

	snap, err := Verify(raw)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if snap.SnapshotHash != hash {
		t.Error("verified snapshot hash mismatch")
	}
}

func TestVerify_RejectsMismatchedHash(t *testing.T) {
	raw := RawSnapshot{Graph: sampleGraph(), Version: 0, DeclaredHash: [32]byte{1, 2, 3}}
	if _, err := Verify(raw); err == nil {
		t.Fatal("Verify() should reject a mismatched declared hash")
	}
}

func TestChainsFrom_RejectsWrongVersion(t *testing.T) {
	parent := Genesis(sampleGraph(), nil)
	notChild := Genesis(sampleGraph(), nil)
	if ChainsFrom(parent, notChild) {
		t.Error("ChainsFrom should reject a snapshot with version 0 as a child of version 0")
	}
}
