package patterns

import "testing"

func TestArena_AddNodeAndEdge(t *testing.T) {
	a := NewArena()
	t1 := a.AddNode(NodeTask, 1)
	t2 := a.AddNode(NodeTask, 2)

	if !a.HasNode(t1) || !a.HasNode(t2) {
		t.Fatal("both nodes should be present")
	}
	if err := a.AddEdge(t1, t2); err != nil {
		t.Fatalf("AddEdge() error = %v", err)
	}
	succ := a.Successors(t1)
	if len(succ) != 1 || succ[0] != t2 {
		t.Errorf("Successors(t1) = %v, want [%d]", succ, t2)
	}
}

func TestArena_AddEdge_UnknownNode(t *testing.T) {
	a := NewArena()
	t1 := a.AddNode(NodeTask, 1)
	if err := a.AddEdge(t1, 999); err == nil {
		t.Error("AddEdge should reject an edge to an unknown node")
	}
}

func TestArena_ReachesSelf_DetectsCycle(t *testing.T) {
	a := NewArena()
	t1 := a.AddNode(NodeTask, 1)
	t2 := a.AddNode(NodeTask, 2)
	t3 := a.AddNode(NodeTask, 3)
	_ = a.AddEdge(t1, t2)
	_ = a.AddEdge(t2, t3)
	_ = a.AddEdge(t3, t1)

	if !a.ReachesSelf(t1) {
		t.Error("t1 should reach itself through the t1->t2->t3->t1 cycle")
	}

	acyclic := NewArena()
	a1 := acyclic.AddNode(NodeTask, 1)
	a2 := acyclic.AddNode(NodeTask, 2)
	_ = acyclic.AddEdge(a1, a2)
	if acyclic.ReachesSelf(a1) {
		t.Error("acyclic net should not report a cycle")
	}
}

func TestMarking_ConsumeDeposit(t *testing.T) {
	m := Marking{1: 2}
	if !m.Consume(1, 1) {
		t.Fatal("Consume(1,1) should succeed with 2 available")
	}
	if m[1] != 1 {
		t.Errorf("m[1] = %d, want 1", m[1])
	}
	if m.Consume(1, 5) {
		t.Error("Consume should fail when insufficient tokens are available")
	}
	m.Deposit(2, 3)
	if m[2] != 3 {
		t.Errorf("m[2] = %d, want 3", m[2])
	}
}

func TestMarking_ConsumeToZeroRemovesKey(t *testing.T) {
	m := Marking{1: 1}
	if !m.Consume(1, 1) {
		t.Fatal("Consume(1,1) should succeed")
	}
	if _, exists := m[1]; exists {
		t.Error("condition with zero tokens should not remain a map key")
	}
}

func TestTable_LookupOutOfRange(t *testing.T) {
	var table Table
	if _, err := table.Lookup(0); err == nil {
		t.Error("Lookup(0) should error")
	}
	if _, err := table.Lookup(44); err == nil {
		t.Error("Lookup(44) should error")
	}
}

func TestTable_LookupUnregistered(t *testing.T) {
	var table Table
	if _, err := table.Lookup(1); err == nil {
		t.Error("Lookup on an unregistered pattern id should error")
	}
}

func TestCaseState_IsTerminal(t *testing.T) {
	terminal := map[CaseState]bool{
		CaseEnabled:   false,
		CaseExecuting: false,
		CaseSuspended: false,
		CaseCancelled: true,
		CaseCompleted: true,
		CaseFailed:    false,
	}
	for state, want := range terminal {
		if got := state.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", state, got, want)
		}
	}
}
