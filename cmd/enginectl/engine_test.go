package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jordigilh/ontoengine/pkg/ingest"
	"github.com/jordigilh/ontoengine/pkg/observation"
	"github.com/jordigilh/ontoengine/pkg/ontology"
)

func newTestEngine(t *testing.T) (*Engine, *ontology.Pointer, *observation.Ring) {
	t.Helper()
	genesis := buildGenesisSnapshot()
	pointer := ontology.NewPointer(genesis)
	ring := observation.NewRing()
	engine := NewEngine(buildDemoSpecification(), pointer, ring, 8, 8, 0, nil)
	return engine, pointer, ring
}

func TestEngine_Submit_SequenceFiringProducesReceipt(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	req := ingest.FiringRequest{
		CaseID:         1,
		SpecID:         demoSpecID,
		TaskID:         taskSequence,
		PatternID:      1,
		IncomingTokens: []uint64{condStart},
	}
	receipt, err := engine.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if receipt.TicksUsed == 0 || receipt.TicksUsed > 8 {
		t.Errorf("TicksUsed = %d, want in [1,8]", receipt.TicksUsed)
	}
	if receipt.PatternID != 1 {
		t.Errorf("PatternID = %d, want 1", receipt.PatternID)
	}
}

func TestEngine_Submit_RejectsMalformedRequest(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	req := ingest.FiringRequest{CaseID: 1, SpecID: demoSpecID, TaskID: taskSequence, PatternID: 99}
	if _, err := engine.Submit(context.Background(), req); err == nil {
		t.Fatal("Submit should reject a pattern id outside [1,43]")
	}
}

func TestEngine_Submit_RejectsFiringsOnTerminalCase(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	req := ingest.FiringRequest{
		CaseID:         4,
		SpecID:         demoSpecID,
		TaskID:         taskCancelReg,
		PatternID:      20,
		IncomingTokens: []uint64{condRegionIn},
	}

	// The demo region seeds three live tokens (condRegionIn, condRegionA,
	// condRegionB); cancel region drains one token per firing, so three
	// firings are needed before the case reaches its terminal Cancelled
	// state.
	for i := 0; i < 3; i++ {
		receipt, err := engine.Submit(context.Background(), req)
		if err != nil {
			t.Fatalf("firing %d should be admitted: %v", i, err)
		}
		if receipt.Fault != 0 {
			t.Fatalf("cancellation firing %d faulted unexpectedly: %s", i, receipt.Fault)
		}
	}
	if _, err := engine.Submit(context.Background(), req); err == nil {
		t.Fatal("a firing once the case is cancelled (terminal) should be rejected")
	}
}

func TestBuildRouter_HealthzAndOntologyEndpoints(t *testing.T) {
	_, pointer, ring := newTestEngine(t)
	router := buildRouter(pointer, ring)
	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	resp2, err := http.Get(server.URL + "/ontology/current")
	if err != nil {
		t.Fatalf("GET /ontology/current: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp2.StatusCode)
	}

	resp3, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp3.Body.Close()
	if resp3.StatusCode != http.StatusOK {
		t.Errorf("/metrics status = %d, want 200", resp3.StatusCode)
	}
}

func TestBuildDemoSpecification_IsWellFormed(t *testing.T) {
	spec := buildDemoSpecification()
	if len(spec.Tasks) == 0 {
		t.Fatal("demo specification should declare at least one task")
	}
	region, ok := spec.Regions["region-1"]
	if !ok {
		t.Fatal("demo specification should declare the cancellation region")
	}
	found := false
	for _, id := range region.ConditionIDs {
		if id == condRegionIn {
			found = true
		}
	}
	if !found {
		t.Errorf("region should include condRegionIn, got %+v", region.ConditionIDs)
	}
}
