package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordFiring(t *testing.T) {
	initial := testutil.ToFloat64(KernelFiringsTotal.WithLabelValues("3", "ok"))

	RecordFiring(3, 5, "ok")

	after := testutil.ToFloat64(KernelFiringsTotal.WithLabelValues("3", "ok"))
	if after != initial+1 {
		t.Errorf("KernelFiringsTotal = %v, want %v", after, initial+1)
	}

	metric := &dto.Metric{}
	KernelTicksUsed.WithLabelValues("3").Write(metric)
	if metric.GetHistogram().GetSampleCount() == 0 {
		t.Error("KernelTicksUsed should have recorded a sample")
	}
}

func TestRecordFiring_BudgetExceeded(t *testing.T) {
	initial := testutil.ToFloat64(KernelBudgetExceededTotal.WithLabelValues("9"))

	RecordFiring(9, 8, "budget_exceeded")

	after := testutil.ToFloat64(KernelBudgetExceededTotal.WithLabelValues("9"))
	if after != initial+1 {
		t.Errorf("KernelBudgetExceededTotal = %v, want %v", after, initial+1)
	}
}

func TestRecordReceiptDropped(t *testing.T) {
	initial := testutil.ToFloat64(ReceiptRingDroppedTotal)
	RecordReceiptDropped()
	after := testutil.ToFloat64(ReceiptRingDroppedTotal)
	if after != initial+1 {
		t.Errorf("ReceiptRingDroppedTotal = %v, want %v", after, initial+1)
	}
}

func TestRecordGovernorStage(t *testing.T) {
	metric := &dto.Metric{}
	RecordGovernorStage("monitor", 10*time.Millisecond)
	GovernorStageDuration.WithLabelValues("monitor").Write(metric)
	if metric.GetHistogram().GetSampleCount() == 0 {
		t.Error("GovernorStageDuration should have recorded a sample")
	}
}

func TestRecordOverlayTerminal(t *testing.T) {
	initial := testutil.ToFloat64(GovernorOverlaysTotal.WithLabelValues("applied"))
	RecordOverlayTerminal("applied")
	after := testutil.ToFloat64(GovernorOverlaysTotal.WithLabelValues("applied"))
	if after != initial+1 {
		t.Errorf("GovernorOverlaysTotal = %v, want %v", after, initial+1)
	}
}

func TestRecordOntologyInstall(t *testing.T) {
	initial := testutil.ToFloat64(OntologyInstallsTotal.WithLabelValues("success"))
	RecordOntologyInstall("success")
	after := testutil.ToFloat64(OntologyInstallsTotal.WithLabelValues("success"))
	if after != initial+1 {
		t.Errorf("OntologyInstallsTotal = %v, want %v", after, initial+1)
	}
}

func TestRecordProofCacheLookup(t *testing.T) {
	initialHit := testutil.ToFloat64(ProofCacheHitsTotal.WithLabelValues("hit"))
	RecordProofCacheLookup(true)
	if after := testutil.ToFloat64(ProofCacheHitsTotal.WithLabelValues("hit")); after != initialHit+1 {
		t.Errorf("hit count = %v, want %v", after, initialHit+1)
	}

	initialMiss := testutil.ToFloat64(ProofCacheHitsTotal.WithLabelValues("miss"))
	RecordProofCacheLookup(false)
	if after := testutil.ToFloat64(ProofCacheHitsTotal.WithLabelValues("miss")); after != initialMiss+1 {
		t.Errorf("miss count = %v, want %v", after, initialMiss+1)
	}
}

func TestRecordBreakerStateChange(t *testing.T) {
	initial := testutil.ToFloat64(CircuitBreakerStateChanges.WithLabelValues("verify", "open"))
	RecordBreakerStateChange("verify", "open")
	after := testutil.ToFloat64(CircuitBreakerStateChanges.WithLabelValues("verify", "open"))
	if after != initial+1 {
		t.Errorf("CircuitBreakerStateChanges = %v, want %v", after, initial+1)
	}
}
