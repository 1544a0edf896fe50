package governor

import (
	"context"
	"time"

	"github.com/jordigilh/ontoengine/internal/obslog"
	"github.com/jordigilh/ontoengine/internal/telemetry"
	"github.com/jordigilh/ontoengine/pkg/governor/breaker"
	"github.com/jordigilh/ontoengine/pkg/governor/verify"
	"github.com/jordigilh/ontoengine/pkg/ontology"
	"github.com/sirupsen/logrus"
)

// OverlaySink is the external collaborator Knowledge persists proven/
// rejected overlays and their discharged proofs to. Defined locally
// (rather than imported from pkg/store) so this package never depends
// upward on the demonstration wiring layer; pkg/store.OverlaySink and
// this interface are structurally identical and any pkg/store
// implementation satisfies both.
type OverlaySink interface {
	Record(ctx context.Context, o *ontology.Overlay, proofs []verify.ProofRecord) error
}

// Knowledge persists the terminal record of one MAPE-K cycle: the
// overlay, whatever it became, and the obligations that were discharged
// to get it there. No part of Knowledge feeds back into the hot path
// except through a subsequent Σ install — it is a pure
// sink, never consulted by Monitor/Analyse/Plan.
type Knowledge struct {
	sink    OverlaySink
	breaker *breaker.CircuitBreaker
	log     *logrus.Logger
}

// NewKnowledge constructs a Knowledge stage. sink may be nil to run the
// governor without persistence (tests, or a not-yet-wired deployment).
func NewKnowledge(sink OverlaySink, log *logrus.Logger) *Knowledge {
	if log == nil {
		log = logrus.New()
	}
	return &Knowledge{
		sink:    sink,
		breaker: breaker.NewCircuitBreaker("overlay-sink", 0.5, 30*time.Second),
		log:     log,
	}
}

// Persist records one cycle's outcome, best-effort and breaker-guarded:
// a degraded sink never blocks the governor loop or re-opens the
// overlay's state machine.
func (k *Knowledge) Persist(ctx context.Context, o *ontology.Overlay, proofs []verify.ProofRecord) {
	start := time.Now()
	defer func() { telemetry.RecordGovernorStage("knowledge", time.Since(start)) }()

	if k.sink == nil {
		return
	}
	if err := k.breaker.Call(func() error { return k.sink.Record(ctx, o, proofs) }); err != nil {
		k.log.WithFields(obslog.GovernorFields("knowledge").Error(err).ToLogrus()).
			Warn("overlay sink degraded, proven/rejected record not persisted this cycle")
	}
}
