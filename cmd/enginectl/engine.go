package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/jordigilh/ontoengine/internal/obslog"
	"github.com/jordigilh/ontoengine/internal/telemetry"
	"github.com/jordigilh/ontoengine/pkg/ingest"
	"github.com/jordigilh/ontoengine/pkg/kernel"
	"github.com/jordigilh/ontoengine/pkg/observation"
	"github.com/jordigilh/ontoengine/pkg/ontology"
	"github.com/jordigilh/ontoengine/pkg/patterns"
	"github.com/jordigilh/ontoengine/pkg/projector"
)

// Engine wires the μ-kernel, the compiled pattern-net projection, and a
// live case table into one ingest.Submitter, demonstrating the full
// hot-path firing pipeline: a submitter presents a
// FiringRequest, the engine produces exactly one receipt, and the
// case's marking is the authoritative state the next firing reads.
//
// This is demonstration wiring, not a production shard runtime: one
// mutex serializes every case on a single simulated shard, where a real
// deployment would partition cases across cfg.Shards goroutines each
// owning a disjoint case set. The lock-free discipline applies to the
// kernel firing itself, not to this illustrative single-process case
// store.
type Engine struct {
	spec      *patterns.WorkflowSpecification
	pointer   *ontology.Pointer
	ring      *observation.Ring
	ts        kernel.TickSource
	validate  *validator.Validate
	hardCap   int
	tickLimit uint8
	shardID   uint32
	log       *logrus.Logger

	mu         sync.Mutex
	cases      map[uint64]*patterns.Case
	projection *projector.Projection
	scratch    *kernel.FiringScratch
}

// NewEngine constructs an Engine over a fixed workflow specification.
func NewEngine(spec *patterns.WorkflowSpecification, pointer *ontology.Pointer, ring *observation.Ring, hardCap int, tickLimit uint8, shardID uint32, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}
	return &Engine{
		spec:      spec,
		pointer:   pointer,
		ring:      ring,
		ts:        kernel.MonotonicTickSource{},
		validate:  validator.New(),
		hardCap:   hardCap,
		tickLimit: tickLimit,
		shardID:   shardID,
		log:       log,
		cases:     make(map[uint64]*patterns.Case),
		scratch:   kernel.NewFiringScratch(16),
	}
}

var _ ingest.Submitter = (*Engine)(nil)

// Submit implements ingest.Submitter: validate, translate, evaluate
// against the currently installed Σ, apply the resulting marking delta,
// and return exactly one receipt. A firing that reaches the kernel
// reports its outcome, including rejection, in the receipt's Fault
// field. A request that fails validation, a projection that fails to
// compile, a run that cannot be converted, and a firing against a case
// already in a terminal state return an error and no receipt.
func (e *Engine) Submit(_ context.Context, req ingest.FiringRequest) (ingest.Receipt, error) {
	if err := e.validate.Struct(req); err != nil {
		return ingest.Receipt{}, fmt.Errorf("enginectl: invalid firing request: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.pointer.Load()
	proj, err := e.projectionLocked(current)
	if err != nil {
		return ingest.Receipt{}, fmt.Errorf("enginectl: compiling projection: %w", err)
	}

	c, ok := e.cases[req.CaseID]
	if !ok {
		c = &patterns.Case{
			ID:      req.CaseID,
			SpecID:  req.SpecID,
			Marking: seedMarking(e.spec, req.TaskID),
			Data:    make(map[uint64][]byte),
			State:   patterns.CaseEnabled,
		}
		e.cases[req.CaseID] = c
	}
	if c.State.IsTerminal() {
		return ingest.Receipt{}, fmt.Errorf("enginectl: case %d is terminal (%s), no further firings admitted", c.ID, c.State)
	}

	snap, run, err := ingest.Convert(req)
	if err != nil {
		return ingest.Receipt{}, err
	}
	snap.MarkingCounts = c.Marking

	budget := kernel.TickBudget{Limit: e.tickLimit}
	delta, _, receipt := kernel.Evaluate(proj.KernelTable, snap, &run, req.PatternID, budget, e.ts, e.shardID, e.scratch)

	applyDelta(c.Marking, delta)
	c.Epoch++
	advanceCaseState(c, receipt, e.spec.Tasks[req.TaskID])

	outcome := "ok"
	if receipt.Fault != kernel.FaultNone {
		outcome = receipt.Fault.String()
	}
	telemetry.RecordFiring(req.PatternID, receipt.TicksUsed, outcome)

	if !e.ring.TryPush(receipt) {
		telemetry.RecordReceiptDropped()
		e.log.WithFields(obslog.KernelFields(req.PatternID, fmt.Sprint(req.CaseID), receipt.TicksUsed, e.tickLimit).ToLogrus()).
			Warn("receipt ring saturated, firing parked (R1 drop-to-park)")
		c.State = patterns.CaseSuspended
	}

	return receipt, nil
}

// projectionLocked returns the cached Projection for the currently
// installed snapshot, recompiling only when the snapshot has changed
// since the last call — the Projector never recompiles on the hot path
// itself, only here at the wiring boundary, once per Σ install.
func (e *Engine) projectionLocked(current *ontology.Snapshot) (*projector.Projection, error) {
	if e.projection != nil && e.projection.SnapshotHash == current.SnapshotHash {
		return e.projection, nil
	}
	proj, err := projector.Compile(current, e.spec, e.hardCap)
	if err != nil {
		return nil, err
	}
	e.projection = proj
	return proj, nil
}

// seedMarking gives a newly observed case one token at the firing
// task's first in-condition, so its very first firing is enabled
// without requiring a separate "start case" submission kind — a
// simplification this demonstration wiring makes explicit; a production
// ingest boundary would seed the full initial marking from the
// specification's declared start conditions at case-creation time.
func seedMarking(spec *patterns.WorkflowSpecification, taskID uint32) patterns.Marking {
	m := make(patterns.Marking)
	cfg, ok := spec.Tasks[taskID]
	if !ok {
		return m
	}
	if len(cfg.InConditions) > 0 {
		m[cfg.InConditions[0]] = 1
	}
	if cfg.Region != nil {
		for _, cond := range cfg.Region.ConditionIDs {
			m[cond] = 1
		}
	}
	return m
}

func applyDelta(m patterns.Marking, delta kernel.MarkingDelta) {
	for _, c := range delta.Consume {
		m.Consume(c.ConditionID, c.Count)
	}
	for _, d := range delta.Deposit {
		m.Deposit(d.ConditionID, d.Count)
	}
}

// advanceCaseState moves a case towards Completed once its marking is
// empty and no fault occurred, or Cancelled once a cancellation
// pattern's scope is fully drained. Cancel region (20) and cancel case
// (21) drain one token per firing, one cancellation receipt per
// cancelled token, so a case stays Executing across the intermediate
// firings a multi-token region or marking requires and only reaches
// Cancelled on the firing that empties it.
func advanceCaseState(c *patterns.Case, r kernel.Receipt, cfg patterns.TaskConfig) {
	if r.Fault != kernel.FaultNone {
		return
	}
	switch {
	case r.PatternID == 20 && regionDrained(c.Marking, cfg.Region):
		c.State = patterns.CaseCancelled
	case (r.PatternID == 19 || r.PatternID == 21) && len(c.Marking) == 0:
		c.State = patterns.CaseCancelled
	case len(c.Marking) == 0:
		c.State = patterns.CaseCompleted
	default:
		c.State = patterns.CaseExecuting
	}
}

// regionDrained reports whether every condition in region currently
// holds zero tokens. A task with no declared region (region is nil)
// falls back to the case's whole marking, matching cancelCaseFn's
// scope.
func regionDrained(m patterns.Marking, region *patterns.RegionInfo) bool {
	if region == nil {
		return len(m) == 0
	}
	for _, id := range region.ConditionIDs {
		if m[id] > 0 {
			return false
		}
	}
	return true
}
