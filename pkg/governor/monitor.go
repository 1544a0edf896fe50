package governor

import (
	"context"
	"time"

	"github.com/jordigilh/ontoengine/internal/obslog"
	"github.com/jordigilh/ontoengine/internal/telemetry"
	"github.com/jordigilh/ontoengine/pkg/governor/breaker"
	"github.com/jordigilh/ontoengine/pkg/kernel"
	"github.com/jordigilh/ontoengine/pkg/observation"
	"github.com/sirupsen/logrus"
)

// AuditSink is the external collaborator Monitor forwards drained
// receipts to for durable audit retention. It is an interface only; concrete wiring lives outside this
// module (pkg/store, cmd/enginectl's demonstration doubles).
type AuditSink interface {
	Append(ctx context.Context, r kernel.Receipt) error
}

// Monitor drains the receipt ring in bounded batches (default batch 64)
// and maintains P² percentile statistics per pattern id. The statistics
// accumulate every receipt drained since the Monitor was constructed; no
// bounded window is applied, and config.MonitorWindow is not consulted.
type Monitor struct {
	ring      *observation.Ring
	batchSize int

	windows      map[uint8]*observation.Stats
	budgetFaults map[uint8]uint64

	sink    AuditSink
	breaker *breaker.CircuitBreaker

	log *logrus.Logger
}

// NewMonitor constructs a Monitor. sink may be nil, in which case
// drained receipts are only folded into the per-pattern statistics and never
// forwarded for audit (useful for tests and for engines that have not
// yet wired a concrete audit collaborator).
func NewMonitor(ring *observation.Ring, batchSize int, sink AuditSink, log *logrus.Logger) *Monitor {
	if log == nil {
		log = logrus.New()
	}
	return &Monitor{
		ring:         ring,
		batchSize:    batchSize,
		windows:      make(map[uint8]*observation.Stats),
		budgetFaults: make(map[uint8]uint64),
		sink:         sink,
		breaker:      breaker.NewCircuitBreaker("audit-sink", 0.5, 30*time.Second),
		log:          log,
	}
}

// Drain pops up to batchSize receipts, folds them into the per-pattern
// statistics, and — best-effort, breaker-guarded — forwards them to the
// audit sink. A sink failure never blocks Monitor and never drops the
// already-computed statistics; it only skips that batch's audit
// forwarding, logging the degraded mode once per batch.
func (m *Monitor) Drain(ctx context.Context) DrainResult {
	start := time.Now()
	defer func() { telemetry.RecordGovernorStage("monitor", time.Since(start)) }()

	batch := m.ring.DrainBatch(m.batchSize)
	result := DrainResult{
		Processed:    len(batch),
		DroppedTotal: m.ring.Dropped(),
		PerPattern:   make(map[uint8]observation.Snapshot),
		BudgetFaults: make(map[uint8]uint64),
		At:           time.Now(),
	}

	forwarding := m.sink != nil
	for _, rec := range batch {
		w, ok := m.windows[rec.PatternID]
		if !ok {
			w = observation.NewStats()
			m.windows[rec.PatternID] = w
		}
		w.Observe(float64(rec.TicksUsed))
		if rec.Fault&kernel.FaultBudgetExceeded != 0 {
			m.budgetFaults[rec.PatternID]++
		}

		if forwarding {
			if err := m.breaker.Call(func() error { return m.sink.Append(ctx, rec) }); err != nil {
				m.log.WithFields(obslog.GovernorFields("monitor").Error(err).ToLogrus()).
					Warn("audit sink degraded, continuing without forwarding this batch")
				forwarding = false
			}
		}
	}

	for id, w := range m.windows {
		result.PerPattern[id] = w.Snapshot()
	}
	for id, n := range m.budgetFaults {
		result.BudgetFaults[id] = n
	}
	return result
}

// Dropped reports the ring's cumulative drop count (R1 backpressure:
// drop-to-park).
func (m *Monitor) Dropped() uint64 {
	return m.ring.Dropped()
}
