package kernel

import "time"

// MonotonicTickSource is the production TickSource: it returns the
// wall-clock time.Now().UnixNano() reading unscaled, standing in for a
// cycle count. It is not a hardware cycle
// counter; this engine targets no specific CPU, so evaluate()'s timing
// is advisory telemetry, never part of the budget-exceeded decision
// (tick cost comes from the pattern function itself, not from elapsed
// wall time).
type MonotonicTickSource struct{}

func (MonotonicTickSource) Now() uint64 {
	return uint64(time.Now().UnixNano())
}

// FixedTickSource returns a constant value every call; used in tests that
// need deterministic CycleID/TimestampNS output.
type FixedTickSource uint64

func (f FixedTickSource) Now() uint64 { return uint64(f) }
