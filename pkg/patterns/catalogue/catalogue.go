// Package catalogue implements all 43 workflow control-flow patterns as
// pkg/patterns.PatternFn entries. Patterns are not 43 hand-written
// special cases: each is a thin wrapper around a handful of generic
// marking-manipulation primitives (canConsumeAll, consumeAll, depositAll,
// countEnabled, firstEnabled, drainRegion), differentiated purely
// by the TaskConfig the Projector compiles for that task (join arity,
// threshold, region membership, MI bounds, guard list). This mirrors
// how real YAWL-family engines implement pattern variants: shared
// firing machinery, varying static configuration.
package catalogue

import "github.com/jordigilh/ontoengine/pkg/patterns"

// Build assembles the full 43-entry dispatch table.
func Build() *patterns.Table {
	var t patterns.Table
	registerBasic(&t)
	registerBranching(&t)
	registerMultiInstance(&t)
	registerStateBased(&t)
	registerCancellation(&t)
	registerAdvanced(&t)
	registerTriggers(&t)
	return &t
}

// --- shared primitives -----------------------------------------------

// canConsumeAll reports whether n tokens are available at every id in ids.
func canConsumeAll(m patterns.Marking, ids []uint64, n uint32) bool {
	for _, id := range ids {
		if m[id] < n {
			return false
		}
	}
	return true
}

func consumeAll(m patterns.Marking, ids []uint64, n uint32) {
	for _, id := range ids {
		m.Consume(id, n)
	}
}

func depositAll(m patterns.Marking, ids []uint64, n uint32) {
	for _, id := range ids {
		m.Deposit(id, n)
	}
}

// countEnabled reports how many of ids currently hold at least one token.
func countEnabled(m patterns.Marking, ids []uint64) int {
	c := 0
	for _, id := range ids {
		if m[id] > 0 {
			c++
		}
	}
	return c
}

// firstEnabled returns the first id in ids holding a token, and whether one was found.
func firstEnabled(m patterns.Marking, ids []uint64) (uint64, bool) {
	for _, id := range ids {
		if m[id] > 0 {
			return id, true
		}
	}
	return 0, false
}

// firstLiveID returns the lowest condition id currently holding a token
// anywhere in m, and whether one was found. Scanning for the minimum
// rather than returning whatever range happens to visit first keeps
// cancel-case's per-firing token choice deterministic across replays,
// since Go's map iteration order is randomized per process.
func firstLiveID(m patterns.Marking) (uint64, bool) {
	var min uint64
	found := false
	for id, count := range m {
		if count > 0 && (!found || id < min) {
			min = id
			found = true
		}
	}
	return min, found
}

// drainRegion removes every token from every condition in ids, returning
// one output entry per token removed — the accounting cancellation
// regions need to emit one receipt per cancelled token (scenario D).
func drainRegion(m patterns.Marking, ids []uint64) []uint64 {
	var removed []uint64
	for _, id := range ids {
		count := m[id]
		for i := uint32(0); i < count; i++ {
			removed = append(removed, id)
		}
		delete(m, id)
	}
	return removed
}

func outOf(cfg *patterns.TaskConfig) uint64 {
	if len(cfg.OutConditions) == 0 {
		return 0
	}
	return cfg.OutConditions[0]
}

func inOf(cfg *patterns.TaskConfig) uint64 {
	if len(cfg.InConditions) == 0 {
		return 0
	}
	return cfg.InConditions[0]
}
