// Package projector compiles an ontology snapshot plus one workflow
// specification into the artifacts the hot path and the pattern-net
// layer consume: a kernel-level dispatch table, the pattern-net table,
// a compiled guard table, and the per-specification static analysis
// products (cancellation regions, OR-split decomposition, multi-instance
// bounds). Compilation happens once per (snapshot, spec) pair, here,
// never on the hot path — pkg/kernel.Evaluate only ever indexes into the
// tables this package already built.
package projector

import (
	"crypto/sha256"
	"sort"

	"github.com/jordigilh/ontoengine/pkg/kernel"
	"github.com/jordigilh/ontoengine/pkg/ontology"
	"github.com/jordigilh/ontoengine/pkg/patterns"
	"github.com/jordigilh/ontoengine/pkg/patterns/catalogue"
)

// Projection is the compiled, content-addressed output of Compile. Two
// calls to Compile with bitwise-identical (snapshot, spec) arguments
// produce a Projection with the same Hash: identical Σ snapshots yield
// bitwise-identical projections.
type Projection struct {
	SnapshotHash [32]byte
	SpecID       uint64
	Hash         [32]byte

	KernelTable  *kernel.DispatchTable
	PatternTable *patterns.Table
	Guards       *GuardTable

	Tasks   map[uint32]patterns.TaskConfig
	Regions map[string]patterns.RegionInfo

	// ORDecomposition maps a structured-synchronising-merge task id
	// (pattern 7) to those of its in-conditions produced by an OR-split
	// (pattern 6) task. The firing path does not read this table: the
	// merge joins the run's subject lanes, or all of its InConditions
	// when the run carries none.
	ORDecomposition map[uint32][]uint64

	// MIBounds maps a multi-instance task id to its spawn bound: the
	// task's own MI.Bound when it is positive and no larger than the
	// configuration surface's multi_instance_hard_cap, else that cap.
	// Pattern firings read TaskConfig.MI.Bound, not this map.
	MIBounds map[uint32]int
}

// Compile builds a Projection from a Σ snapshot and one workflow
// specification. The per-task guard expression lists already present
// on spec's TaskConfig entries are compiled into a GuardTable
// (CompileGuards) before the kernel dispatch table is built, since
// buildKernelTable wires the compiled guards into every task's firing
// path (adaptPattern vetoes a firing whose guards fail, the same as an
// unsatisfied precondition).
func Compile(snapshot *ontology.Snapshot, spec *patterns.WorkflowSpecification, multiInstanceHardCap int) (*Projection, error) {
	patternTable := catalogue.Build()

	guardsByTask := make(map[uint32][]string, len(spec.Tasks))
	for id, cfg := range spec.Tasks {
		if len(cfg.GuardExprs) > 0 {
			guardsByTask[id] = cfg.GuardExprs
		}
	}
	guards, err := CompileGuards(guardsByTask)
	if err != nil {
		return nil, err
	}

	kernelTable := buildKernelTable(patternTable, spec, guards)

	tasks := make(map[uint32]patterns.TaskConfig, len(spec.Tasks))
	for id, cfg := range spec.Tasks {
		tasks[id] = cfg
	}

	regions := make(map[string]patterns.RegionInfo, len(spec.Regions))
	for id, r := range spec.Regions {
		regions[id] = r
	}

	orDecomp := compileORDecomposition(spec)
	miBounds := compileMIBounds(spec, multiInstanceHardCap)

	p := &Projection{
		SnapshotHash:    snapshot.SnapshotHash,
		SpecID:          spec.ID,
		KernelTable:     kernelTable,
		PatternTable:    patternTable,
		Guards:          guards,
		Tasks:           tasks,
		Regions:         regions,
		ORDecomposition: orDecomp,
		MIBounds:        miBounds,
	}
	p.Hash = computeProjectionHash(snapshot.SnapshotHash, spec)
	return p, nil
}

// compileORDecomposition computes, for every structured-synchronising-
// merge task (pattern 7), the set of in-conditions whose producing task
// is an OR-split (pattern 6). A condition produced by any other pattern
// is not part of the decomposition — the merge only ever joins branches
// an OR-split could actually have enabled.
func compileORDecomposition(spec *patterns.WorkflowSpecification) map[uint32][]uint64 {
	producer := make(map[uint64]uint32, len(spec.Conditions))
	for taskID, cfg := range spec.Tasks {
		for _, cond := range cfg.OutConditions {
			producer[cond] = taskID
		}
	}

	out := make(map[uint32][]uint64)
	for taskID, cfg := range spec.Tasks {
		if cfg.PatternID != 7 {
			continue
		}
		var branches []uint64
		for _, cond := range cfg.InConditions {
			if prodID, ok := producer[cond]; ok {
				if prodCfg, ok := spec.Tasks[prodID]; ok && prodCfg.PatternID == 6 {
					branches = append(branches, cond)
				}
			}
		}
		out[taskID] = branches
	}
	return out
}

// compileMIBounds resolves the effective hard bound on dynamically
// spawned instances for every multi-instance task (patterns 12-15),
// falling back to the configuration surface's hard cap when the task
// itself declares none or declares one above the cap.
func compileMIBounds(spec *patterns.WorkflowSpecification, hardCap int) map[uint32]int {
	out := make(map[uint32]int)
	for taskID, cfg := range spec.Tasks {
		if cfg.MI == nil {
			continue
		}
		bound := cfg.MI.Bound
		if bound <= 0 || bound > hardCap {
			bound = hardCap
		}
		out[taskID] = bound
	}
	return out
}

// computeProjectionHash is deterministic over the snapshot hash, the
// specification id, and each task's id and pattern id, sorted by task id
// so map iteration order never leaks into the hash. Condition ids are
// not hashed.
func computeProjectionHash(snapshotHash [32]byte, spec *patterns.WorkflowSpecification) [32]byte {
	h := sha256.New()
	h.Write(snapshotHash[:])
	writeUint64(h, spec.ID)

	taskIDs := make([]uint32, 0, len(spec.Tasks))
	for id := range spec.Tasks {
		taskIDs = append(taskIDs, id)
	}
	sort.Slice(taskIDs, func(i, j int) bool { return taskIDs[i] < taskIDs[j] })
	for _, id := range taskIDs {
		cfg := spec.Tasks[id]
		writeUint64(h, uint64(id))
		h.Write([]byte{cfg.PatternID})
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func writeUint64(h interface{ Write([]byte) (int, error) }, v uint64) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	h.Write(buf[:])
}
