// Package ontology implements the versioned, content-addressed ontology
// Σ: immutable snapshots Merkle-chained by parent hash, plus the
// overlay (ΔΣ) state machine the governor drives to produce the next
// snapshot. This package is a leaf: it never imports pkg/kernel or
// pkg/patterns, matching the dependency order Σ ← Π ← (kernel, nets).
package ontology

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
)

// Statement is one RDF-shaped graph edge: a fixed-width identifier
// triple, independent of pkg/kernel.Triple to keep this package a leaf.
type Statement struct {
	S uint64 `json:"s"`
	P uint64 `json:"p"`
	O uint64 `json:"o"`
}

// InvariantRule is one member of Q. Source is opaque text to this
// package, which never interprets it; for tick-expectation rules
// (TickExpectationPrefix) it is the decimal tick count the governor's
// Analyse stage reads.
type InvariantRule struct {
	ID     string `json:"id"`
	Source string `json:"source"`
}

// Snapshot is one immutable Σ version.
type Snapshot struct {
	Graph        []Statement     `json:"graph"`
	Invariants   []InvariantRule `json:"invariants"`
	Version      uint64          `json:"version"`
	ParentHash   [32]byte        `json:"-"`
	SnapshotHash [32]byte        `json:"-"`
}

// canonicalForm is the deterministic encoding target: sorted graph,
// sorted invariants, explicit parent hash and version. Field order is
// fixed by struct declaration, so the JSON encoding is stable across
// builds and content addressing stays deterministic.
type canonicalForm struct {
	Graph      []Statement     `json:"graph"`
	Invariants []InvariantRule `json:"invariants"`
	ParentHash []byte          `json:"parent_hash"`
	Version    uint64          `json:"version"`
}

// Canonicalize returns a sorted copy of graph (by S, then P, then O).
// Canonicalization never mutates its argument.
func Canonicalize(graph []Statement) []Statement {
	out := make([]Statement, len(graph))
	copy(out, graph)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.S != b.S {
			return a.S < b.S
		}
		if a.P != b.P {
			return a.P < b.P
		}
		return a.O < b.O
	})
	return out
}

func canonicalizeInvariants(invariants []InvariantRule) []InvariantRule {
	out := make([]InvariantRule, len(invariants))
	copy(out, invariants)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ComputeHash hashes the canonicalised graph, canonicalised invariants,
// parent hash, and version — the fields that define snapshot identity.
func ComputeHash(graph []Statement, invariants []InvariantRule, parentHash [32]byte, version uint64) [32]byte {
	form := canonicalForm{
		Graph:      Canonicalize(graph),
		Invariants: canonicalizeInvariants(invariants),
		ParentHash: parentHash[:],
		Version:    version,
	}
	encoded, err := json.Marshal(form)
	if err != nil {
		// canonicalForm only contains marshalable primitives and slices
		// thereof; a failure here means a field was added without updating
		// this encoder.
		panic("ontology: canonical form failed to marshal: " + err.Error())
	}
	return sha256.Sum256(encoded)
}

// Genesis builds the first Σ version (version 0, zero parent hash).
func Genesis(graph []Statement, invariants []InvariantRule) *Snapshot {
	var zeroParent [32]byte
	s := &Snapshot{
		Graph:      Canonicalize(graph),
		Invariants: canonicalizeInvariants(invariants),
		Version:    0,
		ParentHash: zeroParent,
	}
	s.SnapshotHash = ComputeHash(s.Graph, s.Invariants, s.ParentHash, s.Version)
	return s
}

// Descendant builds Σ_{parent.Version+1} from a new graph/invariant set,
// chaining ParentHash to parent's SnapshotHash.
func Descendant(parent *Snapshot, graph []Statement, invariants []InvariantRule) *Snapshot {
	s := &Snapshot{
		Graph:      Canonicalize(graph),
		Invariants: canonicalizeInvariants(invariants),
		Version:    parent.Version + 1,
		ParentHash: parent.SnapshotHash,
	}
	s.SnapshotHash = ComputeHash(s.Graph, s.Invariants, s.ParentHash, s.Version)
	return s
}

// RawSnapshot is what a SnapshotLoader (pkg/store, external collaborator)
// presents: the declared hash is untrusted until recomputed.
type RawSnapshot struct {
	Graph        []Statement
	Invariants   []InvariantRule
	Version      uint64
	ParentHash   [32]byte
	DeclaredHash [32]byte
}

// Verify recomputes raw's hash and rejects it if the declared hash does
// not match — "the engine computes the canonical hash and rejects
// snapshots whose computed hash does not match the declared one."
func Verify(raw RawSnapshot) (*Snapshot, error) {
	canonGraph := Canonicalize(raw.Graph)
	canonInv := canonicalizeInvariants(raw.Invariants)
	computed := ComputeHash(canonGraph, canonInv, raw.ParentHash, raw.Version)
	if !bytes.Equal(computed[:], raw.DeclaredHash[:]) {
		return nil, fmt.Errorf("ontology: declared snapshot hash %x does not match computed hash %x", raw.DeclaredHash, computed)
	}
	return &Snapshot{
		Graph:        canonGraph,
		Invariants:   canonInv,
		Version:      raw.Version,
		ParentHash:   raw.ParentHash,
		SnapshotHash: computed,
	}, nil
}

// ChainsFrom reports whether next is a direct, correctly hash-chained
// descendant of prev (invariant 3: Σ_{v+1}.parent_hash = Σ_v.snapshot_hash).
func ChainsFrom(prev, next *Snapshot) bool {
	return next.Version == prev.Version+1 && next.ParentHash == prev.SnapshotHash
}
