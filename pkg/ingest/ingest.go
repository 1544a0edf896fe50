// Package ingest declares the external-facing submission boundary: the
// FiringRequest DTO callers hand to the engine, validated with
// go-playground/validator/v10 before it is ever translated into a
// kernel.CaseSnapshot/PinnedRun pair. No concrete transport (HTTP/gRPC/
// Kafka) lives here — that wiring belongs to connector implementations;
// cmd/enginectl demonstrates the conversion in-process.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jordigilh/ontoengine/pkg/kernel"
)

// FiringRequest is the caller-facing submission for one pattern firing.
// Fields mirror kernel.CaseSnapshot/PinnedRun but stay string/slice
// friendly for validation and (de)serialization at the boundary; Convert
// translates it into the kernel's fixed-width hot-path types.
type FiringRequest struct {
	CaseID         uint64            `validate:"required"`
	SpecID         uint64            `validate:"required"`
	TaskID         uint32            `validate:"required"`
	PatternID      uint8             `validate:"required,min=1,max=43"`
	MarkingCounts  map[uint64]uint32 `validate:"omitempty"`
	Data           map[uint64][]byte `validate:"omitempty"`
	IncomingTokens []uint64          `validate:"omitempty,max=8,dive"`
	CorrelationID  string            `validate:"omitempty,uuid4"`
}

// Receipt is the ingest-facing mirror of kernel.Receipt, returned to the
// submitter once a firing has been evaluated.
type Receipt = kernel.Receipt

// Submitter is the engine's external submission interface.
// Implementations translate a FiringRequest into a kernel.CaseSnapshot +
// PinnedRun, evaluate it against the compiled dispatch table, and
// return the resulting receipt.
type Submitter interface {
	Submit(ctx context.Context, req FiringRequest) (Receipt, error)
}

// NewCorrelationID mints a fresh correlation id for a FiringRequest that
// did not arrive with one — e.g. a synthetic submission from
// cmd/enginectl's demonstration driver.
func NewCorrelationID() string {
	return uuid.NewString()
}

// Convert translates a validated FiringRequest into the kernel's hot-path
// inputs. It never allocates more than the fixed-size PinnedRun requires
// and never validates req itself — callers must run it through a
// *validator.Validate first (for example one built with validator.New(),
// as cmd/enginectl's Engine does) and reject invalid requests before
// reaching Convert.
func Convert(req FiringRequest) (*kernel.CaseSnapshot, kernel.PinnedRun, error) {
	snap := &kernel.CaseSnapshot{
		CaseID:        req.CaseID,
		SpecID:        req.SpecID,
		TaskID:        req.TaskID,
		MarkingCounts: req.MarkingCounts,
		Data:          req.Data,
	}

	var run kernel.PinnedRun
	for _, tok := range req.IncomingTokens {
		if !run.Push(kernel.Triple{S: tok, P: uint64(req.TaskID), O: uint64(req.PatternID)}) {
			return nil, kernel.PinnedRun{}, fmt.Errorf("ingest: firing request carries more than 8 incoming tokens")
		}
	}
	return snap, run, nil
}
