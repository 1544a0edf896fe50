package verify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/open-policy-agent/opa/rego"
	"github.com/sony/gobreaker"

	"github.com/jordigilh/ontoengine/internal/obserr"
	"github.com/jordigilh/ontoengine/internal/telemetry"
)

// Verdict is the Verify stage's answer for one obligation: sat (proof
// discharged), unsat (the overlay is unprovable), or unknown (the
// checker could not decide within its timeout).
type Verdict string

const (
	VerdictSat     Verdict = "sat"
	VerdictUnsat   Verdict = "unsat"
	VerdictUnknown Verdict = "unknown"
)

// Obligation is one proof obligation an overlay change carries: Rego
// source text that must evaluate true against the current Σ's
// invariants for the change to be admissible.
type Obligation struct {
	ID      string
	Source  string
	Query   string // Rego query, e.g. "data.engine.allow"
	Context map[string]interface{}
}

// ProofChecker discharges proof obligations for overlay changes.
// Implementations must never block the hot path; the governor only ever
// calls Discharge from its Verify stage, which is explicitly permitted
// to suspend.
type ProofChecker interface {
	Discharge(ctx context.Context, ob Obligation) (Verdict, error)
}

// OPAProofChecker discharges obligations against github.com/open-policy-
// agent/opa/rego, treating "Q ∧ ΔΣ" as one conjunctive Rego query per
// obligation: the obligation's own clause conjoined with the base
// invariant module every Σ snapshot carries. A proof cache is consulted
// first (content-addressed by obligation id); a gobreaker-wrapped call
// guards against a wedged policy engine, degrading to VerdictUnknown
// (mapped to OverlayUnprovable by the governor) rather than stalling
// Plan/Verify indefinitely.
type OPAProofChecker struct {
	baseModule string
	timeout    time.Duration
	cache      *ProofCache
	cb         *gobreaker.CircuitBreaker
}

// NewOPAProofChecker constructs a checker. baseModule is the Rego source
// for Q, the invariant set every obligation is conjoined against.
// timeout bounds a single obligation's evaluation (the configured
// smt_timeout_ms); cache is the shared, TTL-bounded proof cache.
func NewOPAProofChecker(baseModule string, timeout time.Duration, cache *ProofCache) *OPAProofChecker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "opa-proof-checker",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &OPAProofChecker{baseModule: baseModule, timeout: timeout, cache: cache, cb: cb}
}

// Discharge evaluates ob, consulting the cache first and recording a
// fresh verdict on a miss.
func (c *OPAProofChecker) Discharge(ctx context.Context, ob Obligation) (Verdict, error) {
	key := obligationKey(ob)
	if rec, ok := c.cache.Get(key); ok {
		telemetry.RecordProofCacheLookup(true)
		if rec.Sat {
			return VerdictSat, nil
		}
		return VerdictUnsat, nil
	}
	telemetry.RecordProofCacheLookup(false)

	verdict, err := c.evaluate(ctx, ob)
	if err == nil && verdict != VerdictUnknown {
		c.cache.Put(key, ProofRecord{ObligationID: ob.ID, Sat: verdict == VerdictSat, CachedAt: time.Now()})
	}
	return verdict, err
}

func (c *OPAProofChecker) evaluate(ctx context.Context, ob Obligation) (Verdict, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		evalCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		r := rego.New(
			rego.Query(ob.Query),
			rego.Module("base.rego", c.baseModule),
			rego.Module("obligation.rego", ob.Source),
			rego.Input(ob.Context),
		)
		rs, err := r.Eval(evalCtx)
		if err != nil {
			return nil, err
		}
		return resultSetIsSat(rs), nil
	})
	if err != nil {
		if err == context.DeadlineExceeded || err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return VerdictUnknown, nil
		}
		return VerdictUnknown, obserr.FailedToWithDetails("discharge proof obligation", "opa", ob.ID, err)
	}
	if sat, _ := result.(bool); sat {
		return VerdictSat, nil
	}
	return VerdictUnsat, nil
}

// resultSetIsSat reports whether a Rego ResultSet is non-empty and its
// sole expression value is truthy — the conjunctive "Q ∧ ΔΣ ≠ ⊥" check.
func resultSetIsSat(rs rego.ResultSet) bool {
	if len(rs) == 0 {
		return false
	}
	for _, expr := range rs[0].Expressions {
		if b, ok := expr.Value.(bool); ok {
			return b
		}
	}
	return true
}

func obligationKey(ob Obligation) string {
	h := sha256.New()
	h.Write([]byte(ob.ID))
	h.Write([]byte(ob.Query))
	h.Write([]byte(ob.Source))
	return hex.EncodeToString(h.Sum(nil))
}

// ErrNotDischarged is returned by fake/test checkers that have no
// recorded verdict for an obligation id.
var ErrNotDischarged = fmt.Errorf("verify: no verdict recorded for obligation")
