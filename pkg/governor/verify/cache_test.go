package verify_test

import (
	"testing"
	"time"

	"github.com/jordigilh/ontoengine/pkg/governor/verify"
)

func TestProofCache_PutGet(t *testing.T) {
	c := verify.NewProofCache(2, time.Hour)
	c.Put("a", verify.ProofRecord{ObligationID: "a", Sat: true, CachedAt: time.Now()})

	rec, ok := c.Get("a")
	if !ok {
		t.Fatalf("expected cache hit for key a")
	}
	if !rec.Sat {
		t.Fatalf("expected cached verdict sat=true")
	}
}

func TestProofCache_Miss(t *testing.T) {
	c := verify.NewProofCache(2, time.Hour)
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss on empty cache")
	}
}

func TestProofCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := verify.NewProofCache(2, time.Hour)
	c.Put("a", verify.ProofRecord{ObligationID: "a", Sat: true, CachedAt: time.Now()})
	c.Put("b", verify.ProofRecord{ObligationID: "b", Sat: true, CachedAt: time.Now()})

	// Touch a so it becomes most-recently-used, leaving b as the eviction
	// candidate.
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected hit for a")
	}
	c.Put("c", verify.ProofRecord{ObligationID: "c", Sat: true, CachedAt: time.Now()})

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("expected c to be present")
	}
	if c.Len() != 2 {
		t.Fatalf("expected cache to hold exactly 2 entries, got %d", c.Len())
	}
}

func TestProofCache_ExpiresByTTL(t *testing.T) {
	c := verify.NewProofCache(4, time.Millisecond)
	c.Put("a", verify.ProofRecord{ObligationID: "a", Sat: true, CachedAt: time.Now()})
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestProofCache_ZeroCapacityDisablesCaching(t *testing.T) {
	c := verify.NewProofCache(0, time.Hour)
	c.Put("a", verify.ProofRecord{ObligationID: "a", Sat: true, CachedAt: time.Now()})

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected zero-capacity cache to never hit")
	}
}
