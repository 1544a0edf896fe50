package verify_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jordigilh/ontoengine/pkg/governor/verify"
)

func TestOPAProofChecker(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "OPA Proof Checker Suite")
}

const baseModule = `package base

allow { true }
`

const satObligation = `package obligation

allow {
	input.new_expectation <= 8
	input.new_expectation > 0
}
`

const unsatObligation = `package obligation

allow {
	input.new_expectation > 1000
}
`

var _ = Describe("OPAProofChecker", func() {
	var cache *verify.ProofCache

	BeforeEach(func() {
		cache = verify.NewProofCache(16, time.Minute)
	})

	It("discharges a satisfiable obligation to sat", func() {
		checker := verify.NewOPAProofChecker(baseModule, 200*time.Millisecond, cache)

		verdict, err := checker.Discharge(context.Background(), verify.Obligation{
			ID:      "ob-1",
			Source:  satObligation,
			Query:   "data.obligation.allow",
			Context: map[string]interface{}{"new_expectation": 8},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(verdict).To(Equal(verify.VerdictSat))
	})

	It("discharges an unsatisfiable obligation to unsat", func() {
		checker := verify.NewOPAProofChecker(baseModule, 200*time.Millisecond, cache)

		verdict, err := checker.Discharge(context.Background(), verify.Obligation{
			ID:      "ob-2",
			Source:  unsatObligation,
			Query:   "data.obligation.allow",
			Context: map[string]interface{}{"new_expectation": 8},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(verdict).To(Equal(verify.VerdictUnsat))
	})

	It("serves a repeated obligation from the cache without re-evaluating", func() {
		checker := verify.NewOPAProofChecker(baseModule, 200*time.Millisecond, cache)
		ob := verify.Obligation{
			ID:      "ob-3",
			Source:  satObligation,
			Query:   "data.obligation.allow",
			Context: map[string]interface{}{"new_expectation": 8},
		}

		first, err := checker.Discharge(context.Background(), ob)
		Expect(err).NotTo(HaveOccurred())
		Expect(first).To(Equal(verify.VerdictSat))
		Expect(cache.Len()).To(Equal(1))

		second, err := checker.Discharge(context.Background(), ob)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(verify.VerdictSat))
	})

	It("returns unknown with a wrapped error when the obligation source fails to compile", func() {
		checker := verify.NewOPAProofChecker(baseModule, 200*time.Millisecond, cache)

		verdict, err := checker.Discharge(context.Background(), verify.Obligation{
			ID:      "ob-4",
			Source:  "this is not valid rego",
			Query:   "data.obligation.allow",
			Context: map[string]interface{}{"new_expectation": 8},
		})

		Expect(err).To(HaveOccurred())
		Expect(verdict).To(Equal(verify.VerdictUnknown))
	})
})
