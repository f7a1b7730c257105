package qr_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/fns-bill/internal/qr"
)

var _ = Describe("Policy", func() {
	candidates := []qr.Candidate{
		{Text: "a", ErrorsCorrected: 3},
		{Text: "b", ErrorsCorrected: 1},
		{Text: "c", ErrorsCorrected: 1},
		{Text: "d", ErrorsCorrected: 2},
	}

	It("picks the last success", func() {
		Expect(qr.LastSuccess(candidates).Text).To(Equal("d"))
	})

	It("picks the first success", func() {
		Expect(qr.FirstSuccess(candidates).Text).To(Equal("a"))
	})

	It("picks the cleanest read, earliest on ties", func() {
		Expect(qr.HighestConfidence(candidates).Text).To(Equal("b"))
	})

	DescribeTable("ParsePolicy",
		func(name, want string) {
			p, err := qr.ParsePolicy(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(p(candidates).Text).To(Equal(want))
		},
		Entry("default", "", "d"),
		Entry("last", "last", "d"),
		Entry("first", "first", "a"),
		Entry("confidence", "confidence", "b"),
	)

	It("rejects unknown names", func() {
		_, err := qr.ParsePolicy("random")
		Expect(err).To(MatchError(ContainSubstring(`unknown qr policy "random"`)))
	})
})
