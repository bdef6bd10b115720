package branch_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/branch"
	"github.com/sarchlab/cachesim/trace"
)

func branches(address string, outcomes ...bool) []trace.BranchRecord {
	records := make([]trace.BranchRecord, len(outcomes))
	for i, taken := range outcomes {
		records[i] = trace.BranchRecord{Address: address, Taken: taken}
	}

	return records
}

var _ = Describe("TwoBitCounter", func() {
	var c *branch.TwoBitCounter

	BeforeEach(func() {
		c = branch.NewTwoBitCounter()
	})

	It("should start strongly not taken", func() {
		Expect(c.State("000001")).To(Equal(branch.StronglyNotTaken))
		Expect(c.Predict("000001")).To(BeFalse())
	})

	DescribeTable("state transitions",
		func(from uint8, taken bool, to uint8, mispredicted bool) {
			for c.State("a") < from {
				c.Update("a", true)
			}

			Expect(c.Predict("a") != taken).To(Equal(mispredicted))
			c.Update("a", taken)
			Expect(c.State("a")).To(Equal(to))
		},
		Entry("00 taken", branch.StronglyNotTaken, true, branch.WeaklyNotTaken, true),
		Entry("01 taken", branch.WeaklyNotTaken, true, branch.WeaklyTaken, true),
		Entry("10 taken", branch.WeaklyTaken, true, branch.StronglyTaken, false),
		Entry("11 taken", branch.StronglyTaken, true, branch.StronglyTaken, false),
		Entry("00 not taken", branch.StronglyNotTaken, false, branch.StronglyNotTaken, false),
		Entry("01 not taken", branch.WeaklyNotTaken, false, branch.StronglyNotTaken, false),
		Entry("10 not taken", branch.WeaklyTaken, false, branch.WeaklyNotTaken, true),
		Entry("11 not taken", branch.StronglyTaken, false, branch.WeaklyTaken, true),
	)

	It("should keep one counter per branch", func() {
		c.Update("a", true)
		c.Update("a", true)

		Expect(c.Predict("a")).To(BeTrue())
		Expect(c.Predict("b")).To(BeFalse())
	})
})

var _ = Describe("Predictors", func() {
	It("should reject an empty trace", func() {
		_, err := branch.AlwaysTaken(nil)
		Expect(err).To(MatchError(branch.ErrNoBranchesObserved))

		_, err = branch.TwoBit(nil)
		Expect(err).To(MatchError(branch.ErrNoBranchesObserved))

		_, err = branch.Analyze(nil)
		Expect(err).To(MatchError(branch.ErrNoBranchesObserved))
	})

	It("should count static mispredictions", func() {
		records := branches("000001", true, false, false, true, false)

		rate, err := branch.AlwaysTaken(records)
		Expect(err).NotTo(HaveOccurred())
		Expect(rate).To(Equal(0.6))

		rate, err = branch.AlwaysNotTaken(records)
		Expect(err).NotTo(HaveOccurred())
		Expect(rate).To(Equal(0.4))
	})

	It("should predict the majority direction per branch", func() {
		records := append(
			branches("000001", true, true, false),
			branches("000002", false, false, true, false)...,
		)

		rate, err := branch.ProfileGuided(records)
		Expect(err).NotTo(HaveOccurred())
		Expect(rate).To(BeNumerically("~", 2.0/7.0, 1e-12))
	})

	It("should predict taken on an even split", func() {
		p := branch.NewProfile(branches("000001", true, false))

		Expect(p.Predict("000001")).To(BeTrue())
		Expect(p.Predict("unseen")).To(BeFalse())
	})

	It("should warm up the two-bit counters", func() {
		// 00 -> 01 -> 10 -> 11 -> 11: the first two are mispredicted.
		records := branches("000001", true, true, true, true)

		rate, err := branch.TwoBit(records)
		Expect(err).NotTo(HaveOccurred())
		Expect(rate).To(Equal(0.5))
	})

	It("should not depend on interleaving across branches", func() {
		a := branches("00000a", true, true, false, true)
		b := branches("00000b", false, true, true, true)

		var interleaved []trace.BranchRecord
		for i := range a {
			interleaved = append(interleaved, a[i], b[i])
		}

		grouped, err := branch.TwoBit(append(append([]trace.BranchRecord{}, a...), b...))
		Expect(err).NotTo(HaveOccurred())

		mixed, err := branch.TwoBit(interleaved)
		Expect(err).NotTo(HaveOccurred())
		Expect(mixed).To(Equal(grouped))
	})

	It("should analyze a trace with every predictor", func() {
		records := branches("000001", true, true, false, true)

		r, err := branch.Analyze(records)
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(branch.Report{
			Branches:       4,
			AlwaysTaken:    0.25,
			AlwaysNotTaken: 0.75,
			ProfileGuided:  0.25,
			TwoBit:         1,
		}))
	})
})
