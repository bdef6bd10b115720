package sweep_test

import (
	"context"
	"math/rand"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/hooking"
	"github.com/sarchlab/cachesim/sweep"
	"github.com/sarchlab/cachesim/trace"
)

func randomTrace(seed int64, n int) []trace.AccessRecord {
	r := rand.New(rand.NewSource(seed))
	records := make([]trace.AccessRecord, n)

	for i := range records {
		records[i].Address = uint64(r.Int63n(1 << 20))
		if r.Intn(4) == 0 {
			records[i].Op = trace.Write
		}
	}

	return records
}

var _ = Describe("Candidates", func() {
	It("should build the default grid", func() {
		c := sweep.DefaultCandidates()

		Expect(c).To(HaveLen(25))
		Expect(c[:5]).To(Equal([]sweep.Candidate{
			{Ways: 1, SetCount: 128},
			{Ways: 2, SetCount: 64},
			{Ways: 4, SetCount: 32},
			{Ways: 8, SetCount: 16},
			{Ways: 16, SetCount: 8},
		}))
		Expect(c[20]).To(Equal(sweep.Candidate{Ways: 1, SetCount: 2048}))
		Expect(c[24]).To(Equal(sweep.Candidate{Ways: 16, SetCount: 128}))
	})

	It("should keep the capacity constant within a group", func() {
		c := sweep.DefaultCandidates()

		for group := 0; group < 5; group++ {
			blocks := c[group*5].Ways * c[group*5].SetCount
			for _, cand := range c[group*5 : group*5+5] {
				Expect(cand.Ways * cand.SetCount).To(Equal(blocks))
			}
		}
	})

	It("should cross ways and set counts", func() {
		Expect(sweep.Cross([]int{1, 2}, []int{4, 8})).To(Equal([]sweep.Candidate{
			{Ways: 1, SetCount: 4},
			{Ways: 1, SetCount: 8},
			{Ways: 2, SetCount: 4},
			{Ways: 2, SetCount: 8},
		}))
	})
})

var _ = Describe("Sweep", func() {
	var (
		mockCtrl *gomock.Controller
		records  []trace.AccessRecord
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		records = randomTrace(1, 2000)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should return outcomes in candidate order", func() {
		s := sweep.MakeBuilder().WithWorkers(4).Build()

		outcomes := s.Run(context.Background(), records, "random")

		Expect(outcomes).To(HaveLen(25))
		for i, o := range outcomes {
			Expect(o.Err).NotTo(HaveOccurred())
			Expect(o.Candidate).To(Equal(s.Candidates()[i]))

			g := cache.MustNewGeometry(o.Candidate.Ways, 32, o.Candidate.SetCount, 48)
			Expect(o.Result).To(Equal(cache.Run(records, g, "random")))
		}
	})

	It("should give the same outcomes with one or many workers", func() {
		serial := sweep.MakeBuilder().WithWorkers(1).Build().
			Run(context.Background(), records, "")
		parallel := sweep.MakeBuilder().WithWorkers(8).Build().
			Run(context.Background(), records, "")

		Expect(parallel).To(Equal(serial))
	})

	It("should isolate invalid candidates", func() {
		s := sweep.MakeBuilder().
			WithBlockSize(64).
			WithAddressBits(32).
			WithCandidates(
				sweep.Candidate{Ways: 1, SetCount: 16},
				sweep.Candidate{Ways: 1, SetCount: 100},
				sweep.Candidate{Ways: 2, SetCount: 16},
			).
			Build()

		outcomes := s.Run(context.Background(), records, "")

		Expect(outcomes[0].Failed()).To(BeFalse())
		Expect(outcomes[1].Err).To(MatchError(cache.ErrInvalidGeometry))
		Expect(outcomes[1].Err.Error()).To(ContainSubstring("1-way, 100 sets"))
		Expect(outcomes[2].Failed()).To(BeFalse())
		Expect(outcomes[2].Result.Geometry.BlockSize()).To(Equal(64))
		Expect(sweep.Errors(outcomes)).To(MatchError(cache.ErrInvalidGeometry))
	})

	It("should fail candidates after cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		outcomes := sweep.MakeBuilder().Build().Run(ctx, records, "")

		for _, o := range outcomes {
			Expect(o.Err).To(MatchError(context.Canceled))
		}
	})

	It("should report progress for every candidate", func() {
		progress := NewMockProgressTracker(mockCtrl)
		progress.EXPECT().IncrementInProgress(uint64(1)).Times(3)
		progress.EXPECT().MoveInProgressToFinished(uint64(1)).Times(3)

		s := sweep.MakeBuilder().
			WithProgress(progress).
			WithCandidates(sweep.Cross([]int{1}, []int{1, 2, 3})...).
			Build()

		outcomes := s.Run(context.Background(), records, "")
		Expect(sweep.Errors(outcomes)).To(HaveOccurred())
	})

	It("should attach hooks to every simulator", func() {
		var count atomic.Int64
		hook := hooking.HookFunc(func(ctx hooking.HookCtx) {
			if ctx.Pos == cache.HookPosAccess {
				count.Add(1)
			}
		})

		s := sweep.MakeBuilder().
			WithHooks(hook).
			WithCandidates(sweep.Cross([]int{1, 2}, []int{8})...).
			Build()

		s.Run(context.Background(), records, "")

		Expect(count.Load()).To(Equal(int64(2 * len(records))))
	})

	It("should panic without workers", func() {
		Expect(func() { sweep.MakeBuilder().WithWorkers(0).Build() }).To(Panic())
	})
})
