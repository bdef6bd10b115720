package tagging

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Store", func() {
	var (
		mockCtrl *gomock.Controller
		store    *Store
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		store = NewStore(4, 2, nil)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should start empty", func() {
		Expect(store.NumSets()).To(Equal(0))
		Expect(store.NumWays()).To(Equal(2))

		_, ok := store.Lookup(0, 0x10)
		Expect(ok).To(BeFalse())
	})

	It("should create sets lazily", func() {
		store.Access(3, 0x10)

		Expect(store.NumSets()).To(Equal(1))
		_, ok := store.Set(3)
		Expect(ok).To(BeTrue())
		_, ok = store.Set(0)
		Expect(ok).To(BeFalse())
	})

	It("should insert on a miss with counter 1", func() {
		outcome := store.Access(0, 0x10)

		Expect(outcome).To(Equal(Outcome{Count: 1}))
		count, ok := store.Lookup(0, 0x10)
		Expect(ok).To(BeTrue())
		Expect(count).To(Equal(uint64(1)))
	})

	It("should bump the counter on a hit", func() {
		store.Access(0, 0x10)
		outcome := store.Access(0, 0x10)

		Expect(outcome.Hit).To(BeTrue())
		Expect(outcome.Evicted).To(BeFalse())
		Expect(outcome.Count).To(Equal(uint64(2)))
	})

	It("should bump the counter on a hit in a full set", func() {
		store.Access(0, 0x10)
		store.Access(0, 0x20)
		outcome := store.Access(0, 0x20)

		Expect(outcome.Hit).To(BeTrue())
		Expect(outcome.Count).To(Equal(uint64(2)))
	})

	It("should evict the least touched tag when the set is full", func() {
		store.Access(0, 0x10)
		store.Access(0, 0x10)
		store.Access(0, 0x20)

		outcome := store.Access(0, 0x30)

		Expect(outcome.Hit).To(BeFalse())
		Expect(outcome.Evicted).To(BeTrue())
		Expect(outcome.Victim).To(Equal(Block{Tag: 0x20, Count: 1}))
		Expect(outcome.Count).To(Equal(uint64(1)))

		set, _ := store.Set(0)
		Expect(set.Blocks()).To(Equal([]Block{
			{Tag: 0x10, Count: 2},
			{Tag: 0x30, Count: 1},
		}))
	})

	It("should break ties by the smallest tag", func() {
		store.Access(0, 0x20)
		store.Access(0, 0x10)

		outcome := store.Access(0, 0x30)

		Expect(outcome.Victim.Tag).To(Equal(uint64(0x10)))
	})

	It("should keep sets independent", func() {
		store.Access(0, 0x10)
		store.Access(0, 0x20)
		store.Access(1, 0x30)

		outcome := store.Access(1, 0x40)

		Expect(outcome.Evicted).To(BeFalse())
	})

	It("should ask the victim finder only when the set is full", func() {
		vf := NewMockVictimFinder(mockCtrl)
		store = NewStore(1, 1, vf)

		store.Access(0, 0x10)

		vf.EXPECT().
			FindVictim(gomock.Any()).
			Return(Block{Tag: 0x10, Count: 1})

		outcome := store.Access(0, 0x20)
		Expect(outcome.Victim.Tag).To(Equal(uint64(0x10)))
	})

	It("should panic if the victim finder leaves the set over capacity", func() {
		vf := NewMockVictimFinder(mockCtrl)
		store = NewStore(1, 1, vf)
		store.Access(0, 0x10)

		vf.EXPECT().
			FindVictim(gomock.Any()).
			Return(Block{Tag: 0x99, Count: 1})

		Expect(func() { store.Access(0, 0x20) }).To(Panic())
	})

	It("should panic when more indices are touched than sets exist", func() {
		store = NewStore(2, 1, nil)
		store.Access(0, 1)
		store.Access(1, 1)

		Expect(func() { store.Access(2, 1) }).To(Panic())
	})

	It("should reset", func() {
		store.Access(0, 0x10)
		store.Reset()

		Expect(store.NumSets()).To(Equal(0))
	})

	It("should never exceed the number of ways", func() {
		r := rand.New(rand.NewSource(1))

		for _, ways := range []int{1, 2, 3, 8} {
			store = NewStore(4, ways, nil)

			for i := 0; i < 2000; i++ {
				index := uint64(r.Intn(4))
				store.Access(index, uint64(r.Intn(16)))

				set, _ := store.Set(index)
				Expect(set.Len()).To(BeNumerically("<=", ways))
			}
		}
	})
})

var _ = Describe("CountVictimFinder", func() {
	It("should pick the minimum counter", func() {
		set := newSet(3)
		set.counts[5] = 3
		set.counts[7] = 1
		set.counts[9] = 2

		Expect(NewCountVictimFinder().FindVictim(set)).
			To(Equal(Block{Tag: 7, Count: 1}))
	})

	It("should pick the smallest tag among equal counters", func() {
		set := newSet(3)
		set.counts[9] = 1
		set.counts[4] = 1
		set.counts[6] = 1

		Expect(NewCountVictimFinder().FindVictim(set).Tag).
			To(Equal(uint64(4)))
	})

	It("should panic on an empty set", func() {
		Expect(func() { NewCountVictimFinder().FindVictim(newSet(1)) }).
			To(Panic())
	})
})
