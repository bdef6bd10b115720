package tagging

// A VictimFinder decides which block should be evicted from a full set.
type VictimFinder interface {
	FindVictim(set *Set) Block
}

// CountVictimFinder evicts the block that has been touched the fewest times.
// Ties go to the smallest tag so that a replay is reproducible.
//
// This ages blocks by cumulative touches rather than by last-access order, so
// it is not a textbook LRU. Miss rates produced with it are only comparable
// with other runs of the same policy.
type CountVictimFinder struct {
}

// NewCountVictimFinder returns a newly constructed count-based evictor.
func NewCountVictimFinder() *CountVictimFinder {
	e := new(CountVictimFinder)
	return e
}

// FindVictim returns the block with the minimum recency counter.
func (e *CountVictimFinder) FindVictim(set *Set) Block {
	victim := Block{}
	found := false

	for tag, count := range set.counts {
		if !found ||
			count < victim.Count ||
			(count == victim.Count && tag < victim.Tag) {
			victim = Block{Tag: tag, Count: count}
			found = true
		}
	}

	if !found {
		panic("cannot find a victim in an empty set")
	}

	return victim
}
