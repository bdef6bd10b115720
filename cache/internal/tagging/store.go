package tagging

import "fmt"

// An Outcome describes what one access did to the store.
type Outcome struct {
	Hit     bool
	Evicted bool
	Victim  Block

	// Count is the recency counter of the accessed tag after the access.
	Count uint64
}

// A Store owns the sets of one simulation run. Sets are created on the first
// access to their index.
type Store struct {
	numSets      int
	numWays      int
	sets         map[uint64]*Set
	victimFinder VictimFinder
}

// NewStore creates an empty store. A nil victim finder selects the
// CountVictimFinder.
func NewStore(numSets, numWays int, victimFinder VictimFinder) *Store {
	if numSets < 1 || numWays < 1 {
		panic(fmt.Sprintf("invalid store shape: %d sets, %d ways",
			numSets, numWays))
	}

	if victimFinder == nil {
		victimFinder = NewCountVictimFinder()
	}

	s := &Store{
		numSets:      numSets,
		numWays:      numWays,
		victimFinder: victimFinder,
	}

	s.Reset()

	return s
}

// NumWays returns the maximum number of tags per set.
func (s *Store) NumWays() int {
	return s.numWays
}

// NumSets returns the number of sets that have been created so far.
func (s *Store) NumSets() int {
	return len(s.sets)
}

// Set returns the set at index, if it has been created.
func (s *Store) Set(index uint64) (*Set, bool) {
	set, ok := s.sets[index]
	return set, ok
}

// Lookup reports whether tag is resident at index without touching it.
func (s *Store) Lookup(index, tag uint64) (uint64, bool) {
	set, ok := s.sets[index]
	if !ok {
		return 0, false
	}

	return set.Count(tag)
}

// Access touches tag at index. A resident tag gets its counter bumped. A
// missing tag is inserted, evicting the victim first if the set is full.
func (s *Store) Access(index, tag uint64) Outcome {
	set := s.getOrCreateSet(index)

	var outcome Outcome

	if _, hit := set.Count(tag); hit {
		outcome.Hit = true
	} else if set.Len() >= s.numWays {
		outcome.Evicted = true
		outcome.Victim = s.victimFinder.FindVictim(set)
		set.remove(outcome.Victim.Tag)
	}

	outcome.Count = set.touch(tag)

	s.mustHoldInvariants(index, set)

	return outcome
}

// Reset drops every set.
func (s *Store) Reset() {
	s.sets = make(map[uint64]*Set)
}

func (s *Store) getOrCreateSet(index uint64) *Set {
	set, ok := s.sets[index]
	if !ok {
		set = newSet(s.numWays)
		s.sets[index] = set
	}

	return set
}

func (s *Store) mustHoldInvariants(index uint64, set *Set) {
	if set.Len() > s.numWays {
		panic(fmt.Sprintf("set %d holds %d tags, more than %d ways",
			index, set.Len(), s.numWays))
	}

	if len(s.sets) > s.numSets {
		panic(fmt.Sprintf("store holds %d sets, more than %d",
			len(s.sets), s.numSets))
	}
}
