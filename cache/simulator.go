// Package cache replays memory traces against a single set-associative cache
// and measures how often the cache misses.
//
// Only tags are modeled. There is no data, no timing, and no next level.
package cache

import (
	"fmt"

	"github.com/sarchlab/cachesim/cache/internal/tagging"
	"github.com/sarchlab/cachesim/hooking"
	"github.com/sarchlab/cachesim/trace"
)

// HookPosAccess marks that an access has been applied. The hook item is the
// trace.AccessRecord and the detail is an AccessDetail.
var HookPosAccess = &hooking.HookPos{Name: "Cache Access"}

// HookPosEvict marks that a block has left a full set. The hook item is the
// trace.AccessRecord that caused the eviction and the detail is an
// EvictionDetail.
var HookPosEvict = &hooking.HookPos{Name: "Cache Evict"}

// AccessDetail describes what one access did.
type AccessDetail struct {
	Decoded DecodedAddress
	Hit     bool
	Evicted bool

	// VictimTag is only meaningful when Evicted is set.
	VictimTag uint64

	// Count is the recency counter of the accessed tag after the access.
	Count uint64
}

// EvictionDetail describes an evicted block.
type EvictionDetail struct {
	Index uint64
	Tag   uint64
	Count uint64
}

// A Simulator replays accesses against one cache. A Simulator is not safe for
// concurrent use; run one per goroutine.
type Simulator struct {
	hooking.HookableBase

	geometry Geometry
	store    *tagging.Store
	counters Counters
}

// NewSimulator creates a simulator with an empty cache.
func NewSimulator(g Geometry) *Simulator {
	if g.ways == 0 {
		panic("geometry must be created with NewGeometry")
	}

	return &Simulator{
		geometry: g,
		store:    tagging.NewStore(g.setCount, g.ways, nil),
	}
}

// Geometry returns the simulated cache shape.
func (s *Simulator) Geometry() Geometry {
	return s.geometry
}

// Counters returns the tallies accumulated since the last reset.
func (s *Simulator) Counters() Counters {
	return s.counters
}

// SetSize returns the number of resident tags at index.
func (s *Simulator) SetSize(index uint64) int {
	set, ok := s.store.Set(index)
	if !ok {
		return 0
	}

	return set.Len()
}

// NumSets returns the number of sets that have been touched.
func (s *Simulator) NumSets() int {
	return s.store.NumSets()
}

// Reset empties the cache and clears the counters.
func (s *Simulator) Reset() {
	s.store.Reset()
	s.counters = Counters{}
}

// Access applies one record to the cache.
func (s *Simulator) Access(rec trace.AccessRecord) AccessDetail {
	decoded := s.geometry.Decode(rec.Address)
	outcome := s.store.Access(decoded.Index, decoded.Tag)

	detail := AccessDetail{
		Decoded:   decoded,
		Hit:       outcome.Hit,
		Evicted:   outcome.Evicted,
		VictimTag: outcome.Victim.Tag,
		Count:     outcome.Count,
	}

	s.count(rec.Op, outcome.Hit)

	if outcome.Evicted {
		s.counters.Evictions++
		s.InvokeHook(hooking.HookCtx{
			Domain: s,
			Pos:    HookPosEvict,
			Item:   rec,
			Detail: EvictionDetail{
				Index: decoded.Index,
				Tag:   outcome.Victim.Tag,
				Count: outcome.Victim.Count,
			},
		})
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosAccess,
		Item:   rec,
		Detail: detail,
	})

	return detail
}

func (s *Simulator) count(op trace.Op, hit bool) {
	switch op {
	case trace.Read:
		s.counters.Reads++
		if !hit {
			s.counters.ReadMisses++
		}
	case trace.Write:
		s.counters.Writes++
		if !hit {
			s.counters.WriteMisses++
		}
	default:
		panic(fmt.Sprintf("unknown operation %v", op))
	}
}

// Result derives the miss rates from the current counters.
func (s *Simulator) Result(traceID string) Result {
	return NewResult(s.geometry, traceID, s.counters)
}

// Run replays a whole trace from an empty cache. Running the same trace twice
// gives the same result.
func (s *Simulator) Run(records []trace.AccessRecord, traceID string) Result {
	s.Reset()

	for _, rec := range records {
		s.Access(rec)
	}

	if s.counters.Accesses() != uint64(len(records)) {
		panic(fmt.Sprintf("replayed %d records but counted %d accesses",
			len(records), s.counters.Accesses()))
	}

	return s.Result(traceID)
}

// Run replays records against a fresh cache of geometry g.
func Run(records []trace.AccessRecord, g Geometry, traceID string) Result {
	return NewSimulator(g).Run(records, traceID)
}
