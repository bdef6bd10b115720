// Package tagging tracks which tags are resident in each set of a modeled
// cache and decides which tag leaves a full set.
package tagging

import "sort"

// A Block is a resident tag together with its recency counter.
type Block struct {
	Tag   uint64
	Count uint64
}

// A Set is the group of tags that share one index. It never holds more tags
// than the number of ways of the store that owns it.
type Set struct {
	counts map[uint64]uint64
}

func newSet(numWays int) *Set {
	return &Set{counts: make(map[uint64]uint64, numWays)}
}

// Len returns the number of resident tags.
func (s *Set) Len() int {
	return len(s.counts)
}

// Count returns the recency counter of tag, if the tag is resident.
func (s *Set) Count(tag uint64) (uint64, bool) {
	c, ok := s.counts[tag]
	return c, ok
}

// Blocks returns the resident blocks ordered by tag.
func (s *Set) Blocks() []Block {
	blocks := make([]Block, 0, len(s.counts))
	for tag, count := range s.counts {
		blocks = append(blocks, Block{Tag: tag, Count: count})
	}

	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Tag < blocks[j].Tag
	})

	return blocks
}

func (s *Set) touch(tag uint64) uint64 {
	s.counts[tag]++
	return s.counts[tag]
}

func (s *Set) remove(tag uint64) {
	delete(s.counts, tag)
}
