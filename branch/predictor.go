// Package branch measures how often simple branch predictors mispredict a
// branch trace.
package branch

import (
	"errors"

	"github.com/sarchlab/cachesim/trace"
)

// ErrNoBranchesObserved is returned when a trace has no branches, so no
// misprediction rate can be computed.
var ErrNoBranchesObserved = errors.New("no branches observed")

// A Predictor guesses the direction of a branch and learns from the actual
// outcome.
type Predictor interface {
	Predict(address string) bool
	Update(address string, taken bool)
}

// MispredictionRate replays records through p and returns the fraction of
// branches it got wrong.
func MispredictionRate(p Predictor, records []trace.BranchRecord) (float64, error) {
	if len(records) == 0 {
		return 0, ErrNoBranchesObserved
	}

	mispredictions := 0

	for _, rec := range records {
		if p.Predict(rec.Address) != rec.Taken {
			mispredictions++
		}

		p.Update(rec.Address, rec.Taken)
	}

	return float64(mispredictions) / float64(len(records)), nil
}

// Static always predicts the same direction.
type Static bool

// Predict returns the fixed direction.
func (s Static) Predict(string) bool { return bool(s) }

// Update does nothing.
func (s Static) Update(string, bool) {}

// Profile predicts each branch with its majority direction over a whole
// trace. Ties predict taken.
type Profile struct {
	taken map[string]bool
}

// NewProfile counts the directions of every branch in records.
func NewProfile(records []trace.BranchRecord) *Profile {
	type tally struct{ taken, total int }

	tallies := make(map[string]*tally)

	for _, rec := range records {
		t, ok := tallies[rec.Address]
		if !ok {
			t = &tally{}
			tallies[rec.Address] = t
		}

		t.total++
		if rec.Taken {
			t.taken++
		}
	}

	p := &Profile{taken: make(map[string]bool, len(tallies))}
	for addr, t := range tallies {
		p.taken[addr] = 2*t.taken >= t.total
	}

	return p
}

// Predict returns the majority direction of the branch. Unknown branches are
// predicted not taken.
func (p *Profile) Predict(address string) bool {
	return p.taken[address]
}

// Update does nothing; the profile is fixed.
func (p *Profile) Update(string, bool) {}

// The states of a two-bit saturating counter.
const (
	StronglyNotTaken uint8 = iota
	WeaklyNotTaken
	WeaklyTaken
	StronglyTaken
)

// TwoBitCounter keeps one saturating counter per branch. Every counter starts
// at StronglyNotTaken.
type TwoBitCounter struct {
	states map[string]uint8
}

// NewTwoBitCounter creates a predictor with no history.
func NewTwoBitCounter() *TwoBitCounter {
	return &TwoBitCounter{states: make(map[string]uint8)}
}

// State returns the counter of a branch.
func (c *TwoBitCounter) State(address string) uint8 {
	return c.states[address]
}

// Predict predicts taken when the counter is in a taken state.
func (c *TwoBitCounter) Predict(address string) bool {
	return c.states[address] >= WeaklyTaken
}

// Update moves the counter one step toward the actual direction.
func (c *TwoBitCounter) Update(address string, taken bool) {
	s := c.states[address]

	switch {
	case taken && s < StronglyTaken:
		s++
	case !taken && s > StronglyNotTaken:
		s--
	}

	c.states[address] = s
}
