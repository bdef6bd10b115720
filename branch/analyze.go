package branch

import "github.com/sarchlab/cachesim/trace"

// AlwaysTaken returns the misprediction rate of predicting every branch taken.
func AlwaysTaken(records []trace.BranchRecord) (float64, error) {
	return MispredictionRate(Static(true), records)
}

// AlwaysNotTaken returns the misprediction rate of predicting every branch not
// taken.
func AlwaysNotTaken(records []trace.BranchRecord) (float64, error) {
	return MispredictionRate(Static(false), records)
}

// ProfileGuided returns the misprediction rate of predicting each branch with
// its majority direction in the same trace.
func ProfileGuided(records []trace.BranchRecord) (float64, error) {
	return MispredictionRate(NewProfile(records), records)
}

// TwoBit returns the misprediction rate of per-branch two-bit counters.
func TwoBit(records []trace.BranchRecord) (float64, error) {
	return MispredictionRate(NewTwoBitCounter(), records)
}

// A Report holds the misprediction rates of all predictors for one trace.
type Report struct {
	Branches       int
	AlwaysTaken    float64
	AlwaysNotTaken float64
	ProfileGuided  float64
	TwoBit         float64
}

// Analyze runs every predictor over records.
func Analyze(records []trace.BranchRecord) (Report, error) {
	if len(records) == 0 {
		return Report{}, ErrNoBranchesObserved
	}

	r := Report{Branches: len(records)}

	r.AlwaysTaken, _ = AlwaysTaken(records)
	r.AlwaysNotTaken, _ = AlwaysNotTaken(records)
	r.ProfileGuided, _ = ProfileGuided(records)
	r.TwoBit, _ = TwoBit(records)

	return r, nil
}
