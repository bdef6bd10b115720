// Package sweep replays one trace against many cache shapes.
package sweep

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/hooking"
	"github.com/sarchlab/cachesim/trace"
)

// A ProgressTracker is told when candidates start and finish.
type ProgressTracker interface {
	IncrementInProgress(amount uint64)
	MoveInProgressToFinished(amount uint64)
}

// An Outcome is the result of one candidate. Err is set when the candidate
// could not run, in which case Result is the zero value.
type Outcome struct {
	Candidate Candidate
	Result    cache.Result
	Err       error
}

// Failed reports whether the candidate could not run.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Errors joins the errors of all failed outcomes.
func Errors(outcomes []Outcome) error {
	var errs []error

	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}

	return errors.Join(errs...)
}

// A Sweep runs independent simulations, one per candidate.
type Sweep struct {
	blockSize   int
	addressBits int
	workers     int
	candidates  []Candidate
	progress    ProgressTracker
	hooks       []hooking.Hook
}

// Candidates returns the shapes the sweep will run, in order.
func (s *Sweep) Candidates() []Candidate {
	return append([]Candidate(nil), s.candidates...)
}

// Run replays records against every candidate. Outcomes are returned in
// candidate order no matter which run finishes first. A candidate that fails
// does not stop the others. Once ctx is done, candidates that have not
// started yet fail with the context error.
func (s *Sweep) Run(
	ctx context.Context,
	records []trace.AccessRecord,
	traceID string,
) []Outcome {
	outcomes := make([]Outcome, len(s.candidates))

	var g errgroup.Group
	g.SetLimit(s.workers)

	for i, c := range s.candidates {
		i, c := i, c
		outcomes[i].Candidate = c

		g.Go(func() error {
			if s.progress != nil {
				s.progress.IncrementInProgress(1)
				defer s.progress.MoveInProgressToFinished(1)
			}

			if err := ctx.Err(); err != nil {
				outcomes[i].Err = fmt.Errorf("%s: %w", c, err)
				return nil
			}

			outcomes[i].Result, outcomes[i].Err = s.runOne(c, records, traceID)

			return nil
		})
	}

	_ = g.Wait()

	return outcomes
}

func (s *Sweep) runOne(
	c Candidate,
	records []trace.AccessRecord,
	traceID string,
) (cache.Result, error) {
	g, err := cache.NewGeometry(c.Ways, s.blockSize, c.SetCount, s.addressBits)
	if err != nil {
		return cache.Result{}, fmt.Errorf("%s: %w", c, err)
	}

	sim := cache.NewSimulator(g)
	for _, h := range s.hooks {
		sim.AcceptHook(h)
	}

	return sim.Run(records, traceID), nil
}
