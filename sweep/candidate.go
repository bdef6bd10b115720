package sweep

import "fmt"

// A Candidate is one cache shape of a sweep. Block size and address width
// are shared by every candidate of a sweep.
type Candidate struct {
	Ways     int
	SetCount int
}

func (c Candidate) String() string {
	return fmt.Sprintf("%d-way, %d sets", c.Ways, c.SetCount)
}

// Cross returns every combination of ways and set counts, grouped by ways.
func Cross(ways, setCounts []int) []Candidate {
	candidates := make([]Candidate, 0, len(ways)*len(setCounts))

	for _, w := range ways {
		for _, s := range setCounts {
			candidates = append(candidates, Candidate{Ways: w, SetCount: s})
		}
	}

	return candidates
}

// DefaultCandidates returns the standard 25-point grid. For
// each size multiplier m it varies the ways k while keeping the number of
// blocks at 128*m, so the five shapes of one group have the same capacity.
func DefaultCandidates() []Candidate {
	steps := []int{1, 2, 4, 8, 16}
	candidates := make([]Candidate, 0, len(steps)*len(steps))

	for _, m := range steps {
		for _, k := range steps {
			candidates = append(candidates, Candidate{
				Ways:     k,
				SetCount: 128 / k * m,
			})
		}
	}

	return candidates
}
