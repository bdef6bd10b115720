package sweep

import (
	"runtime"

	"github.com/sarchlab/cachesim/hooking"
)

// Builder can be used to build a sweep.
type Builder struct {
	blockSize   int
	addressBits int
	workers     int
	candidates  []Candidate
	progress    ProgressTracker
	hooks       []hooking.Hook
}

// MakeBuilder creates a builder for the default grid with 32-byte blocks and
// 48-bit addresses.
func MakeBuilder() Builder {
	return Builder{
		blockSize:   32,
		addressBits: 48,
		workers:     runtime.GOMAXPROCS(0),
		candidates:  DefaultCandidates(),
	}
}

// WithBlockSize sets the block size shared by all candidates.
func (b Builder) WithBlockSize(blockSize int) Builder {
	b.blockSize = blockSize
	return b
}

// WithAddressBits sets the address width shared by all candidates.
func (b Builder) WithAddressBits(addressBits int) Builder {
	b.addressBits = addressBits
	return b
}

// WithWorkers sets how many candidates may run at the same time.
func (b Builder) WithWorkers(workers int) Builder {
	b.workers = workers
	return b
}

// WithCandidates replaces the candidate list.
func (b Builder) WithCandidates(candidates ...Candidate) Builder {
	b.candidates = append([]Candidate(nil), candidates...)
	return b
}

// WithProgress sets a tracker that is told when candidates start and finish.
func (b Builder) WithProgress(progress ProgressTracker) Builder {
	b.progress = progress
	return b
}

// WithHooks attaches hooks to the simulator of every candidate. The hooks
// are shared by concurrently running simulators.
func (b Builder) WithHooks(hooks ...hooking.Hook) Builder {
	b.hooks = append(append([]hooking.Hook(nil), b.hooks...), hooks...)
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.workers < 1 {
		panic("a sweep needs at least one worker")
	}
}

// Build builds the sweep. Invalid candidate shapes are not rejected here;
// they fail individually when the sweep runs.
func (b Builder) Build() *Sweep {
	b.parametersMustBeValid()

	return &Sweep{
		blockSize:   b.blockSize,
		addressBits: b.addressBits,
		workers:     b.workers,
		candidates:  append([]Candidate(nil), b.candidates...),
		progress:    b.progress,
		hooks:       append([]hooking.Hook(nil), b.hooks...),
	}
}
