package cache

import "errors"

var (
	// ErrInvalidGeometry is returned when a cache geometry cannot be built.
	ErrInvalidGeometry = errors.New("invalid cache geometry")

	// ErrNoReadsObserved means the read miss rate is undefined.
	ErrNoReadsObserved = errors.New("no reads observed")

	// ErrNoWritesObserved means the write miss rate is undefined.
	ErrNoWritesObserved = errors.New("no writes observed")

	// ErrNoAccessesObserved means the total miss rate is undefined.
	ErrNoAccessesObserved = errors.New("no accesses observed")
)
