package cache

import (
	"encoding/json"
	"errors"
	"fmt"
)

// A Rate is a miss rate that may be undefined because nothing of its kind
// was observed. An undefined rate never carries a meaningful Value.
type Rate struct {
	Value   float64
	Defined bool
}

// NewRate divides misses by accesses. Zero accesses give an undefined rate.
func NewRate(misses, accesses uint64) Rate {
	if accesses == 0 {
		return Rate{}
	}

	return Rate{Value: float64(misses) / float64(accesses), Defined: true}
}

func (r Rate) String() string {
	if !r.Defined {
		return "undefined"
	}

	return fmt.Sprintf("%g", r.Value)
}

// MarshalJSON writes undefined rates as null.
func (r Rate) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}

	return json.Marshal(r.Value)
}

// UnmarshalJSON reads null as an undefined rate.
func (r *Rate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Rate{}
		return nil
	}

	if err := json.Unmarshal(data, &r.Value); err != nil {
		return err
	}

	r.Defined = true

	return nil
}

// Counters are the raw tallies of a run.
type Counters struct {
	Reads       uint64
	Writes      uint64
	ReadMisses  uint64
	WriteMisses uint64
	Evictions   uint64
}

// Accesses returns the number of replayed records.
func (c Counters) Accesses() uint64 {
	return c.Reads + c.Writes
}

// Misses returns the number of read and write misses.
func (c Counters) Misses() uint64 {
	return c.ReadMisses + c.WriteMisses
}

// Result is the outcome of replaying one trace against one geometry.
type Result struct {
	Geometry Geometry
	TraceID  string
	Counters

	TotalMissRate Rate
	ReadMissRate  Rate
	WriteMissRate Rate
}

// NewResult derives the miss rates from final counters.
func NewResult(g Geometry, traceID string, c Counters) Result {
	return Result{
		Geometry:      g,
		TraceID:       traceID,
		Counters:      c,
		TotalMissRate: NewRate(c.Misses(), c.Accesses()),
		ReadMissRate:  NewRate(c.ReadMisses, c.Reads),
		WriteMissRate: NewRate(c.WriteMisses, c.Writes),
	}
}

// Err reports every undefined rate of the result, or nil if all three rates
// are defined.
func (r Result) Err() error {
	var errs []error

	if !r.TotalMissRate.Defined {
		errs = append(errs, ErrNoAccessesObserved)
	}

	if !r.ReadMissRate.Defined {
		errs = append(errs, ErrNoReadsObserved)
	}

	if !r.WriteMissRate.Defined {
		errs = append(errs, ErrNoWritesObserved)
	}

	return errors.Join(errs...)
}

// TotalMissRateValue returns the total miss rate, or ErrNoAccessesObserved.
func (r Result) TotalMissRateValue() (float64, error) {
	return r.TotalMissRate.value(ErrNoAccessesObserved)
}

// ReadMissRateValue returns the read miss rate, or ErrNoReadsObserved.
func (r Result) ReadMissRateValue() (float64, error) {
	return r.ReadMissRate.value(ErrNoReadsObserved)
}

// WriteMissRateValue returns the write miss rate, or ErrNoWritesObserved.
func (r Result) WriteMissRateValue() (float64, error) {
	return r.WriteMissRate.value(ErrNoWritesObserved)
}

func (r Rate) value(undefined error) (float64, error) {
	if !r.Defined {
		return 0, undefined
	}

	return r.Value, nil
}
