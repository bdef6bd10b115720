package trace

import (
	"fmt"
	"io"
	"os"
)

// A BranchRecord is one executed branch of a branch trace.
type BranchRecord struct {
	// Address is the fixed-width branch key taken from columns
	// [BranchAddressStart, BranchAddressEnd). It is kept as text because the
	// predictors only compare keys.
	Address string
	Taken   bool
}

// ParseBranchLine decodes a single branch-trace line.
func ParseBranchLine(line string) (BranchRecord, error) {
	line = trimTerminator(line)

	if len(line) <= BranchAddressEnd {
		return BranchRecord{}, fmt.Errorf("%w: line too short", ErrMalformedRecord)
	}

	if err := checkSeparator(line); err != nil {
		return BranchRecord{}, err
	}

	return BranchRecord{
		Address: line[BranchAddressStart:BranchAddressEnd],
		Taken:   line[len(line)-1] == '1',
	}, nil
}

// ReadBranches parses every line of r as a branch record.
func ReadBranches(r io.Reader) ([]BranchRecord, error) {
	return readLines(r, "", ParseBranchLine)
}

// ReadBranchFile opens and parses a branch trace.
func ReadBranchFile(path string) ([]BranchRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTraceSourceUnavailable, err)
	}
	defer f.Close()

	return readLines(f, path, ParseBranchLine)
}
