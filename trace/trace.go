// Package trace reads the line-oriented memory-access and branch traces that
// the simulators replay.
//
// Both trace kinds share one column layout. Version 1 of the layout is:
//
//	column 0       operation, R or W (memory traces) or any marker (branch traces)
//	column 1       a single space or tab
//	column 2...    the address, hexadecimal, optional 0x prefix, up to the first
//	               whitespace or the end of the line
//	last column    the taken bit of a branch trace (1 means taken)
//
// Branch traces use the fixed address range [BranchAddressStart,
// BranchAddressEnd) as the branch key. Addresses of memory traces are parsed
// into integers once, when the line is read.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// The column layout shared by the memory and branch traces.
const (
	LayoutVersion = 1

	OpColumn        = 0
	SeparatorColumn = 1
	AddressColumn   = 2

	BranchAddressStart = 2
	BranchAddressEnd   = 8
)

var (
	// ErrMalformedRecord is returned when a trace line does not follow the
	// layout.
	ErrMalformedRecord = errors.New("malformed trace record")

	// ErrTraceSourceUnavailable is returned when a trace cannot be opened.
	ErrTraceSourceUnavailable = errors.New("trace source unavailable")
)

// Op is the kind of a memory access.
type Op uint8

// The memory operations that can appear in a trace.
const (
	Read Op = iota
	Write
)

func (o Op) String() string {
	switch o {
	case Read:
		return "R"
	case Write:
		return "W"
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// An AccessRecord is one memory access of a trace.
type AccessRecord struct {
	Op      Op
	Address uint64
}

// A LineError reports the line that failed to parse.
type LineError struct {
	Source string
	Line   int
	Text   string
	Err    error
}

func (e *LineError) Error() string {
	src := e.Source
	if src == "" {
		src = "trace"
	}

	return fmt.Sprintf("%s:%d: %q: %v", src, e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// ParseLine decodes a single memory-trace line.
func ParseLine(line string) (AccessRecord, error) {
	line = trimTerminator(line)

	if len(line) <= AddressColumn {
		return AccessRecord{}, fmt.Errorf("%w: line too short", ErrMalformedRecord)
	}

	var op Op
	switch line[OpColumn] {
	case 'R':
		op = Read
	case 'W':
		op = Write
	default:
		return AccessRecord{}, fmt.Errorf("%w: unknown operation %q",
			ErrMalformedRecord, line[OpColumn])
	}

	if err := checkSeparator(line); err != nil {
		return AccessRecord{}, err
	}

	addr, err := parseAddress(addressField(line))
	if err != nil {
		return AccessRecord{}, err
	}

	return AccessRecord{Op: op, Address: addr}, nil
}

// ReadAll parses every line of r. The first malformed line aborts the read.
func ReadAll(r io.Reader) ([]AccessRecord, error) {
	return readLines(r, "", ParseLine)
}

// ReadFile opens and parses a memory trace.
func ReadFile(path string) ([]AccessRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTraceSourceUnavailable, err)
	}
	defer f.Close()

	return readLines(f, path, ParseLine)
}

func readLines[T any](
	r io.Reader,
	source string,
	parse func(string) (T, error),
) ([]T, error) {
	var records []T

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		text := scanner.Text()

		rec, err := parse(text)
		if err != nil {
			return nil, &LineError{
				Source: source,
				Line:   lineNo,
				Text:   text,
				Err:    err,
			}
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTraceSourceUnavailable, err)
	}

	return records, nil
}

func trimTerminator(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

func checkSeparator(line string) error {
	sep := line[SeparatorColumn]
	if sep != ' ' && sep != '\t' {
		return fmt.Errorf("%w: expected separator at column %d, got %q",
			ErrMalformedRecord, SeparatorColumn, sep)
	}

	return nil
}

func addressField(line string) string {
	field := line[AddressColumn:]
	if end := strings.IndexAny(field, " \t"); end >= 0 {
		field = field[:end]
	}

	return field
}

func parseAddress(field string) (uint64, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
	if digits == "" {
		return 0, fmt.Errorf("%w: empty address", ErrMalformedRecord)
	}

	addr, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad address %q: %w",
			ErrMalformedRecord, field, err)
	}

	return addr, nil
}
