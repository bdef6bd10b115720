// Package report persists simulation results as JSON, CSV or SQLite.
//
// Field names are stable: cache_size, n_ways, n_sets, total_missrate,
// write_missrate, read_missrate and trace_file. cache_size is in bytes.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/sweep"
)

// TableName is the SQLite table that holds the records.
const TableName = "results"

// A Record is the persisted form of one simulation result.
type Record struct {
	CacheSize     uint64     `json:"cache_size"`
	NWays         int        `json:"n_ways"`
	NSets         int        `json:"n_sets"`
	TotalMissRate cache.Rate `json:"total_missrate"`
	WriteMissRate cache.Rate `json:"write_missrate"`
	ReadMissRate  cache.Rate `json:"read_missrate"`
	TraceFile     string     `json:"trace_file"`
}

// FromResult converts a simulation result.
func FromResult(r cache.Result) Record {
	return Record{
		CacheSize:     r.Geometry.Size(),
		NWays:         r.Geometry.Ways(),
		NSets:         r.Geometry.SetCount(),
		TotalMissRate: r.TotalMissRate,
		WriteMissRate: r.WriteMissRate,
		ReadMissRate:  r.ReadMissRate,
		TraceFile:     r.TraceID,
	}
}

// FromOutcomes converts the successful outcomes of a sweep, keeping their
// order.
func FromOutcomes(outcomes []sweep.Outcome) []Record {
	records := make([]Record, 0, len(outcomes))

	for _, o := range outcomes {
		if o.Failed() {
			continue
		}

		records = append(records, FromResult(o.Result))
	}

	return records
}

// Write stores records at path. The extension picks the format: .json,
// .csv, or .sqlite3/.sqlite/.db.
func Write(path string, records []Record) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return writeFile(path, records, WriteJSON)
	case ".csv":
		return writeFile(path, records, WriteCSV)
	case ".sqlite3", ".sqlite", ".db":
		return WriteSQLite(path, records)
	default:
		return fmt.Errorf("unknown output format %q", filepath.Ext(path))
	}
}

func writeFile(
	path string,
	records []Record,
	write func(io.Writer, []Record) error,
) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	err = write(f, records)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	return err
}

// WriteJSON writes records as an indented JSON array. Undefined rates are
// null.
func WriteJSON(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")

	return enc.Encode(records)
}

var csvHeader = []string{
	"cache_size",
	"n_ways",
	"n_sets",
	"total_missrate",
	"write_missrate",
	"read_missrate",
	"trace_file",
}

// WriteCSV writes records with a header row. Undefined rates are empty
// cells.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range records {
		err := cw.Write([]string{
			strconv.FormatUint(r.CacheSize, 10),
			strconv.Itoa(r.NWays),
			strconv.Itoa(r.NSets),
			formatRate(r.TotalMissRate),
			formatRate(r.WriteMissRate),
			formatRate(r.ReadMissRate),
			r.TraceFile,
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

func formatRate(r cache.Rate) string {
	if !r.Defined {
		return ""
	}

	return strconv.FormatFloat(r.Value, 'g', -1, 64)
}

// Row is the SQLite form of a Record. Rates that are undefined have their
// Defined column set to false and a zero value.
type Row struct {
	CacheSize            uint64
	NWays                int
	NSets                int
	TotalMissRate        float64
	TotalMissRateDefined bool
	WriteMissRate        float64
	WriteMissRateDefined bool
	ReadMissRate         float64
	ReadMissRateDefined  bool
	TraceFile            string
}

// ToRow converts a record into its SQLite form.
func (r Record) ToRow() Row {
	return Row{
		CacheSize:            r.CacheSize,
		NWays:                r.NWays,
		NSets:                r.NSets,
		TotalMissRate:        r.TotalMissRate.Value,
		TotalMissRateDefined: r.TotalMissRate.Defined,
		WriteMissRate:        r.WriteMissRate.Value,
		WriteMissRateDefined: r.WriteMissRate.Defined,
		ReadMissRate:         r.ReadMissRate.Value,
		ReadMissRateDefined:  r.ReadMissRate.Defined,
		TraceFile:            r.TraceFile,
	}
}

// WriteSQLite stores records in the results table of a new SQLite file.
func WriteSQLite(path string, records []Record) error {
	recorder, err := datarecording.New(path)
	if err != nil {
		return err
	}

	Insert(recorder, records)

	return recorder.Close()
}

// Insert inserts records into the results table of recorder, creating the
// table first.
func Insert(recorder datarecording.DataRecorder, records []Record) {
	recorder.CreateTable(TableName, Row{})

	for _, r := range records {
		recorder.InsertData(TableName, r.ToRow())
	}
}
