package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/structs"
)

// QueryParams narrows down and orders the rows returned by a query.
type QueryParams struct {
	// Where is a SQL condition without the WHERE keyword, for example
	// "NWays > ? AND TraceFile = ?".
	Where string

	// Args fill the placeholders of Where.
	Args []any

	// OrderBy is a SQL ordering without the ORDER BY keywords, for example
	// "TotalMissRate DESC".
	OrderBy string

	// Limit caps the number of returned rows. Zero means no cap.
	Limit int

	// Offset skips rows. It only applies together with Limit.
	Offset int
}

// DataReader reads recorded tables back into structs.
type DataReader interface {
	// MapTable tells the reader which struct the rows of a table decode
	// into. A table must be mapped before it is queried.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns the mapped tables, sorted by name.
	ListTables() []string

	// StoredTables returns the tables that exist in the database.
	StoredTables(ctx context.Context) ([]string, error)

	// Query returns pointers to newly decoded structs, plus the number of
	// rows that match params.Where regardless of Limit and Offset.
	Query(ctx context.Context, tableName string, params QueryParams) (
		rows []any,
		total int,
		err error,
	)

	// Close releases the database.
	Close() error
}

type sqliteReader struct {
	db     *sql.DB
	mapped map[string]reflect.Type
}

// NewReader opens an existing SQLite file read-only.
func NewReader(path string) (DataReader, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB reads from an already opened database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		db:     db,
		mapped: make(map[string]reflect.Type),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	t := reflect.TypeOf(sampleEntry)
	if t == nil || t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("table %s must map to a struct, got %T",
			tableName, sampleEntry))
	}

	r.mapped[tableName] = t
}

func (r *sqliteReader) ListTables() []string {
	names := make([]string, 0, len(r.mapped))
	for name := range r.mapped {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *sqliteReader) StoredTables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	entryType, ok := r.mapped[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	var total int

	countSQL := "SELECT COUNT(*) FROM " + tableName + whereClause(params)
	err := r.db.QueryRowContext(ctx, countSQL, params.Args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	columns := structs.Names(reflect.New(entryType).Elem().Interface())

	rows, err := r.db.QueryContext(ctx,
		selectStatement(tableName, columns, params), params.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []any

	for rows.Next() {
		entry := reflect.New(entryType)

		if err := rows.Scan(fieldPointers(entry.Elem())...); err != nil {
			return nil, 0, err
		}

		entries = append(entries, entry.Interface())
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}

func whereClause(params QueryParams) string {
	if params.Where == "" {
		return ""
	}

	return " WHERE " + params.Where
}

func selectStatement(table string, columns []string, params QueryParams) string {
	var b strings.Builder

	b.WriteString("SELECT ")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(table)
	b.WriteString(whereClause(params))

	if params.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(params.OrderBy)
	}

	if params.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", params.Limit)

		if params.Offset > 0 {
			fmt.Fprintf(&b, " OFFSET %d", params.Offset)
		}
	}

	return b.String()
}

// fieldPointers returns the addresses of the fields of v in declaration
// order, which is the column order written by the recorder.
func fieldPointers(v reflect.Value) []any {
	ptrs := make([]any, v.NumField())
	for i := range ptrs {
		ptrs[i] = v.Field(i).Addr().Interface()
	}

	return ptrs
}
