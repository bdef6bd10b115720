package cmd

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/structs"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/tracing"
)

// queryTables are the tables cachesim writes, with the rows they decode into.
var queryTables = map[string]any{
	report.TableName:        report.Row{},
	tracing.AccessTableName: tracing.AccessEntry{},
}

func newQueryCommand() *cobra.Command {
	queryCmd := &cobra.Command{
		Use:   "query <database>",
		Short: "Print rows of a SQLite file written by cachesim.",
		Long: `Print the sweep results or the recorded accesses stored in a ` +
			`SQLite file. For example, to list the 2-way caches of a sweep ` +
			`from best to worst:

  cachesim query sweep.sqlite3 --where "NWays = ?" --args 2 \
    --order-by "TotalMissRate"`,
		Args: cobra.ExactArgs(1),
		RunE: runQuery,
	}

	flags := queryCmd.Flags()
	flags.String("table", report.TableName, "Table to read: "+
		strings.Join(knownTables(), " or ")+".")
	flags.String("where", "", "SQL condition, with ? placeholders.")
	flags.StringSlice("args", nil, "Values of the --where placeholders.")
	flags.String("order-by", "", "SQL ordering, for example "+
		`"TotalMissRate DESC".`)
	flags.Int("limit", 0, "Maximum number of rows. 0 prints all of them.")
	flags.Int("offset", 0, "Rows to skip. Needs --limit.")

	return queryCmd
}

func knownTables() []string {
	names := make([]string, 0, len(queryTables))
	for name := range queryTables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func runQuery(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	table, _ := flags.GetString("table")

	sample, ok := queryTables[table]
	if !ok {
		return fmt.Errorf("unknown table %q, want %s",
			table, strings.Join(knownTables(), " or "))
	}

	where, _ := flags.GetString("where")
	whereArgs, _ := flags.GetStringSlice("args")
	orderBy, _ := flags.GetString("order-by")
	limit, _ := flags.GetInt("limit")
	offset, _ := flags.GetInt("offset")

	reader, err := datarecording.NewReader(args[0])
	if err != nil {
		return err
	}
	defer reader.Close()

	reader.MapTable(table, sample)

	rows, total, err := reader.Query(cmd.Context(), table,
		datarecording.QueryParams{
			Where:   where,
			Args:    sqlArgs(whereArgs),
			OrderBy: orderBy,
			Limit:   limit,
			Offset:  offset,
		})
	if err != nil {
		return fmt.Errorf("querying %s: %w", table, err)
	}

	out := cmd.OutOrStdout()

	if err := printRows(out, sample, rows); err != nil {
		return err
	}

	fmt.Fprintf(out, "%d of %d rows\n", len(rows), total)

	return nil
}

// sqlArgs turns command-line values into numbers where possible. The columns
// are untyped, so SQLite would never find the integer 2 equal to the text
// "2".
func sqlArgs(values []string) []any {
	converted := make([]any, len(values))

	for i, v := range values {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			converted[i] = n
		} else if f, err := strconv.ParseFloat(v, 64); err == nil {
			converted[i] = f
		} else {
			converted[i] = v
		}
	}

	return converted
}

func printRows(w io.Writer, sample any, rows []any) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(structs.Names(sample), "\t"))

	for _, row := range rows {
		values := structs.Values(row)

		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = fmt.Sprint(v)
		}

		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	return tw.Flush()
}
