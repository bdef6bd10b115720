package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/trace"
)

func newSimulateCommand() *cobra.Command {
	return &cobra.Command{
		Use: "simulate <ways> <block_size> <set_count> <address_bits> " +
			"<trace_file>",
		Short: "Replay a trace against one cache.",
		Args:  cobra.ExactArgs(5),
		RunE:  runSimulate,
	}
}

func runSimulate(cmd *cobra.Command, args []string) error {
	g, err := parseGeometry(args[:4])
	if err != nil {
		return err
	}

	records, err := trace.ReadFile(args[4])
	if err != nil {
		return err
	}

	obs, err := setupObservers(cmd)
	if err != nil {
		return err
	}
	defer obs.close()

	sim := cache.NewSimulator(g)
	obs.attach(sim)

	printResult(cmd.OutOrStdout(), sim.Run(records, args[4]))

	return nil
}

func parseGeometry(args []string) (cache.Geometry, error) {
	names := []string{"ways", "block_size", "set_count", "address_bits"}
	values := make([]int, len(names))

	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return cache.Geometry{}, fmt.Errorf("%s: %q is not an integer",
				names[i], arg)
		}

		values[i] = v
	}

	return cache.NewGeometry(values[0], values[1], values[2], values[3])
}

func printResult(w io.Writer, r cache.Result) {
	fields := []struct {
		key   string
		value any
	}{
		{"cache_size", r.Geometry.Size()},
		{"n_ways", r.Geometry.Ways()},
		{"n_sets", r.Geometry.SetCount()},
		{"block_size", r.Geometry.BlockSize()},
		{"address_bits", r.Geometry.AddressBits()},
		{"reads", r.Reads},
		{"writes", r.Writes},
		{"read_misses", r.ReadMisses},
		{"write_misses", r.WriteMisses},
		{"evictions", r.Evictions},
		{"total_missrate", r.TotalMissRate},
		{"read_missrate", r.ReadMissRate},
		{"write_missrate", r.WriteMissRate},
		{"trace_file", r.TraceID},
	}

	for _, f := range fields {
		fmt.Fprintf(w, "%-15s %v\n", f.key+":", f.value)
	}
}
