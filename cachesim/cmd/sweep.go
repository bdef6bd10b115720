package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/rs/xid"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/sweep"
	"github.com/sarchlab/cachesim/trace"
)

func newSweepCommand(cfg Config) *cobra.Command {
	sweepCmd := &cobra.Command{
		Use:   "sweep <trace_file>",
		Short: "Replay a trace against many cache shapes.",
		Long: `Replay a trace against a grid of cache shapes and write one ` +
			`record per shape. Without --ways and --sets, the grid holds ` +
			`five capacities of 128 to 2048 blocks, each split into ` +
			`1, 2, 4, 8 and 16 ways. The output format follows the ` +
			`extension of --output: .json, .csv or .sqlite3.`,
		Args: cobra.ExactArgs(1),
		RunE: runSweep,
	}

	flags := sweepCmd.Flags()
	flags.StringP("output", "o", cfg.Output,
		"Output file. Defaults to a unique .json file.")
	flags.Int("workers", cfg.Workers, "Number of concurrent simulations.")
	flags.Int("block-size", cfg.BlockSize, "Block size in bytes.")
	flags.Int("address-bits", cfg.AddressBits, "Address width in bits.")
	flags.IntSlice("ways", nil, "Associativities to try.")
	flags.IntSlice("sets", nil, "Set counts to try.")
	flags.Bool("monitor", false, "Serve the sweep progress over HTTP.")
	flags.Int("monitor-port", cfg.MonitorPort,
		"Port of the monitoring server. 0 picks a free port.")
	flags.Bool("open-browser", false, "Open the monitor in a browser.")

	return sweepCmd
}

func candidatesFromFlags(cmd *cobra.Command) ([]sweep.Candidate, error) {
	ways, _ := cmd.Flags().GetIntSlice("ways")
	sets, _ := cmd.Flags().GetIntSlice("sets")

	switch {
	case len(ways) == 0 && len(sets) == 0:
		return sweep.DefaultCandidates(), nil
	case len(ways) == 0 || len(sets) == 0:
		return nil, errors.New("--ways and --sets must be given together")
	default:
		return sweep.Cross(ways, sets), nil
	}
}

func runSweep(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	tracePath := args[0]

	candidates, err := candidatesFromFlags(cmd)
	if err != nil {
		return err
	}

	output, _ := flags.GetString("output")
	if output == "" {
		output = "cachesim_sweep_" + xid.New().String() + ".json"
	}

	workers, _ := flags.GetInt("workers")
	if workers < 1 {
		return fmt.Errorf("--workers must be at least 1, got %d", workers)
	}

	blockSize, _ := flags.GetInt("block-size")
	addressBits, _ := flags.GetInt("address-bits")

	records, err := trace.ReadFile(tracePath)
	if err != nil {
		return err
	}

	obs, err := setupObservers(cmd)
	if err != nil {
		return err
	}
	defer obs.close()

	builder := sweep.MakeBuilder().
		WithBlockSize(blockSize).
		WithAddressBits(addressBits).
		WithWorkers(workers).
		WithCandidates(candidates...).
		WithHooks(obs.hooks...)

	if useMonitor, _ := flags.GetBool("monitor"); useMonitor {
		m := newSweepMonitor(cmd, sweepInfo{
			Trace:       tracePath,
			Output:      output,
			Workers:     workers,
			BlockSize:   blockSize,
			AddressBits: addressBits,
			Candidates:  len(candidates),
		})
		m.monitor.StartServer()
		defer func() { _ = m.monitor.StopServer() }()
		defer m.monitor.CompleteProgressBar(m.bar)

		builder = builder.WithProgress(m.bar)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	outcomes := builder.Build().Run(ctx, records, tracePath)

	for _, o := range outcomes {
		if o.Failed() {
			log.Printf("Skipping %s: %v", o.Candidate, o.Err)
		}
	}

	results := report.FromOutcomes(outcomes)
	if len(results) == 0 {
		return fmt.Errorf("no candidate could be simulated: %w",
			sweep.Errors(outcomes))
	}

	if err := report.Write(output, results); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d results to %s\n",
		len(results), output)

	return nil
}

type sweepMonitor struct {
	monitor *monitoring.Monitor
	bar     *monitoring.ProgressBar
}

// sweepInfo is what /api/subject/sweep shows. It never changes once the
// sweep starts, so the server can read it while workers are running. Live
// counts are served by /api/progress, which locks the bar.
type sweepInfo struct {
	Trace       string
	Output      string
	Workers     int
	BlockSize   int
	AddressBits int
	Candidates  int
}

func newSweepMonitor(cmd *cobra.Command, info sweepInfo) sweepMonitor {
	port, _ := cmd.Flags().GetInt("monitor-port")
	openBrowser, _ := cmd.Flags().GetBool("open-browser")

	m := monitoring.NewMonitor().
		WithPortNumber(port).
		WithOpenBrowser(openBrowser)

	bar := m.CreateProgressBar("Sweep", uint64(info.Candidates))
	m.RegisterSubject("sweep", info)

	return sweepMonitor{monitor: m, bar: bar}
}
