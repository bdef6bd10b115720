// Package cmd provides the command-line interface of cachesim.
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/hooking"
	"github.com/sarchlab/cachesim/instrumentation"
	"github.com/sarchlab/cachesim/tracing"
)

// Execute builds the command tree and runs it. It does not return.
func Execute() {
	cfg, err := LoadConfig(".env")
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	err = NewRootCommand(cfg).Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// NewRootCommand creates the cachesim command tree with cfg providing the flag
// defaults.
func NewRootCommand(cfg Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use: "cachesim [<ways> <block_size> <set_count> <address_bits> " +
			"<trace_file>]",
		Short: "cachesim measures the miss rates of set-associative caches.",
		Long: `cachesim replays memory traces against set-associative ` +
			`caches and reports read, write and total miss rates. Called ` +
			`with five arguments, it runs a single simulation.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 5 {
				return fmt.Errorf("accepts 0 or 5 arg(s), received %d",
					len(args))
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}

			return runSimulate(cmd, args)
		},
	}

	rootCmd.PersistentFlags().Bool("log-accesses", false,
		"Log every access to stderr.")
	rootCmd.PersistentFlags().String("record", "",
		"Record every access to the given SQLite file.")
	rootCmd.PersistentFlags().Bool("metrics", false,
		"Print access, miss and eviction counters to stdout at exit.")

	rootCmd.AddCommand(
		newSimulateCommand(),
		newSweepCommand(cfg),
		newBranchCommand(),
		newQueryCommand(),
	)

	return rootCmd
}

// observers are the hooks selected by the global flags, plus what has to be
// released once the simulations are done.
type observers struct {
	hooks   []hooking.Hook
	closers []func() error
}

func setupObservers(cmd *cobra.Command) (*observers, error) {
	o := &observers{}
	flags := cmd.Flags()

	if logAccesses, _ := flags.GetBool("log-accesses"); logAccesses {
		logger := log.New(cmd.ErrOrStderr(), "", 0)
		o.hooks = append(o.hooks, tracing.NewLogTracer(logger))
	}

	if path, _ := flags.GetString("record"); path != "" {
		recorder, err := datarecording.New(path)
		if err != nil {
			return nil, err
		}

		o.hooks = append(o.hooks, tracing.NewDBTracer(recorder))
		o.closers = append(o.closers, recorder.Close)
	}

	if metrics, _ := flags.GetBool("metrics"); metrics {
		provider, err := instrumentation.NewStdoutMeterProvider(
			cmd.OutOrStdout())
		if err != nil {
			return nil, err
		}

		hook, err := instrumentation.NewMetricsHook(
			provider.Meter(instrumentation.MeterName))
		if err != nil {
			return nil, err
		}

		o.hooks = append(o.hooks, hook)
		o.closers = append(o.closers, func() error {
			return provider.Shutdown(context.Background())
		})
	}

	return o, nil
}

func (o *observers) attach(h hooking.Hookable) {
	for _, hook := range o.hooks {
		h.AcceptHook(hook)
	}
}

func (o *observers) close() {
	for _, c := range o.closers {
		if err := c(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing observer: %v\n", err)
		}
	}
}
