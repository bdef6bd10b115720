package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/branch"
	"github.com/sarchlab/cachesim/trace"
)

func newBranchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "branch <trace_file>",
		Short: "Report the misprediction rates of simple branch predictors.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := trace.ReadBranchFile(args[0])
			if err != nil {
				return err
			}

			r, err := branch.Analyze(records)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Misprediction rates of %s (%d branches)\n",
				args[0], r.Branches)
			fmt.Fprintf(w, "%-18s %6.2f%%\n", "Always taken:", 100*r.AlwaysTaken)
			fmt.Fprintf(w, "%-18s %6.2f%%\n", "Always not taken:",
				100*r.AlwaysNotTaken)
			fmt.Fprintf(w, "%-18s %6.2f%%\n", "Profile guided:",
				100*r.ProfileGuided)
			fmt.Fprintf(w, "%-18s %6.2f%%\n", "2-bit counter:", 100*r.TwoBit)

			return nil
		},
	}
}
