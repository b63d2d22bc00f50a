package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dump",
		Short:         "Print the circuit's symbolic trace",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, _, err := buildQNode(rootOpts)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), prog.String())
			return nil
		},
	}
	return cmd
}

// NewCircuitsCommand creates the circuits command.
func NewCircuitsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "circuits",
		Short: "List the bundled demo circuits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range demoNames() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", name, demoCircuits[name].about)
			}
			return nil
		},
	}
	return cmd
}
