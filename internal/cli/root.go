// Package cli implements the quanta command line interface: inspect a
// circuit, evaluate its expectation outputs, and compute gradients.
package cli

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "v0.1.0-dev"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Circuit string
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the quanta CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "quanta",
		Short: "Quanta - gradients for continuous-variable quantum circuits",
		Long: `Quanta computes exact parameter-shift and finite-difference gradients
of expectation outputs of parameterized continuous-variable circuits,
evaluated on a Gaussian-state simulator.

The CLI operates on the bundled demo circuits; the Go API accepts any
traced program. See 'quanta circuits' for the list.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return errors.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if _, ok := demoCircuits[opts.Circuit]; !ok {
				return errors.Errorf("unknown circuit %q: must be one of %v", opts.Circuit, demoNames())
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Circuit, "circuit", "c", "displacement", "demo circuit to operate on")

	cmd.AddCommand(NewCircuitsCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewGradCommand(opts))
	cmd.AddCommand(NewMethodsCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// logger builds a zap logger matching the verbosity flag.
func (o *RootOptions) logger() (*zap.Logger, error) {
	if !o.Verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}
