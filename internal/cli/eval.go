package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Params string
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate the circuit's expectation outputs",
		Long: `Evaluate the selected demo circuit at a parameter vector and print one
expectation value per declared output.

Example:
  quanta eval -c displacement --params 0.4`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Params, "params", "", "comma-separated parameter values (default: circuit defaults)")

	return cmd
}

func runEval(cmd *cobra.Command, opts *EvalOptions) error {
	params, err := parseParams(opts.RootOptions, opts.Params)
	if err != nil {
		return err
	}
	_, q, err := buildQNode(opts.RootOptions)
	if err != nil {
		return err
	}

	out, err := q.Evaluate(cmd.Context(), params)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
			"circuit": opts.Circuit,
			"params":  params,
			"outputs": out,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "circuit: %s\nparams:  %v\n", opts.Circuit, params)
	for i, v := range out {
		fmt.Fprintf(cmd.OutOrStdout(), "output %d: %.9g\n", i, v)
	}
	return nil
}
