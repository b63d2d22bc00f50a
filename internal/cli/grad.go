package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quanta-ml/quanta/qnode"
)

// GradOptions holds flags for the grad command.
type GradOptions struct {
	*RootOptions
	Params      string
	Method      string
	ForceOrder2 bool
	Step        float64
}

// NewGradCommand creates the grad command.
func NewGradCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GradOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "grad",
		Short: "Compute the Jacobian of the circuit outputs",
		Long: `Compute the Jacobian of the selected demo circuit's expectation outputs
with respect to its free parameters: one row per parameter, one column
per output.

Example:
  quanta grad -c beamsplitter --params 0.628 --method best`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrad(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Params, "params", "", "comma-separated parameter values (default: circuit defaults)")
	cmd.Flags().StringVar(&opts.Method, "method", "best", "gradient method: analytic, finite, or best")
	cmd.Flags().BoolVar(&opts.ForceOrder2, "force-order2", false, "use the order-2 shift formula for every analytic occurrence")
	cmd.Flags().Float64Var(&opts.Step, "step", 0, "finite-difference step (0 = engine default)")

	return cmd
}

func runGrad(cmd *cobra.Command, opts *GradOptions) error {
	params, err := parseParams(opts.RootOptions, opts.Params)
	if err != nil {
		return err
	}
	method, err := qnode.ParseMethod(opts.Method)
	if err != nil {
		return err
	}
	_, q, err := buildQNode(opts.RootOptions)
	if err != nil {
		return err
	}

	gradOpts := []qnode.GradOption{qnode.WithMethod(method)}
	if opts.ForceOrder2 {
		gradOpts = append(gradOpts, qnode.ForceOrder2())
	}
	if opts.Step > 0 {
		gradOpts = append(gradOpts, qnode.WithGradStep(opts.Step))
	}

	jac, err := q.Gradient(cmd.Context(), params, gradOpts...)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
			"circuit":  opts.Circuit,
			"params":   params,
			"method":   method.String(),
			"jacobian": jac,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "circuit: %s\nparams:  %v\nmethod:  %s\n", opts.Circuit, params, method)
	for i, row := range jac {
		fmt.Fprintf(cmd.OutOrStdout(), "d/dpar[%d]:", i)
		for _, v := range row {
			fmt.Fprintf(cmd.OutOrStdout(), " %.9g", v)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}
