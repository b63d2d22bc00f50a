package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewMethodsCommand creates the methods command.
func NewMethodsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "methods",
		Short: "Show the realized per-parameter gradient method",
		Long: `Show, for every free parameter of the selected demo circuit, whether its
partial derivative uses the exact parameter-shift rules (A) or falls back
to central finite differences (F).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMethods(cmd, rootOpts)
		},
	}
	return cmd
}

func runMethods(cmd *cobra.Command, opts *RootOptions) error {
	_, q, err := buildQNode(opts)
	if err != nil {
		return err
	}

	methods, err := q.GradMethodForPar()
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		out := make(map[string]string, len(methods))
		for i, m := range methods {
			out[fmt.Sprintf("%d", i)] = m.String()
		}
		return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
			"circuit": opts.Circuit,
			"methods": out,
		})
	}

	idxs := make([]int, 0, len(methods))
	for i := range methods {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)

	fmt.Fprintf(cmd.OutOrStdout(), "circuit: %s\n", opts.Circuit)
	for _, i := range idxs {
		fmt.Fprintf(cmd.OutOrStdout(), "par[%d]: %s\n", i, methods[i])
	}
	return nil
}
