package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reliquary/internal/schema"
)

// OrderResult is the JSON payload for the order command.
type OrderResult struct {
	Models []string `json:"models"`
}

// NewOrderCommand creates the order command.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order <schema-dir>",
		Short: "Print the dependency-resolved serialization order",
		Long: `Print the order in which models are serialized during export.

Dependencies always precede dependents; this is the same order the export
pipeline uses. Fails with the full cycle diagnostic when no order exists.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runOrder(opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	reg, err := LoadSchema(schemaDir)
	if err != nil {
		return err
	}

	order, err := reg.Resolve()
	if err != nil {
		if schema.IsCycleError(err) {
			_ = formatter.Error(ErrCodeCycle, err.Error(), nil)
			return NewExitError(ExitFailure, "unresolvable dependency cycle")
		}
		return WrapExitError(ExitFailure, "resolve failed", err)
	}

	if opts.Format == "json" {
		names := make([]string, len(order))
		for i, m := range order {
			names[i] = m.Name
		}
		return formatter.Success(OrderResult{Models: names})
	}

	for i, m := range order {
		fmt.Fprintf(formatter.Writer, "%3d. %s\n", i+1, m.Name)
	}
	return nil
}
