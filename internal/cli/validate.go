package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reliquary/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Models int      `json:"models"`
	Errors []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-dir>",
		Short: "Validate the schema registry without touching a database",
		Long: `Compile the CUE schema declarations and run the dependency resolver once.

Reports compile errors and unresolvable cycles without opening a store,
giving fast feedback while editing schema declarations.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
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

	if _, err := reg.Resolve(); err != nil {
		if schema.IsCycleError(err) {
			_ = formatter.Error(ErrCodeCycle, err.Error(), nil)
			return NewExitError(ExitFailure, "unresolvable dependency cycle")
		}
		return WrapExitError(ExitFailure, "resolve failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Models: len(reg.Models())})
	}
	fmt.Fprintf(formatter.Writer, "schema valid: %d model(s)\n", len(reg.Models()))
	return nil
}
