package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/reliquary/internal/backup"
	"github.com/roach88/reliquary/internal/store"
)

// RestoreOptions holds flags for the restore command.
type RestoreOptions struct {
	*RootOptions
	Database string
	In       string
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RestoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "restore <schema-dir>",
		Short: "Restore a snapshot document into the database",
		Long: `Restore a snapshot as one all-or-nothing transaction.

The document is trusted to already satisfy dependency order. Any integrity
violation or unresolvable reference rejects the entire snapshot; nothing is
partially imported. After a successful restore, every model's primary-key
sequence is reset past the imported keys.

Example:
  reliquary restore --db ./fresh.db ./schema < backup.json
  reliquary restore --db ./fresh.db --in backup.json ./schema`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.In, "in", "-", "input file, - for stdin")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRestore(opts *RestoreOptions, schemaDir string, cmd *cobra.Command) error {
	reg, err := LoadSchema(schemaDir)
	if err != nil {
		return err
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	in := cmd.InOrStdin()
	if opts.In != "-" {
		f, err := os.Open(opts.In)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open input file", err)
		}
		defer f.Close()
		in = f
	}

	if err := backup.Import(cmd.Context(), st, reg, in); err != nil {
		code := ErrCodeGeneric
		switch {
		case backup.IsIntegrityError(err):
			code = ErrCodeIntegrity
		case backup.IsMalformedReference(err):
			code = ErrCodeReference
		}
		return WrapExitError(ExitFailure, "restore rejected ("+code+")", err)
	}
	return nil
}
