package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/reliquary/internal/backup"
	"github.com/roach88/reliquary/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	Out      string
	Silent   bool
	Indent   int
	Exclude  string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <schema-dir>",
		Short: "Export the dataset as a snapshot document",
		Long: `Export every includable instance from the database as one JSON snapshot.

Models are serialized in dependency order so the document can later be
restored without reference violations. References are encoded by natural
key, making the snapshot portable across destination databases.

Example:
  reliquary export --db ./data.db ./schema > backup.json
  reliquary export --db ./data.db --exclude Audit,Session ./schema`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Out, "out", "-", "output file, - for stdout")
	cmd.Flags().BoolVarP(&opts.Silent, "silent", "q", false, "silence progress notices")
	cmd.Flags().IntVar(&opts.Indent, "indent", 2, "number of spaces to indent the JSON output")
	cmd.Flags().StringVar(&opts.Exclude, "exclude", "", "comma-separated model names to exclude")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runExport(opts *ExportOptions, schemaDir string, cmd *cobra.Command) error {
	reg, err := LoadSchema(schemaDir)
	if err != nil {
		return err
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	if opts.Out != "-" {
		f, err := os.Create(opts.Out)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output file", err)
		}
		defer f.Close()
		out = f
	}

	var exclude []string
	if opts.Exclude != "" {
		exclude = strings.Split(strings.ToLower(opts.Exclude), ",")
	}

	err = backup.Export(cmd.Context(), st, reg, out, backup.ExportOptions{
		Silent:  opts.Silent,
		Indent:  opts.Indent,
		Exclude: exclude,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "export failed", err)
	}
	if !opts.Silent && opts.Out != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "snapshot written to %s\n", opts.Out)
	}
	return nil
}
