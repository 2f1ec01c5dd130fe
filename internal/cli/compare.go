package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/reliquary/internal/compare"
	"github.com/roach88/reliquary/internal/snapshot"
)

// CompareOptions holds flags for the compare command.
type CompareOptions struct {
	*RootOptions
	Plan     string
	Workers  int
	ScrubOut string
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare <left.json> <right.json>",
		Short: "Diff two snapshot documents",
		Long: `Compare two snapshots of the same dataset and report findings.

Comparators from the plan tolerate expected formatting drift (timestamp
precision) and never leak raw sensitive values: emails and hashes appear in
findings only in obfuscated form. Exit code is 1 when findings exist.

Example:
  reliquary compare --plan comparators.yaml before.json after.json
  reliquary compare --plan comparators.yaml --scrub-out ./redacted before.json after.json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Plan, "plan", "", "path to comparator plan YAML (required)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 4, "concurrent comparison workers")
	cmd.Flags().StringVar(&opts.ScrubOut, "scrub-out", "", "directory to write redacted copies of both snapshots")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

func runCompare(opts *CompareOptions, leftPath, rightPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	plan, err := compare.LoadPlan(opts.Plan)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load comparator plan", err)
	}

	left, err := readSnapshot(leftPath)
	if err != nil {
		return err
	}
	right, err := readSnapshot(rightPath)
	if err != nil {
		return err
	}

	report := compare.Run(left, right, plan, compare.Options{
		Workers: opts.Workers,
		Scrub:   opts.ScrubOut != "",
	})

	if opts.ScrubOut != "" {
		if err := writeScrubbed(opts.ScrubOut, leftPath, left); err != nil {
			return err
		}
		if err := writeScrubbed(opts.ScrubOut, rightPath, right); err != nil {
			return err
		}
	}

	if opts.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		formatter.VerboseLog("compared %d instance pair(s), run %s", report.Pairs, report.RunID)
		for _, f := range report.Findings {
			fmt.Fprintf(formatter.Writer, "%s %s: %s\n", f.On, f.Kind, f.Reason)
		}
		if len(report.Findings) == 0 {
			fmt.Fprintln(formatter.Writer, "no differences detected")
		}
	}

	if len(report.Findings) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d finding(s)", len(report.Findings)))
	}
	return nil
}

func readSnapshot(path string) ([]snapshot.Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open snapshot", err)
	}
	defer f.Close()

	instances, err := snapshot.ReadDocument(f)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read snapshot "+path, err)
	}
	return instances, nil
}

// writeScrubbed writes one redacted snapshot, named after its source file,
// into the scrub output directory.
func writeScrubbed(dir, srcPath string, instances []snapshot.Instance) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "failed to create scrub output directory", err)
	}

	out := filepath.Join(dir, filepath.Base(srcPath))
	f, err := os.Create(out)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create scrubbed snapshot", err)
	}
	defer f.Close()

	enc := snapshot.NewEncoder(f, 2)
	for _, inst := range instances {
		if err := enc.Encode(inst); err != nil {
			return WrapExitError(ExitCommandError, "failed to write scrubbed snapshot", err)
		}
	}
	return enc.Close()
}
