package cli

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/promptloom/promptloom/internal/driver"
	"github.com/promptloom/promptloom/internal/orchestrator"
	"github.com/promptloom/promptloom/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	flags  sessionFlags
	db     string
	spool  string
	dryRun bool

	// Submitter overrides the backend used for submission. Nil means a
	// spool-directory submitter under the output root. Tests inject
	// fakes here.
	Submitter driver.Submitter
}

// NewGenerateCommand creates the generate command: the full pipeline
// from template resolution through manifest-tracked batch submission.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <template>",
		Short: "Run a full generation batch from a template",
		Long: `Resolve a template, generate its prompt batch, and submit every job
to the image backend under a manifest-tracked session directory.

Without a wired backend, requests are spooled as JSON files for an
external transport worker to consume.

Example:
  promptloom generate ./templates/portrait.yaml --out ./renders --mode random --max-images 50`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	opts.flags.register(cmd)
	cmd.Flags().StringVar(&opts.db, "db", "", "SQLite database recording run history (optional)")
	cmd.Flags().StringVar(&opts.spool, "spool", "", "spool directory for submitted requests (default <out>/spool)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "stop after prompt generation, submit nothing")

	return cmd
}

// generateReport is the JSON shape of a generate result.
type generateReport struct {
	RunID      string `json:"run_id"`
	SessionDir string `json:"session_dir"`
	Status     string `json:"status"`
	Total      int    `json:"total"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	Pending    int    `json:"pending"`
}

func runGenerate(opts *GenerateOptions, path string, cmd *cobra.Command) error {
	ov := opts.flags.overrides(cmd)
	if ov.OutputRoot == "" && !opts.dryRun {
		return NewExitError(ExitCommandError, "--out is required")
	}
	if ov.OutputRoot == "" {
		ov.OutputRoot = "."
	}

	runOpts := orchestrator.Options{
		Submitter: opts.Submitter,
		DryRun:    opts.dryRun,
	}

	if !opts.dryRun && runOpts.Submitter == nil {
		spoolDir := opts.spool
		if spoolDir == "" {
			spoolDir = filepath.Join(ov.OutputRoot, "spool")
		}
		sub, err := driver.NewSpoolSubmitter(spoolDir)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to prepare spool directory", err)
		}
		runOpts.Submitter = sub
	}

	if opts.db != "" {
		st, err := store.Open(opts.db)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to open run-history database", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				slog.Warn("closing run-history database", "error", cerr)
			}
		}()
		runOpts.Store = st
	}

	result, runErr := orchestrator.Run(cmd.Context(), path, ov, runOpts)

	report := generateReport{
		RunID:      result.RunID,
		SessionDir: result.SessionDir,
		Succeeded:  result.Aggregate.Succeeded,
		Failed:     result.Aggregate.Failed,
		Pending:    result.Aggregate.Pending,
	}
	if result.Batch != nil {
		report.Total = len(result.Batch.Prompts)
	}
	if result.Manifest != nil {
		report.Status = string(result.Manifest.Status)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if perr := formatter.Print(report, func(w io.Writer) {
		if opts.dryRun {
			fmt.Fprintf(w, "dry run: %d prompt(s) ready, nothing submitted\n", report.Total)
			return
		}
		fmt.Fprintf(w, "run %s: %s\n", report.RunID, report.Status)
		fmt.Fprintf(w, "  session:   %s\n", report.SessionDir)
		fmt.Fprintf(w, "  jobs:      %d total, %d succeeded, %d failed, %d pending\n",
			report.Total, report.Succeeded, report.Failed, report.Pending)
	}); perr != nil {
		return WrapExitError(ExitCommandError, "failed to write output", perr)
	}

	if runErr != nil {
		return WrapExitError(ExitFailure, "generation failed", runErr)
	}
	return nil
}
