package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/promptloom/promptloom/internal/orchestrator"
	"github.com/promptloom/promptloom/internal/prompt"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	flags sessionFlags
}

// NewPlanCommand creates the plan command: resolution and prompt
// generation without any submission - a dry run of phases 1 through 5.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <template>",
		Short: "Resolve a template and print the prompts it would generate",
		Long: `Resolve a template - inheritance, imports, selectors, expansion -
and print every prompt the run would submit, without touching the
image backend or creating a manifest.

Example:
  promptloom plan ./templates/portrait.yaml --mode combinatorial`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	opts.flags.register(cmd)
	return cmd
}

// planReport is the JSON shape of a plan result.
type planReport struct {
	Template string            `json:"template"`
	Prompts  []prompt.Resolved `json:"prompts"`
	Stats    prompt.Stats      `json:"stats"`
}

func runPlan(opts *PlanOptions, path string, cmd *cobra.Command) error {
	ov := opts.flags.overrides(cmd)
	if ov.OutputRoot == "" {
		// A dry run writes nothing; any valid root satisfies config
		// validation.
		ov.OutputRoot = "."
	}

	result, err := orchestrator.Run(cmd.Context(), path, ov, orchestrator.Options{
		DryRun: true,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "plan failed", err)
	}

	report := planReport{
		Template: path,
		Prompts:  result.Batch.Prompts,
		Stats:    result.Batch.Stats,
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if err := formatter.Print(report, func(w io.Writer) {
		fmt.Fprintf(w, "%d prompt(s) from %s\n", len(report.Prompts), path)
		for _, p := range report.Prompts {
			fmt.Fprintf(w, "  %s  seed=%d  %s\n", p.Filename, p.Seed, p.Prompt)
		}
	}); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	return nil
}
