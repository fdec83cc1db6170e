package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/promptloom/promptloom/internal/template"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <template>",
		Short: "Validate a template document's schema",
		Long: `Validate a promptloom document against the schema.

Every violation is reported, not just the first one. Exit code 0 means
the document is valid, 1 means violations were found.

Example:
  promptloom validate ./templates/portrait.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

// validateReport is the JSON shape of a validation result.
type validateReport struct {
	Document string                     `json:"document"`
	Valid    bool                       `json:"valid"`
	Errors   []template.ValidationError `json:"errors,omitempty"`
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	_, verrs := template.ValidateFile(path)

	report := validateReport{
		Document: path,
		Valid:    len(verrs) == 0,
		Errors:   verrs,
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if err := formatter.Print(report, func(w io.Writer) {
		if report.Valid {
			fmt.Fprintf(w, "%s: valid\n", path)
			return
		}
		fmt.Fprintf(w, "%s: %d violation(s)\n", path, len(verrs))
		for _, v := range verrs {
			fmt.Fprintf(w, "  %s\n", v.Error())
		}
	}); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	if !report.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(verrs)))
	}
	return nil
}
