package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptloom/promptloom/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	db   string
	jobs bool
}

// NewRunsCommand creates the runs command: browse recorded run history.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recorded runs, or show one run in detail",
		Long: `List every run recorded in the history database, newest first.
With a run ID, show that run's detail; add --jobs to include its
per-job records.

Example:
  promptloom runs --db ./promptloom.db
  promptloom runs 0190d4a2-... --db ./promptloom.db --jobs`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runShowRun(opts, args[0], cmd)
			}
			return runListRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.db, "db", "", "SQLite database recording run history")
	cmd.Flags().BoolVar(&opts.jobs, "jobs", false, "include per-job records in run detail")
	cmd.MarkFlagRequired("db")

	return cmd
}

// runListing is the JSON shape of the run list.
type runListing struct {
	Runs []runRow `json:"runs"`
}

type runRow struct {
	ID          string `json:"id"`
	SessionName string `json:"session_name"`
	Template    string `json:"template"`
	CreatedAt   string `json:"created_at"`
	Status      string `json:"status"`
}

func runListRuns(opts *RunsOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.db)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open run-history database", err)
	}
	defer st.Close()

	summaries, err := st.ListRuns(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list runs", err)
	}

	listing := runListing{Runs: make([]runRow, 0, len(summaries))}
	for _, s := range summaries {
		listing.Runs = append(listing.Runs, runRow{
			ID:          s.ID,
			SessionName: s.SessionName,
			Template:    s.Template,
			CreatedAt:   s.CreatedAt.Format(time.RFC3339),
			Status:      s.Status,
		})
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if err := formatter.Print(listing, func(w io.Writer) {
		if len(listing.Runs) == 0 {
			fmt.Fprintln(w, "no runs recorded")
			return
		}
		for _, r := range listing.Runs {
			fmt.Fprintf(w, "%s  %-9s  %s  %s\n", r.CreatedAt, r.Status, r.ID, r.SessionName)
		}
	}); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	return nil
}

// runDetail is the JSON shape of a single run.
type runDetail struct {
	runRow
	Config string   `json:"config,omitempty"`
	Stats  string   `json:"stats,omitempty"`
	Jobs   []jobRow `json:"jobs,omitempty"`
}

type jobRow struct {
	Index    int    `json:"index"`
	Seed     int64  `json:"seed"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

func runShowRun(opts *RunsOptions, id string, cmd *cobra.Command) error {
	st, err := store.Open(opts.db)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open run-history database", err)
	}
	defer st.Close()

	summary, err := st.GetRun(cmd.Context(), id)
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("run %s not found", id), err)
	}

	detail := runDetail{
		runRow: runRow{
			ID:          summary.ID,
			SessionName: summary.SessionName,
			Template:    summary.Template,
			CreatedAt:   summary.CreatedAt.Format(time.RFC3339),
			Status:      summary.Status,
		},
		Config: summary.ConfigJSON,
		Stats:  summary.StatsJSON,
	}

	if opts.jobs {
		jobs, err := st.ListJobs(cmd.Context(), id)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to list jobs", err)
		}
		detail.Jobs = make([]jobRow, 0, len(jobs))
		for _, j := range jobs {
			detail.Jobs = append(detail.Jobs, jobRow{
				Index:    j.Index,
				Seed:     j.Seed,
				Filename: j.Filename,
				Status:   j.Status,
				Error:    j.Error,
			})
		}
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if err := formatter.Print(detail, func(w io.Writer) {
		fmt.Fprintf(w, "run %s\n", detail.ID)
		fmt.Fprintf(w, "  session:  %s\n", detail.SessionName)
		fmt.Fprintf(w, "  template: %s\n", detail.Template)
		fmt.Fprintf(w, "  created:  %s\n", detail.CreatedAt)
		fmt.Fprintf(w, "  status:   %s\n", detail.Status)
		for _, j := range detail.Jobs {
			fmt.Fprintf(w, "  job %3d  seed=%-12d %-9s %s", j.Index, j.Seed, j.Status, j.Filename)
			if j.Error != "" {
				fmt.Fprintf(w, "  (%s)", j.Error)
			}
			fmt.Fprintln(w)
		}
	}); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	return nil
}
