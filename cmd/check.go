package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/availcheck/internal/instrumentation"
	"github.com/teemow/availcheck/internal/trigger"
)

func newCheckCmd() *cobra.Command {
	var (
		date   string
		start  string
		end    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one availability check",
		Long: `Check the configured users for one time window and write the results sheet.

The inputs use the same formats as the form:
  --date  M/D/YYYY        e.g. 9/25/2025
  --start H:MM:SS AM|PM   e.g. 2:00:00 PM
  --end   H:MM:SS AM|PM   e.g. 3:00:00 PM

With --dry-run the report is printed instead of written to the spreadsheet.`,
		Example: `  availcheck check --date 9/25/2025 --start "2:00:00 PM" --end "3:00:00 PM"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dryRun {
				cfg.DryRun = true
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, cfg, instrumentation.SourceCLI, os.Stderr)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			p := a.pipeline
			out, err := p.Handle(ctx, p.Submit(date, start, end))
			if err != nil {
				return err
			}

			printOutcome(cmd.OutOrStdout(), out)
			if a.dryRunSink != nil {
				fmt.Fprintln(cmd.OutOrStdout())
				fmt.Fprint(cmd.OutOrStdout(), a.dryRunSink.Render(a.labels.SheetName))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date to check (M/D/YYYY)")
	cmd.Flags().StringVar(&start, "start", "", "Window start (H:MM:SS AM|PM)")
	cmd.Flags().StringVar(&end, "end", "", "Window end (H:MM:SS AM|PM)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the report instead of writing the spreadsheet")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

// printOutcome writes a short human-readable summary of a run.
func printOutcome(w io.Writer, out *trigger.Outcome) {
	r := out.Result
	fmt.Fprintf(w, "Run %s: %s to %s\n", out.RunID,
		out.Window.Start.Format(time.RFC3339), out.Window.End.Format(time.RFC3339))
	fmt.Fprintf(w, "Available (%d): %s\n", len(r.Available), joinOrDash(r.Available))
	fmt.Fprintf(w, "Busy (%d): %s\n", len(r.Busy), joinOrDash(r.Busy))
	fmt.Fprintf(w, "Errors (%d):", len(r.Errors))
	if len(r.Errors) == 0 {
		fmt.Fprintln(w, " -")
		return
	}
	fmt.Fprintln(w)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s: %s\n", e.User, e.Reason)
	}
}

func joinOrDash(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ", ")
}
