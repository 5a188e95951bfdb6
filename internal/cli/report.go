package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/blues/fundcrm/internal/model"
	"github.com/blues/fundcrm/internal/report"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

// NewReportCommand 报告相关命令
func NewReportCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate completed-ticket reports",
	}
	cmd.AddCommand(newReportGenerateCommand(opts))
	cmd.AddCommand(newReportBackfillCommand(opts))
	return cmd
}

func newReportGenerateCommand(opts *RootOptions) *cobra.Command {
	var (
		reportType string
		asOf       string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one daily or weekly report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := model.ReportType(reportType)
			if t != model.ReportDaily && t != model.ReportWeekly {
				return fmt.Errorf("invalid report type %q: must be daily or weekly", reportType)
			}
			env, err := opts.Env()
			if err != nil {
				return err
			}
			at, err := parseDay(asOf, env.Generator.Location())
			if err != nil {
				return err
			}

			res := env.Generator.GenerateAs(cmd.Context(), t, at, report.SourceManual)
			if opts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&reportType, "type", string(model.ReportDaily), "report type (daily|weekly)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "generation day YYYY-MM-DD, covering the period before it (default today)")
	return cmd
}

func newReportBackfillCommand(opts *RootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Generate every missing report since the first archived ticket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.Env()
			if err != nil {
				return err
			}

			var out *report.BackfillResult
			if date != "" {
				day, err := parseDay(date, env.Generator.Location())
				if err != nil {
					return err
				}
				out = env.Generator.BackfillDate(cmd.Context(), day)
			} else {
				out, err = env.Generator.Backfill(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
			}

			if opts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			for _, res := range out.Results {
				printResult(w, res)
			}
			fmt.Fprintf(w, "scanned %d days: %d saved, %d skipped, %d errors\n",
				out.DaysScanned, out.Saved(), out.Skipped, len(out.Errors))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "only backfill the reports generated on this day (YYYY-MM-DD)")
	return cmd
}

func parseDay(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Now().In(loc), nil
	}
	day, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: must be YYYY-MM-DD", value)
	}
	return day, nil
}

func printResult(w io.Writer, res report.Result) {
	status := "skipped"
	switch {
	case res.Error != "":
		status = "error: " + res.Error
	case res.Saved:
		status = fmt.Sprintf("saved (%d tickets)", res.TicketCount)
	case res.Existing:
		status = "already exists"
	}
	fmt.Fprintf(w, "%-6s %s..%s %s\n", res.ReportType,
		res.PeriodStart.Format(dateLayout), res.PeriodEnd.Format(dateLayout), status)
}
