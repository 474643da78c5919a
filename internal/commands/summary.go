package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/reskontra/reskontra/internal/money"
	"github.com/reskontra/reskontra/internal/period"
	"github.com/reskontra/reskontra/internal/summary"
)

func newSummaryCommand() *cobra.Command {
	var repoDir, from, to string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print cash, income and expenses for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := openRepo(ctx, repoDir)
			if err != nil {
				return err
			}
			defer r.close()

			today := period.Day(time.Now())
			start, err := parseDateFlag("from", from, r.cfg.FiscalYear().Containing(today).From)
			if err != nil {
				return err
			}
			end, err := parseDateFlag("to", to, today)
			if err != nil {
				return err
			}

			s, err := summary.Load(ctx, r.source, r.chart, start, end)
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), r.cfg.Business.Name, s)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().StringVar(&from, "from", "", "period start YYYY-MM-DD (default: start of the fiscal year)")
	cmd.Flags().StringVar(&to, "to", "", "period end YYYY-MM-DD (default: today)")

	return cmd
}

func writeSummary(w io.Writer, business string, s summary.Summary) error {
	fmt.Fprintf(w, "%s %s - %s\n\n", business, s.From.Format("02.01.2006"), s.To.Format("02.01.2006"))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	section := func(title string, lines []summary.Line, total int64) {
		fmt.Fprintf(tw, "%s\t\t\n", title)
		for _, l := range lines {
			fmt.Fprintf(tw, "  %d %s\t%12s\t\n", l.Account, l.Name, money.Format(l.AmountMinor))
		}
		fmt.Fprintf(tw, "  Total\t%12s\t\n", money.Format(total))
		fmt.Fprintln(tw, "\t\t")
	}
	section("Cash", s.Cash, s.CashMinor)
	section("Income", s.Income, s.IncomeMinor)
	section("Expenses", s.Expenses, s.ExpensesMinor)
	fmt.Fprintf(tw, "Surplus\t%12s\t\n", money.Format(s.SurplusMinor))
	return tw.Flush()
}
