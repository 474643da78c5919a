package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/reskontra/reskontra/internal/ledger"
	"github.com/reskontra/reskontra/internal/logger"
	"github.com/reskontra/reskontra/internal/money"
	"github.com/reskontra/reskontra/internal/period"
	"github.com/reskontra/reskontra/internal/vat"
)

func newVATCommand() *cobra.Command {
	var repoDir, from, to string
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "vat",
		Short: "Print the VAT listing for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger.FromContext(ctx)

			def := period.PreviousMonth(time.Now())
			start, err := parseDateFlag("from", from, def.From)
			if err != nil {
				return err
			}
			end, err := parseDateFlag("to", to, def.To)
			if err != nil {
				return err
			}

			r, err := openRepo(ctx, repoDir)
			if err != nil {
				return err
			}
			defer r.close()

			scheme, err := r.cfg.VATScheme()
			if err != nil {
				return err
			}
			entries, err := r.source.Entries(ctx, ledger.Query{From: start, To: end, ClassifiedOnly: true})
			if err != nil {
				return fmt.Errorf("loading ledger entries: %w", err)
			}
			report := vat.Aggregate(entries, start, end, scheme)
			log.Info().
				Str("scheme", scheme.Name).
				Int("entries", len(entries)).
				Int64("payable", report.PayableMinor).
				Msg("vat listing")

			if asCSV {
				return vat.WriteCSV(cmd.OutOrStdout(), report)
			}
			return writeVAT(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().StringVar(&from, "from", "", "period start YYYY-MM-DD (default: first day of last month)")
	cmd.Flags().StringVar(&to, "to", "", "period end YYYY-MM-DD (default: last day of last month)")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of a text listing")

	return cmd
}

func writeVAT(w io.Writer, report vat.Report) error {
	fmt.Fprintf(w, "VAT %s - %s\n\n", report.From.Format("02.01.2006"), report.To.Format("02.01.2006"))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range report.Rows {
		switch row.Kind {
		case vat.KindSectionHeading:
			label := row.Label
			if row.RateBasisPoints != 0 {
				label += " " + vat.FormatRate(row.RateBasisPoints) + "%"
			}
			fmt.Fprintf(tw, "%s\t\t\t\n", label)
		case vat.KindAccountHeading:
			fmt.Fprintf(tw, "  %s\t\t\t\n", row.Label)
		case vat.KindEntry:
			fmt.Fprintf(tw, "    %s %s\t%s\t%10s\t\n", row.Date.Format("02.01.2006"), row.Voucher, row.Label, money.Format(row.AmountMinor))
		case vat.KindAccountSubtotal:
			fmt.Fprintf(tw, "\t\t%10s\t\n", "----------")
			fmt.Fprintf(tw, "\t\t%10s\t\n", money.Format(row.AmountMinor))
		case vat.KindCodeTotal:
			fmt.Fprintf(tw, "  Total\t\t%10s\t\n", money.Format(row.AmountMinor))
		case vat.KindBlank:
			fmt.Fprintln(tw, "\t\t\t")
		case vat.KindFooter:
			fmt.Fprintf(tw, "%s\t\t%10s\t\n", row.Label, money.Format(row.AmountMinor))
		}
	}
	return tw.Flush()
}
