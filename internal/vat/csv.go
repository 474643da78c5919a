package vat

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/reskontra/reskontra/internal/money"
)

// Header is the CSV header of a rendered listing.
const Header = "kind,date,voucher,description,rate,amount"

// WriteCSV renders the listing one row per line. Amounts are decimals; the
// styling hints are carried only by the kind column.
func WriteCSV(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range report.Rows {
		rec := make([]string, 6)
		rec[0] = r.Kind.String()
		if !r.Date.IsZero() {
			rec[1] = r.Date.Format("2006-01-02")
		}
		rec[2] = r.Voucher
		rec[3] = r.Label
		if r.RateBasisPoints != 0 && r.Kind != KindFooter {
			rec[4] = FormatRate(r.RateBasisPoints)
		}
		if r.HasAmount() {
			rec[5] = money.Format(r.AmountMinor)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatRate renders basis points as a percentage, e.g. 2550 -> "25.5".
func FormatRate(bp int) string {
	return decimal.New(int64(bp), -2).String()
}
