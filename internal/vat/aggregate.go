package vat

import (
	"fmt"
	"sort"
	"time"

	"github.com/reskontra/reskontra/internal/model"
)

// RowKind tells the renderer what a report row is.
type RowKind int

const (
	KindSectionHeading RowKind = iota
	KindAccountHeading
	KindEntry
	KindAccountSubtotal
	KindCodeTotal
	KindBlank
	KindFooter
)

func (k RowKind) String() string {
	switch k {
	case KindSectionHeading:
		return "section"
	case KindAccountHeading:
		return "account"
	case KindEntry:
		return "entry"
	case KindAccountSubtotal:
		return "subtotal"
	case KindCodeTotal:
		return "total"
	case KindBlank:
		return "blank"
	case KindFooter:
		return "footer"
	default:
		return "unknown"
	}
}

// Row is one line of the listing. Bold and RuleAbove are styling hints.
type Row struct {
	Kind            RowKind   `json:"kind"`
	Bold            bool      `json:"bold,omitempty"`
	RuleAbove       bool      `json:"rule_above,omitempty"`
	Label           string    `json:"label,omitempty"`
	Code            int       `json:"code,omitempty"`
	Account         int       `json:"account,omitempty"`
	Date            time.Time `json:"date,omitzero"`
	Voucher         string    `json:"voucher,omitempty"`
	RateBasisPoints int       `json:"rate_bp,omitempty"`
	AmountMinor     int64     `json:"amount_minor"`
}

// HasAmount reports whether the row carries a figure.
func (r Row) HasAmount() bool {
	switch r.Kind {
	case KindEntry, KindAccountSubtotal, KindCodeTotal, KindFooter:
		return true
	}
	return false
}

// Report is the VAT listing for a period.
type Report struct {
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	Rows            []Row     `json:"rows"`
	CollectedMinor  int64     `json:"collected_minor"`
	DeductibleMinor int64     `json:"deductible_minor"`
	PayableMinor    int64     `json:"payable_minor"`
}

// Aggregate groups the classified records dated from..to by (code, rate,
// account) and lays out the listing. The settlement code is left out. The
// result does not depend on the order of txns.
func Aggregate(txns []model.TransactionRecord, from, to time.Time, scheme Scheme) Report {
	sel := make([]model.TransactionRecord, 0, len(txns))
	for _, t := range txns {
		if t.Code == 0 || (scheme.Settlement != 0 && t.Code == scheme.Settlement) {
			continue
		}
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		sel = append(sel, t)
	}
	sort.SliceStable(sel, func(i, j int) bool { return less(sel[i], sel[j]) })

	b := builder{scheme: scheme, report: Report{From: from, To: to}}
	var prev model.TransactionRecord
	for i, t := range sel {
		section := i == 0 || t.Code != prev.Code || t.RateBasisPoints != prev.RateBasisPoints
		account := section || t.Account != prev.Account

		if i > 0 && account {
			b.closeAccount(prev, section)
		}
		if section {
			b.section(t)
		}
		if account {
			b.account(t)
		}
		b.entry(t)
		prev = t
	}
	if len(sel) > 0 {
		b.closeAccount(prev, true)
	}

	b.footer()
	return b.report
}

// less orders by code, rate descending, account, date, then by voucher,
// description and amount so equal keys sort the same for any input order.
func less(a, b model.TransactionRecord) bool {
	if a.Code != b.Code {
		return a.Code < b.Code
	}
	if a.RateBasisPoints != b.RateBasisPoints {
		return a.RateBasisPoints > b.RateBasisPoints
	}
	if a.Account != b.Account {
		return a.Account < b.Account
	}
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if a.VoucherID != b.VoucherID {
		return a.VoucherID < b.VoucherID
	}
	if a.Voucher != b.Voucher {
		return a.Voucher < b.Voucher
	}
	if a.Description != b.Description {
		return a.Description < b.Description
	}
	return a.AmountMinor < b.AmountMinor
}

type builder struct {
	scheme     Scheme
	report     Report
	accountSum int64
	codeSum    int64
}

func (b *builder) add(r Row) {
	b.report.Rows = append(b.report.Rows, r)
}

func (b *builder) section(t model.TransactionRecord) {
	b.codeSum = 0
	b.add(Row{
		Kind:            KindSectionHeading,
		Bold:            true,
		Label:           b.scheme.Heading(t.Code),
		Code:            t.Code,
		RateBasisPoints: t.RateBasisPoints,
	})
}

func (b *builder) account(t model.TransactionRecord) {
	b.accountSum = 0
	b.add(Row{
		Kind:            KindAccountHeading,
		Label:           accountLabel(t),
		Code:            t.Code,
		Account:         t.Account,
		RateBasisPoints: t.RateBasisPoints,
	})
}

func (b *builder) entry(t model.TransactionRecord) {
	amount := b.scheme.Amount(t)
	b.add(Row{
		Kind:            KindEntry,
		Label:           t.Description,
		Code:            t.Code,
		Account:         t.Account,
		Date:            t.Date,
		Voucher:         t.Voucher,
		RateBasisPoints: t.RateBasisPoints,
		AmountMinor:     amount,
	})
	b.accountSum += amount
	b.codeSum += amount

	switch {
	case b.scheme.IsCollected(t.Code):
		b.report.CollectedMinor += amount
	case b.scheme.IsDeductible(t.Code):
		b.report.DeductibleMinor += amount
	}
}

// closeAccount emits the subtotal of the account just finished and, at the
// end of a section spanning several accounts, the code total. An account
// that nets to zero gets no subtotal.
func (b *builder) closeAccount(last model.TransactionRecord, sectionEnd bool) {
	if b.accountSum == 0 {
		return
	}
	b.add(Row{
		Kind:            KindAccountSubtotal,
		RuleAbove:       true,
		Code:            last.Code,
		Account:         last.Account,
		RateBasisPoints: last.RateBasisPoints,
		AmountMinor:     b.accountSum,
	})
	if sectionEnd && b.codeSum != b.accountSum {
		b.add(Row{
			Kind:            KindCodeTotal,
			Bold:            true,
			Code:            last.Code,
			RateBasisPoints: last.RateBasisPoints,
			AmountMinor:     b.codeSum,
		})
	}
	b.add(Row{Kind: KindBlank})
}

func (b *builder) footer() {
	r := &b.report
	r.PayableMinor = r.CollectedMinor - r.DeductibleMinor
	b.add(Row{Kind: KindFooter, Label: "Tax total", AmountMinor: r.CollectedMinor})
	b.add(Row{Kind: KindFooter, Label: "Deductions total", AmountMinor: r.DeductibleMinor})
	b.add(Row{Kind: KindFooter, Bold: true, Label: "Payable tax", AmountMinor: r.PayableMinor})
}

func accountLabel(t model.TransactionRecord) string {
	if t.AccountName == "" {
		return fmt.Sprintf("%d", t.Account)
	}
	return fmt.Sprintf("%d %s", t.Account, t.AccountName)
}
