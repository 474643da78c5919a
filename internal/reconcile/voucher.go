package reconcile

import (
	"strings"
	"time"
)

// VoucherKind is inferred from the bank leg of a resolved row.
type VoucherKind int

const (
	KindExpense VoucherKind = iota
	KindIncome
	KindTransfer
)

func (k VoucherKind) String() string {
	switch k {
	case KindIncome:
		return "income"
	case KindTransfer:
		return "transfer"
	default:
		return "expense"
	}
}

// Voucher is a balanced set of postings ready to be written to the ledger.
// Lines are debit-positive; the first line is the bank leg.
type Voucher struct {
	Row         int
	Date        time.Time
	Kind        VoucherKind
	Description string
	Reference   string
	BankType    string
	Lines       []Posting
}

// Tags lists the voucher kind and, when the statement carried one, the bank
// transaction type, lower-cased.
func (v Voucher) Tags() []string {
	tags := []string{v.Kind.String()}
	if v.BankType != "" {
		tags = append(tags, strings.ToLower(v.BankType))
	}
	return tags
}

// Balanced reports whether the lines sum to zero.
func (v Voucher) Balanced() bool {
	var sum int64
	for _, l := range v.Lines {
		sum += l.AmountMinor
	}
	return sum == 0
}

// Postings returns a voucher for every resolved row that is not yet in the
// ledger, in row order.
func (s *Statement) Postings() []Voucher {
	var out []Voucher
	for i, r := range s.rows {
		if r.Locked() || r.Grey() || !r.Resolved() {
			continue
		}
		out = append(out, s.voucher(i, r))
	}
	return out
}

func (s *Statement) voucher(i int, r Row) Voucher {
	src := r.Source
	v := Voucher{
		Row:         i,
		Date:        src.Date,
		Kind:        s.kind(r),
		Description: src.Description,
		Reference:   src.Reference,
		BankType:    src.BankType,
	}
	v.Lines = append(v.Lines, Posting{
		Account:     src.Account,
		AmountMinor: src.AmountMinor,
		Description: src.Description,
	})
	for _, p := range r.Postings {
		p.AmountMinor = -p.AmountMinor
		v.Lines = append(v.Lines, p)
	}
	return v
}

func (s *Statement) kind(r Row) VoucherKind {
	if s.cash != nil && allCash(r.Postings, s.cash) {
		return KindTransfer
	}
	if r.Source.AmountMinor >= 0 {
		return KindIncome
	}
	return KindExpense
}

func allCash(postings []Posting, cash CashChecker) bool {
	for _, p := range postings {
		if !cash.IsCash(p.Account) {
			return false
		}
	}
	return len(postings) > 0
}
