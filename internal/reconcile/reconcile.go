// Package reconcile merges a bank account's ledger entries with an imported
// statement and lets the user resolve the differences.
package reconcile

import (
	"errors"
	"sort"

	"github.com/reskontra/reskontra/internal/model"
)

var (
	// ErrInvalidState is returned when editing is disabled or the row is locked.
	ErrInvalidState = errors.New("invalid state")
	// ErrIndexOutOfRange is returned for a row index that does not exist,
	// typically one held across a reload.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrUnbalancedSplit is returned when split amounts do not add up to
	// the row amount.
	ErrUnbalancedSplit = errors.New("unbalanced split")
)

// State classifies a statement row.
type State int

const (
	// Unmatched is an imported transaction with no ledger entry yet.
	Unmatched State = iota
	// MatchedToLedgerEntry is an imported transaction already in the ledger.
	MatchedToLedgerEntry
	// PendingManualEntry is a ledger entry not (yet) confirmed by the
	// statement, or a row the user added by hand.
	PendingManualEntry
)

func (s State) String() string {
	switch s {
	case Unmatched:
		return "unmatched"
	case MatchedToLedgerEntry:
		return "matched"
	case PendingManualEntry:
		return "pending"
	default:
		return "unknown"
	}
}

// Split is one part of a reclassified row, in the row's sign. Account 0
// means the reclassify target account.
type Split struct {
	Account         int
	AmountMinor     int64
	Description     string
	Code            int
	RateBasisPoints int
}

// Posting is a split with its account resolved.
type Posting struct {
	Account         int
	AmountMinor     int64
	Description     string
	Code            int
	RateBasisPoints int
}

// Row is one line of the merged statement view.
type Row struct {
	State    State
	Source   model.TransactionRecord
	Matched  *model.TransactionRecord // set only for MatchedToLedgerEntry
	Postings []Posting
	Added    bool
}

// Locked reports whether the row is confirmed against the ledger and can no
// longer be edited.
func (r Row) Locked() bool {
	return r.State == MatchedToLedgerEntry
}

// Resolved reports whether the row has been reclassified into postings and
// is ready to be written to the ledger.
func (r Row) Resolved() bool {
	return len(r.Postings) > 0
}

// Grey reports whether the row is an existing ledger entry shown only for
// context.
func (r Row) Grey() bool {
	return r.State == PendingManualEntry && !r.Added
}

// Summary holds the statement balances in minor units.
type Summary struct {
	OpeningMinor int64 `json:"opening_minor"`
	CreditsMinor int64 `json:"credits_minor"` // money in
	DebitsMinor  int64 `json:"debits_minor"`  // money out, as a positive figure
	ClosingMinor int64 `json:"closing_minor"`
}

type matchKey struct {
	account int
	day     int64
	amount  int64
}

func keyOf(r model.TransactionRecord) matchKey {
	return matchKey{account: r.Account, day: r.Date.Unix(), amount: r.AmountMinor}
}

// Reconcile matches imported statement transactions against existing ledger
// entries. An imported transaction matches the earliest unconsumed existing
// entry with the same account, date and amount; each existing entry is
// consumed at most once and imported transactions claim entries in import
// order. Unconsumed existing entries are carried as PendingManualEntry rows.
//
// Rows are ordered by date; rows on the same date keep imported rows first
// (in import order), then pending rows (in input order). The returned Matched
// pointers refer into existing.
func Reconcile(existing, imported []model.TransactionRecord, openingMinor int64) ([]Row, Summary) {
	available := make(map[matchKey][]int, len(existing))
	for i, e := range existing {
		k := keyOf(e)
		available[k] = append(available[k], i)
	}

	consumed := make([]bool, len(existing))
	rows := make([]Row, 0, len(existing)+len(imported))
	for _, imp := range imported {
		row := Row{State: Unmatched, Source: imp}
		k := keyOf(imp)
		if queue := available[k]; len(queue) > 0 {
			j := queue[0]
			available[k] = queue[1:]
			consumed[j] = true
			row.State = MatchedToLedgerEntry
			row.Matched = &existing[j]
		}
		rows = append(rows, row)
	}

	for j, e := range existing {
		if !consumed[j] {
			rows = append(rows, Row{State: PendingManualEntry, Source: e})
		}
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].Source.Date.Before(rows[b].Source.Date)
	})

	return rows, Summarize(rows, openingMinor)
}

// Summarize totals every row regardless of state.
func Summarize(rows []Row, openingMinor int64) Summary {
	sum := Summary{OpeningMinor: openingMinor}
	for _, r := range rows {
		if amt := r.Source.AmountMinor; amt >= 0 {
			sum.CreditsMinor += amt
		} else {
			sum.DebitsMinor -= amt
		}
	}
	sum.ClosingMinor = sum.OpeningMinor + sum.CreditsMinor - sum.DebitsMinor
	return sum
}
