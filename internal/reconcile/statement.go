package reconcile

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/reskontra/reskontra/internal/model"
)

// Observer is notified when a batch of statement edits is committed.
type Observer interface {
	StatementChanged(s *Statement)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s *Statement)

// StatementChanged calls f(s).
func (f ObserverFunc) StatementChanged(s *Statement) { f(s) }

// CashChecker tells whether an account is a balance-sheet cash account.
type CashChecker interface {
	IsCash(id int) bool
}

// Option configures a Statement.
type Option func(*Statement)

// WithAccount sets the bank account rows added by hand are booked on.
func WithAccount(account int, name string) Option {
	return func(s *Statement) {
		s.account = account
		s.accountName = name
	}
}

// WithDefaultAccounts sets the accounts used when a reclassified row names
// no account: income for money in, expense for money out.
func WithDefaultAccounts(income, expense int) Option {
	return func(s *Statement) {
		s.defaultIncome = income
		s.defaultExpense = expense
	}
}

// WithCashAccounts lets Postings recognise transfers between cash accounts.
func WithCashAccounts(c CashChecker) Option {
	return func(s *Statement) { s.cash = c }
}

// Statement is the editable row set of one reconciliation. It is not safe
// for concurrent use.
type Statement struct {
	rows     []Row
	opening  int64
	editable bool

	account        int
	accountName    string
	defaultIncome  int
	defaultExpense int
	cash           CashChecker

	observers []Observer
	dirty     bool
}

// NewStatement wraps rows produced by Reconcile. Editing starts enabled.
func NewStatement(rows []Row, openingMinor int64, opts ...Option) *Statement {
	s := &Statement{rows: rows, opening: openingMinor, editable: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEditable enables or disables editing.
func (s *Statement) SetEditable(editable bool) { s.editable = editable }

// Editable reports whether edits are accepted.
func (s *Statement) Editable() bool { return s.editable }

// Len returns the number of rows.
func (s *Statement) Len() int { return len(s.rows) }

// Rows returns the rows in display order. The slice must not be modified.
func (s *Statement) Rows() []Row { return s.rows }

// Row returns row i.
func (s *Statement) Row(i int) (Row, error) {
	if i < 0 || i >= len(s.rows) {
		return Row{}, fmt.Errorf("row %d of %d: %w", i, len(s.rows), ErrIndexOutOfRange)
	}
	return s.rows[i], nil
}

// Account returns the statement's bank account.
func (s *Statement) Account() (int, string) { return s.account, s.accountName }

// Summary recomputes the balances over all rows.
func (s *Statement) Summary() Summary {
	return Summarize(s.rows, s.opening)
}

// AddRow inserts an empty pending row after every row dated on or before
// date and returns its index.
func (s *Statement) AddRow(date time.Time) (int, error) {
	if !s.editable {
		return 0, fmt.Errorf("add row: %w", ErrInvalidState)
	}
	i := s.position(date)
	row := Row{
		State:  PendingManualEntry,
		Added:  true,
		Source: model.TransactionRecord{Date: date, Account: s.account, AccountName: s.accountName},
	}
	s.rows = append(s.rows, Row{})
	copy(s.rows[i+1:], s.rows[i:])
	s.rows[i] = row
	s.dirty = true
	return i, nil
}

// SetTransaction fills a row added with AddRow. A changed date moves the row
// to its sorted position; the new index is returned.
func (s *Statement) SetTransaction(i int, rec model.TransactionRecord) (int, error) {
	if err := s.checkEditable("set transaction", i); err != nil {
		return i, err
	}
	if !s.rows[i].Added {
		return i, fmt.Errorf("set transaction on imported row %d: %w", i, ErrInvalidState)
	}
	if rec.Account == 0 {
		rec.Account, rec.AccountName = s.account, s.accountName
	}

	row := s.rows[i]
	row.Source = rec
	row.Postings = nil
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	j := s.position(rec.Date)
	s.rows = append(s.rows, Row{})
	copy(s.rows[j+1:], s.rows[j:])
	s.rows[j] = row
	s.dirty = true
	return j, nil
}

// RemoveRow deletes row i. Matched rows cannot be removed.
func (s *Statement) RemoveRow(i int) error {
	if err := s.checkEditable("remove row", i); err != nil {
		return err
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	s.dirty = true
	return nil
}

// Reclassify turns row i into postings against target. The splits must sum
// to the row amount; a split without an account goes to target, and when
// target is 0 to the default income or expense account. No splits means the
// whole amount goes to target.
func (s *Statement) Reclassify(i, target int, splits []Split) error {
	if err := s.checkEditable("reclassify", i); err != nil {
		return err
	}
	row := &s.rows[i]
	if row.Grey() {
		return fmt.Errorf("reclassify: row %d is already in the ledger: %w", i, ErrInvalidState)
	}
	amount := row.Source.AmountMinor

	if len(splits) == 0 {
		splits = []Split{{AmountMinor: amount}}
	}

	var total int64
	postings := make([]Posting, 0, len(splits))
	for _, sp := range splits {
		total += sp.AmountMinor
		p := Posting(sp)
		if p.Account == 0 {
			p.Account = s.fallbackAccount(target, amount)
		}
		if p.Account == 0 {
			return fmt.Errorf("reclassify row %d: split has no account: %w", i, ErrInvalidState)
		}
		if p.Description == "" {
			p.Description = row.Source.Description
		}
		postings = append(postings, p)
	}
	if total != amount {
		return fmt.Errorf("reclassify row %d: splits sum to %d, row is %d: %w", i, total, amount, ErrUnbalancedSplit)
	}

	row.Postings = postings
	s.dirty = true
	return nil
}

// Visible returns the indices of rows to display. Grey rows are hidden
// unless showUnconfirmed is set.
func (s *Statement) Visible(showUnconfirmed bool) []int {
	idx := make([]int, 0, len(s.rows))
	for i, r := range s.rows {
		if r.Grey() && !showUnconfirmed {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

// Column identifies a sortable statement column.
type Column int

const (
	ColumnDate Column = iota
	ColumnAmount
	ColumnDescription
	ColumnState
)

// Order returns row indices sorted by col for a table view. Ties keep
// display order.
func (s *Statement) Order(col Column, descending bool) []int {
	idx := make([]int, len(s.rows))
	for i := range idx {
		idx[i] = i
	}
	less := func(a, b Row) bool {
		switch col {
		case ColumnAmount:
			return a.Source.AmountMinor < b.Source.AmountMinor
		case ColumnDescription:
			return strings.ToLower(a.Source.Description) < strings.ToLower(b.Source.Description)
		case ColumnState:
			return a.State < b.State
		default:
			return a.Source.Date.Before(b.Source.Date)
		}
	}
	sort.SliceStable(idx, func(x, y int) bool {
		a, b := s.rows[idx[x]], s.rows[idx[y]]
		if descending {
			return less(b, a)
		}
		return less(a, b)
	})
	return idx
}

// Subscribe registers an observer. Observers are notified in registration
// order.
func (s *Statement) Subscribe(o Observer) {
	s.observers = append(s.observers, o)
}

// Commit notifies observers once for all edits since the last commit. It
// does nothing when nothing changed.
func (s *Statement) Commit() {
	if !s.dirty {
		return
	}
	s.dirty = false
	for _, o := range s.observers {
		o.StatementChanged(s)
	}
}

func (s *Statement) position(date time.Time) int {
	return sort.Search(len(s.rows), func(i int) bool {
		return s.rows[i].Source.Date.After(date)
	})
}

func (s *Statement) checkEditable(op string, i int) error {
	if i < 0 || i >= len(s.rows) {
		return fmt.Errorf("%s %d of %d: %w", op, i, len(s.rows), ErrIndexOutOfRange)
	}
	if !s.editable {
		return fmt.Errorf("%s: editing disabled: %w", op, ErrInvalidState)
	}
	if s.rows[i].Locked() {
		return fmt.Errorf("%s: row %d is matched: %w", op, i, ErrInvalidState)
	}
	return nil
}

func (s *Statement) fallbackAccount(target int, amount int64) int {
	if target != 0 {
		return target
	}
	if amount >= 0 {
		return s.defaultIncome
	}
	return s.defaultExpense
}

// Title is the heading of a statement view,
// e.g. "Statement 01.01.2025 - 31.01.2025 1910 Bank Account".
func Title(from, to time.Time, accountName string) string {
	t := fmt.Sprintf("Statement %s - %s", from.Format("02.01.2006"), to.Format("02.01.2006"))
	if accountName != "" {
		t += " " + accountName
	}
	return t
}
