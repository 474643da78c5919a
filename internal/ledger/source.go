// Package ledger provides read access to posted ledger entries for the
// reconciliation and VAT components.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reskontra/reskontra/internal/model"
)

// Source answers the two questions the analytical components ask of the
// ledger: which entries fall in a range, and what an account's balance was
// before a date.
type Source interface {
	Entries(ctx context.Context, q Query) ([]model.TransactionRecord, error)
	Balance(ctx context.Context, account int, before time.Time) (int64, error)
}

// Query selects ledger entries. Zero values mean "unbounded": Account 0
// matches every account, a zero From or To leaves that end open.
type Query struct {
	Account        int
	From           time.Time
	To             time.Time
	ClassifiedOnly bool
}

var (
	minDate = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	maxDate = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

// Bounds returns the inclusive date range with open ends filled in.
func (q Query) Bounds() (from, to time.Time) {
	from, to = q.From, q.To
	if from.IsZero() {
		from = minDate
	}
	if to.IsZero() {
		to = maxDate
	}
	return from, to
}

// Match reports whether a record satisfies the query.
func (q Query) Match(r model.TransactionRecord) bool {
	if q.Account != 0 && r.Account != q.Account {
		return false
	}
	if q.ClassifiedOnly && !r.Classified() {
		return false
	}
	from, to := q.Bounds()
	return !r.Date.Before(from) && !r.Date.After(to)
}

func (q Query) String() string {
	from, to := q.Bounds()
	return fmt.Sprintf("account=%d from=%s to=%s classified=%t",
		q.Account, from.Format(time.DateOnly), to.Format(time.DateOnly), q.ClassifiedOnly)
}

// ErrStale is returned by Fetcher when a newer request superseded the one
// that produced the result.
var ErrStale = errors.New("ledger: result superseded by a newer request")

// FetchError reports a failed ledger query. Callers keep their previous
// state and surface it as a notice.
type FetchError struct {
	Op    string
	Query Query
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("ledger %s (%s): %v", e.Op, e.Query, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
