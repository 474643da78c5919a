package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/reskontra/reskontra/internal/ledger"
	"github.com/reskontra/reskontra/internal/model"
)

// Session holds the reconciliation of one account and period against an
// imported batch. Reload replaces the statement wholesale; a failed reload
// keeps the previous one.
type Session struct {
	fetcher *ledger.Fetcher
	opts    []Option

	mu        sync.Mutex
	query     ledger.Query
	imported  []model.TransactionRecord
	opening   *int64
	statement *Statement
	observers []Observer
	seq       uint64
}

// NewSession creates a Session. opts are applied to every statement it
// builds.
func NewSession(fetcher *ledger.Fetcher, opts ...Option) *Session {
	return &Session{fetcher: fetcher, opts: opts}
}

// SetPeriod selects the account and the inclusive date range.
func (s *Session) SetPeriod(account int, from, to time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = ledger.Query{Account: account, From: from, To: to}
}

// SetImported replaces the imported statement transactions.
func (s *Session) SetImported(txns []model.TransactionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imported = append([]model.TransactionRecord(nil), txns...)
}

// SetOpening overrides the opening balance taken from the ledger.
func (s *Session) SetOpening(minor int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opening = &minor
}

// Subscribe registers an observer on the current and every future
// statement.
func (s *Session) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
	if s.statement != nil {
		s.statement.Subscribe(o)
	}
}

// Statement returns the current statement, or nil before the first
// successful reload.
func (s *Session) Statement() *Statement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statement
}

// Reload fetches the ledger side and rebuilds the statement. On a
// *ledger.FetchError the previous statement stays in place. A reload
// overtaken by a newer one returns ledger.ErrStale and changes nothing.
func (s *Session) Reload(ctx context.Context) (*Statement, error) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	q := s.query
	imported := s.imported
	opening := s.opening
	s.mu.Unlock()

	snap, err := s.fetcher.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	var batch []model.TransactionRecord
	for _, t := range imported {
		if q.Match(t) {
			batch = append(batch, t)
		}
	}

	openingMinor := snap.OpeningMinor
	if opening != nil {
		openingMinor = *opening
	}
	rows, _ := Reconcile(snap.Entries, batch, openingMinor)
	st := NewStatement(rows, openingMinor, s.opts...)

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return nil, ledger.ErrStale
	}
	for _, o := range s.observers {
		st.Subscribe(o)
	}
	s.statement = st
	s.mu.Unlock()

	st.dirty = true
	st.Commit()
	return st, nil
}

// IsFetchError reports whether err is a ledger fetch failure the host
// should show as a notice.
func IsFetchError(err error) bool {
	var fe *ledger.FetchError
	return errors.As(err, &fe)
}
