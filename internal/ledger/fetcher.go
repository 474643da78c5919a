package ledger

import (
	"context"
	"sync"

	"github.com/reskontra/reskontra/internal/model"
)

// Snapshot is what a reconciliation view needs from the ledger: the
// account's entries over the period and its balance at the period start.
type Snapshot struct {
	Query        Query
	Entries      []model.TransactionRecord
	OpeningMinor int64
}

// Fetcher serializes reloads so only the latest request's result is used.
// Starting a fetch cancels the one in flight; a result that finishes after
// being superseded is reported as ErrStale.
type Fetcher struct {
	source Source

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewFetcher creates a Fetcher over source.
func NewFetcher(source Source) *Fetcher {
	return &Fetcher{source: source}
}

// Fetch loads a snapshot for q. Errors from the source are wrapped in a
// *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, q Query) (Snapshot, error) {
	ctx, seq := f.begin(ctx)
	defer f.end(seq)

	entries, err := f.source.Entries(ctx, q)
	if err != nil {
		return Snapshot{}, f.fail(seq, "entries", q, err)
	}

	opening, err := f.source.Balance(ctx, q.Account, q.From)
	if err != nil {
		return Snapshot{}, f.fail(seq, "balance", q, err)
	}

	if !f.current(seq) {
		return Snapshot{}, ErrStale
	}
	return Snapshot{Query: q, Entries: entries, OpeningMinor: opening}, nil
}

func (f *Fetcher) begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
	}
	f.seq++
	f.cancel = cancel
	return ctx, f.seq
}

func (f *Fetcher) end(seq uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seq == seq && f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *Fetcher) current(seq uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq == seq
}

func (f *Fetcher) fail(seq uint64, op string, q Query, err error) error {
	if !f.current(seq) {
		return ErrStale
	}
	return &FetchError{Op: op, Query: q, Err: err}
}
