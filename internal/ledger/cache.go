package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/reskontra/reskontra/internal/model"
)

// CachedSource memoizes another Source. Queries are idempotent, so results
// are cached until Invalidate is called after the ledger changes.
type CachedSource struct {
	next  Source
	cache *ristretto.Cache
}

// NewCachedSource wraps next with a cache holding up to maxQueries results.
func NewCachedSource(next Source, maxQueries int64) (*CachedSource, error) {
	if maxQueries <= 0 {
		maxQueries = 1000
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxQueries * 10, // keys to track frequency of
		MaxCost:            maxQueries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}
	return &CachedSource{next: next, cache: cache}, nil
}

// Entries returns a copy of the cached result for q, querying next on a miss.
func (c *CachedSource) Entries(ctx context.Context, q Query) ([]model.TransactionRecord, error) {
	key := "entries|" + q.String()
	if v, ok := c.cache.Get(key); ok {
		return cloneRecords(v.([]model.TransactionRecord)), nil
	}

	recs, err := c.next.Entries(ctx, q)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, cloneRecords(recs), 1)
	c.cache.Wait()
	return recs, nil
}

// Balance returns the cached balance, querying next on a miss.
func (c *CachedSource) Balance(ctx context.Context, account int, before time.Time) (int64, error) {
	key := fmt.Sprintf("balance|%d|%s", account, before.Format(time.DateOnly))
	if v, ok := c.cache.Get(key); ok {
		return v.(int64), nil
	}

	total, err := c.next.Balance(ctx, account, before)
	if err != nil {
		return 0, err
	}
	c.cache.Set(key, total, 1)
	c.cache.Wait()
	return total, nil
}

// Invalidate drops every cached result.
func (c *CachedSource) Invalidate() {
	c.cache.Clear()
}

// Close stops the cache's background goroutines.
func (c *CachedSource) Close() {
	c.cache.Close()
}

func cloneRecords(recs []model.TransactionRecord) []model.TransactionRecord {
	if recs == nil {
		return nil
	}
	return append([]model.TransactionRecord(nil), recs...)
}
