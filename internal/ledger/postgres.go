package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reskontra/reskontra/internal/model"
)

const entriesQuery = `
SELECT entry_date, account, account_name, description,
       debit_minor, credit_minor,
       COALESCE(vat_code, 0), COALESCE(vat_rate, 0),
       COALESCE(voucher_id, 0), COALESCE(voucher, ''), COALESCE(counterparty_id, 0)
FROM ledger_entries
WHERE ($1::int = 0 OR account = $1)
  AND entry_date >= $2 AND entry_date <= $3
  AND (NOT $4::bool OR COALESCE(vat_code, 0) <> 0)
ORDER BY entry_date, voucher_id`

const balanceQuery = `
SELECT COALESCE(SUM(debit_minor - credit_minor), 0)::bigint
FROM ledger_entries
WHERE account = $1 AND entry_date < $2`

// Connect opens a pgx pool and checks it with a ping.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// PostgresSource reads entries from the ledger_entries view. Transient
// failures are retried with exponential backoff; SQL errors are not.
type PostgresSource struct {
	pool       *pgxpool.Pool
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// PostgresOption configures a PostgresSource.
type PostgresOption func(*PostgresSource)

// WithRetries sets how many times a transient failure is retried.
func WithRetries(n uint64) PostgresOption {
	return func(s *PostgresSource) { s.maxRetries = n }
}

// NewPostgresSource creates a PostgresSource over an open pool.
func NewPostgresSource(pool *pgxpool.Pool, opts ...PostgresOption) *PostgresSource {
	s := &PostgresSource{
		pool:       pool,
		maxRetries: 3,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxElapsedTime = 10 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Entries runs the entries query for q.
func (s *PostgresSource) Entries(ctx context.Context, q Query) ([]model.TransactionRecord, error) {
	from, to := q.Bounds()

	var out []model.TransactionRecord
	err := s.retry(ctx, func() error {
		out = out[:0]
		rows, err := s.pool.Query(ctx, entriesQuery, q.Account, from, to, q.ClassifiedOnly)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				r             model.TransactionRecord
				debit, credit int64
			)
			if err := rows.Scan(&r.Date, &r.Account, &r.AccountName, &r.Description,
				&debit, &credit, &r.Code, &r.RateBasisPoints,
				&r.VoucherID, &r.Voucher, &r.CounterpartyID); err != nil {
				return err
			}
			r.AmountMinor = debit - credit
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	return out, nil
}

// Balance sums the account's movements before the given date.
func (s *PostgresSource) Balance(ctx context.Context, account int, before time.Time) (int64, error) {
	var total int64
	err := s.retry(ctx, func() error {
		return s.pool.QueryRow(ctx, balanceQuery, account, before).Scan(&total)
	})
	if err != nil {
		return 0, fmt.Errorf("querying balance: %w", err)
	}
	return total, nil
}

func (s *PostgresSource) retry(ctx context.Context, op func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.maxRetries), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !transient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

// transient reports whether an error is worth retrying: connection-level
// failures are, server-reported SQL errors and cancellation are not.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exception; 40001: serialization failure.
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "40001"
	}
	return true
}
