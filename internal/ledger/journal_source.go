package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/reskontra/reskontra/internal/id"
	"github.com/reskontra/reskontra/internal/model"
	"github.com/reskontra/reskontra/internal/money"
)

// LegReader reads journal legs over a date range.
type LegReader interface {
	ReadRange(from, to time.Time) ([]model.Leg, error)
}

// AccountNamer resolves account names for display.
type AccountNamer interface {
	Name(id int) string
}

// JournalSource serves entries from the month journal CSV files.
type JournalSource struct {
	legs     LegReader
	accounts AccountNamer
}

// NewJournalSource creates a JournalSource.
func NewJournalSource(legs LegReader, accounts AccountNamer) *JournalSource {
	return &JournalSource{legs: legs, accounts: accounts}
}

// Entries returns the non-voided legs matching q in journal order.
func (s *JournalSource) Entries(ctx context.Context, q Query) ([]model.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	from, to := q.Bounds()
	legs, err := s.legs.ReadRange(from, to)
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}

	var out []model.TransactionRecord
	for _, leg := range legs {
		if leg.Voided() {
			continue
		}
		rec, err := s.record(leg)
		if err != nil {
			return nil, err
		}
		if q.Match(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Balance sums the account's legs dated strictly before the given date.
func (s *JournalSource) Balance(ctx context.Context, account int, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	legs, err := s.legs.ReadRange(minDate, before.AddDate(0, 0, -1))
	if err != nil {
		return 0, fmt.Errorf("reading journal: %w", err)
	}

	var total int64
	for _, leg := range legs {
		if leg.AccountID != account || leg.Voided() || !leg.Date.Before(before) {
			continue
		}
		amount, err := legAmount(leg)
		if err != nil {
			return 0, err
		}
		total += amount
	}
	return total, nil
}

func (s *JournalSource) record(leg model.Leg) (model.TransactionRecord, error) {
	amount, err := legAmount(leg)
	if err != nil {
		return model.TransactionRecord{}, err
	}
	entryID := leg.EntryGroup()
	rec := model.TransactionRecord{
		Date:            leg.Date,
		AmountMinor:     amount,
		Account:         leg.AccountID,
		Description:     leg.Description,
		Code:            leg.VATCode,
		RateBasisPoints: leg.VATRate,
		VoucherID:       id.VoucherID(entryID),
		Voucher:         id.EntryVoucherLabel(entryID),
		Reference:       leg.Reference,
	}
	if s.accounts != nil {
		rec.AccountName = s.accounts.Name(leg.AccountID)
	}
	return rec, nil
}

func legAmount(leg model.Leg) (int64, error) {
	debit, err := money.FromDecimal(leg.Debit)
	if err != nil {
		return 0, fmt.Errorf("leg %s debit: %w", leg.EntryID, err)
	}
	credit, err := money.FromDecimal(leg.Credit)
	if err != nil {
		return 0, fmt.Errorf("leg %s credit: %w", leg.EntryID, err)
	}
	return debit - credit, nil
}
