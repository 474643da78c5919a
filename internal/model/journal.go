package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus represents the lifecycle state of a journal entry.
type EntryStatus string

const (
	StatusPendingReview EntryStatus = "pending-review"
	StatusUserConfirmed EntryStatus = "user-confirmed"
	StatusUserCorrected EntryStatus = "user-corrected"
	StatusReconciled    EntryStatus = "reconciled"
	StatusVoided        EntryStatus = "voided"
	StatusOpening       EntryStatus = "opening-balance"
)

// Leg is a single row in journal.csv (one side of a double-entry).
type Leg struct {
	EntryID      string    // "YYYY-MM-NNNx" where x = a,b,c...
	Date         time.Time //nolint:revive // plain field name is clearest
	AccountID    int       //nolint:revive
	Description  string    //nolint:revive
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	VATCode      int
	VATRate      int // basis points
	Counterparty string
	Reference    string
	Status       EntryStatus
	Tags         string // semicolon-separated
	Notes        string
}

// EntryGroup returns the base entry ID (without leg suffix).
// "2025-01-001a" -> "2025-01-001"
func (l Leg) EntryGroup() string {
	i := len(l.EntryID)
	for i > 0 && l.EntryID[i-1] >= 'a' && l.EntryID[i-1] <= 'z' {
		i--
	}
	return l.EntryID[:i]
}

// Voided reports whether the leg belongs to a voided entry.
func (l Leg) Voided() bool {
	return l.Status == StatusVoided
}
