package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is one posted or importable movement on a single account.
//
// AmountMinor is debit-positive: debit - credit for a ledger leg. A deposit on
// a bank statement is a debit to the bank account, so statement lines and
// bank account legs share one sign.
type TransactionRecord struct {
	Date            time.Time
	AmountMinor     int64
	Account         int
	AccountName     string
	Description     string
	Code            int // VAT classification code, 0 = not classified
	RateBasisPoints int
	CounterpartyID  int64 // 0 = none
	VoucherID       int64 // 0 = none
	Voucher         string
	Reference       string
	BankType        string // statement transaction type, e.g. ACH_DEBIT
}

// Classified reports whether the record carries a VAT code.
func (r TransactionRecord) Classified() bool {
	return r.Code != 0
}

// SameMovement reports whether two records describe the same bank movement.
func (r TransactionRecord) SameMovement(o TransactionRecord) bool {
	return r.Account == o.Account && r.AmountMinor == o.AmountMinor && r.Date.Equal(o.Date)
}

// StatementLine is a parsed bank statement row before account resolution.
type StatementLine struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // negative = money out, positive = money in
	Reference   string
	Type        string // bank transaction type (ACH_DEBIT, etc.)
	IBAN        string // empty when the file does not carry one
}
