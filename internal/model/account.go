package model

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Account represents a row in chart-of-accounts.csv.
type Account struct {
	ID          int
	Name        string
	Type        AccountType
	ParentID    int  // 0 = top-level
	Cash        bool // bank and cash accounts
	IBAN        string
	VATCode     int // default classification code for postings, 0 = none
	VATRate     int // basis points, 2400 = 24 %
	Description string
}

// IsBank reports whether the account can be reconciled against a bank statement.
func (a Account) IsBank() bool {
	return a.Cash && a.IBAN != ""
}
