package accounts

import "github.com/reskontra/reskontra/internal/model"

// DefaultChart returns the default chart of accounts for an entity type.
func DefaultChart(entityType string) []model.Account {
	switch entityType {
	case "sole_trader":
		return soleTraderChart()
	default:
		return limitedCompanyChart()
	}
}

func limitedCompanyChart() []model.Account {
	return []model.Account{
		{ID: 1700, Name: "Trade Receivables", Type: model.AccountTypeAsset},
		{ID: 1763, Name: "VAT Receivable", Type: model.AccountTypeAsset, Description: "Deductible VAT"},
		{ID: 1910, Name: "Bank Account", Type: model.AccountTypeAsset, Cash: true, Description: "Primary bank account"},
		{ID: 2001, Name: "Share Capital", Type: model.AccountTypeEquity},
		{ID: 2871, Name: "Trade Payables", Type: model.AccountTypeLiability},
		{ID: 2939, Name: "VAT Payable", Type: model.AccountTypeLiability, Description: "Output VAT and settlement"},
		{ID: 3000, Name: "Sales", Type: model.AccountTypeRevenue, VATCode: 11, VATRate: 2550},
		{ID: 3010, Name: "Service Sales", Type: model.AccountTypeRevenue, VATCode: 11, VATRate: 2550},
		{ID: 4000, Name: "Purchases", Type: model.AccountTypeExpense, VATCode: 21, VATRate: 2550},
		{ID: 7680, Name: "Office Expenses", Type: model.AccountTypeExpense, VATCode: 21, VATRate: 2550},
		{ID: 8460, Name: "Bank Charges", Type: model.AccountTypeExpense, Description: "VAT exempt"},
	}
}

func soleTraderChart() []model.Account {
	chart := limitedCompanyChart()
	for i := range chart {
		if chart[i].ID == 2001 {
			chart[i] = model.Account{ID: 2001, Name: "Owner's Equity", Type: model.AccountTypeEquity}
		}
	}
	return append(chart, model.Account{ID: 2060, Name: "Private Withdrawals", Type: model.AccountTypeEquity, ParentID: 2001})
}
