// Package summary computes the start-page figures: cash at hand, income and
// expenses for a period.
package summary

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/reskontra/reskontra/internal/ledger"
	"github.com/reskontra/reskontra/internal/model"
)

// Chart looks up accounts.
type Chart interface {
	Get(id int) (model.Account, bool)
}

// Line is one account's figure.
type Line struct {
	Account     int    `json:"account"`
	Name        string `json:"name"`
	AmountMinor int64  `json:"amount_minor"`
}

// Summary holds the figures in minor units. Income reads credit - debit,
// cash and expenses debit - credit.
type Summary struct {
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	Cash          []Line    `json:"cash"`
	CashMinor     int64     `json:"cash_minor"`
	Income        []Line    `json:"income"`
	IncomeMinor   int64     `json:"income_minor"`
	Expenses      []Line    `json:"expenses"`
	ExpensesMinor int64     `json:"expenses_minor"`
	SurplusMinor  int64     `json:"surplus_minor"`
}

// Build computes the summary. Cash balances include every entry dated up to
// to; income and expenses only those dated from..to.
func Build(entries []model.TransactionRecord, chart Chart, from, to time.Time) Summary {
	cash := make(map[int]int64)
	income := make(map[int]int64)
	expenses := make(map[int]int64)

	for _, e := range entries {
		if e.Date.After(to) {
			continue
		}
		acct, ok := chart.Get(e.Account)
		if !ok {
			continue
		}
		if acct.Cash {
			cash[e.Account] += e.AmountMinor
		}
		if e.Date.Before(from) {
			continue
		}
		switch acct.Type {
		case model.AccountTypeRevenue:
			income[e.Account] -= e.AmountMinor
		case model.AccountTypeExpense:
			expenses[e.Account] += e.AmountMinor
		}
	}

	s := Summary{From: from, To: to}
	s.Cash, s.CashMinor = lines(cash, chart)
	s.Income, s.IncomeMinor = lines(income, chart)
	s.Expenses, s.ExpensesMinor = lines(expenses, chart)
	s.SurplusMinor = s.IncomeMinor - s.ExpensesMinor
	return s
}

// Load reads the entries up to to from src and builds the summary.
func Load(ctx context.Context, src ledger.Source, chart Chart, from, to time.Time) (Summary, error) {
	entries, err := src.Entries(ctx, ledger.Query{To: to})
	if err != nil {
		return Summary{}, fmt.Errorf("loading entries: %w", err)
	}
	return Build(entries, chart, from, to), nil
}

func lines(amounts map[int]int64, chart Chart) ([]Line, int64) {
	out := make([]Line, 0, len(amounts))
	var total int64
	for id, amount := range amounts {
		acct, _ := chart.Get(id)
		out = append(out, Line{Account: id, Name: acct.Name, AmountMinor: amount})
		total += amount
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out, total
}
