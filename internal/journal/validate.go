package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/reskontra/reskontra/internal/id"
	"github.com/reskontra/reskontra/internal/model"
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int
	EntryID     string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [%s]: %s", e.Invariant, e.EntryID, e.Description)
}

// AccountChecker tests whether an account ID exists in the chart of accounts.
type AccountChecker interface {
	Exists(id int) bool
}

var hundred = decimal.NewFromInt(100)

// ValidateLegs enforces the journal invariants on a set of legs for a given month:
//
//  1. every entry balances (sum of debits == sum of credits)
//  2. each leg carries exactly one of debit or credit
//  3. accounts exist in the chart
//  4. dates fall within the month
//  5. entry sequence numbers are contiguous 1..N
//  6. amounts have at most two decimal places
//  7. a VAT rate is only set together with a VAT code
func ValidateLegs(legs []model.Leg, accounts AccountChecker, year, month int) []ValidationError {
	var errs []ValidationError

	groups := make(map[string][]model.Leg)
	var groupOrder []string
	for _, leg := range legs {
		g := leg.EntryGroup()
		if _, seen := groups[g]; !seen {
			groupOrder = append(groupOrder, g)
		}
		groups[g] = append(groups[g], leg)
	}

	for _, g := range groupOrder {
		totalDebit := decimal.Zero
		totalCredit := decimal.Zero
		for _, leg := range groups[g] {
			totalDebit = totalDebit.Add(leg.Debit)
			totalCredit = totalCredit.Add(leg.Credit)
		}
		if !totalDebit.Equal(totalCredit) {
			errs = append(errs, ValidationError{
				Invariant:   1,
				EntryID:     g,
				Description: fmt.Sprintf("debits (%s) != credits (%s)", totalDebit.StringFixed(2), totalCredit.StringFixed(2)),
			})
		}
	}

	for _, leg := range legs {
		hasDebit := !leg.Debit.IsZero()
		hasCredit := !leg.Credit.IsZero()
		if hasDebit == hasCredit {
			errs = append(errs, ValidationError{
				Invariant:   2,
				EntryID:     leg.EntryID,
				Description: "leg must have exactly one of debit or credit",
			})
		}

		if !accounts.Exists(leg.AccountID) {
			errs = append(errs, ValidationError{
				Invariant:   3,
				EntryID:     leg.EntryID,
				Description: fmt.Sprintf("unknown account %d", leg.AccountID),
			})
		}

		if leg.Date.Year() != year || int(leg.Date.Month()) != month {
			errs = append(errs, ValidationError{
				Invariant:   4,
				EntryID:     leg.EntryID,
				Description: fmt.Sprintf("date %s not in %04d-%02d", leg.Date.Format(dateFormat), year, month),
			})
		}

		sides := [2]struct {
			name   string
			amount decimal.Decimal
		}{{"debit", leg.Debit}, {"credit", leg.Credit}}
		for _, side := range sides {
			if !side.amount.Mul(hundred).IsInteger() {
				errs = append(errs, ValidationError{
					Invariant:   6,
					EntryID:     leg.EntryID,
					Description: fmt.Sprintf("%s %s has more than 2 decimal places", side.name, side.amount),
				})
			}
		}

		if leg.VATRate != 0 && leg.VATCode == 0 {
			errs = append(errs, ValidationError{
				Invariant:   7,
				EntryID:     leg.EntryID,
				Description: fmt.Sprintf("vat rate %d without vat code", leg.VATRate),
			})
		}
	}

	seqSeen := make(map[int]bool)
	for _, leg := range legs {
		_, _, seq, err := id.ParseEntryID(leg.EntryID)
		if err != nil {
			errs = append(errs, ValidationError{
				Invariant:   5,
				EntryID:     leg.EntryID,
				Description: fmt.Sprintf("invalid entry ID: %v", err),
			})
			continue
		}
		seqSeen[seq] = true
	}
	for i := 1; i <= len(seqSeen); i++ {
		if !seqSeen[i] {
			errs = append(errs, ValidationError{
				Invariant:   5,
				EntryID:     fmt.Sprintf("seq %d", i),
				Description: fmt.Sprintf("missing sequence %d in 1..%d", i, len(seqSeen)),
			})
		}
	}

	return errs
}
