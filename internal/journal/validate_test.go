package journal

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reskontra/reskontra/internal/model"
)

// mockAccounts implements AccountChecker for testing.
type mockAccounts struct {
	ids map[int]bool
}

func (m *mockAccounts) Exists(id int) bool {
	return m.ids[id]
}

func newMockAccounts(ids ...int) *mockAccounts {
	m := &mockAccounts{ids: make(map[int]bool)}
	for _, id := range ids {
		m.ids[id] = true
	}
	return m
}

func balancedEntry(seq int, debitAcct, creditAcct int, amount string) []model.Leg {
	entryID := fmt.Sprintf("2025-01-%03d", seq)
	return []model.Leg{
		{
			EntryID:   entryID + "a",
			Date:      date(2025, 1, 15),
			AccountID: debitAcct,
			Debit:     dec(amount),
			Status:    model.StatusUserConfirmed,
		},
		{
			EntryID:   entryID + "b",
			Date:      date(2025, 1, 15),
			AccountID: creditAcct,
			Credit:    dec(amount),
			Status:    model.StatusUserConfirmed,
		},
	}
}

func hasInvariant(errs []ValidationError, n int) bool {
	for _, e := range errs {
		if e.Invariant == n {
			return true
		}
	}
	return false
}

var defaultAccounts = newMockAccounts(1700, 1763, 1910, 2939, 3000, 7680)

func TestValidate_Balanced(t *testing.T) {
	legs := balancedEntry(1, 7680, 1910, "100.00")
	errs := ValidateLegs(legs, defaultAccounts, 2025, 1)
	assert.Empty(t, errs)
}

func TestValidate_Invariant1_Unbalanced(t *testing.T) {
	legs := balancedEntry(1, 7680, 1910, "100.00")
	legs[1].Credit = dec("99.00")

	errs := ValidateLegs(legs, defaultAccounts, 2025, 1)
	require.NotEmpty(t, errs)
	assert.Equal(t, 1, errs[0].Invariant)
	assert.Equal(t, "2025-01-001", errs[0].EntryID)
	assert.Contains(t, errs[0].Error(), "debits (100.00) != credits (99.00)")
}

func TestValidate_Invariant2(t *testing.T) {
	tests := []struct {
		name   string
		debit  string
		credit string
	}{
		{"both debit and credit", "100.00", "100.00"},
		{"neither debit nor credit", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			legs := []model.Leg{{
				EntryID:   "2025-01-001a",
				Date:      date(2025, 1, 15),
				AccountID: 7680,
				Debit:     dec(tt.debit),
				Credit:    dec(tt.credit),
			}}
			errs := ValidateLegs(legs, defaultAccounts, 2025, 1)
			assert.True(t, hasInvariant(errs, 2), "should have invariant 2 violation")
		})
	}
}

func TestValidate_Invariant3_UnknownAccount(t *testing.T) {
	legs := balancedEntry(1, 9999, 1910, "50.00")
	errs := ValidateLegs(legs, defaultAccounts, 2025, 1)
	assert.True(t, hasInvariant(errs, 3), "should have invariant 3 violation")
}

func TestValidate_Invariant4_WrongMonth(t *testing.T) {
	legs := balancedEntry(1, 7680, 1910, "50.00")
	for i := range legs {
		legs[i].Date = date(2025, 2, 15)
	}
	errs := ValidateLegs(legs, defaultAccounts, 2025, 1)
	assert.True(t, hasInvariant(errs, 4), "should have invariant 4 violation")
}

func TestValidate_Invariant5_NonContiguousSeq(t *testing.T) {
	// Entry 1 and 3, but missing 2.
	legs := append(balancedEntry(1, 7680, 1910, "50.00"), balancedEntry(3, 7680, 1910, "75.00")...)
	errs := ValidateLegs(legs, defaultAccounts, 2025, 1)
	assert.True(t, hasInvariant(errs, 5), "should have invariant 5 violation for missing seq 2")
}

func TestValidate_Invariant5_BadEntryID(t *testing.T) {
	legs := balancedEntry(1, 7680, 1910, "50.00")
	legs[0].EntryID = "garbage"
	errs := ValidateLegs(legs, defaultAccounts, 2025, 1)
	assert.True(t, hasInvariant(errs, 5))
}

func TestValidate_Invariant6_TooManyDecimals(t *testing.T) {
	legs := balancedEntry(1, 7680, 1910, "10.123")
	errs := ValidateLegs(legs, defaultAccounts, 2025, 1)
	require.True(t, hasInvariant(errs, 6), "should have invariant 6 violation")

	var sides []string
	for _, e := range errs {
		if e.Invariant == 6 {
			sides = append(sides, e.Description)
		}
	}
	require.Len(t, sides, 2)
	assert.Contains(t, sides[0], "debit 10.123")
	assert.Contains(t, sides[1], "credit 10.123")
}

func TestValidate_Invariant7_RateWithoutCode(t *testing.T) {
	legs := balancedEntry(1, 7680, 1910, "10.00")
	legs[0].VATRate = 2550
	errs := ValidateLegs(legs, defaultAccounts, 2025, 1)
	assert.True(t, hasInvariant(errs, 7))

	legs[0].VATCode = 21
	errs = ValidateLegs(legs, defaultAccounts, 2025, 1)
	assert.Empty(t, errs)
}

func TestValidate_MultiError(t *testing.T) {
	legs := []model.Leg{
		{
			EntryID:   "2025-01-001a",
			Date:      date(2025, 2, 1), // wrong month
			AccountID: 9999,             // unknown account
			Debit:     dec("100.00"),
		},
		{
			EntryID:   "2025-01-001b",
			Date:      date(2025, 1, 1),
			AccountID: 1910,
			Credit:    dec("50.00"), // unbalanced
		},
	}
	errs := ValidateLegs(legs, defaultAccounts, 2025, 1)
	assert.True(t, hasInvariant(errs, 1))
	assert.True(t, hasInvariant(errs, 3))
	assert.True(t, hasInvariant(errs, 4))
}

func TestValidate_EmptyLegs(t *testing.T) {
	errs := ValidateLegs(nil, defaultAccounts, 2025, 1)
	assert.Empty(t, errs)
}

func TestValidate_MultiLegBalanced(t *testing.T) {
	// Split purchase: net to expense, tax to VAT receivable.
	legs := []model.Leg{
		{EntryID: "2025-01-001a", Date: date(2025, 1, 15), AccountID: 7680, Debit: dec("100.00"), VATCode: 21, VATRate: 2550},
		{EntryID: "2025-01-001b", Date: date(2025, 1, 15), AccountID: 1763, Debit: dec("25.50"), VATCode: 221, VATRate: 2550},
		{EntryID: "2025-01-001c", Date: date(2025, 1, 15), AccountID: 1910, Credit: dec("125.50")},
	}
	errs := ValidateLegs(legs, defaultAccounts, 2025, 1)
	assert.Empty(t, errs)
}
