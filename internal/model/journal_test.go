package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLegEntryGroup(t *testing.T) {
	tests := []struct {
		entryID string
		want    string
	}{
		{"2025-01-001a", "2025-01-001"},
		{"2025-01-001b", "2025-01-001"},
		{"2025-01-001", "2025-01-001"},
		{"2025-12-099abc", "2025-12-099"},
		{"", ""},
	}
	for _, tt := range tests {
		leg := Leg{EntryID: tt.entryID}
		assert.Equal(t, tt.want, leg.EntryGroup(), "EntryGroup(%q)", tt.entryID)
	}
}

func TestSameMovement(t *testing.T) {
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	a := TransactionRecord{Account: 1910, Date: day, AmountMinor: -5000, Description: "rent"}
	b := TransactionRecord{Account: 1910, Date: day, AmountMinor: -5000, Description: "RENT JAN"}

	assert.True(t, a.SameMovement(b), "description does not take part in matching")

	b.AmountMinor = 5000
	assert.False(t, a.SameMovement(b))

	b.AmountMinor = -5000
	b.Date = day.AddDate(0, 0, 1)
	assert.False(t, a.SameMovement(b))
}

func TestAccountIsBank(t *testing.T) {
	assert.True(t, Account{Cash: true, IBAN: "FI2112345600000785"}.IsBank())
	assert.False(t, Account{Cash: true}.IsBank(), "petty cash has no IBAN")
	assert.False(t, Account{IBAN: "FI2112345600000785"}.IsBank())
}
