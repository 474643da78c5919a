package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reskontra/reskontra/internal/model"
)

func twoLegs(debitAcct, creditAcct int, amountMinor int64) []Line {
	return []Line{
		{AccountID: debitAcct, AmountMinor: amountMinor},
		{AccountID: creditAcct, AmountMinor: -amountMinor},
	}
}

func TestPost_NewMonth(t *testing.T) {
	dir := t.TempDir()
	accts := newMockAccounts(1910, 7680)
	svc := NewService(dir, accts)

	entryID, err := svc.Post(PostParams{
		Date:         date(2025, 1, 15),
		Description:  "Office chairs",
		Lines:        twoLegs(7680, 1910, 400),
		Counterparty: "Furniture Oy",
		Status:       model.StatusUserConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-001", entryID)

	path := filepath.Join(dir, "2025", "01", "journal.csv")
	_, err = os.Stat(path)
	require.NoError(t, err)

	legs, err := svc.ReadMonth(2025, 1)
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, "2025-01-001a", legs[0].EntryID)
	assert.True(t, legs[0].Debit.Equal(dec("4.00")))
	assert.True(t, legs[1].Credit.Equal(dec("4.00")))
	assert.Equal(t, "Office chairs", legs[1].Description)
	assert.Equal(t, "Furniture Oy", legs[1].Counterparty)
}

func TestPost_ExistingMonth(t *testing.T) {
	dir := t.TempDir()
	accts := newMockAccounts(1910, 7680)
	svc := NewService(dir, accts)

	_, err := svc.Post(PostParams{
		Date:        date(2025, 1, 10),
		Description: "First entry",
		Lines:       twoLegs(7680, 1910, 1000),
		Status:      model.StatusUserConfirmed,
	})
	require.NoError(t, err)

	entryID, err := svc.Post(PostParams{
		Date:        date(2025, 1, 20),
		Description: "Second entry",
		Lines:       twoLegs(7680, 1910, 2000),
		Status:      model.StatusUserConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-002", entryID)

	legs, err := svc.ReadMonth(2025, 1)
	require.NoError(t, err)
	require.Len(t, legs, 4, "two entries x 2 legs")
}

func TestPost_SplitWithVAT(t *testing.T) {
	dir := t.TempDir()
	accts := newMockAccounts(1763, 1910, 7680)
	svc := NewService(dir, accts)

	_, err := svc.Post(PostParams{
		Date:        date(2025, 2, 3),
		Description: "Printer",
		Lines: []Line{
			{AccountID: 1910, AmountMinor: -12550},
			{AccountID: 7680, AmountMinor: 10000, VATCode: 21, VATRate: 2550},
			{AccountID: 1763, AmountMinor: 2550, VATCode: 221, VATRate: 2550, Description: "VAT 25.5%"},
		},
		Status: model.StatusUserConfirmed,
	})
	require.NoError(t, err)

	legs, err := svc.ReadMonth(2025, 2)
	require.NoError(t, err)
	require.Len(t, legs, 3)
	assert.Equal(t, "2025-02-001c", legs[2].EntryID)
	assert.Equal(t, 21, legs[1].VATCode)
	assert.Equal(t, 2550, legs[1].VATRate)
	assert.Equal(t, "VAT 25.5%", legs[2].Description)
	assert.True(t, legs[0].Credit.Equal(dec("125.50")))
}

func TestPost_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	accts := newMockAccounts(1910) // 7680 does NOT exist
	svc := NewService(dir, accts)

	_, err := svc.Post(PostParams{
		Date:        date(2025, 1, 15),
		Description: "Bad entry",
		Lines:       twoLegs(7680, 1910, 5000),
		Status:      model.StatusUserConfirmed,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	legs, err := svc.ReadMonth(2025, 1)
	require.NoError(t, err)
	assert.Empty(t, legs)
}

func TestPost_Unbalanced(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, newMockAccounts(1910, 7680))

	_, err := svc.Post(PostParams{
		Date:        date(2025, 1, 15),
		Description: "Off by one",
		Lines: []Line{
			{AccountID: 7680, AmountMinor: 1000},
			{AccountID: 1910, AmountMinor: -999},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invariant 1")
}

func TestPost_SingleLine(t *testing.T) {
	svc := NewService(t.TempDir(), newMockAccounts(1910))

	_, err := svc.Post(PostParams{
		Date:  date(2025, 1, 15),
		Lines: []Line{{AccountID: 1910, AmountMinor: 100}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least two lines")
}

func TestPost_DirectoryCreation(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, newMockAccounts(1910, 7680))

	_, err := svc.Post(PostParams{
		Date:        date(2025, 12, 25),
		Description: "December entry",
		Lines:       twoLegs(7680, 1910, 2500),
		Status:      model.StatusUserConfirmed,
	})
	require.NoError(t, err)

	journalDir := filepath.Join(dir, "2025", "12")
	info, err := os.Stat(journalDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNextEntrySeq(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, newMockAccounts(1910, 7680))

	seq, err := svc.NextEntrySeq(2025, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	_, err = svc.Post(PostParams{
		Date:        date(2025, 1, 1),
		Description: "First",
		Lines:       twoLegs(7680, 1910, 100),
		Status:      model.StatusUserConfirmed,
	})
	require.NoError(t, err)

	seq, err = svc.NextEntrySeq(2025, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, seq)
}

func TestReadMonth_NonExistent(t *testing.T) {
	svc := NewService(t.TempDir(), newMockAccounts())

	legs, err := svc.ReadMonth(2025, 6)
	require.NoError(t, err)
	assert.Empty(t, legs)
}

func TestMonthsAndReadRange(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, newMockAccounts(1910, 7680))

	for _, d := range []int{3, 1, 2} {
		_, err := svc.Post(PostParams{
			Date:        date(2025, d, 10),
			Description: "Monthly",
			Lines:       twoLegs(7680, 1910, int64(d*100)),
			Status:      model.StatusUserConfirmed,
		})
		require.NoError(t, err)
	}
	// Not a month directory; ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2025", "notes"), 0o755))

	months, err := svc.Months()
	require.NoError(t, err)
	require.Len(t, months, 3)
	assert.Equal(t, date(2025, 1, 1), months[0])
	assert.Equal(t, date(2025, 3, 1), months[2])

	legs, err := svc.ReadRange(date(2025, 1, 11), date(2025, 3, 10))
	require.NoError(t, err)
	require.Len(t, legs, 4, "february and march entries")
	assert.Equal(t, "2025-02-001a", legs[0].EntryID)
	assert.Equal(t, "2025-03-001b", legs[3].EntryID)
}
