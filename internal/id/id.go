package id

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatEntryID returns an entry ID like "2025-01-001".
func FormatEntryID(year, month, seq int) string {
	return fmt.Sprintf("%04d-%02d-%03d", year, month, seq)
}

// FormatLegID returns a leg ID like "2025-01-001a" (leg 0='a', 1='b', etc.).
// Legs past 'z' continue with two letters: 26 -> "aa".
func FormatLegID(entryID string, leg int) string {
	if leg < 26 {
		return entryID + string(rune('a'+leg))
	}
	return entryID + string(rune('a'+leg/26-1)) + string(rune('a'+leg%26))
}

// ParseEntryID parses "2025-01-001" into year, month, seq.
func ParseEntryID(id string) (year, month, seq int, err error) {
	base := EntryGroup(id)

	parts := strings.SplitN(base, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid entry ID format: %q", id)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in entry ID %q: %w", id, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid month in entry ID %q: %w", id, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("invalid month in entry ID %q", id)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid sequence in entry ID %q: %w", id, err)
	}

	return year, month, seq, nil
}

// EntryGroup strips the leg suffix from a leg ID.
// "2025-01-001a" -> "2025-01-001"
func EntryGroup(legID string) string {
	i := len(legID)
	for i > 0 && legID[i-1] >= 'a' && legID[i-1] <= 'z' {
		i--
	}
	return legID[:i]
}

// VoucherID packs an entry ID into a numeric voucher id (YYYYMMNNN).
// Returns 0 for IDs that do not parse.
func VoucherID(entryID string) int64 {
	year, month, seq, err := ParseEntryID(entryID)
	if err != nil {
		return 0
	}
	return int64(year)*100000 + int64(month)*1000 + int64(seq)
}

// VoucherLabel formats the short voucher label shown in listings: a series
// prefix followed by the running number, e.g. "TO12".
func VoucherLabel(series string, number int) string {
	return fmt.Sprintf("%s%d", series, number)
}

// EntryVoucherLabel returns the label for a journal entry: the default
// series followed by the month and sequence, e.g. "TO1-001".
func EntryVoucherLabel(entryID string) string {
	_, month, seq, err := ParseEntryID(entryID)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s%d-%03d", DefaultSeries, month, seq)
}

// DefaultSeries is the voucher series prefix for journal entries.
const DefaultSeries = "TO"
