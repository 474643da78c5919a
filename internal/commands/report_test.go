package commands_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestVAT_Listing(t *testing.T) {
	dir := newBooks(t)

	out, err := runReskontra(t, "vat", "--repo", dir, "--from", "2025-01-01", "--to", "2025-01-31")
	require.NoError(t, err, out)

	flat := squash(out)
	assert.Contains(t, flat, "VAT 01.01.2025 - 31.01.2025")
	assert.Contains(t, flat, "Domestic sales 25.5%")
	assert.Contains(t, flat, "TAX Domestic sales 25.5%")
	assert.Contains(t, flat, "DEDUCTION Domestic purchases 25.5%")
	assert.Contains(t, flat, "3000 Sales")
	assert.Contains(t, flat, "Total 300.00")
	assert.Contains(t, flat, "Tax total 76.50")
	assert.Contains(t, flat, "Deductions total 10.20")
	assert.Contains(t, flat, "Payable tax 66.30")
}

func TestVAT_CSV(t *testing.T) {
	dir := newBooks(t)

	out, err := runReskontra(t, "vat", "--repo", dir, "--from", "2025-01-01", "--to", "2025-01-31", "--csv")
	require.NoError(t, err, out)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "kind,date,voucher,description,rate,amount", lines[0])
	assert.Equal(t, "footer,,,Payable tax,,66.30", lines[len(lines)-1])
	assert.Contains(t, out, "entry,2025-01-02,TO1-001,Invoice 1001 paid,25.5,100.00")
}

func TestVAT_EmptyPeriod(t *testing.T) {
	dir := newBooks(t)

	out, err := runReskontra(t, "vat", "--repo", dir, "--from", "2024-01-01", "--to", "2024-01-31")
	require.NoError(t, err, out)
	assert.Contains(t, squash(out), "Payable tax 0.00")
}

func TestSummary(t *testing.T) {
	dir := newBooks(t)

	out, err := runReskontra(t, "summary", "--repo", dir, "--from", "2025-01-01", "--to", "2025-01-31")
	require.NoError(t, err, out)

	flat := squash(out)
	assert.Contains(t, flat, "Test Oy 01.01.2025 - 31.01.2025")
	assert.Contains(t, flat, "1910 Bank Account 321.30")
	assert.Contains(t, flat, "3010 Service Sales 200.00")
	assert.Contains(t, flat, "8460 Bank Charges 5.00")
	assert.Contains(t, flat, "Surplus 255.00")
}

func TestVersion(t *testing.T) {
	out, err := runReskontra(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit: none, built: unknown)")
}
