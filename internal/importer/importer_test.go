package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChaseParser_Parse(t *testing.T) {
	data, err := os.ReadFile("../../testdata/chase_checking.csv")
	require.NoError(t, err)

	p := &ChaseParser{}
	lines, err := p.Parse(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Len(t, lines, 6)

	// First: GITHUB subscription
	assert.Equal(t, "GITHUB *PRO SUBSCRIPTION", lines[0].Description)
	assert.Equal(t, "-4.00", lines[0].Amount.StringFixed(2))
	assert.Equal(t, "ACH_DEBIT", lines[0].Type)
	assert.Equal(t, 2025, lines[0].Date.Year())
	assert.Equal(t, 1, int(lines[0].Date.Month()))
	assert.Equal(t, 3, lines[0].Date.Day())

	// Fourth: ACME income (positive)
	assert.Equal(t, "ACME CONSULTING INVOICE 1042", lines[3].Description)
	assert.True(t, lines[3].Amount.IsPositive())
	assert.Equal(t, "3500.00", lines[3].Amount.StringFixed(2))
}

func TestChaseParser_DateParsing(t *testing.T) {
	data, err := os.ReadFile("../../testdata/chase_checking.csv")
	require.NoError(t, err)

	p := &ChaseParser{}
	lines, err := p.Parse(strings.NewReader(string(data)))
	require.NoError(t, err)

	// Jan 22
	last := lines[5]
	assert.Equal(t, 2025, last.Date.Year())
	assert.Equal(t, 1, int(last.Date.Month()))
	assert.Equal(t, 22, last.Date.Day())
}

func TestChaseParser_NegativePositiveAmounts(t *testing.T) {
	data, err := os.ReadFile("../../testdata/chase_checking.csv")
	require.NoError(t, err)

	p := &ChaseParser{}
	lines, err := p.Parse(strings.NewReader(string(data)))
	require.NoError(t, err)

	for _, line := range lines {
		if line.Description == "ACME CONSULTING INVOICE 1042" {
			assert.True(t, line.Amount.IsPositive())
		} else {
			assert.True(t, line.Amount.IsNegative(), "expected negative for %s", line.Description)
		}
	}
}

func TestChaseParser_EmptyFile(t *testing.T) {
	p := &ChaseParser{}
	lines, err := p.Parse(strings.NewReader("Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n"))
	require.NoError(t, err)
	assert.Nil(t, lines)
}

func TestChaseParser_BadDate(t *testing.T) {
	csv := "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\nDEBIT,NOTADATE,desc,-4.00,ACH_DEBIT,100.00,\n"
	p := &ChaseParser{}
	_, err := p.Parse(strings.NewReader(csv))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing date")
}

func TestChaseParser_BadAmount(t *testing.T) {
	csv := "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\nDEBIT,01/03/2025,desc,NOTANUMBER,ACH_DEBIT,100.00,\n"
	p := &ChaseParser{}
	_, err := p.Parse(strings.NewReader(csv))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing amount")
}

func TestChaseParser_DetailsMustMatchSign(t *testing.T) {
	header := "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n"
	tests := []struct {
		name    string
		row     string
		wantErr string
	}{
		{"debit with positive amount", "DEBIT,01/03/2025,desc,4.00,ACH_DEBIT,100.00,\n", "DEBIT row with positive amount"},
		{"credit with negative amount", "CREDIT,01/03/2025,desc,-4.00,ACH_CREDIT,100.00,\n", "CREDIT row with negative amount"},
		{"unknown details", "REFUND,01/03/2025,desc,4.00,ACH_CREDIT,100.00,\n", "unknown details"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&ChaseParser{}).Parse(strings.NewReader(header + tt.row))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), "row 2")
		})
	}
}

func TestChaseParser_CheckNumberReference(t *testing.T) {
	in := "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n" +
		"CHECK,02/04/2025,CHECK 1207,-250.00,CHECK_PAID,900.00,1207\n" +
		"DSLIP,02/05/2025,DEPOSIT ID NUMBER 4411,80.00,CHECK_DEPOSIT,980.00,\n"
	lines, err := (&ChaseParser{}).Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "check_1207", lines[0].Reference)
	assert.Equal(t, "CHECK_PAID", lines[0].Type)
	assert.Equal(t, "chase_20250205_DEPOSITIDN", lines[1].Reference)
}

func TestChaseParser_Format(t *testing.T) {
	p := &ChaseParser{}
	assert.Equal(t, "chase", p.Format())
}

func TestChaseParser_Reference(t *testing.T) {
	data, err := os.ReadFile("../../testdata/chase_checking.csv")
	require.NoError(t, err)

	p := &ChaseParser{}
	lines, err := p.Parse(strings.NewReader(string(data)))
	require.NoError(t, err)

	// Reference format: chase_YYYYMMDD_<prefix>
	assert.Equal(t, "chase_20250103_GITHUBPROS", lines[0].Reference)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	p := r.Get("chase")
	require.NotNil(t, p)
	assert.Equal(t, "chase", p.Format())
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	assert.NotNil(t, r.Get("Chase"))
	assert.NotNil(t, r.Get("CHASE"))
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get("chase"))
	assert.NotNil(t, r.Get("generic"))
}

func TestRegistry_Detect(t *testing.T) {
	r := DefaultRegistry()

	p := r.Detect([]string{"Details", "Posting Date", "Description", "Amount", "Type", "Balance", "Check or Slip #"})
	require.NotNil(t, p)
	assert.Equal(t, "chase", p.Format())

	p = r.Detect([]string{"iban", "Date", "Amount"})
	require.NotNil(t, p)
	assert.Equal(t, "generic", p.Format())

	assert.Nil(t, r.Detect([]string{"when", "how much"}))
}

func TestRegistry_ReadFile(t *testing.T) {
	r := DefaultRegistry()

	batch, err := r.ReadFile("../../testdata/statement.csv", "")
	require.NoError(t, err)
	assert.Equal(t, "generic", batch.Format)
	assert.Equal(t, "statement.csv", batch.File)
	assert.NotEqual(t, uuid.Nil, batch.ID)
	assert.Len(t, batch.Lines, 4)

	again, err := r.ReadFile("../../testdata/chase_checking.csv", "chase")
	require.NoError(t, err)
	assert.Len(t, again.Lines, 6)
	assert.NotEqual(t, batch.ID, again.ID)
}

func TestRegistry_ReadFileErrors(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.ReadFile("../../testdata/statement.csv", "ofx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown statement format")

	path := filepath.Join(t.TempDir(), "odd.csv")
	require.NoError(t, os.WriteFile(path, []byte("when,how much\n2025-01-01,1\n"), 0o644))
	_, err = r.ReadFile(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized statement format")

	_, err = r.ReadFile(filepath.Join(t.TempDir(), "missing.csv"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScan_FindsCSVs(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(importDir, "bank.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "other.txt"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "bank.csv", files[0].Name)
}

func TestScan_IgnoresProcessedDir(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	processedDir := filepath.Join(importDir, "processed")
	require.NoError(t, os.MkdirAll(processedDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(importDir, "new.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(processedDir, "old.csv"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "new.csv", files[0].Name)
}

func TestScan_EmptyDir(t *testing.T) {
	dir := t.TempDir()
	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "bank.csv"), []byte("data"), 0o644))

	err := MarkProcessed(dir, "bank.csv")
	require.NoError(t, err)

	// Source gone.
	_, err = os.Stat(filepath.Join(importDir, "bank.csv"))
	assert.True(t, os.IsNotExist(err))

	// Destination exists.
	_, err = os.Stat(filepath.Join(dir, "import", "processed", "bank.csv"))
	assert.NoError(t, err)
}

func TestMarkProcessed_CreatesDir(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "a.csv"), []byte("data"), 0o644))

	err := MarkProcessed(dir, "a.csv")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "import", "processed"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
