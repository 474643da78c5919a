package importer

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reskontra/reskontra/internal/model"
)

func TestGenericParser_Parse(t *testing.T) {
	data, err := os.ReadFile("../../testdata/statement.csv")
	require.NoError(t, err)

	p := &GenericParser{}
	lines, err := p.Parse(strings.NewReader(string(data)))
	require.NoError(t, err)
	require.Len(t, lines, 4)

	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), lines[0].Date)
	assert.Equal(t, "125.50", lines[0].Amount.StringFixed(2))
	assert.Equal(t, "Customer 1001 invoice 17", lines[0].Description)
	assert.Equal(t, "RF18539007547034", lines[0].Reference)
	assert.Equal(t, "FI2112345600000785", lines[0].IBAN)
	assert.Equal(t, "CREDIT_TRANSFER", lines[0].Type)

	assert.True(t, lines[1].Amount.IsNegative())
	assert.Empty(t, lines[1].Reference)
}

func TestGenericParser_ColumnOrderAndDecimalComma(t *testing.T) {
	in := "Amount,Description,Date\n\"-1 234,50\",Rent,2025-02-01\n"
	lines, err := (&GenericParser{}).Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "-1234.50", lines[0].Amount.StringFixed(2))
	assert.Equal(t, "Rent", lines[0].Description)
	assert.Empty(t, lines[0].IBAN)
	assert.Empty(t, lines[0].Type)
}

func TestGenericParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{"missing amount column", "date,description\n2025-01-01,x\n", "date and amount"},
		{"bad date", "date,amount\n01/02/2025,1.00\n", "parsing date"},
		{"bad amount", "date,amount\n2025-01-02,abc\n", "parsing amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&GenericParser{}).Parse(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGenericParser_Empty(t *testing.T) {
	lines, err := (&GenericParser{}).Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, lines)

	lines, err = (&GenericParser{}).Parse(strings.NewReader("date,amount\n"))
	require.NoError(t, err)
	assert.Nil(t, lines)
}

func TestResolve(t *testing.T) {
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	lines := []model.StatementLine{
		{Date: day, Amount: decimal.RequireFromString("125.50"), Description: "in", IBAN: "FI2112345600000785"},
		{Date: day, Amount: decimal.RequireFromString("-5"), Description: "fee", Type: "FEE"},
	}
	lookup := func(iban string) (int, bool) {
		if iban == "FI2112345600000785" {
			return 1911, true
		}
		return 0, false
	}

	recs, err := Resolve(lines, 1910, lookup)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 1911, recs[0].Account)
	assert.Equal(t, int64(12550), recs[0].AmountMinor)
	assert.Equal(t, 1910, recs[1].Account)
	assert.Equal(t, int64(-500), recs[1].AmountMinor)
	assert.Equal(t, "fee", recs[1].Description)
	assert.Equal(t, "FEE", recs[1].BankType)
	assert.Empty(t, recs[0].BankType)
	assert.False(t, recs[1].Classified())
}

func TestResolve_Errors(t *testing.T) {
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	_, err := Resolve([]model.StatementLine{{Date: day, Amount: decimal.NewFromInt(1), IBAN: "XX00"}}, 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no account for IBAN")

	_, err = Resolve([]model.StatementLine{{Date: day, Amount: decimal.RequireFromString("0.001")}}, 1910, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decimal places")
}
