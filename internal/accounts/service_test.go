package accounts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reskontra/reskontra/internal/model"
)

func TestDefaultChart(t *testing.T) {
	chart := DefaultChart("limited_company")
	require.NotEmpty(t, chart)

	svc := NewService(chart)
	assert.True(t, svc.Exists(1910), "expected Bank Account (1910)")
	assert.True(t, svc.Exists(2939), "expected VAT Payable (2939)")
	for _, acct := range chart {
		assert.NotEmpty(t, acct.Name, "account %d missing name", acct.ID)
		assert.NotEmpty(t, acct.Type, "account %d missing type", acct.ID)
	}
}

func TestDefaultChart_SoleTrader(t *testing.T) {
	svc := NewService(DefaultChart("sole_trader"))
	assert.Equal(t, "Owner's Equity", svc.Name(2001))
	acct, ok := svc.Get(2060)
	require.True(t, ok)
	assert.Equal(t, 2001, acct.ParentID)
}

func TestDefaultChart_UnknownEntityType(t *testing.T) {
	assert.Equal(t, DefaultChart("limited_company"), DefaultChart("unknown_type"))
}

func TestGetExists(t *testing.T) {
	svc := NewService(DefaultChart("limited_company"))

	acct, ok := svc.Get(1910)
	assert.True(t, ok)
	assert.Equal(t, "Bank Account", acct.Name)

	_, ok = svc.Get(9999)
	assert.False(t, ok)
	assert.Equal(t, "", svc.Name(9999))
}

func TestByTypeAndCash(t *testing.T) {
	svc := NewService(DefaultChart("limited_company"))

	expenses := svc.ByType(model.AccountTypeExpense)
	assert.Len(t, expenses, 3)

	cash := svc.CashAccounts()
	require.Len(t, cash, 1)
	assert.Equal(t, 1910, cash[0].ID)
	assert.True(t, svc.IsCash(1910))
	assert.False(t, svc.IsCash(3000))
}

func TestByIBAN(t *testing.T) {
	chart := DefaultChart("limited_company")
	for i := range chart {
		if chart[i].ID == 1910 {
			chart[i].IBAN = "FI2112345600000785"
		}
	}
	svc := NewService(chart)

	acct, ok := svc.ByIBAN("fi21 1234 5600 0007 85")
	require.True(t, ok)
	assert.Equal(t, 1910, acct.ID)

	_, ok = svc.ByIBAN("FI0000000000000000")
	assert.False(t, ok)
}

func TestLoadFromTestdata(t *testing.T) {
	dir := t.TempDir()
	acctDir := filepath.Join(dir, "accounts")
	require.NoError(t, os.MkdirAll(acctDir, 0o755))

	src, err := os.ReadFile("../../testdata/chart-of-accounts.csv")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(acctDir, "chart-of-accounts.csv"), src, 0o644))

	svc, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, svc.All(), 11)

	acct, ok := svc.ByIBAN("FI2112345600000785")
	require.True(t, ok)
	assert.True(t, acct.IsBank())
}

func TestSaveRoundTrip(t *testing.T) {
	chart := DefaultChart("limited_company")
	dir := t.TempDir()
	require.NoError(t, NewService(chart).Save(dir))

	_, err := os.Stat(Path(dir))
	require.NoError(t, err)

	svc, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, chart, svc.All())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
