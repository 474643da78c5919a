package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/reskontra/reskontra/internal/model"
)

// Header is the CSV header for chart-of-accounts.csv.
const Header = "account_id,account_name,account_type,parent_id,cash,iban,vat_code,vat_rate,description"

const (
	numFields  = 9
	colID      = 0
	colName    = 1
	colType    = 2
	colParent  = 3
	colCash    = 4
	colIBAN    = 5
	colVATCode = 6
	colVATRate = 7
	colDesc    = 8
)

// ReadAccounts reads chart-of-accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes chart-of-accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = strconv.Itoa(acct.ID)
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	if acct.ParentID != 0 {
		row[colParent] = strconv.Itoa(acct.ParentID)
	}
	if acct.Cash {
		row[colCash] = "true"
	}
	row[colIBAN] = acct.IBAN
	if acct.VATCode != 0 {
		row[colVATCode] = strconv.Itoa(acct.VATCode)
	}
	if acct.VATRate != 0 {
		// Rates are stored as percentages ("24", "25.5").
		row[colVATRate] = decimal.New(int64(acct.VATRate), -2).String()
	}
	row[colDesc] = acct.Description
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	id, err := strconv.Atoi(record[colID])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing account_id %q: %w", record[colID], err)
	}

	var parentID int
	if record[colParent] != "" {
		parentID, err = strconv.Atoi(record[colParent])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing parent_id %q: %w", record[colParent], err)
		}
	}

	var cash bool
	if record[colCash] != "" {
		cash, err = strconv.ParseBool(record[colCash])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing cash %q: %w", record[colCash], err)
		}
	}

	var vatCode int
	if record[colVATCode] != "" {
		vatCode, err = strconv.Atoi(record[colVATCode])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing vat_code %q: %w", record[colVATCode], err)
		}
	}

	vatRate, err := ParseRate(record[colVATRate])
	if err != nil {
		return model.Account{}, err
	}

	return model.Account{
		ID:          id,
		Name:        record[colName],
		Type:        model.AccountType(record[colType]),
		ParentID:    parentID,
		Cash:        cash,
		IBAN:        NormalizeIBAN(record[colIBAN]),
		VATCode:     vatCode,
		VATRate:     vatRate,
		Description: record[colDesc],
	}, nil
}

// ParseRate converts a percentage ("24", "25.5") into basis points.
func ParseRate(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parsing vat_rate %q: %w", s, err)
	}
	bp := d.Shift(2)
	if !bp.IsInteger() {
		return 0, fmt.Errorf("parsing vat_rate %q: more than two decimals", s)
	}
	return int(bp.IntPart()), nil
}

// NormalizeIBAN strips spaces and upper-cases an IBAN.
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(iban), " ", ""))
}
