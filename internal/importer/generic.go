package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/reskontra/reskontra/internal/accounts"
	"github.com/reskontra/reskontra/internal/model"
)

// GenericParser reads a headed CSV with ISO-8601 dates. Columns are found
// by name so their order does not matter; date and amount are required,
// description, reference, type and iban are optional.
type GenericParser struct{}

const genericDateFormat = "2006-01-02"

// Format returns the parser name.
func (p *GenericParser) Format() string { return "generic" }

// Matches accepts any header naming a date and an amount column.
func (p *GenericParser) Matches(header []string) bool {
	cols := genericColumns(header)
	return cols["date"] >= 0 && cols["amount"] >= 0
}

// Parse reads the CSV and returns statement lines.
func (p *GenericParser) Parse(r io.Reader) ([]model.StatementLine, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols := genericColumns(records[0])
	if cols["date"] < 0 || cols["amount"] < 0 {
		return nil, fmt.Errorf("header must name date and amount columns")
	}

	var lines []model.StatementLine
	for i, rec := range records[1:] {
		line, err := parseGenericRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func genericColumns(header []string) map[string]int {
	cols := map[string]int{"date": -1, "amount": -1, "description": -1, "reference": -1, "type": -1, "iban": -1}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, ok := cols[key]; ok && cols[key] < 0 {
			cols[key] = i
		}
	}
	return cols
}

func parseGenericRow(rec []string, cols map[string]int) (model.StatementLine, error) {
	field := func(name string) string {
		i := cols[name]
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	date, err := time.Parse(genericDateFormat, field("date"))
	if err != nil {
		return model.StatementLine{}, fmt.Errorf("parsing date %q: %w", field("date"), err)
	}

	raw := strings.ReplaceAll(field("amount"), " ", "")
	if strings.Count(raw, ",") == 1 && !strings.Contains(raw, ".") {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return model.StatementLine{}, fmt.Errorf("parsing amount %q: %w", field("amount"), err)
	}

	return model.StatementLine{
		Date:        date,
		Description: field("description"),
		Amount:      amount,
		Reference:   field("reference"),
		Type:        strings.ToUpper(field("type")),
		IBAN:        accounts.NormalizeIBAN(field("iban")),
	}, nil
}
