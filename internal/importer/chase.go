package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/reskontra/reskontra/internal/model"
)

// ChaseParser parses Chase bank checking CSV exports.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDetails = 0
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
	chaseColType    = 4
	chaseColCheck   = 6
)

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Matches recognizes the Chase export header.
func (p *ChaseParser) Matches(header []string) bool {
	return len(header) == chaseNumFields &&
		strings.EqualFold(strings.TrimSpace(header[chaseColDetails]), "Details") &&
		strings.EqualFold(strings.TrimSpace(header[chaseColDate]), "Posting Date") &&
		strings.EqualFold(strings.TrimSpace(header[chaseColAmount]), "Amount")
}

// Parse reads a Chase CSV and returns statement lines.
func (p *ChaseParser) Parse(r io.Reader) ([]model.StatementLine, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chaseNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var lines []model.StatementLine
	for i, rec := range records[1:] {
		line, err := parseChaseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func parseChaseRow(rec []string) (model.StatementLine, error) {
	date, err := time.Parse(chaseDateFormat, rec[chaseColDate])
	if err != nil {
		return model.StatementLine{}, fmt.Errorf("parsing date %q: %w", rec[chaseColDate], err)
	}

	amount, err := decimal.NewFromString(rec[chaseColAmount])
	if err != nil {
		return model.StatementLine{}, fmt.Errorf("parsing amount %q: %w", rec[chaseColAmount], err)
	}

	details := strings.ToUpper(strings.TrimSpace(rec[chaseColDetails]))
	switch details {
	case "DEBIT", "CHECK":
		if amount.IsPositive() {
			return model.StatementLine{}, fmt.Errorf("%s row with positive amount %s", details, amount)
		}
	case "CREDIT", "DSLIP":
		if amount.IsNegative() {
			return model.StatementLine{}, fmt.Errorf("%s row with negative amount %s", details, amount)
		}
	default:
		return model.StatementLine{}, fmt.Errorf("unknown details %q", rec[chaseColDetails])
	}

	desc := rec[chaseColDesc]
	ref := makeChaseRef(date, desc)
	if check := strings.TrimSpace(rec[chaseColCheck]); check != "" {
		ref = "check_" + check
	}

	return model.StatementLine{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Reference:   ref,
		Type:        strings.TrimSpace(rec[chaseColType]),
	}, nil
}

// makeChaseRef creates a reference like chase_20250103_GITHUB.
func makeChaseRef(date time.Time, desc string) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("chase_%s_%s", date.Format("20060102"), prefix)
}
