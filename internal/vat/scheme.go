// Package vat builds the periodic VAT listing from classified ledger
// entries.
package vat

import (
	"fmt"
	"sort"

	"github.com/reskontra/reskontra/internal/model"
)

// Range is a half-open code range [From, To).
type Range struct {
	From int `yaml:"from" json:"from"`
	To   int `yaml:"to" json:"to"`
}

// Contains reports whether code falls in the range.
func (r Range) Contains(code int) bool {
	return code >= r.From && code < r.To
}

// Scheme describes a VAT code numbering: which codes count as collected or
// deductible tax, which digit selects the debit-positive sign convention,
// and the codes with special handling.
type Scheme struct {
	Name       string  `yaml:"name" json:"name"`
	Collected  []Range `yaml:"collected" json:"collected"`
	Deductible []Range `yaml:"deductible" json:"deductible"`

	// SelectorPlace is 1 for the ones digit, 10 for the tens digit. A code
	// whose selector digit equals SelectorValue reads as debit - credit.
	SelectorPlace int `yaml:"selector_place" json:"selector_place"`
	SelectorValue int `yaml:"selector_value" json:"selector_value"`

	// Heading bases; 0 disables the heading class.
	TaxBase         int `yaml:"tax_base" json:"tax_base"`
	DeductionBase   int `yaml:"deduction_base" json:"deduction_base"`
	UnallocatedBase int `yaml:"unallocated_base" json:"unallocated_base"`

	Settlement int `yaml:"settlement" json:"settlement"` // excluded from the listing
	Payable    int `yaml:"payable" json:"payable"`

	Labels map[int]string `yaml:"labels" json:"labels"`
}

// DefaultScheme is the current numbering: sales 1x, purchases 2x, tax
// postings from 100, deductions from 200, unallocated cash-basis tax from
// 400. Purchases (tens digit 2) read as debit - credit.
func DefaultScheme() Scheme {
	return Scheme{
		Name:            "default",
		Collected:       []Range{{100, 200}},
		Deductible:      []Range{{200, 400}},
		SelectorPlace:   10,
		SelectorValue:   2,
		TaxBase:         100,
		DeductionBase:   200,
		UnallocatedBase: 400,
		Settlement:      900,
		Payable:         920,
		Labels: map[int]string{
			11: "Domestic sales",
			12: "Sales, gross",
			13: "Margin scheme sales",
			14: "EU sales of goods",
			15: "EU sales of services",
			16: "Construction services sold",
			21: "Domestic purchases",
			22: "Purchases, gross",
			23: "Margin scheme purchases",
			24: "EU acquisitions of goods",
			25: "EU acquisitions of services",
			26: "Imports",
			27: "Construction services bought",
		},
	}
}

// LegacyScheme is the 2017 numbering: sales codes end in 1 and count as
// collected, purchase codes end in 2 and count as deductible.
func LegacyScheme() Scheme {
	return Scheme{
		Name:          "legacy",
		Collected:     []Range{{11, 12}, {21, 22}, {31, 32}, {41, 42}, {51, 52}},
		Deductible:    []Range{{12, 13}, {22, 23}, {32, 33}, {42, 43}, {52, 53}},
		SelectorPlace: 1,
		SelectorValue: 2,
		Labels: map[int]string{
			11: "Sales, net",
			12: "Purchases, net",
			21: "Sales, gross",
			22: "Purchases, gross",
			31: "EU sales of goods",
			32: "EU acquisitions of goods",
			41: "EU sales of services",
			42: "EU acquisitions of services",
			51: "Construction services sold",
			52: "Construction services bought",
			99: "VAT posting",
		},
	}
}

// SchemeByName returns a built-in scheme.
func SchemeByName(name string) (Scheme, error) {
	switch name {
	case "", "default":
		return DefaultScheme(), nil
	case "legacy":
		return LegacyScheme(), nil
	default:
		return Scheme{}, fmt.Errorf("unknown vat scheme %q", name)
	}
}

// Amount is the sign-adjusted contribution of a record: credit - debit,
// or debit - credit when the selector digit says so.
func (s Scheme) Amount(r model.TransactionRecord) int64 {
	amount := -r.AmountMinor
	if s.flipped(r.Code) {
		amount = -amount
	}
	return amount
}

func (s Scheme) flipped(code int) bool {
	place := s.SelectorPlace
	if place <= 0 {
		place = 1
	}
	return code/place%10 == s.SelectorValue
}

// IsCollected reports whether a code counts toward collected tax.
func (s Scheme) IsCollected(code int) bool { return inRanges(s.Collected, code) }

// IsDeductible reports whether a code counts toward deductible tax.
func (s Scheme) IsDeductible(code int) bool { return inRanges(s.Deductible, code) }

// Label returns the base label of a code.
func (s Scheme) Label(code int) string {
	if l, ok := s.Labels[code]; ok {
		return l
	}
	return fmt.Sprintf("Code %d", code)
}

// Heading is the section heading for a code.
func (s Scheme) Heading(code int) string {
	switch {
	case s.Payable != 0 && code == s.Payable:
		return "PAYABLE VAT"
	case s.UnallocatedBase != 0 && code > s.UnallocatedBase:
		return "UNALLOCATED CASH-BASIS"
	case s.DeductionBase != 0 && code > s.DeductionBase:
		return "DEDUCTION " + s.Label(code-s.DeductionBase)
	case s.TaxBase != 0 && code > s.TaxBase:
		return "TAX " + s.Label(code-s.TaxBase)
	default:
		return s.Label(code)
	}
}

// Codes lists the labelled codes in ascending order.
func (s Scheme) Codes() []int {
	codes := make([]int, 0, len(s.Labels))
	for c := range s.Labels {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}

func inRanges(ranges []Range, code int) bool {
	for _, r := range ranges {
		if r.Contains(code) {
			return true
		}
	}
	return false
}
