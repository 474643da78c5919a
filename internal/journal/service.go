package journal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/reskontra/reskontra/internal/id"
	"github.com/reskontra/reskontra/internal/model"
	"github.com/reskontra/reskontra/internal/money"
)

// Service provides business logic for journal entries.
type Service struct {
	repoRoot string
	accounts AccountChecker
}

// NewService creates a journal Service.
func NewService(repoRoot string, accounts AccountChecker) *Service {
	return &Service{repoRoot: repoRoot, accounts: accounts}
}

// Line is one posting of an entry. AmountMinor is debit-positive.
type Line struct {
	AccountID   int
	AmountMinor int64
	VATCode     int
	VATRate     int
	Description string // defaults to the entry description
}

// PostParams holds parameters for a multi-leg journal entry.
type PostParams struct {
	Date         time.Time
	Description  string
	Lines        []Line
	Counterparty string
	Reference    string
	Status       model.EntryStatus
	Tags         string
	Notes        string
}

// Post validates an entry together with the rest of its month and appends it
// to the month's journal.csv. Returns the entry ID.
func (s *Service) Post(params PostParams) (string, error) {
	if len(params.Lines) < 2 {
		return "", fmt.Errorf("entry needs at least two lines, got %d", len(params.Lines))
	}

	year := params.Date.Year()
	month := int(params.Date.Month())

	existing, err := s.ReadMonth(year, month)
	if err != nil {
		return "", err
	}

	entryID := id.FormatEntryID(year, month, nextSeq(existing))
	newLegs := make([]model.Leg, 0, len(params.Lines))
	for i, line := range params.Lines {
		desc := line.Description
		if desc == "" {
			desc = params.Description
		}
		leg := model.Leg{
			EntryID:      id.FormatLegID(entryID, i),
			Date:         params.Date,
			AccountID:    line.AccountID,
			Description:  desc,
			VATCode:      line.VATCode,
			VATRate:      line.VATRate,
			Counterparty: params.Counterparty,
			Reference:    params.Reference,
			Status:       params.Status,
			Tags:         params.Tags,
			Notes:        params.Notes,
		}
		if line.AmountMinor >= 0 {
			leg.Debit = money.ToDecimal(line.AmountMinor)
		} else {
			leg.Credit = money.ToDecimal(-line.AmountMinor)
		}
		newLegs = append(newLegs, leg)
	}

	allLegs := append(existing, newLegs...)
	if verrs := ValidateLegs(allLegs, s.accounts, year, month); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return "", fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}

	journalPath := s.monthPath(year, month)
	if err := os.MkdirAll(filepath.Dir(journalPath), 0o755); err != nil {
		return "", fmt.Errorf("creating journal dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(journalPath); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(journalPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return "", fmt.Errorf("writing header: %w", err)
		}
	}

	if err := AppendLegs(f, newLegs); err != nil {
		return "", fmt.Errorf("appending legs: %w", err)
	}

	return entryID, nil
}

// ReadMonth reads all legs for a given year/month.
func (s *Service) ReadMonth(year, month int) ([]model.Leg, error) {
	path := s.monthPath(year, month)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	defer f.Close()

	legs, err := ReadLegs(f)
	if err != nil {
		return nil, fmt.Errorf("reading journal %s: %w", path, err)
	}
	return legs, nil
}

// ReadRange reads the legs dated from..to inclusive across all months that
// have a journal. A zero from reads from the first journal.
func (s *Service) ReadRange(from, to time.Time) ([]model.Leg, error) {
	months, err := s.Months()
	if err != nil {
		return nil, err
	}

	var legs []model.Leg
	for _, m := range months {
		monthEnd := m.AddDate(0, 1, -1)
		if monthEnd.Before(from) || m.After(to) {
			continue
		}
		monthLegs, err := s.ReadMonth(m.Year(), int(m.Month()))
		if err != nil {
			return nil, err
		}
		for _, leg := range monthLegs {
			if leg.Date.Before(from) || leg.Date.After(to) {
				continue
			}
			legs = append(legs, leg)
		}
	}
	return legs, nil
}

// Months returns the first day of every month that has a journal.csv, in
// chronological order.
func (s *Service) Months() ([]time.Time, error) {
	matches, err := filepath.Glob(filepath.Join(s.repoRoot, "[0-9][0-9][0-9][0-9]", "[0-9][0-9]", "journal.csv"))
	if err != nil {
		return nil, fmt.Errorf("listing journals: %w", err)
	}

	var months []time.Time
	for _, m := range matches {
		monthDir := filepath.Dir(m)
		year, err := strconv.Atoi(filepath.Base(filepath.Dir(monthDir)))
		if err != nil {
			continue
		}
		month, err := strconv.Atoi(filepath.Base(monthDir))
		if err != nil || month < 1 || month > 12 {
			continue
		}
		months = append(months, time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC))
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months, nil
}

// NextEntrySeq returns the next available sequence number for a month.
func (s *Service) NextEntrySeq(year, month int) (int, error) {
	legs, err := s.ReadMonth(year, month)
	if err != nil {
		return 0, err
	}
	return nextSeq(legs), nil
}

func nextSeq(legs []model.Leg) int {
	maxSeq := 0
	for _, leg := range legs {
		_, _, seq, err := id.ParseEntryID(leg.EntryID)
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1
}

func (s *Service) monthPath(year, month int) string {
	return filepath.Join(s.repoRoot, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), "journal.csv")
}
