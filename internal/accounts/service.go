package accounts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/reskontra/reskontra/internal/model"
)

// Service provides in-memory lookup over the chart of accounts.
type Service struct {
	accounts []model.Account
	byID     map[int]model.Account
	byIBAN   map[string]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	byID := make(map[int]model.Account, len(accounts))
	byIBAN := make(map[string]model.Account)
	for _, a := range accounts {
		byID[a.ID] = a
		if a.IBAN != "" {
			byIBAN[NormalizeIBAN(a.IBAN)] = a
		}
	}
	return &Service{accounts: accounts, byID: byID, byIBAN: byIBAN}
}

// Path returns the chart of accounts location under a repo root.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, "accounts", "chart-of-accounts.csv")
}

// Load reads chart-of-accounts.csv from a repo root and returns a Service.
func Load(repoRoot string) (*Service, error) {
	f, err := os.Open(Path(repoRoot))
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return NewService(accts), nil
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by ID.
func (s *Service) Get(id int) (model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id int) bool {
	_, ok := s.byID[id]
	return ok
}

// Name returns the display name of an account, or "" when unknown.
func (s *Service) Name(id int) string {
	return s.byID[id].Name
}

// IsCash reports whether the account is a bank or cash account.
func (s *Service) IsCash(id int) bool {
	return s.byID[id].Cash
}

// ByIBAN resolves a bank account by IBAN.
func (s *Service) ByIBAN(iban string) (model.Account, bool) {
	a, ok := s.byIBAN[NormalizeIBAN(iban)]
	return a, ok
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// CashAccounts returns the bank and cash accounts.
func (s *Service) CashAccounts() []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Cash {
			result = append(result, a)
		}
	}
	return result
}

// Save writes the chart of accounts to accounts/chart-of-accounts.csv.
func (s *Service) Save(repoRoot string) error {
	path := Path(repoRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
