package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/reskontra/reskontra/internal/accounts"
	"github.com/reskontra/reskontra/internal/period"
	"github.com/reskontra/reskontra/internal/vat"
)

// FileName is the config file at the repository root.
const FileName = "reskontra.yaml"

// Ledger backends.
const (
	BackendJournal  = "journal"
	BackendPostgres = "postgres"
)

// Config represents the top-level reskontra.yaml configuration.
type Config struct {
	Business     BusinessConfig  `yaml:"business"`
	Fiscal       FiscalConfig    `yaml:"fiscal"`
	BankAccounts []BankAccount   `yaml:"bank_accounts,omitempty"`
	Ledger       LedgerConfig    `yaml:"ledger"`
	VAT          VATConfig       `yaml:"vat"`
	Statement    StatementConfig `yaml:"statement"`
	Git          GitConfig       `yaml:"git"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name       string `yaml:"name"`
	EntityType string `yaml:"entity_type"`
}

// FiscalConfig defines the fiscal year boundaries.
type FiscalConfig struct {
	YearStart string `yaml:"year_start"` // "MM-DD" format, e.g. "01-01"
}

// BankAccount maps a bank statement feed to a chart-of-accounts entry.
type BankAccount struct {
	Name      string `yaml:"name"`
	IBAN      string `yaml:"iban,omitempty"`
	Format    string `yaml:"format,omitempty"` // importer parser name
	AccountID int    `yaml:"account_id"`
}

// LedgerConfig selects where posted entries are read from.
type LedgerConfig struct {
	Backend   string `yaml:"backend"`
	DSN       string `yaml:"dsn,omitempty"`
	CacheSize int64  `yaml:"cache_size,omitempty"`
	Retries   uint64 `yaml:"retries,omitempty"`
}

// VATConfig picks a built-in code scheme and overrides parts of it.
type VATConfig struct {
	Scheme         string         `yaml:"scheme"`
	SettlementCode int            `yaml:"settlement_code,omitempty"`
	PayableCode    int            `yaml:"payable_code,omitempty"`
	Labels         map[int]string `yaml:"labels,omitempty"`
}

// StatementConfig holds reconciliation defaults.
type StatementConfig struct {
	ShowUnconfirmed       bool `yaml:"show_unconfirmed"`
	DefaultIncomeAccount  int  `yaml:"default_income_account,omitempty"`
	DefaultExpenseAccount int  `yaml:"default_expense_account,omitempty"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a reskontra.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyEnv loads a .env file from dir if present and lets DATABASE_URL
// override the ledger DSN. A DSN alone switches the backend to postgres
// when none is configured.
func (c *Config) ApplyEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	if dsn, ok := os.LookupEnv("DATABASE_URL"); ok && dsn != "" {
		c.Ledger.DSN = dsn
		if c.Ledger.Backend == "" {
			c.Ledger.Backend = BackendPostgres
		}
	}
	return nil
}

// Validate checks the fields other packages depend on.
func (c *Config) Validate() error {
	if c.Fiscal.YearStart != "" {
		if _, err := period.ParseFiscalStart(c.Fiscal.YearStart); err != nil {
			return fmt.Errorf("fiscal.year_start: %w", err)
		}
	}
	switch c.Ledger.Backend {
	case "", BackendJournal:
	case BackendPostgres:
		if c.Ledger.DSN == "" && os.Getenv("DATABASE_URL") == "" {
			return fmt.Errorf("ledger.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("ledger.backend: unknown backend %q", c.Ledger.Backend)
	}
	if _, err := vat.SchemeByName(c.VAT.Scheme); err != nil {
		return fmt.Errorf("vat.scheme: %w", err)
	}
	return nil
}

// FiscalYear returns the configured fiscal year start, January 1 when unset.
func (c *Config) FiscalYear() period.FiscalYear {
	fy, err := period.ParseFiscalStart(c.Fiscal.YearStart)
	if err != nil {
		return period.CalendarYear
	}
	return fy
}

// VATScheme returns the built-in scheme with the configured overrides.
func (c *Config) VATScheme() (vat.Scheme, error) {
	scheme, err := vat.SchemeByName(c.VAT.Scheme)
	if err != nil {
		return vat.Scheme{}, err
	}
	if c.VAT.SettlementCode != 0 {
		scheme.Settlement = c.VAT.SettlementCode
	}
	if c.VAT.PayableCode != 0 {
		scheme.Payable = c.VAT.PayableCode
	}
	if scheme.Labels == nil && len(c.VAT.Labels) > 0 {
		scheme.Labels = make(map[int]string, len(c.VAT.Labels))
	}
	for code, label := range c.VAT.Labels {
		scheme.Labels[code] = label
	}
	return scheme, nil
}

// BankAccountByIBAN finds the configured feed for an IBAN, ignoring
// spacing and case.
func (c *Config) BankAccountByIBAN(iban string) (BankAccount, bool) {
	want := accounts.NormalizeIBAN(iban)
	if want == "" {
		return BankAccount{}, false
	}
	for _, ba := range c.BankAccounts {
		if accounts.NormalizeIBAN(ba.IBAN) == want {
			return ba, true
		}
	}
	return BankAccount{}, false
}

// BankAccountByName finds the configured feed by name, case-insensitively.
func (c *Config) BankAccountByName(name string) (BankAccount, bool) {
	for _, ba := range c.BankAccounts {
		if strings.EqualFold(ba.Name, name) {
			return ba, true
		}
	}
	return BankAccount{}, false
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName, entityType string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name:       businessName,
			EntityType: entityType,
		},
		Fiscal: FiscalConfig{
			YearStart: "01-01",
		},
		Ledger: LedgerConfig{
			Backend:   BackendJournal,
			CacheSize: 1000,
		},
		VAT: VATConfig{
			Scheme: "default",
		},
		Statement: StatementConfig{
			ShowUnconfirmed:       true,
			DefaultIncomeAccount:  3000,
			DefaultExpenseAccount: 4000,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Reskontra",
			AuthorEmail: "reskontra@localhost",
		},
	}
}
