package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/reskontra/reskontra/internal/model"
	"github.com/reskontra/reskontra/internal/money"
)

// Parser converts a bank CSV file into statement lines.
type Parser interface {
	Parse(r io.Reader) ([]model.StatementLine, error)
	Format() string
	// Matches reports whether a header row belongs to this format.
	Matches(header []string) bool
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
	order   []string
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
	r.order = append(r.order, key)
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Detect returns the first registered parser whose Matches accepts header,
// or nil.
func (r *Registry) Detect(header []string) Parser {
	for _, key := range r.order {
		if p := r.parsers[key]; p.Matches(header) {
			return p
		}
	}
	return nil
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	r.Register(&GenericParser{})
	return r
}

// Batch is one parsed statement file.
type Batch struct {
	ID     uuid.UUID
	File   string
	Format string
	Lines  []model.StatementLine
}

// ReadFile parses a statement file. An empty format is detected from the
// header row.
func (r *Registry) ReadFile(path, format string) (Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Batch{}, fmt.Errorf("reading statement: %w", err)
	}

	var p Parser
	if format != "" {
		if p = r.Get(format); p == nil {
			return Batch{}, fmt.Errorf("unknown statement format %q", format)
		}
	} else {
		header, err := csv.NewReader(strings.NewReader(string(data))).Read()
		if err != nil {
			return Batch{}, fmt.Errorf("reading header of %s: %w", filepath.Base(path), err)
		}
		if p = r.Detect(header); p == nil {
			return Batch{}, fmt.Errorf("unrecognized statement format in %s", filepath.Base(path))
		}
	}

	lines, err := p.Parse(strings.NewReader(string(data)))
	if err != nil {
		return Batch{}, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return Batch{
		ID:     uuid.New(),
		File:   filepath.Base(path),
		Format: p.Format(),
		Lines:  lines,
	}, nil
}

// AccountLookup maps a statement IBAN to a chart account.
type AccountLookup func(iban string) (account int, ok bool)

// Resolve turns statement lines into bank account records. Lines carrying
// an IBAN are resolved through lookup; the rest, or all lines when lookup
// is nil, go to fallback.
func Resolve(lines []model.StatementLine, fallback int, lookup AccountLookup) ([]model.TransactionRecord, error) {
	out := make([]model.TransactionRecord, 0, len(lines))
	for i, line := range lines {
		account := fallback
		if line.IBAN != "" && lookup != nil {
			if a, ok := lookup(line.IBAN); ok {
				account = a
			}
		}
		if account == 0 {
			return nil, fmt.Errorf("line %d: no account for IBAN %q", i+1, line.IBAN)
		}
		amount, err := money.FromDecimal(line.Amount)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		out = append(out, model.TransactionRecord{
			Date:        line.Date,
			AmountMinor: amount,
			Account:     account,
			Description: line.Description,
			Reference:   line.Reference,
			BankType:    line.Type,
		})
	}
	return out, nil
}

// importDir is the subdirectory for import CSVs.
const importDir = "import"

// processedDir is the subdirectory for processed CSVs.
const processedDir = "import/processed"

// Scan returns CSV files in <repoRoot>/import/.
func Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := filepath.Join(repoRoot, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
