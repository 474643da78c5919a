// Package auditlog records reconciliation actions in logs/audit-log.csv.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Actions written by the reconcile command.
const (
	ActionImport    = "import_statement"
	ActionReconcile = "reconcile"
	ActionPost      = "post_voucher"
)

// Entry is one row in the audit log. Entries from one run share a Batch.
type Entry struct {
	Timestamp  time.Time
	Batch      uuid.UUID
	Action     string
	Account    int
	Details    string
	EntryID    string
	CommitHash string
}

// Header is the CSV header for audit-log.csv.
const Header = "timestamp,batch,action,account,details,entry_id,commit_hash"

const (
	numFields     = 7
	logDir        = "logs"
	logFile       = "logs/audit-log.csv"
	colTimestamp  = 0
	colBatch      = 1
	colAction     = 2
	colAccount    = 3
	colDetails    = 4
	colEntryID    = 5
	colCommitHash = 6
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colBatch] = e.Batch.String()
	row[colAction] = e.Action
	if e.Account != 0 {
		row[colAccount] = strconv.Itoa(e.Account)
	}
	row[colDetails] = e.Details
	row[colEntryID] = e.EntryID
	row[colCommitHash] = e.CommitHash
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	batch, err := uuid.Parse(record[colBatch])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing batch %q: %w", record[colBatch], err)
	}
	var account int
	if record[colAccount] != "" {
		account, err = strconv.Atoi(record[colAccount])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing account %q: %w", record[colAccount], err)
		}
	}

	return Entry{
		Timestamp:  ts,
		Batch:      batch,
		Action:     record[colAction],
		Account:    account,
		Details:    record[colDetails],
		EntryID:    record[colEntryID],
		CommitHash: record[colCommitHash],
	}, nil
}

// Path returns the audit log location under repoRoot.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, logFile)
}

// Append writes entries to <repoRoot>/logs/audit-log.csv, creating the file and header if needed.
func Append(repoRoot string, entries []Entry) error {
	dir := filepath.Join(repoRoot, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(repoRoot)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <repoRoot>/logs/audit-log.csv.
// Returns an empty slice if the file does not exist.
func Read(repoRoot string) ([]Entry, error) {
	f, err := os.Open(Path(repoRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

// ByBatch filters entries to one batch, keeping file order.
func ByBatch(entries []Entry, batch uuid.UUID) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Batch == batch {
			out = append(out, e)
		}
	}
	return out
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
