package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/reskontra/reskontra/internal/auditlog"
	"github.com/reskontra/reskontra/internal/config"
	"github.com/reskontra/reskontra/internal/gitops"
	"github.com/reskontra/reskontra/internal/importer"
	"github.com/reskontra/reskontra/internal/journal"
	"github.com/reskontra/reskontra/internal/ledger"
	"github.com/reskontra/reskontra/internal/logger"
	"github.com/reskontra/reskontra/internal/model"
	"github.com/reskontra/reskontra/internal/money"
	"github.com/reskontra/reskontra/internal/period"
	"github.com/reskontra/reskontra/internal/reconcile"
)

type reconcileOptions struct {
	repoDir         string
	account         int
	from, to        string
	format          string
	opening         string
	hideUnconfirmed bool
	post            bool
	sortBy          string
	descending      bool
}

var sortColumns = map[string]reconcile.Column{
	"date":        reconcile.ColumnDate,
	"amount":      reconcile.ColumnAmount,
	"description": reconcile.ColumnDescription,
	"state":       reconcile.ColumnState,
}

func newReconcileCommand() *cobra.Command {
	var opts reconcileOptions

	cmd := &cobra.Command{
		Use:   "reconcile [statement.csv]",
		Short: "Match a bank statement against the ledger",
		Long: `Reconcile matches imported bank statement rows against ledger entries
on the same account, date and amount. Without a file, every CSV in import/
is reconciled; with --post they are moved to import/processed/ afterwards.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := sortColumns[opts.sortBy]; !ok {
				return fmt.Errorf("--sort: unknown column %q", opts.sortBy)
			}
			r, err := openRepo(cmd.Context(), opts.repoDir)
			if err != nil {
				return err
			}
			defer r.close()

			if len(args) == 1 {
				return reconcileFile(cmd, r, opts, args[0], false)
			}
			files, err := importer.Scan(r.root)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No statements in import/")
				return nil
			}
			for _, f := range files {
				if err := reconcileFile(cmd, r, opts, f.Path, true); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.repoDir, "repo", ".", "repository directory")
	cmd.Flags().IntVar(&opts.account, "account", 0, "bank account (default: resolved from the statement IBAN)")
	cmd.Flags().StringVar(&opts.from, "from", "", "period start YYYY-MM-DD (default: first statement date)")
	cmd.Flags().StringVar(&opts.to, "to", "", "period end YYYY-MM-DD (default: last statement date)")
	cmd.Flags().StringVar(&opts.format, "format", "", "statement format (generic, chase; default: detect)")
	cmd.Flags().StringVar(&opts.opening, "opening", "", "opening balance override, e.g. 1200.00")
	cmd.Flags().BoolVar(&opts.hideUnconfirmed, "hide-unconfirmed", false, "hide ledger entries missing from the statement")
	cmd.Flags().BoolVar(&opts.post, "post", false, "post unmatched rows to the default income and expense accounts")
	cmd.Flags().StringVar(&opts.sortBy, "sort", "date", "sort column (date, amount, description, state)")
	cmd.Flags().BoolVar(&opts.descending, "desc", false, "sort descending")

	return cmd
}

func reconcileFile(cmd *cobra.Command, r *repo, opts reconcileOptions, path string, fromImportDir bool) error {
	ctx := cmd.Context()
	log := logger.FromContext(ctx)
	out := cmd.OutOrStdout()

	batch, err := importer.DefaultRegistry().ReadFile(path, formatFor(r.cfg, opts.format))
	if err != nil {
		return err
	}
	records, err := importer.Resolve(batch.Lines, fallbackAccount(r, opts.account), ibanLookup(r, opts.account))
	if err != nil {
		return fmt.Errorf("%s: %w", batch.File, err)
	}
	account, err := statementAccount(records, opts.account)
	if err != nil {
		return fmt.Errorf("%s: %w", batch.File, err)
	}
	p, err := statementPeriod(records, opts)
	if err != nil {
		return err
	}
	log.Info().
		Str("file", batch.File).
		Str("batch", batch.ID.String()).
		Int("account", account).
		Str("period", p.String()).
		Int("rows", len(records)).
		Msg("reconciling statement")

	name := r.chart.Name(account)
	session := reconcile.NewSession(ledger.NewFetcher(r.source),
		reconcile.WithAccount(account, name),
		reconcile.WithDefaultAccounts(r.cfg.Statement.DefaultIncomeAccount, r.cfg.Statement.DefaultExpenseAccount),
		reconcile.WithCashAccounts(r.chart),
	)
	session.SetPeriod(account, p.From, p.To)
	session.SetImported(records)
	if opts.opening != "" {
		opening, err := money.Parse(opts.opening)
		if err != nil {
			return fmt.Errorf("--opening: %w", err)
		}
		session.SetOpening(opening)
	}

	st, err := session.Reload(ctx)
	if err != nil {
		if reconcile.IsFetchError(err) {
			return fmt.Errorf("loading ledger entries: %w", err)
		}
		return err
	}

	showUnconfirmed := r.cfg.Statement.ShowUnconfirmed && !opts.hideUnconfirmed
	title := reconcile.Title(p.From, p.To, fmt.Sprintf("%d %s", account, name))
	if err := writeStatement(out, title, st, showUnconfirmed, sortColumns[opts.sortBy], opts.descending); err != nil {
		return err
	}

	audit := []auditlog.Entry{
		{Batch: batch.ID, Action: auditlog.ActionImport, Account: account, Details: fmt.Sprintf("%s (%s, %d rows)", batch.File, batch.Format, len(records))},
		{Batch: batch.ID, Action: auditlog.ActionReconcile, Account: account, Details: stateCounts(st)},
	}

	if !opts.post {
		return appendAudit(r, audit)
	}

	posted, err := postUnmatched(ctx, r, st, batch.ID)
	if err != nil {
		return err
	}
	audit = append(audit, posted...)
	r.cache.Invalidate()
	fmt.Fprintf(out, "\nPosted %d voucher(s)\n", len(posted))

	if fromImportDir {
		if err := importer.MarkProcessed(r.root, batch.File); err != nil {
			return err
		}
	}

	if len(posted) > 0 && r.cfg.Git.AutoCommit && gitops.IsRepo(r.root) {
		author := gitops.Author{Name: r.cfg.Git.AuthorName, Email: r.cfg.Git.AuthorEmail}
		msg := fmt.Sprintf("reconcile: %s, %d voucher(s) posted", batch.File, len(posted))
		hash, err := gitops.Commit(ctx, r.root, msg, author)
		if err != nil {
			log.Warn().Err(err).Msg("committing posted vouchers")
		} else {
			for i := range audit {
				if audit[i].Action == auditlog.ActionPost {
					audit[i].CommitHash = hash
				}
			}
		}
	}
	return appendAudit(r, audit)
}

// postUnmatched assigns every unmatched row to the default account for its
// sign and writes the resulting vouchers to the journal.
func postUnmatched(ctx context.Context, r *repo, st *reconcile.Statement, batch uuid.UUID) ([]auditlog.Entry, error) {
	log := logger.FromContext(ctx)
	if r.cfg.Ledger.Backend == config.BackendPostgres {
		return nil, errors.New("--post needs the journal ledger backend")
	}

	for i, row := range st.Rows() {
		if row.State != reconcile.Unmatched || row.Resolved() {
			continue
		}
		if err := st.Reclassify(i, 0, nil); err != nil {
			return nil, err
		}
	}
	st.Commit()

	var entries []auditlog.Entry
	for _, v := range st.Postings() {
		if !v.Balanced() {
			return nil, fmt.Errorf("row %d: voucher does not balance", v.Row)
		}
		params := journal.PostParams{
			Date:        v.Date,
			Description: v.Description,
			Reference:   v.Reference,
			Status:      model.StatusPendingReview,
			Tags:        strings.Join(v.Tags(), ";"),
		}
		for _, l := range v.Lines {
			params.Lines = append(params.Lines, journal.Line{
				AccountID:   l.Account,
				AmountMinor: l.AmountMinor,
				VATCode:     l.Code,
				VATRate:     l.RateBasisPoints,
				Description: l.Description,
			})
		}
		entryID, err := r.journal.Post(params)
		if err != nil {
			return nil, fmt.Errorf("posting row %d: %w", v.Row, err)
		}
		log.Debug().Str("entry", entryID).Str("kind", v.Kind.String()).Msg("posted voucher")
		entries = append(entries, auditlog.Entry{
			Batch:   batch,
			Action:  auditlog.ActionPost,
			Account: v.Lines[0].Account,
			Details: fmt.Sprintf("%s %s %s", v.Kind, money.Format(v.Lines[0].AmountMinor), v.Description),
			EntryID: entryID,
		})
	}
	return entries, nil
}

func appendAudit(r *repo, entries []auditlog.Entry) error {
	now := time.Now().UTC().Truncate(time.Second)
	for i := range entries {
		entries[i].Timestamp = now
	}
	return auditlog.Append(r.root, entries)
}

func formatFor(cfg *config.Config, flag string) string {
	if flag != "" || len(cfg.BankAccounts) != 1 {
		return flag
	}
	return cfg.BankAccounts[0].Format
}

func fallbackAccount(r *repo, flag int) int {
	if flag != 0 {
		return flag
	}
	if len(r.cfg.BankAccounts) == 1 {
		return r.cfg.BankAccounts[0].AccountID
	}
	if cash := r.chart.CashAccounts(); len(cash) == 1 {
		return cash[0].ID
	}
	return 0
}

func ibanLookup(r *repo, flag int) importer.AccountLookup {
	if flag != 0 {
		return nil
	}
	return func(iban string) (int, bool) {
		if ba, ok := r.cfg.BankAccountByIBAN(iban); ok {
			return ba.AccountID, true
		}
		if a, ok := r.chart.ByIBAN(iban); ok {
			return a.ID, true
		}
		return 0, false
	}
}

func statementAccount(records []model.TransactionRecord, flag int) (int, error) {
	if flag != 0 {
		return flag, nil
	}
	seen := make(map[int]bool)
	var ids []int
	for _, rec := range records {
		if !seen[rec.Account] {
			seen[rec.Account] = true
			ids = append(ids, rec.Account)
		}
	}
	switch len(ids) {
	case 0:
		return 0, errors.New("empty statement; pass --account")
	case 1:
		return ids[0], nil
	default:
		sort.Ints(ids)
		return 0, fmt.Errorf("statement spans accounts %v; pass --account", ids)
	}
}

func statementPeriod(records []model.TransactionRecord, opts reconcileOptions) (period.Period, error) {
	def := period.StatementDefault(period.Day(time.Now()))
	if len(records) > 0 {
		def = period.Period{From: records[0].Date, To: records[0].Date}
		for _, rec := range records[1:] {
			if rec.Date.Before(def.From) {
				def.From = rec.Date
			}
			if rec.Date.After(def.To) {
				def.To = rec.Date
			}
		}
	}
	from, err := parseDateFlag("from", opts.from, def.From)
	if err != nil {
		return period.Period{}, err
	}
	to, err := parseDateFlag("to", opts.to, def.To)
	if err != nil {
		return period.Period{}, err
	}
	if to.Before(from) {
		return period.Period{}, errors.New("--from must not be after --to")
	}
	return period.Period{From: from, To: to}, nil
}

func writeStatement(w io.Writer, title string, st *reconcile.Statement, showUnconfirmed bool, col reconcile.Column, desc bool) error {
	visible := make(map[int]bool)
	for _, i := range st.Visible(showUnconfirmed) {
		visible[i] = true
	}

	fmt.Fprintln(w, title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tAmount\tDescription\tState")
	for _, i := range st.Order(col, desc) {
		if !visible[i] {
			continue
		}
		row := st.Rows()[i]
		state := row.State.String()
		if row.Matched != nil && row.Matched.Voucher != "" {
			state += " " + row.Matched.Voucher
		}
		fmt.Fprintf(tw, "%s\t%10s\t%s\t%s\n",
			row.Source.Date.Format(dateLayout),
			money.Format(row.Source.AmountMinor),
			row.Source.Description,
			state)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := st.Summary()
	fmt.Fprintf(w, "\nOpening %s  In %s  Out %s  Closing %s\n",
		money.Format(s.OpeningMinor),
		money.Format(s.CreditsMinor),
		money.Format(s.DebitsMinor),
		money.Format(s.ClosingMinor))
	return nil
}

func stateCounts(st *reconcile.Statement) string {
	counts := make(map[reconcile.State]int)
	for _, row := range st.Rows() {
		counts[row.State]++
	}
	parts := []string{
		fmt.Sprintf("matched=%d", counts[reconcile.MatchedToLedgerEntry]),
		fmt.Sprintf("unmatched=%d", counts[reconcile.Unmatched]),
		fmt.Sprintf("pending=%d", counts[reconcile.PendingManualEntry]),
	}
	return strings.Join(parts, " ")
}
