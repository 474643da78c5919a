package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/reskontra/reskontra/internal/ledger"
	"github.com/reskontra/reskontra/internal/logger"
	"github.com/reskontra/reskontra/internal/model"
	"github.com/reskontra/reskontra/internal/money"
	"github.com/reskontra/reskontra/internal/period"
	"github.com/reskontra/reskontra/internal/reconcile"
	"github.com/reskontra/reskontra/internal/summary"
	"github.com/reskontra/reskontra/internal/vat"
)

const dateLayout = "2006-01-02"

func getVAT(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())
		p, err := periodParams(r, period.PreviousMonth(d.Now()))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		entries, err := d.Source.Entries(r.Context(), ledger.Query{From: p.From, To: p.To, ClassifiedOnly: true})
		if err != nil {
			log.Error().Err(err).Str("period", p.String()).Msg("loading vat entries")
			http.Error(w, "failed to load ledger entries", http.StatusBadGateway)
			return
		}
		report := vat.Aggregate(entries, p.From, p.To, d.Scheme)

		if r.URL.Query().Get("format") == "csv" {
			w.Header().Set("Content-Type", "text/csv")
			if err := vat.WriteCSV(w, report); err != nil {
				log.Error().Err(err).Msg("writing vat csv")
			}
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

type codeInfo struct {
	Code    int    `json:"code"`
	Label   string `json:"label"`
	Heading string `json:"heading"`
}

func getVATCodes(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codes := d.Scheme.Codes()
		out := make([]codeInfo, 0, len(codes))
		for _, c := range codes {
			out = append(out, codeInfo{Code: c, Label: d.Scheme.Label(c), Heading: d.Scheme.Heading(c)})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getSummary(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())
		today := period.Day(d.Now())
		fy := d.Fiscal.Containing(today)
		p, err := periodParams(r, period.Period{From: fy.From, To: today})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s, err := summary.Load(r.Context(), d.Source, d.Chart, p.From, p.To)
		if err != nil {
			log.Error().Err(err).Str("period", p.String()).Msg("loading summary")
			http.Error(w, "failed to load ledger entries", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

type reconcileTxn struct {
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
}

type reconcileRequest struct {
	Account      int            `json:"account"`
	From         string         `json:"from"`
	To           string         `json:"to"`
	Opening      *string        `json:"opening,omitempty"`
	Transactions []reconcileTxn `json:"transactions"`
}

type reconcileRow struct {
	Index          int    `json:"index"`
	State          string `json:"state"`
	Date           string `json:"date"`
	AmountMinor    int64  `json:"amount_minor"`
	Description    string `json:"description"`
	Reference      string `json:"reference,omitempty"`
	MatchedVoucher string `json:"matched_voucher,omitempty"`
	Grey           bool   `json:"grey"`
	Locked         bool   `json:"locked"`
	Resolved       bool   `json:"resolved"`
}

type reconcileResponse struct {
	Title   string            `json:"title"`
	Rows    []reconcileRow    `json:"rows"`
	Summary reconcile.Summary `json:"summary"`
}

func postReconcile(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req reconcileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.Account == 0 {
			http.Error(w, "account is required", http.StatusBadRequest)
			return
		}
		p, err := parsePeriod(req.From, req.To, period.StatementDefault(period.Day(d.Now())))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		imported, err := requestRecords(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		name := d.Chart.Name(req.Account)
		session := reconcile.NewSession(ledger.NewFetcher(d.Source),
			reconcile.WithAccount(req.Account, name),
			reconcile.WithDefaultAccounts(d.DefaultIncomeAccount, d.DefaultExpenseAccount),
			reconcile.WithCashAccounts(d.Chart),
		)
		session.SetPeriod(req.Account, p.From, p.To)
		session.SetImported(imported)
		if req.Opening != nil {
			opening, err := money.Parse(*req.Opening)
			if err != nil {
				http.Error(w, "invalid opening balance", http.StatusBadRequest)
				return
			}
			session.SetOpening(opening)
		}

		st, err := session.Reload(r.Context())
		if err != nil {
			log.Error().Err(err).Int("account", req.Account).Str("period", p.String()).Msg("reconciling statement")
			if reconcile.IsFetchError(err) {
				http.Error(w, "failed to load ledger entries", http.StatusBadGateway)
				return
			}
			http.Error(w, "failed to reconcile", http.StatusInternalServerError)
			return
		}

		resp := reconcileResponse{
			Title:   reconcile.Title(p.From, p.To, fmt.Sprintf("%d %s", req.Account, name)),
			Summary: st.Summary(),
		}
		for i, row := range st.Rows() {
			resp.Rows = append(resp.Rows, viewRow(i, row))
		}
		log.Info().Int("account", req.Account).Int("rows", len(resp.Rows)).Msg("statement reconciled")
		writeJSON(w, http.StatusOK, resp)
	}
}

func requestRecords(req reconcileRequest) ([]model.TransactionRecord, error) {
	out := make([]model.TransactionRecord, 0, len(req.Transactions))
	for i, t := range req.Transactions {
		date, err := time.Parse(dateLayout, t.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: invalid date %q", i+1, t.Date)
		}
		amount, err := money.FromDecimal(t.Amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i+1, err)
		}
		out = append(out, model.TransactionRecord{
			Date:        date,
			AmountMinor: amount,
			Account:     req.Account,
			Description: t.Description,
			Reference:   t.Reference,
		})
	}
	return out, nil
}

func viewRow(i int, row reconcile.Row) reconcileRow {
	v := reconcileRow{
		Index:       i,
		State:       row.State.String(),
		Date:        row.Source.Date.Format(dateLayout),
		AmountMinor: row.Source.AmountMinor,
		Description: row.Source.Description,
		Reference:   row.Source.Reference,
		Grey:        row.Grey(),
		Locked:      row.Locked(),
		Resolved:    row.Resolved(),
	}
	if row.Matched != nil {
		v.MatchedVoucher = row.Matched.Voucher
	}
	return v
}

func periodParams(r *http.Request, def period.Period) (period.Period, error) {
	q := r.URL.Query()
	return parsePeriod(q.Get("from"), q.Get("to"), def)
}

func parsePeriod(from, to string, def period.Period) (period.Period, error) {
	p := def
	var err error
	if from != "" {
		if p.From, err = time.Parse(dateLayout, from); err != nil {
			return period.Period{}, fmt.Errorf("invalid from date %q", from)
		}
	}
	if to != "" {
		if p.To, err = time.Parse(dateLayout, to); err != nil {
			return period.Period{}, fmt.Errorf("invalid to date %q", to)
		}
	}
	if p.To.Before(p.From) {
		return period.Period{}, errors.New("from must not be after to")
	}
	return p, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
