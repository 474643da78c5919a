// Package api serves the VAT listing, the summary and statement
// reconciliation over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/reskontra/reskontra/internal/ledger"
	"github.com/reskontra/reskontra/internal/model"
	"github.com/reskontra/reskontra/internal/period"
	"github.com/reskontra/reskontra/internal/vat"
)

// Chart is the chart of accounts as the handlers need it.
type Chart interface {
	Get(id int) (model.Account, bool)
	Name(id int) string
	IsCash(id int) bool
}

// Deps are the collaborators of the router.
type Deps struct {
	Source ledger.Source
	Chart  Chart
	Scheme vat.Scheme
	Fiscal period.FiscalYear
	Log    zerolog.Logger

	DefaultIncomeAccount  int
	DefaultExpenseAccount int

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewRouter wires the handlers.
func NewRouter(d Deps) *chi.Mux {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Fiscal.Month == 0 {
		d.Fiscal = period.CalendarYear
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(d.Log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Get("/vat", getVAT(d))
	r.Get("/vat/codes", getVATCodes(d))
	r.Get("/summary", getSummary(d))
	r.Post("/statements/reconcile", postReconcile(d))

	return r
}
