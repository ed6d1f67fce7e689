// Package httpapi wires the HTTP surface of the bookkeeping service.
// It keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mlindgren/huvudbok/internal/service/account"
	"github.com/mlindgren/huvudbok/internal/service/journal"
	"github.com/mlindgren/huvudbok/internal/service/report"
)

// Store is the full storage surface the API needs. Both the memory and
// Postgres stores satisfy it.
type Store interface {
	journal.Repo
	journal.Writer
	journal.Sequencer
	account.Repo
	account.Writer
	report.Repo
}

// Server wires handlers and middleware using Chi.
// It composes read and write dependencies through the services.
type Server struct {
	journalSvc journal.Service
	accountSvc account.Service
	reportSvc  report.Service
	store      Store
	log        *slog.Logger
	rt         *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by basic request/response logging and panic recovery.
func New(store Store, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		journalSvc: journal.New(store, store, store),
		accountSvc: account.New(store, store),
		reportSvc:  report.New(store),
		store:      store,
		rt:         r,
		log:        logger,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
	// Journal entries (v1)
	s.rt.With(s.validatePostEntry()).Post("/v1/entries", s.postEntry)
	s.rt.With(s.validateListEntries()).Get("/v1/entries", s.listEntries)
	s.rt.Get("/v1/entries/{id}", s.getEntry)
	s.rt.With(s.validateUpdateEntry()).Put("/v1/entries/{id}", s.updateEntry)
	s.rt.Delete("/v1/entries/{id}", s.deleteEntry)
	s.rt.Post("/v1/entries/{id}/post", s.postEntryAction)
	s.rt.Post("/v1/entries/{id}/void", s.voidEntry)
	s.rt.Post("/v1/entries/{id}/reverse", s.reverseEntry)
	// Accounts (v1)
	s.rt.With(s.validatePostAccount()).Post("/v1/accounts", s.postAccount)
	s.rt.Get("/v1/accounts", s.listAccounts)
	s.rt.Get("/v1/accounts/{id}", s.getAccount)
	s.rt.Patch("/v1/accounts/{id}", s.updateAccount)
	s.rt.Delete("/v1/accounts/{id}", s.deactivateAccount)
	s.rt.Post("/v1/chart/default", s.seedDefaultChart)
	s.rt.Get("/v1/chart/groups", s.chartGroups)
	// Reports (v1)
	s.rt.Get("/v1/reports/trial-balance", s.trialBalance)
	s.rt.Get("/v1/reports/balance-sheet", s.balanceSheet)
	s.rt.Get("/v1/reports/income-statement", s.incomeStatement)
	s.rt.Get("/v1/reports/vat", s.vatReport)
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}
