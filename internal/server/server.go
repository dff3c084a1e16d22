// Package server exposes the tax engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"transfer-tax-lab/internal/advisor"
	"transfer-tax-lab/internal/calculator"
	"transfer-tax-lab/internal/domain"
	"transfer-tax-lab/internal/rules"
	"transfer-tax-lab/internal/storage"
)

// Server wires the engine to a chi router. Stores may be nil; persistence is
// then skipped.
type Server struct {
	registry *rules.Registry
	analyzer *advisor.Analyzer

	ledgers    storage.LedgerStore
	strategies storage.StrategyStore
	audit      storage.AuditStore

	log *zap.Logger
}

// Options configures a Server. Registry and Analyzer are required.
type Options struct {
	Registry *rules.Registry
	Analyzer *advisor.Analyzer

	LedgerStore   storage.LedgerStore
	StrategyStore storage.StrategyStore
	AuditStore    storage.AuditStore

	Logger *zap.Logger
}

func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		registry:   opts.Registry,
		analyzer:   opts.Analyzer,
		ledgers:    opts.LedgerStore,
		strategies: opts.StrategyStore,
		audit:      opts.AuditStore,
		log:        log,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/calculate", s.handleCalculate)
		r.Post("/strategy", s.handleStrategy)
		r.Get("/strategies/{transactionID}", s.handleListStrategies)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// analyzeRequest is the shared request body: a map of field name to raw
// value, plus the acting user.
type analyzeRequest struct {
	Facts     map[string]any `json:"facts"`
	CreatedBy string         `json:"created_by"`
}

func (s *Server) decodeLedger(w http.ResponseWriter, r *http.Request) (*domain.FactLedger, bool) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber() // amounts must reach the decimal parser losslessly

	var req analyzeRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return nil, false
	}
	if req.CreatedBy == "" {
		req.CreatedBy = "api"
	}

	l, err := domain.NewLedger(req.Facts, req.CreatedBy)
	if err != nil {
		s.writeDomainError(w, err)
		return nil, false
	}
	if err := l.Freeze(); err != nil {
		s.writeDomainError(w, err)
		return nil, false
	}
	return l, true
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	l, ok := s.decodeLedger(w, r)
	if !ok {
		return
	}

	snap, err := s.registry.Snapshot(l.DisposalDate.Value)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	res, err := calculator.Calculate(l, snap)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.archiveCalculation(r, l, res)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStrategy(w http.ResponseWriter, r *http.Request) {
	l, ok := s.decodeLedger(w, r)
	if !ok {
		return
	}

	strat, res, err := s.analyzer.Analyze(r.Context(), l)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if s.ledgers != nil {
		if err := s.ledgers.Save(r.Context(), l); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			s.log.Warn("save ledger", zap.String("transaction_id", l.TransactionID), zap.Error(err))
		}
	}
	if s.strategies != nil {
		if err := s.strategies.Save(r.Context(), strat); err != nil {
			s.log.Warn("save strategy", zap.String("strategy_id", strat.StrategyID), zap.Error(err))
		}
	}
	s.archiveCalculation(r, l, res)

	writeJSON(w, http.StatusOK, strategyResponse(strat, res))
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	if s.strategies == nil {
		writeError(w, http.StatusNotFound, "strategy persistence is not configured")
		return
	}
	transactionID := chi.URLParam(r, "transactionID")
	list, err := s.strategies.ListByTransaction(r.Context(), transactionID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// archiveCalculation appends the calculation to the audit store, best effort.
func (s *Server) archiveCalculation(r *http.Request, l *domain.FactLedger, res *calculator.Result) {
	if s.audit == nil {
		return
	}
	trace, err := json.Marshal(res.Trace)
	if err != nil {
		s.log.Warn("marshal trace", zap.Error(err))
		return
	}
	entry := domain.AuditEntry{
		TransactionID: l.TransactionID,
		LedgerVersion: l.Version,
		RuleVersion:   res.RuleVersion,
		ScenarioID:    domain.ScenarioNow,
		TotalTax:      res.TotalTax.String(),
		TaxableIncome: res.TaxableIncome.String(),
		AppliedRate:   res.AppliedTaxRate.String(),
		TraceJSON:     string(trace),
		CalculatedAt:  time.Now().UTC(),
	}
	if err := s.audit.Append(r.Context(), []domain.AuditEntry{entry}); err != nil {
		s.log.Warn("append audit entry", zap.String("transaction_id", l.TransactionID), zap.Error(err))
	}
}

// writeDomainError maps domain errors to HTTP statuses: caller mistakes are
// 400, engine defects and infrastructure failures are 500.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var (
		verr *domain.ValidationError
		merr *domain.MissingConfirmationError
		lerr *rules.LookupError
		ierr *calculator.InvariantError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &merr), errors.Is(err, domain.ErrNotFrozen):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &lerr), errors.As(err, &ierr):
		s.log.Error("engine error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.log.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
