package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"transfer-tax-lab/internal/domain"
	"transfer-tax-lab/internal/storage"
)

// StrategyStore keeps strategies in a map keyed by strategy id.
type StrategyStore struct {
	mu         sync.RWMutex
	strategies map[string]*domain.Strategy
}

var _ storage.StrategyStore = (*StrategyStore)(nil)

func NewStrategyStore() *StrategyStore {
	return &StrategyStore{strategies: make(map[string]*domain.Strategy)}
}

func (s *StrategyStore) Save(_ context.Context, strat *domain.Strategy) error {
	if strat == nil || strat.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.strategies[strat.StrategyID]; exists {
		return storage.ErrDuplicateKey
	}
	s.strategies[strat.StrategyID] = copyStrategy(strat)
	return nil
}

func (s *StrategyStore) Get(_ context.Context, strategyID string) (*domain.Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	strat, ok := s.strategies[strategyID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyStrategy(strat), nil
}

func (s *StrategyStore) ListByTransaction(_ context.Context, transactionID string) ([]*domain.Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Strategy
	for _, strat := range s.strategies {
		if strat.TransactionID == transactionID {
			out = append(out, copyStrategy(strat))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AnalyzedAt.After(out[j].AnalyzedAt)
	})
	return out, nil
}

func copyStrategy(s *domain.Strategy) *domain.Strategy {
	out := *s
	out.RulesApplied = append([]string(nil), s.RulesApplied...)
	out.Risks = append([]domain.Risk(nil), s.Risks...)
	out.MissingInfo = append([]domain.MissingInfo(nil), s.MissingInfo...)
	out.Scenarios = make([]domain.Scenario, len(s.Scenarios))
	for i, sc := range s.Scenarios {
		out.Scenarios[i] = copyScenario(sc)
	}
	return &out
}

func copyScenario(sc domain.Scenario) domain.Scenario {
	out := sc
	out.Pros = append([]string(nil), sc.Pros...)
	out.Cons = append([]string(nil), sc.Cons...)
	out.AdditionalCosts = copyAmounts(sc.AdditionalCosts)
	out.ExpectedGains = copyAmounts(sc.ExpectedGains)
	return out
}

func copyAmounts(m map[string]decimal.Decimal) map[string]decimal.Decimal {
	if m == nil {
		return nil
	}
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
