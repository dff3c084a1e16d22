// Package memory holds in-memory store implementations used by tests and the
// one-shot CLI. Stores hand out copies so callers cannot mutate stored state.
package memory

import (
	"context"
	"fmt"
	"sync"

	"transfer-tax-lab/internal/domain"
	"transfer-tax-lab/internal/storage"
)

// LedgerStore keeps ledger versions in a map keyed by transaction id and
// version.
type LedgerStore struct {
	mu      sync.RWMutex
	ledgers map[string]*domain.FactLedger
	latest  map[string]int
}

var _ storage.LedgerStore = (*LedgerStore)(nil)

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		ledgers: make(map[string]*domain.FactLedger),
		latest:  make(map[string]int),
	}
}

func ledgerKey(transactionID string, version int) string {
	return fmt.Sprintf("%s:%d", transactionID, version)
}

func (s *LedgerStore) Save(_ context.Context, l *domain.FactLedger) error {
	if l == nil || l.TransactionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := ledgerKey(l.TransactionID, l.Version)
	if _, exists := s.ledgers[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.ledgers[key] = l.Clone()
	if l.Version > s.latest[l.TransactionID] {
		s.latest[l.TransactionID] = l.Version
	}
	return nil
}

func (s *LedgerStore) Get(_ context.Context, transactionID string, version int) (*domain.FactLedger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.ledgers[ledgerKey(transactionID, version)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return l.Clone(), nil
}

func (s *LedgerStore) Latest(_ context.Context, transactionID string) (*domain.FactLedger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, ok := s.latest[transactionID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s.ledgers[ledgerKey(transactionID, version)].Clone(), nil
}
