package memory

import (
	"context"
	"sync"

	"transfer-tax-lab/internal/domain"
	"transfer-tax-lab/internal/storage"
)

// AuditStore keeps calculation audit entries in insertion order.
type AuditStore struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
}

var _ storage.AuditStore = (*AuditStore)(nil)

func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

func (s *AuditStore) Append(_ context.Context, entries []domain.AuditEntry) error {
	for _, e := range entries {
		if e.TransactionID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	return nil
}

func (s *AuditStore) ListByTransaction(_ context.Context, transactionID string) ([]domain.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.AuditEntry
	for _, e := range s.entries {
		if e.TransactionID == transactionID {
			out = append(out, e)
		}
	}
	return out, nil
}
