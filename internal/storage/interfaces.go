// Package storage defines the persistence contracts of the tax engine.
// Ledgers and strategies are stored as immutable versions; the calculation
// audit archive is append-only.
package storage

import (
	"context"

	"transfer-tax-lab/internal/domain"
)

// LedgerStore persists fact ledgers keyed by (transaction id, version).
// Versions are immutable once saved; a new version is a new row.
type LedgerStore interface {
	// Save stores one ledger version. ErrDuplicateKey if the
	// (transaction id, version) pair already exists.
	Save(ctx context.Context, l *domain.FactLedger) error

	// Get returns one exact ledger version. ErrNotFound if absent.
	Get(ctx context.Context, transactionID string, version int) (*domain.FactLedger, error)

	// Latest returns the highest stored version for a transaction.
	Latest(ctx context.Context, transactionID string) (*domain.FactLedger, error)
}

// StrategyStore persists analysis results.
type StrategyStore interface {
	// Save stores one strategy. ErrDuplicateKey on a repeated strategy id.
	Save(ctx context.Context, s *domain.Strategy) error

	// Get returns one strategy by id. ErrNotFound if absent.
	Get(ctx context.Context, strategyID string) (*domain.Strategy, error)

	// ListByTransaction returns every strategy for a transaction, newest
	// first.
	ListByTransaction(ctx context.Context, transactionID string) ([]*domain.Strategy, error)
}

// AuditStore archives calculation traces. Append-only.
type AuditStore interface {
	// Append stores a batch of audit entries.
	Append(ctx context.Context, entries []domain.AuditEntry) error

	// ListByTransaction returns the archived entries for a transaction in
	// insertion order.
	ListByTransaction(ctx context.Context, transactionID string) ([]domain.AuditEntry, error)
}
