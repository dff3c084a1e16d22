package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"transfer-tax-lab/internal/domain"
	"transfer-tax-lab/internal/storage"
)

// LedgerStore persists ledger versions as JSONB payloads with the identity
// columns lifted out for indexing.
type LedgerStore struct {
	pool *Pool
}

var _ storage.LedgerStore = (*LedgerStore)(nil)

func NewLedgerStore(pool *Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

func (s *LedgerStore) Save(ctx context.Context, l *domain.FactLedger) error {
	if l == nil || l.TransactionID == "" {
		return storage.ErrInvalidInput
	}

	payload, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO fact_ledgers (transaction_id, version, created_by, created_at, is_frozen, payload)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.TransactionID, l.Version, l.CreatedBy, l.CreatedAt, l.IsFrozen(), payload,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert ledger %s v%d: %w", l.TransactionID, l.Version, err)
	}
	return nil
}

func (s *LedgerStore) Get(ctx context.Context, transactionID string, version int) (*domain.FactLedger, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT payload FROM fact_ledgers
		WHERE transaction_id = $1 AND version = $2`,
		transactionID, version,
	).Scan(&payload)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select ledger %s v%d: %w", transactionID, version, err)
	}
	return unmarshalLedger(payload)
}

func (s *LedgerStore) Latest(ctx context.Context, transactionID string) (*domain.FactLedger, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT payload FROM fact_ledgers
		WHERE transaction_id = $1
		ORDER BY version DESC
		LIMIT 1`,
		transactionID,
	).Scan(&payload)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select latest ledger %s: %w", transactionID, err)
	}
	return unmarshalLedger(payload)
}

func unmarshalLedger(payload []byte) (*domain.FactLedger, error) {
	var l domain.FactLedger
	if err := json.Unmarshal(payload, &l); err != nil {
		return nil, fmt.Errorf("unmarshal ledger payload: %w", err)
	}
	return &l, nil
}
