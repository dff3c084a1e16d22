package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"transfer-tax-lab/internal/domain"
	"transfer-tax-lab/internal/storage"
)

// StrategyStore persists analysis results as JSONB payloads.
type StrategyStore struct {
	pool *Pool
}

var _ storage.StrategyStore = (*StrategyStore)(nil)

func NewStrategyStore(pool *Pool) *StrategyStore {
	return &StrategyStore{pool: pool}
}

func (s *StrategyStore) Save(ctx context.Context, strat *domain.Strategy) error {
	if strat == nil || strat.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	payload, err := json.Marshal(strat)
	if err != nil {
		return fmt.Errorf("marshal strategy: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO strategies (strategy_id, transaction_id, ledger_version, category, rule_version, analyzed_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		strat.StrategyID, strat.TransactionID, strat.LedgerVersion,
		string(strat.Category), strat.RuleVersion, strat.AnalyzedAt, payload,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert strategy %s: %w", strat.StrategyID, err)
	}
	return nil
}

func (s *StrategyStore) Get(ctx context.Context, strategyID string) (*domain.Strategy, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM strategies WHERE strategy_id = $1`,
		strategyID,
	).Scan(&payload)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select strategy %s: %w", strategyID, err)
	}
	return unmarshalStrategy(payload)
}

func (s *StrategyStore) ListByTransaction(ctx context.Context, transactionID string) ([]*domain.Strategy, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT payload FROM strategies
		WHERE transaction_id = $1
		ORDER BY analyzed_at DESC`,
		transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("select strategies for %s: %w", transactionID, err)
	}
	defer rows.Close()

	var out []*domain.Strategy
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan strategy row: %w", err)
		}
		strat, err := unmarshalStrategy(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, strat)
	}
	return out, rows.Err()
}

func unmarshalStrategy(payload []byte) (*domain.Strategy, error) {
	var s domain.Strategy
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("unmarshal strategy payload: %w", err)
	}
	return &s, nil
}
