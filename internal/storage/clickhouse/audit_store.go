package clickhouse

import (
	"context"
	"fmt"

	"transfer-tax-lab/internal/domain"
	"transfer-tax-lab/internal/storage"
)

// AuditStore implements storage.AuditStore using ClickHouse. Entries are
// batch-inserted; the MergeTree table never updates rows.
type AuditStore struct {
	conn *Conn
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(conn *Conn) *AuditStore {
	return &AuditStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AuditStore = (*AuditStore)(nil)

// Append inserts a batch of audit entries.
func (s *AuditStore) Append(ctx context.Context, entries []domain.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if e.TransactionID == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO calculation_audit (
			transaction_id, ledger_version, rule_version, scenario_id,
			total_tax, taxable_income, applied_tax_rate, trace_json, calculated_at
		)`)
	if err != nil {
		return fmt.Errorf("prepare audit batch: %w", err)
	}

	for _, e := range entries {
		if err := batch.Append(
			e.TransactionID, int32(e.LedgerVersion), e.RuleVersion, e.ScenarioID,
			e.TotalTax, e.TaxableIncome, e.AppliedRate, e.TraceJSON, e.CalculatedAt,
		); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send audit batch: %w", err)
	}
	return nil
}

// ListByTransaction returns the archived entries for a transaction in
// calculation order.
func (s *AuditStore) ListByTransaction(ctx context.Context, transactionID string) ([]domain.AuditEntry, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT transaction_id, ledger_version, rule_version, scenario_id,
		       total_tax, taxable_income, applied_tax_rate, trace_json, calculated_at
		FROM calculation_audit
		WHERE transaction_id = ?
		ORDER BY calculated_at`,
		transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var version int32
		if err := rows.Scan(
			&e.TransactionID, &version, &e.RuleVersion, &e.ScenarioID,
			&e.TotalTax, &e.TaxableIncome, &e.AppliedRate, &e.TraceJSON, &e.CalculatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.LedgerVersion = int(version)
		out = append(out, e)
	}
	return out, rows.Err()
}
