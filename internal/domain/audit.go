package domain

import "time"

// AuditEntry is one archived calculation: the inputs' identity, the headline
// amounts, and the serialized step trace. Append-only; written after every
// calculation for later reproducibility review.
type AuditEntry struct {
	TransactionID string    `json:"transaction_id"`
	LedgerVersion int       `json:"ledger_version"`
	RuleVersion   string    `json:"rule_version"`
	ScenarioID    string    `json:"scenario_id"`
	TotalTax      string    `json:"total_tax"`
	TaxableIncome string    `json:"taxable_income"`
	AppliedRate   string    `json:"applied_tax_rate"`
	TraceJSON     string    `json:"trace_json"`
	CalculatedAt  time.Time `json:"calculated_at"`
}
