// Package calculator implements the deterministic transfer-income tax
// pipeline. Pure functions over a fact ledger and a rule snapshot: no clocks,
// no I/O, decimal arithmetic throughout.
package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TraceStep records one pipeline step for the audit trail.
type TraceStep struct {
	Step        int             `json:"step"`
	Name        string          `json:"name"`
	Detail      string          `json:"detail"`
	Amount      decimal.Decimal `json:"amount"`
	RuleApplied string          `json:"rule_applied,omitempty"`
}

// BreakdownLine is one labeled amount of the result breakdown.
type BreakdownLine struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Result is the full outcome of one calculation, including the step trace
// that reproduces it.
type Result struct {
	DisposalPrice     decimal.Decimal `json:"disposal_price"`
	AcquisitionPrice  decimal.Decimal `json:"acquisition_price"`
	NecessaryExpenses decimal.Decimal `json:"necessary_expenses"`
	CapitalGain       decimal.Decimal `json:"capital_gain"`

	ExemptionApplied bool            `json:"exemption_applied"`
	TaxableGain      decimal.Decimal `json:"taxable_gain"`

	LongTermDeduction decimal.Decimal `json:"long_term_deduction"`
	BasicDeduction    decimal.Decimal `json:"basic_deduction"`
	TaxableIncome     decimal.Decimal `json:"taxable_income"`

	AppliedTaxRate decimal.Decimal `json:"applied_tax_rate"`
	CalculatedTax  decimal.Decimal `json:"calculated_tax"`
	LocalTax       decimal.Decimal `json:"local_tax"`
	TotalTax       decimal.Decimal `json:"total_tax"`

	Breakdown    []BreakdownLine `json:"breakdown"`
	AppliedRules []string        `json:"applied_rules"`
	RuleVersion  string          `json:"rule_version"`
	Trace        []TraceStep     `json:"trace"`
}

// InvariantError reports an internal consistency violation of the pipeline.
// Not recoverable by the caller; it indicates a rule-data or code defect.
type InvariantError struct {
	Step string
	Msg  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("calculation invariant violated at %s: %s", e.Step, e.Msg)
}

// tracer accumulates numbered steps.
type tracer struct {
	steps []TraceStep
}

func (t *tracer) add(name, detail string, amount decimal.Decimal, rule string) {
	t.steps = append(t.steps, TraceStep{
		Step:        len(t.steps) + 1,
		Name:        name,
		Detail:      detail,
		Amount:      amount,
		RuleApplied: rule,
	})
}
