// Package rules holds the versioned, effective-dated tax rule registry.
// Rules are loaded from YAML (embedded defaults or external files) and exposed
// to the calculator as immutable snapshots resolved for one disposal date, so
// a calculation never observes a mid-run rule change.
package rules

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Rule identifiers. Every snapshot resolves all of them.
const (
	RuleProgressiveBrackets = "progressive_brackets"
	RuleShortTermRates      = "short_term_rates"
	RuleLongTermGeneral     = "long_term_deduction_general"
	RuleLongTermOneHouse    = "long_term_deduction_one_house"
	RuleExemptionOneHouse   = "exemption_one_house"
	RuleSurchargeMultiHouse = "surcharge_multi_house"
	RuleBasicDeduction      = "basic_deduction"
	RuleLocalIncomeTax      = "local_income_tax"
	RuleHoldingTaxEstimate  = "holding_tax_estimate"
)

var allRuleIDs = []string{
	RuleProgressiveBrackets,
	RuleShortTermRates,
	RuleLongTermGeneral,
	RuleLongTermOneHouse,
	RuleExemptionOneHouse,
	RuleSurchargeMultiHouse,
	RuleBasicDeduction,
	RuleLocalIncomeTax,
	RuleHoldingTaxEstimate,
}

// RuleVersion is one dated revision of a rule. Payload holds the typed rule
// data; its concrete type depends on the rule id.
type RuleVersion struct {
	RuleID        string
	Version       string
	EffectiveFrom time.Time
	Description   string
	Payload       any
}

// Bracket is one progressive tax band. UpTo nil marks the top band.
type Bracket struct {
	UpTo   *decimal.Decimal
	Rate   decimal.Decimal
	Offset decimal.Decimal
}

// ShortTermRates are the flat rates replacing the progressive schedule for
// short holding periods.
type ShortTermRates struct {
	ResidentialUnder1Y    decimal.Decimal
	Residential1To2Y      decimal.Decimal
	NonResidentialUnder1Y decimal.Decimal
	NonResidential1To2Y   decimal.Decimal
}

// LinearDeduction is a holding-period deduction accruing linearly: BaseRate
// at MinYears, PerYear added for each further year, capped at MaxRate. Below
// MinYears the deduction is zero.
type LinearDeduction struct {
	MinYears int
	BaseRate decimal.Decimal
	PerYear  decimal.Decimal
	MaxRate  decimal.Decimal
}

// Rate returns the deduction rate for a holding (or residence) period.
func (d LinearDeduction) Rate(years int) decimal.Decimal {
	if years < d.MinYears {
		return decimal.Zero
	}
	r := d.BaseRate.Add(d.PerYear.Mul(decimal.NewFromInt(int64(years - d.MinYears))))
	if r.GreaterThan(d.MaxRate) {
		return d.MaxRate
	}
	return r
}

// OneHouseDeduction is the enhanced table for qualifying single-house owners:
// separate holding and residence accruals with a combined cap.
type OneHouseDeduction struct {
	Holding     LinearDeduction
	Residence   LinearDeduction
	CombinedMax decimal.Decimal
}

// Rate returns the combined deduction rate.
func (d OneHouseDeduction) Rate(holdingYears, residenceYears int) decimal.Decimal {
	r := d.Holding.Rate(holdingYears).Add(d.Residence.Rate(residenceYears))
	if r.GreaterThan(d.CombinedMax) {
		return d.CombinedMax
	}
	return r
}

// Exemption is the primary-residence exemption rule.
type Exemption struct {
	MinHoldingYears   int
	MinResidenceYears int
	PriceCap          decimal.Decimal
}

// Surcharge holds the multi-house surcharge points. Three or more houses take
// the heavy surcharge regardless of area; exactly two houses in a regulated
// area take the adjusted-area surcharge.
type Surcharge struct {
	TwoHouseAdjustedPoints decimal.Decimal
	HeavyMinHouseCount     int
	HeavyPoints            decimal.Decimal
}

// ScalarRule wraps a single decimal value (deduction amount or rate).
type ScalarRule struct {
	Value decimal.Decimal
}

// LookupError reports a rule id with no version effective at the requested
// date.
type LookupError struct {
	RuleID string
	AsOf   time.Time
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no version of rule %q effective at %s", e.RuleID, e.AsOf.Format("2006-01-02"))
}
