package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"transfer-tax-lab/internal/domain"
	"transfer-tax-lab/internal/rules"
)

// Calculate runs the tax pipeline for one ledger against one rule snapshot.
//
// Pipeline order: capital gain, primary-residence exemption (full below the
// price cap, proportional above it), long-term holding deduction, basic
// deduction, rate selection (short-term flat or progressive), multi-house
// surcharge, local tax. Every step lands in the trace.
func Calculate(l *domain.FactLedger, snap *rules.Snapshot) (*Result, error) {
	if l.AcquisitionDate == nil || l.DisposalDate == nil ||
		l.AcquisitionPrice == nil || l.DisposalPrice == nil {
		return nil, &domain.ValidationError{
			Fields: domain.RequiredFields,
			Reason: "calculation needs the four core facts",
		}
	}

	tr := &tracer{}
	res := &Result{
		DisposalPrice:     l.DisposalPrice.Value,
		AcquisitionPrice:  l.AcquisitionPrice.Value,
		NecessaryExpenses: l.NecessaryExpensesTotal(),
		RuleVersion:       snap.Version(),
	}
	applied := map[string]bool{}
	use := func(ruleID string) string {
		label := snap.AppliedRule(ruleID)
		if !applied[label] {
			applied[label] = true
			res.AppliedRules = append(res.AppliedRules, label)
		}
		return label
	}

	holdingYears := l.HoldingYears()
	residenceYears := l.ResidenceYearsValue()
	houseCount := l.HouseCountValue()

	// Step 1: capital gain.
	gain := res.DisposalPrice.Sub(res.AcquisitionPrice).Sub(res.NecessaryExpenses)
	res.CapitalGain = gain
	tr.add("capital_gain",
		fmt.Sprintf("disposal %s - acquisition %s - expenses %s", res.DisposalPrice, res.AcquisitionPrice, res.NecessaryExpenses),
		gain, "")
	if !gain.IsPositive() {
		tr.add("no_gain", "no taxable gain, tax is zero", decimal.Zero, "")
		return finish(res, tr, snap)
	}

	// Step 2: primary-residence exemption.
	res.TaxableGain = gain
	exemption, err := snap.Exemption()
	if err != nil {
		return nil, err
	}
	qualifies := houseCount == 1 &&
		holdingYears >= exemption.MinHoldingYears &&
		residenceYears >= exemption.MinResidenceYears
	if qualifies {
		rule := use(rules.RuleExemptionOneHouse)
		res.ExemptionApplied = true
		if res.DisposalPrice.LessThanOrEqual(exemption.PriceCap) {
			tr.add("exemption", "primary-residence exemption, disposal at or below price cap", decimal.Zero, rule)
			res.TaxableGain = decimal.Zero
			return finish(res, tr, snap)
		}
		// Only the portion of the gain above the cap stays taxable.
		excessRatio := res.DisposalPrice.Sub(exemption.PriceCap).Div(res.DisposalPrice)
		res.TaxableGain = gain.Mul(excessRatio)
		tr.add("exemption",
			fmt.Sprintf("disposal above price cap %s, taxable portion %s of the gain", exemption.PriceCap, excessRatio),
			res.TaxableGain, rule)
	}

	// Step 3: long-term holding deduction. The enhanced single-house table
	// applies only when the exemption conditions are met.
	var dedRate decimal.Decimal
	if qualifies {
		oneHouse, err := snap.LongTermOneHouse()
		if err != nil {
			return nil, err
		}
		dedRate = oneHouse.Rate(holdingYears, residenceYears)
		if dedRate.IsPositive() {
			tr.add("long_term_deduction",
				fmt.Sprintf("single-house table, %d years held, %d resided, rate %s", holdingYears, residenceYears, dedRate),
				res.TaxableGain.Mul(dedRate), use(rules.RuleLongTermOneHouse))
		}
	} else {
		general, err := snap.LongTermGeneral()
		if err != nil {
			return nil, err
		}
		dedRate = general.Rate(holdingYears)
		if dedRate.IsPositive() {
			tr.add("long_term_deduction",
				fmt.Sprintf("general table, %d years held, rate %s", holdingYears, dedRate),
				res.TaxableGain.Mul(dedRate), use(rules.RuleLongTermGeneral))
		}
	}
	res.LongTermDeduction = res.TaxableGain.Mul(dedRate)

	// Step 4: basic deduction, floor at zero.
	basic, err := snap.BasicDeduction()
	if err != nil {
		return nil, err
	}
	res.BasicDeduction = basic.Value
	taxable := res.TaxableGain.Sub(res.LongTermDeduction).Sub(basic.Value)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	res.TaxableIncome = taxable
	tr.add("taxable_income",
		fmt.Sprintf("taxable gain %s - deduction %s - basic %s", res.TaxableGain, res.LongTermDeduction, basic.Value),
		taxable, use(rules.RuleBasicDeduction))

	// Step 5: rate selection.
	var tax decimal.Decimal
	switch {
	case holdingYears < 2:
		short, err := snap.ShortTermRates()
		if err != nil {
			return nil, err
		}
		rate := shortTermRate(short, l.AssetTypeValue(), holdingYears)
		res.AppliedTaxRate = rate
		tax = taxable.Mul(rate)
		tr.add("short_term_rate",
			fmt.Sprintf("held under %d year(s), flat rate %s for %s assets", holdingYears+1, rate, l.AssetTypeValue()),
			tax, use(rules.RuleShortTermRates))
	default:
		brackets, err := snap.Brackets()
		if err != nil {
			return nil, err
		}
		bracket := findBracket(brackets, taxable)
		rate := bracket.Rate
		bracketRule := use(rules.RuleProgressiveBrackets)

		// Step 6: multi-house surcharge points on the progressive rate.
		surcharge, err := snap.Surcharge()
		if err != nil {
			return nil, err
		}
		var points decimal.Decimal
		switch {
		case houseCount >= surcharge.HeavyMinHouseCount:
			points = surcharge.HeavyPoints
		case houseCount == 2 && l.IsAdjustedAreaValue():
			points = surcharge.TwoHouseAdjustedPoints
		}
		if points.IsPositive() {
			rate = rate.Add(points)
			tr.add("surcharge",
				fmt.Sprintf("%d houses, %s surcharge points", houseCount, points),
				points, use(rules.RuleSurchargeMultiHouse))
		}

		res.AppliedTaxRate = rate
		tax = taxable.Mul(rate).Sub(bracket.Offset)
		if tax.IsNegative() {
			tax = decimal.Zero
		}
		tr.add("progressive_tax",
			fmt.Sprintf("rate %s, offset %s", rate, bracket.Offset),
			tax, bracketRule)
	}
	res.CalculatedTax = tax

	return finish(res, tr, snap)
}

// finish computes local tax, assembles the breakdown, and checks invariants.
func finish(res *Result, tr *tracer, snap *rules.Snapshot) (*Result, error) {
	local, err := snap.LocalIncomeTaxRate()
	if err != nil {
		return nil, err
	}
	res.LocalTax = res.CalculatedTax.Mul(local.Value).Round(0)
	res.TotalTax = res.CalculatedTax.Add(res.LocalTax)
	if res.CalculatedTax.IsPositive() {
		tr.add("local_tax",
			fmt.Sprintf("%s of calculated tax", local.Value),
			res.LocalTax, snap.AppliedRule(rules.RuleLocalIncomeTax))
		res.AppliedRules = append(res.AppliedRules, snap.AppliedRule(rules.RuleLocalIncomeTax))
	}
	tr.add("total_tax", "calculated tax plus local tax", res.TotalTax, "")

	if res.TotalTax.IsNegative() {
		return nil, &InvariantError{Step: "total_tax", Msg: fmt.Sprintf("negative total %s", res.TotalTax)}
	}
	if res.TotalTax.IsPositive() && res.TaxableIncome.IsZero() && res.CalculatedTax.IsPositive() {
		return nil, &InvariantError{Step: "total_tax", Msg: "positive tax on zero taxable income"}
	}

	res.Breakdown = []BreakdownLine{
		{Label: "capital_gain", Amount: res.CapitalGain},
		{Label: "taxable_gain", Amount: res.TaxableGain},
		{Label: "long_term_deduction", Amount: res.LongTermDeduction},
		{Label: "basic_deduction", Amount: res.BasicDeduction},
		{Label: "taxable_income", Amount: res.TaxableIncome},
		{Label: "calculated_tax", Amount: res.CalculatedTax},
		{Label: "local_tax", Amount: res.LocalTax},
		{Label: "total_tax", Amount: res.TotalTax},
	}
	res.Trace = tr.steps
	return res, nil
}

func shortTermRate(r rules.ShortTermRates, asset domain.AssetType, holdingYears int) decimal.Decimal {
	if asset == domain.AssetNonResidential {
		if holdingYears < 1 {
			return r.NonResidentialUnder1Y
		}
		return r.NonResidential1To2Y
	}
	if holdingYears < 1 {
		return r.ResidentialUnder1Y
	}
	return r.Residential1To2Y
}

func findBracket(brackets []rules.Bracket, taxable decimal.Decimal) rules.Bracket {
	for _, b := range brackets {
		if b.UpTo == nil || taxable.LessThanOrEqual(*b.UpTo) {
			return b
		}
	}
	// Load validation guarantees an open-ended top band.
	return brackets[len(brackets)-1]
}
