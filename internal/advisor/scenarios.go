package advisor

import (
	"fmt"

	"github.com/shopspring/decimal"

	"transfer-tax-lab/internal/calculator"
	"transfer-tax-lab/internal/domain"
	"transfer-tax-lab/internal/rules"
)

// buildScenarios evaluates disposal-timing alternatives. "Dispose now" is
// always produced. For a single-house case that misses the exemption today,
// waiting one or two years may unlock it, so the delayed variants are
// evaluated too. Delayed variants assume continued occupancy; without a
// confirmed residence period that assumption cannot be made and the variant
// is marked infeasible.
func buildScenarios(l *domain.FactLedger, snap *rules.Snapshot, now *calculator.Result) ([]domain.Scenario, error) {
	scenarios := []domain.Scenario{{
		ScenarioID:   domain.ScenarioNow,
		Name:         "Dispose now",
		Description:  "Sell at the planned disposal date with the facts as they stand.",
		DisposalDate: l.DisposalDate.Value,
		ExpectedTax:  now.TotalTax,
		TotalCost:    now.TotalTax,
		IsFeasible:   true,
		Pros:         []string{"No waiting period", "No further holding costs"},
		Cons:         []string{"Current tax position applies unchanged"},
	}}

	if l.HouseCountValue() != 1 || now.ExemptionApplied {
		return scenarios, nil
	}

	holdingRate, err := snap.HoldingTaxEstimateRate()
	if err != nil {
		return nil, err
	}

	for _, delay := range []struct {
		id    string
		name  string
		years int
	}{
		{domain.ScenarioDelay1Y, "Delay disposal one year", 1},
		{domain.ScenarioDelay2Y, "Delay disposal two years", 2},
	} {
		sc, err := delayedScenario(l, snap, now, delay.id, delay.name, delay.years, holdingRate.Value)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

func delayedScenario(l *domain.FactLedger, snap *rules.Snapshot, now *calculator.Result, id, name string, years int, holdingRate decimal.Decimal) (domain.Scenario, error) {
	newDate := l.DisposalDate.Value.AddDate(years, 0, 0)
	sc := domain.Scenario{
		ScenarioID:   id,
		Name:         name,
		Description:  fmt.Sprintf("Sell %d year(s) later; holding and residence periods keep accruing.", years),
		DisposalDate: newDate,
	}

	residenceConfirmed := l.FieldConfirmed(domain.FieldResidenceYears)
	if !residenceConfirmed {
		sc.IsFeasible = false
		sc.FeasibilityNotes = "continued-residence credit needs a confirmed residence period"
		sc.ExpectedTax = now.TotalTax
		sc.TotalCost = now.TotalTax
		return sc, nil
	}

	variant := l.NewVersion()
	if err := variant.SetField(domain.FieldDisposalDate, newDate); err != nil {
		return sc, fmt.Errorf("shift disposal date: %w", err)
	}
	if err := variant.SetField(domain.FieldResidenceYears, l.ResidenceYearsValue()+years); err != nil {
		return sc, fmt.Errorf("advance residence period: %w", err)
	}

	res, err := calculator.Calculate(variant, snap)
	if err != nil {
		return sc, fmt.Errorf("evaluate %s: %w", id, err)
	}

	holdingCost := now.DisposalPrice.Mul(holdingRate).Mul(decimal.NewFromInt(int64(years))).Round(0)
	sc.ExpectedTax = res.TotalTax
	sc.TotalCost = res.TotalTax
	sc.AdditionalCosts = map[string]decimal.Decimal{"estimated_holding_tax": holdingCost}
	sc.IsFeasible = true

	saving := now.TotalTax.Sub(res.TotalTax)
	if saving.IsPositive() {
		sc.ExpectedGains = map[string]decimal.Decimal{"tax_saving": saving}
		sc.Pros = append(sc.Pros, fmt.Sprintf("Tax saving of %s versus selling now", saving))
	}
	if res.ExemptionApplied {
		sc.Pros = append(sc.Pros, "Primary-residence exemption unlocked")
	}
	sc.Cons = append(sc.Cons,
		fmt.Sprintf("Estimated holding tax of %s while waiting", holdingCost),
		"Market price risk during the waiting period")
	return sc, nil
}
