package advisor

import (
	"fmt"

	"github.com/shopspring/decimal"

	"transfer-tax-lab/internal/domain"
)

// defaultLargeGainThreshold is the gain above which a review risk is raised
// when the operator configures no threshold.
var defaultLargeGainThreshold = decimal.NewFromInt(500_000_000)

// classificationFields drive the category and surcharge outcome; leaving any
// of them unverified can flip the whole strategy.
var classificationFields = []string{
	domain.FieldHouseCount,
	domain.FieldResidenceYears,
	domain.FieldIsAdjustedArea,
}

// analyzeRisks runs the independent risk rules against the ledger and the
// computed gain. Rules only append; they never affect the tax numbers.
func analyzeRisks(l *domain.FactLedger, gain, gainThreshold decimal.Decimal) []domain.Risk {
	var risks []domain.Risk

	if gain.GreaterThan(gainThreshold) {
		risks = append(risks, domain.Risk{
			Level:       domain.RiskMedium,
			Title:       "Large capital gain",
			Description: fmt.Sprintf("The capital gain of %s exceeds %s; assessment errors carry a high cost.", gain, gainThreshold),
			Mitigation:  "Have a certified tax accountant review the figures before filing.",
		})
	}

	var unverified []string
	for _, name := range classificationFields {
		if l.FieldPresent(name) && !l.FieldConfirmed(name) {
			unverified = append(unverified, name)
		}
	}
	if len(unverified) > 0 {
		risks = append(risks, domain.Risk{
			Level:       domain.RiskHigh,
			Title:       "Unverified classification facts",
			Description: fmt.Sprintf("Fields %v are estimates; the case category and surcharge depend on them.", unverified),
			Mitigation:  "Confirm the fields against the building register and resident registration records.",
		})
	}

	if l.IsAdjustedAreaValue() && l.HouseCountValue() >= 2 {
		risks = append(risks, domain.Risk{
			Level:       domain.RiskHigh,
			Title:       "Regulated-area surcharge exposure",
			Description: "Multiple houses in a regulated area attract surcharge points on top of the progressive rate.",
			Mitigation:  "Check whether disposing of another property first changes the house count at disposal.",
		})
	}

	return risks
}

// collectMissingInfo lists absent or unconfirmed facts worth chasing before
// acting on the strategy.
func collectMissingInfo(l *domain.FactLedger) []domain.MissingInfo {
	var out []domain.MissingInfo
	add := func(field, reason, criticality, how string) {
		out = append(out, domain.MissingInfo{
			Field: field, Reason: reason, Criticality: criticality, HowToObtain: how,
		})
	}

	if !l.FieldPresent(domain.FieldHouseCount) {
		add(domain.FieldHouseCount,
			"house count defaulted to 1; a higher count changes the category and rate",
			"high", "property ownership certificate")
	}
	if !l.FieldPresent(domain.FieldResidenceYears) {
		add(domain.FieldResidenceYears,
			"residence period unknown; exemption and enhanced deduction depend on it",
			"high", "resident registration record")
	}
	if !l.FieldPresent(domain.FieldIsAdjustedArea) {
		add(domain.FieldIsAdjustedArea,
			"regulated-area status unknown; surcharge depends on it",
			"medium", "ministry land-use notice for the property's district")
	}
	for _, name := range l.UnconfirmedFields() {
		add(name, "value is present but not confirmed", "medium", "confirm with the client or source document")
	}
	return out
}
