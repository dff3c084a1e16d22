package advisor

import (
	"testing"

	"transfer-tax-lab/internal/domain"
	"transfer-tax-lab/internal/rules"
)

var testExemption = rules.Exemption{MinHoldingYears: 2, MinResidenceYears: 2}

func classify(t *testing.T, input map[string]any) (domain.Category, string) {
	t.Helper()
	l, err := domain.NewLedger(input, "tester")
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	cat, ruleID, _ := NewClassifier().Classify(l, testExemption)
	return cat, ruleID
}

func caseInput(extra map[string]any) map[string]any {
	in := map[string]any{
		domain.FieldAcquisitionDate:  "2020-01-01",
		domain.FieldDisposalDate:     "2024-12-01",
		domain.FieldAcquisitionPrice: "500000000",
		domain.FieldDisposalPrice:    "1000000000",
	}
	for k, v := range extra {
		in[k] = v
	}
	return in
}

func TestClassifyPriorities(t *testing.T) {
	cases := []struct {
		name  string
		extra map[string]any
		want  domain.Category
	}{
		{"corporate wins over everything", map[string]any{
			domain.FieldOwnerType:  string(domain.OwnerCorporate),
			domain.FieldHouseCount: 5,
		}, domain.CategoryCorporate},
		{"inheritance before house-count rules", map[string]any{
			domain.FieldAcquisitionType: string(domain.AcquisitionInheritance),
			domain.FieldHouseCount:      3,
		}, domain.CategoryInheritance},
		{"gift is complex", map[string]any{
			domain.FieldAcquisitionType: string(domain.AcquisitionGift),
		}, domain.CategoryComplex},
		{"regulated area beats plain heavy", map[string]any{
			domain.FieldHouseCount:     3,
			domain.FieldIsAdjustedArea: true,
		}, domain.CategoryRegulatedAreaHeavy},
		{"three houses outside regulated areas", map[string]any{
			domain.FieldHouseCount: 3,
		}, domain.CategoryMultiHouseHeavy},
		{"two houses general", map[string]any{
			domain.FieldHouseCount: 2,
		}, domain.CategoryMultiHouseGeneral},
		{"single house exempt", map[string]any{
			domain.FieldHouseCount:     1,
			domain.FieldResidenceYears: 3,
		}, domain.CategorySingleHouseExempt},
		{"single house short residence taxable", map[string]any{
			domain.FieldHouseCount:     1,
			domain.FieldResidenceYears: 1,
		}, domain.CategorySingleHouseTaxable},
		{"defaulted house count counts as single", nil,
			domain.CategorySingleHouseTaxable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := classify(t, caseInput(tc.extra))
			if got != tc.want {
				t.Fatalf("category = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestClassifierCustomRule(t *testing.T) {
	c := NewClassifier(ClassificationRule{
		RuleID:   "CLS_TEST_OVERRIDE",
		Priority: 0,
		Category: domain.CategoryOther,
		Matches:  func(caseFacts) bool { return true },
	})
	l, err := domain.NewLedger(caseInput(nil), "tester")
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	cat, ruleID, _ := c.Classify(l, testExemption)
	if cat != domain.CategoryOther || ruleID != "CLS_TEST_OVERRIDE" {
		t.Fatalf("got %s via %s", cat, ruleID)
	}
}
