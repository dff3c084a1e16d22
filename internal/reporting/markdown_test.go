package reporting

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"transfer-tax-lab/internal/calculator"
	"transfer-tax-lab/internal/domain"
)

func TestRenderMarkdown(t *testing.T) {
	s := &domain.Strategy{
		StrategyID:        "s-1",
		TransactionID:     "tx-1",
		LedgerVersion:     1,
		Category:          domain.CategorySingleHouseTaxable,
		CategoryReasoning: "single house, exemption conditions not met",
		RulesApplied:      []string{"CLS_SINGLE_TAXABLE", "progressive_brackets@2024.1"},
		Scenarios: []domain.Scenario{
			{
				ScenarioID:   domain.ScenarioNow,
				Name:         "Dispose now",
				DisposalDate: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
				ExpectedTax:  decimal.NewFromInt(94_897_000),
				TotalCost:    decimal.NewFromInt(94_897_000),
				IsFeasible:   true,
			},
			{
				ScenarioID:       domain.ScenarioDelay1Y,
				Name:             "Delay disposal one year",
				DisposalDate:     time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
				IsFeasible:       false,
				FeasibilityNotes: "continued-residence credit needs a confirmed residence period",
			},
		},
		RecommendedScenarioID: domain.ScenarioNow,
		HasRecommendation:     true,
		Risks: []domain.Risk{
			{Level: domain.RiskMedium, Title: "Large capital gain", Description: "gain above threshold", Mitigation: "expert review"},
		},
		MissingInfo: []domain.MissingInfo{
			{Field: domain.FieldResidenceYears, Reason: "unknown", Criticality: "high", HowToObtain: "resident registration record"},
		},
		ConfidenceScore: 1.0,
		RuleVersion:     "2024.1",
		AnalyzedAt:      time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC),
	}
	res := &calculator.Result{
		AppliedTaxRate: decimal.RequireFromString("0.38"),
		Breakdown: []calculator.BreakdownLine{
			{Label: "capital_gain", Amount: decimal.NewFromInt(300_000_000)},
			{Label: "total_tax", Amount: decimal.NewFromInt(94_897_000)},
		},
	}

	md := RenderMarkdown(s, res)

	for _, want := range []string{
		"# Transfer-Income Tax Strategy",
		"single_house_taxable",
		"| capital_gain | 300000000 |",
		"| Dispose now | 2024-12-01 | 94897000 |",
		"| Delay disposal one year | 2025-12-01 |",
		"Large capital gain",
		"residence_period_years",
		"progressive_brackets@2024.1",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("report missing %q\n---\n%s", want, md)
		}
	}

	if strings.Contains(md, "Plain-Language Summary") {
		t.Fatal("no explanation section expected without an explanation")
	}

	s.LLMExplanation = "You would owe about 95 million won if you sell now."
	md = RenderMarkdown(s, res)
	if !strings.Contains(md, "Plain-Language Summary") {
		t.Fatal("explanation section missing")
	}
}
