package advisor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"transfer-tax-lab/internal/domain"
	"transfer-tax-lab/internal/explain"
	"transfer-tax-lab/internal/rules"
)

func newAnalyzer(t *testing.T, ex explain.Explainer) *Analyzer {
	t.Helper()
	reg, err := rules.DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	a, err := New(Options{Registry: reg, Explainer: ex})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func frozenLedger(t *testing.T, input map[string]any) *domain.FactLedger {
	t.Helper()
	l, err := domain.NewLedger(input, "tester")
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	for _, f := range l.UnconfirmedFields() {
		if err := l.ConfirmField(f, "tester"); err != nil {
			t.Fatalf("ConfirmField %s: %v", f, err)
		}
	}
	if err := l.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	return l
}

func TestAnalyzeRequiresFrozenLedger(t *testing.T) {
	a := newAnalyzer(t, nil)
	l, err := domain.NewLedger(caseInput(nil), "tester")
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}

	_, _, err = a.Analyze(context.Background(), l)
	if !errors.Is(err, domain.ErrNotFrozen) {
		t.Fatalf("error = %v, want ErrNotFrozen", err)
	}
}

func TestAnalyzeExemptSingleHouse(t *testing.T) {
	a := newAnalyzer(t, nil)
	l := frozenLedger(t, caseInput(map[string]any{
		domain.FieldHouseCount:     1,
		domain.FieldResidenceYears: 3,
		domain.FieldIsAdjustedArea: false,
	}))

	s, res, err := a.Analyze(context.Background(), l)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if s.Category != domain.CategorySingleHouseExempt {
		t.Fatalf("category = %s", s.Category)
	}
	if !res.TotalTax.IsZero() {
		t.Fatalf("total tax = %s, want 0", res.TotalTax)
	}
	if len(s.Scenarios) != 1 || s.Scenarios[0].ScenarioID != domain.ScenarioNow {
		t.Fatalf("scenarios = %+v, want only the now scenario", s.Scenarios)
	}
	if !s.HasRecommendation || s.RecommendedScenarioID != domain.ScenarioNow {
		t.Fatalf("recommendation = %q (%v)", s.RecommendedScenarioID, s.HasRecommendation)
	}
	if s.ConfidenceScore != 1.0 {
		t.Fatalf("confidence = %v", s.ConfidenceScore)
	}
	if s.RuleVersion == "" {
		t.Fatal("strategy must carry the rule version")
	}
}

func TestAnalyzeHeavySurchargeCase(t *testing.T) {
	a := newAnalyzer(t, nil)
	l := frozenLedger(t, caseInput(map[string]any{
		domain.FieldHouseCount:     3,
		domain.FieldIsAdjustedArea: true,
	}))

	s, res, err := a.Analyze(context.Background(), l)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if s.Category != domain.CategoryRegulatedAreaHeavy {
		t.Fatalf("category = %s", s.Category)
	}
	if !res.TotalTax.Equal(decimal.NewFromInt(323_741_000)) {
		t.Fatalf("total tax = %s", res.TotalTax)
	}
	// Multi-house cases get no delayed variants.
	if len(s.Scenarios) != 1 {
		t.Fatalf("scenario count = %d", len(s.Scenarios))
	}
	var surchargeRisk bool
	for _, r := range s.Risks {
		if r.Level == domain.RiskHigh && r.Title == "Regulated-area surcharge exposure" {
			surchargeRisk = true
		}
	}
	if !surchargeRisk {
		t.Fatalf("risks = %+v, want surcharge exposure", s.Risks)
	}
}

func TestAnalyzeDelayUnlocksExemption(t *testing.T) {
	a := newAnalyzer(t, nil)
	// One year held, one year resided: exempt after waiting one more year.
	l := frozenLedger(t, map[string]any{
		domain.FieldAcquisitionDate:  "2023-06-01",
		domain.FieldDisposalDate:     "2024-12-01",
		domain.FieldAcquisitionPrice: "500000000",
		domain.FieldDisposalPrice:    "1000000000",
		domain.FieldHouseCount:       1,
		domain.FieldResidenceYears:   1,
	})

	s, res, err := a.Analyze(context.Background(), l)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if s.Category != domain.CategorySingleHouseTaxable {
		t.Fatalf("category = %s", s.Category)
	}
	if !res.TotalTax.IsPositive() {
		t.Fatal("selling now must be taxed")
	}
	if len(s.Scenarios) != 3 {
		t.Fatalf("scenario count = %d, want 3", len(s.Scenarios))
	}

	byID := map[string]domain.Scenario{}
	for _, sc := range s.Scenarios {
		byID[sc.ScenarioID] = sc
	}
	delay1 := byID[domain.ScenarioDelay1Y]
	if !delay1.IsFeasible {
		t.Fatalf("delay-1y infeasible: %s", delay1.FeasibilityNotes)
	}
	if !delay1.ExpectedTax.IsZero() {
		t.Fatalf("delay-1y expected tax = %s, want 0 (exemption unlocked)", delay1.ExpectedTax)
	}
	if s.RecommendedScenarioID != domain.ScenarioDelay1Y {
		t.Fatalf("recommended = %q, want %q", s.RecommendedScenarioID, domain.ScenarioDelay1Y)
	}
	// Waiting two years buys nothing extra but costs more holding tax.
	delay2 := byID[domain.ScenarioDelay2Y]
	if delay2.NetBenefit().GreaterThan(delay1.NetBenefit()) {
		t.Fatal("delay-2y must not beat delay-1y here")
	}
}

func TestAnalyzeUnconfirmedResidenceBlocksDelays(t *testing.T) {
	a := newAnalyzer(t, nil)
	in := map[string]any{
		domain.FieldAcquisitionDate:  "2023-06-01",
		domain.FieldDisposalDate:     "2024-12-01",
		domain.FieldAcquisitionPrice: "500000000",
		domain.FieldDisposalPrice:    "1000000000",
		domain.FieldHouseCount:       1,
		domain.FieldResidenceYears:   domain.NewEstimatedFact(1, 0.6, domain.SourceDocument, "ocr"),
	}
	l, err := domain.NewLedger(in, "tester")
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	if err := l.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	s, _, err := a.Analyze(context.Background(), l)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	for _, sc := range s.Scenarios {
		if sc.ScenarioID != domain.ScenarioNow && sc.IsFeasible {
			t.Fatalf("%s feasible despite unconfirmed residence", sc.ScenarioID)
		}
	}
	if s.RecommendedScenarioID != domain.ScenarioNow {
		t.Fatalf("recommended = %q, want now", s.RecommendedScenarioID)
	}
	var unverifiedRisk bool
	for _, r := range s.Risks {
		if r.Title == "Unverified classification facts" {
			unverifiedRisk = true
		}
	}
	if !unverifiedRisk {
		t.Fatalf("risks = %+v, want unverified-facts risk", s.Risks)
	}
}

func TestAnalyzeGainRiskThresholdConfigurable(t *testing.T) {
	reg, err := rules.DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	hasGainRisk := func(s *domain.Strategy) bool {
		for _, r := range s.Risks {
			if r.Title == "Large capital gain" {
				return true
			}
		}
		return false
	}

	// Gain of exactly 500M does not exceed the default threshold.
	a := newAnalyzer(t, nil)
	s, _, err := a.Analyze(context.Background(), frozenLedger(t, caseInput(nil)))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if hasGainRisk(s) {
		t.Fatalf("risks = %+v, gain at the default threshold must not trigger", s.Risks)
	}

	tuned, err := New(Options{
		Registry:           reg,
		LargeGainThreshold: decimal.NewFromInt(100_000_000),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, _, err = tuned.Analyze(context.Background(), frozenLedger(t, caseInput(nil)))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !hasGainRisk(s) {
		t.Fatalf("risks = %+v, want large-gain risk above the tuned threshold", s.Risks)
	}
}

type stubExplainer struct {
	text string
	err  error
}

func (s stubExplainer) Explain(context.Context, *domain.Strategy) (string, error) {
	return s.text, s.err
}

func TestAnalyzeExplainerFailureAbsorbed(t *testing.T) {
	a := newAnalyzer(t, stubExplainer{err: fmt.Errorf("backend down")})
	l := frozenLedger(t, caseInput(nil))

	s, _, err := a.Analyze(context.Background(), l)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if s.LLMExplanation != "" {
		t.Fatalf("explanation = %q, want empty on failure", s.LLMExplanation)
	}
}

func TestAnalyzeExplainerTextAttached(t *testing.T) {
	a := newAnalyzer(t, stubExplainer{text: "plain-language summary"})
	l := frozenLedger(t, caseInput(nil))

	s, _, err := a.Analyze(context.Background(), l)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if s.LLMExplanation != "plain-language summary" {
		t.Fatalf("explanation = %q", s.LLMExplanation)
	}
}
