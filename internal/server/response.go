package server

import (
	"time"

	"github.com/shopspring/decimal"

	"transfer-tax-lab/internal/calculator"
	"transfer-tax-lab/internal/domain"
)

// strategyDTO is the wire shape of a strategy analysis.
type strategyDTO struct {
	StrategyID    string `json:"strategy_id"`
	TransactionID string `json:"transaction_id"`
	LedgerVersion int    `json:"ledger_version"`

	Category                string   `json:"category"`
	CategoryDescription     string   `json:"category_description"`
	ClassificationReasoning string   `json:"classification_reasoning,omitempty"`
	RulesApplied            []string `json:"rules_applied,omitempty"`

	Calculation *calculator.Result `json:"calculation"`
	Scenarios   []scenarioDTO      `json:"scenarios"`

	RecommendedScenarioID string `json:"recommended_scenario_id"`

	Risks       []domain.Risk        `json:"risks,omitempty"`
	MissingInfo []domain.MissingInfo `json:"missing_info,omitempty"`

	ConfidenceScore float64 `json:"confidence_score"`
	RuleVersion     string  `json:"rule_version"`

	LLMExplanation string    `json:"llm_explanation,omitempty"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}

type scenarioDTO struct {
	ScenarioID       string          `json:"scenario_id"`
	ScenarioName     string          `json:"scenario_name"`
	DisposalDate     string          `json:"disposal_date"`
	ExpectedTax      decimal.Decimal `json:"expected_tax"`
	NetBenefit       decimal.Decimal `json:"net_benefit"`
	IsRecommended    bool            `json:"is_recommended"`
	IsFeasible       bool            `json:"is_feasible"`
	FeasibilityNotes string          `json:"feasibility_notes,omitempty"`
	Pros             []string        `json:"pros,omitempty"`
	Cons             []string        `json:"cons,omitempty"`
}

func strategyResponse(s *domain.Strategy, res *calculator.Result) strategyDTO {
	dto := strategyDTO{
		StrategyID:              s.StrategyID,
		TransactionID:           s.TransactionID,
		LedgerVersion:           s.LedgerVersion,
		Category:                string(s.Category),
		CategoryDescription:     s.Category.Description(),
		ClassificationReasoning: s.CategoryReasoning,
		RulesApplied:            s.RulesApplied,
		Calculation:             res,
		RecommendedScenarioID:   s.RecommendedScenarioID,
		Risks:                   s.Risks,
		MissingInfo:             s.MissingInfo,
		ConfidenceScore:         s.ConfidenceScore,
		RuleVersion:             s.RuleVersion,
		LLMExplanation:          s.LLMExplanation,
		AnalyzedAt:              s.AnalyzedAt,
	}
	for _, sc := range s.Scenarios {
		dto.Scenarios = append(dto.Scenarios, scenarioDTO{
			ScenarioID:       sc.ScenarioID,
			ScenarioName:     sc.Name,
			DisposalDate:     sc.DisposalDate.Format("2006-01-02"),
			ExpectedTax:      sc.ExpectedTax,
			NetBenefit:       sc.NetBenefit(),
			IsRecommended:    s.HasRecommendation && sc.ScenarioID == s.RecommendedScenarioID,
			IsFeasible:       sc.IsFeasible,
			FeasibilityNotes: sc.FeasibilityNotes,
			Pros:             sc.Pros,
			Cons:             sc.Cons,
		})
	}
	return dto
}
