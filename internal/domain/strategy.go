package domain

import "time"

// Strategy is the aggregate result of one analysis run: classification,
// evaluated scenarios, recommendation, risks, and the rule snapshot version
// that produced it. Reproducible: the same frozen ledger and rule version
// always yield the same strategy (modulo the optional LLM explanation).
type Strategy struct {
	StrategyID    string `json:"strategy_id"`
	TransactionID string `json:"transaction_id"`
	LedgerVersion int    `json:"ledger_version"`

	Category          Category `json:"category"`
	CategoryReasoning string   `json:"classification_reasoning,omitempty"`
	RulesApplied      []string `json:"rules_applied,omitempty"`

	Scenarios             []Scenario `json:"scenarios"`
	RecommendedScenarioID string     `json:"recommended_scenario_id,omitempty"`
	HasRecommendation     bool       `json:"has_recommendation"`

	Risks       []Risk        `json:"risks,omitempty"`
	MissingInfo []MissingInfo `json:"missing_info,omitempty"`

	ConfidenceScore float64 `json:"confidence_score"`
	RuleVersion     string  `json:"rule_version"`

	LLMExplanation string `json:"llm_explanation,omitempty"`

	AnalyzedAt time.Time `json:"analyzed_at"`
}

// RecommendedScenario returns the recommended scenario, if any.
func (s *Strategy) RecommendedScenario() (Scenario, bool) {
	if !s.HasRecommendation {
		return Scenario{}, false
	}
	for _, sc := range s.Scenarios {
		if sc.ScenarioID == s.RecommendedScenarioID {
			return sc, true
		}
	}
	return Scenario{}, false
}
