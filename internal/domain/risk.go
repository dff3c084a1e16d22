package domain

// RiskLevel grades how severe an identified risk is.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Risk is one issue surfaced by the risk analysis, with a suggested
// mitigation. Risks are advisory; they never change the calculated tax.
type Risk struct {
	Level       RiskLevel `json:"level"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Mitigation  string    `json:"mitigation,omitempty"`
}

// MissingInfo describes a fact the analysis would have wanted confirmed.
type MissingInfo struct {
	Field       string `json:"field"`
	Reason      string `json:"reason"`
	Criticality string `json:"criticality"`
	HowToObtain string `json:"how_to_obtain,omitempty"`
}
