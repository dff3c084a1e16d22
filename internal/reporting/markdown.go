// Package reporting renders a strategy and its calculation into a
// human-readable markdown report.
package reporting

import (
	"fmt"
	"strings"
	"time"

	"transfer-tax-lab/internal/calculator"
	"transfer-tax-lab/internal/domain"
)

// RenderMarkdown renders the analysis as a Markdown string.
func RenderMarkdown(s *domain.Strategy, res *calculator.Result) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Transfer-Income Tax Strategy\n\n")
	sb.WriteString(fmt.Sprintf("Transaction: %s (ledger v%d)\n\n", s.TransactionID, s.LedgerVersion))
	sb.WriteString(fmt.Sprintf("Analyzed: %s | Rule version: %s | Confidence: %.2f\n\n",
		s.AnalyzedAt.Format(time.RFC3339), s.RuleVersion, s.ConfidenceScore))

	// Classification
	sb.WriteString("## Classification\n\n")
	sb.WriteString(fmt.Sprintf("**%s**: %s\n\n", s.Category, s.Category.Description()))
	if s.CategoryReasoning != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", s.CategoryReasoning))
	}

	// Current position
	sb.WriteString("## Tax If Sold Now\n\n")
	sb.WriteString("| Item | Amount |\n")
	sb.WriteString("|------|--------|\n")
	for _, line := range res.Breakdown {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", line.Label, line.Amount.StringFixed(0)))
	}
	sb.WriteString(fmt.Sprintf("\nApplied rate: %s", res.AppliedTaxRate))
	if res.ExemptionApplied {
		sb.WriteString(" (primary-residence exemption applied)")
	}
	sb.WriteString("\n\n")

	// Scenarios
	sb.WriteString("## Scenarios\n\n")
	sb.WriteString("| Scenario | Disposal Date | Expected Tax | Net Benefit | Feasible | Recommended |\n")
	sb.WriteString("|----------|---------------|--------------|-------------|----------|-------------|\n")
	for _, sc := range s.Scenarios {
		recommended := ""
		if s.HasRecommendation && sc.ScenarioID == s.RecommendedScenarioID {
			recommended = "yes"
		}
		feasible := "yes"
		if !sc.IsFeasible {
			feasible = "no"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			sc.Name, sc.DisposalDate.Format("2006-01-02"),
			sc.ExpectedTax.StringFixed(0), sc.NetBenefit().StringFixed(0),
			feasible, recommended))
	}
	sb.WriteString("\n")
	for _, sc := range s.Scenarios {
		if len(sc.Pros) == 0 && len(sc.Cons) == 0 && sc.FeasibilityNotes == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("### %s\n\n", sc.Name))
		for _, p := range sc.Pros {
			sb.WriteString(fmt.Sprintf("- Pro: %s\n", p))
		}
		for _, c := range sc.Cons {
			sb.WriteString(fmt.Sprintf("- Con: %s\n", c))
		}
		if sc.FeasibilityNotes != "" {
			sb.WriteString(fmt.Sprintf("- Note: %s\n", sc.FeasibilityNotes))
		}
		sb.WriteString("\n")
	}

	// Risks
	sb.WriteString("## Risks\n\n")
	if len(s.Risks) > 0 {
		sb.WriteString("| Level | Risk | Mitigation |\n")
		sb.WriteString("|-------|------|------------|\n")
		for _, r := range s.Risks {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", r.Level, r.Title, r.Mitigation))
		}
		sb.WriteString("\n")
		for _, r := range s.Risks {
			sb.WriteString(fmt.Sprintf("- **%s**: %s\n", r.Title, r.Description))
		}
	} else {
		sb.WriteString("No risks identified.\n")
	}
	sb.WriteString("\n")

	// Missing information
	if len(s.MissingInfo) > 0 {
		sb.WriteString("## Information To Confirm\n\n")
		sb.WriteString("| Field | Why It Matters | Criticality | How To Obtain |\n")
		sb.WriteString("|-------|----------------|-------------|---------------|\n")
		for _, m := range s.MissingInfo {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				m.Field, m.Reason, m.Criticality, m.HowToObtain))
		}
		sb.WriteString("\n")
	}

	// Applied rules
	sb.WriteString("## Applied Rules\n\n")
	for _, r := range s.RulesApplied {
		sb.WriteString(fmt.Sprintf("- %s\n", r))
	}
	sb.WriteString("\n")

	// Optional explanation
	if s.LLMExplanation != "" {
		sb.WriteString("## Plain-Language Summary\n\n")
		sb.WriteString(s.LLMExplanation)
		sb.WriteString("\n")
	}

	return sb.String()
}
