// Package explain turns a finished strategy into a plain-language summary.
// The explanation is advisory text only; it never feeds back into the
// deterministic analysis.
package explain

import (
	"context"
	"fmt"
	"strings"

	"transfer-tax-lab/internal/domain"
)

// Explainer produces a human-readable explanation of a strategy.
type Explainer interface {
	Explain(ctx context.Context, s *domain.Strategy) (string, error)
}

// Noop returns no explanation. Used when no LLM backend is configured.
type Noop struct{}

var _ Explainer = Noop{}

func (Noop) Explain(context.Context, *domain.Strategy) (string, error) {
	return "", nil
}

// BuildPrompt renders the deterministic analysis into the prompt handed to an
// LLM backend. Exported so backends share one prompt shape.
func BuildPrompt(s *domain.Strategy) string {
	var b strings.Builder
	b.WriteString("You are a real-estate tax advisor. Summarize the following transfer-income tax analysis ")
	b.WriteString("for the client in plain language. Do not change any number and do not invent rules.\n\n")
	fmt.Fprintf(&b, "Case category: %s (%s)\n", s.Category, s.Category.Description())
	if s.CategoryReasoning != "" {
		fmt.Fprintf(&b, "Classification reasoning: %s\n", s.CategoryReasoning)
	}
	fmt.Fprintf(&b, "Rule version: %s\n\n", s.RuleVersion)

	b.WriteString("Scenarios:\n")
	for _, sc := range s.Scenarios {
		marker := " "
		if s.HasRecommendation && sc.ScenarioID == s.RecommendedScenarioID {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s: disposal %s, expected tax %s, net benefit %s, feasible %v\n",
			marker, sc.Name, sc.DisposalDate.Format("2006-01-02"), sc.ExpectedTax, sc.NetBenefit(), sc.IsFeasible)
	}
	if len(s.Risks) > 0 {
		b.WriteString("\nRisks:\n")
		for _, r := range s.Risks {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", r.Level, r.Title, r.Description)
		}
	}
	if len(s.MissingInfo) > 0 {
		b.WriteString("\nUnconfirmed or missing information:\n")
		for _, m := range s.MissingInfo {
			fmt.Fprintf(&b, "- %s: %s\n", m.Field, m.Reason)
		}
	}
	return b.String()
}
