package advisor

import "transfer-tax-lab/internal/domain"

// selectRecommendation picks the feasible scenario with the highest net
// benefit. Ties go to the earliest disposal date. Returns ok=false when no
// scenario is feasible.
func selectRecommendation(scenarios []domain.Scenario) (string, bool) {
	var best *domain.Scenario
	for i := range scenarios {
		sc := &scenarios[i]
		if !sc.IsFeasible {
			continue
		}
		if best == nil {
			best = sc
			continue
		}
		switch net, bestNet := sc.NetBenefit(), best.NetBenefit(); {
		case net.GreaterThan(bestNet):
			best = sc
		case net.Equal(bestNet) && sc.DisposalDate.Before(best.DisposalDate):
			best = sc
		}
	}
	if best == nil {
		return "", false
	}
	return best.ScenarioID, true
}
