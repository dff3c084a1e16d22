// Package advisor builds a disposal strategy from a frozen fact ledger:
// classification, scenario evaluation, risk analysis, and the recommendation.
// Everything except the optional LLM explanation is deterministic.
package advisor

import (
	"sort"

	"transfer-tax-lab/internal/domain"
	"transfer-tax-lab/internal/rules"
)

// ClassificationRule is one predicate in the priority-ordered rule chain.
// Lower priority value fires first; the first match decides the category.
type ClassificationRule struct {
	RuleID      string
	Priority    int
	Description string
	Category    domain.Category
	Matches     func(c caseFacts) bool
}

// caseFacts is the flattened view of the ledger the predicates run against.
type caseFacts struct {
	HouseCount     int
	HoldingYears   int
	ResidenceYears int
	AdjustedArea   bool
	OwnerType      domain.OwnerType
	Acquisition    domain.AcquisitionType

	MinExemptHolding   int
	MinExemptResidence int
}

func defaultClassificationRules() []ClassificationRule {
	return []ClassificationRule{
		{
			RuleID: "CLS_CORPORATE", Priority: 1,
			Description: "corporate owner, outside the individual transfer-income regime",
			Category:    domain.CategoryCorporate,
			Matches:     func(c caseFacts) bool { return c.OwnerType == domain.OwnerCorporate },
		},
		{
			RuleID: "CLS_INHERITANCE", Priority: 2,
			Description: "inherited asset, special holding-period rules apply",
			Category:    domain.CategoryInheritance,
			Matches:     func(c caseFacts) bool { return c.Acquisition == domain.AcquisitionInheritance },
		},
		{
			RuleID: "CLS_GIFT", Priority: 3,
			Description: "gifted asset, mixed acquisition history needs expert review",
			Category:    domain.CategoryComplex,
			Matches:     func(c caseFacts) bool { return c.Acquisition == domain.AcquisitionGift },
		},
		{
			RuleID: "CLS_REGULATED_HEAVY", Priority: 10,
			Description: "multiple houses in a regulated area",
			Category:    domain.CategoryRegulatedAreaHeavy,
			Matches:     func(c caseFacts) bool { return c.HouseCount >= 2 && c.AdjustedArea },
		},
		{
			RuleID: "CLS_MULTI_HEAVY", Priority: 11,
			Description: "three or more houses",
			Category:    domain.CategoryMultiHouseHeavy,
			Matches:     func(c caseFacts) bool { return c.HouseCount >= 3 },
		},
		{
			RuleID: "CLS_MULTI_GENERAL", Priority: 12,
			Description: "two houses outside regulated areas",
			Category:    domain.CategoryMultiHouseGeneral,
			Matches:     func(c caseFacts) bool { return c.HouseCount == 2 },
		},
		{
			RuleID: "CLS_SINGLE_EXEMPT", Priority: 20,
			Description: "single house meeting the exemption conditions",
			Category:    domain.CategorySingleHouseExempt,
			Matches: func(c caseFacts) bool {
				return c.HouseCount == 1 &&
					c.HoldingYears >= c.MinExemptHolding &&
					c.ResidenceYears >= c.MinExemptResidence
			},
		},
		{
			RuleID: "CLS_SINGLE_TAXABLE", Priority: 21,
			Description: "single house, exemption conditions not met",
			Category:    domain.CategorySingleHouseTaxable,
			Matches:     func(c caseFacts) bool { return c.HouseCount == 1 },
		},
	}
}

// Classifier resolves a ledger to a case category via its rule chain.
type Classifier struct {
	rules []ClassificationRule
}

// NewClassifier returns a classifier with the default rule chain. Extra rules
// are merged in and the whole chain sorted by priority.
func NewClassifier(extra ...ClassificationRule) *Classifier {
	rs := append(defaultClassificationRules(), extra...)
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Priority < rs[j].Priority })
	return &Classifier{rules: rs}
}

// Classify returns the category, the firing rule's id, and its description.
// Falls back to CategoryOther when no rule matches.
func (c *Classifier) Classify(l *domain.FactLedger, ex rules.Exemption) (domain.Category, string, string) {
	facts := caseFacts{
		HouseCount:         l.HouseCountValue(),
		HoldingYears:       l.HoldingYears(),
		ResidenceYears:     l.ResidenceYearsValue(),
		AdjustedArea:       l.IsAdjustedAreaValue(),
		MinExemptHolding:   ex.MinHoldingYears,
		MinExemptResidence: ex.MinResidenceYears,
	}
	if l.OwnerType != nil {
		facts.OwnerType = l.OwnerType.Value
	}
	if l.AcquisitionType != nil {
		facts.Acquisition = l.AcquisitionType.Value
	}

	for _, r := range c.rules {
		if r.Matches(facts) {
			return r.Category, r.RuleID, r.Description
		}
	}
	return domain.CategoryOther, "CLS_OTHER", domain.CategoryOther.Description()
}
