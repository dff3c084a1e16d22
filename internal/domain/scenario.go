package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Well-known scenario identifiers.
const (
	ScenarioNow     = "SC_NOW"
	ScenarioDelay1Y = "SC_DELAY_1Y"
	ScenarioDelay2Y = "SC_DELAY_2Y"
)

// Scenario is one disposal-timing alternative evaluated through the tax
// pipeline. Monetary maps are keyed by a short label describing the item.
type Scenario struct {
	ScenarioID   string    `json:"scenario_id"`
	Name         string    `json:"scenario_name"`
	Description  string    `json:"description,omitempty"`
	DisposalDate time.Time `json:"disposal_date"`

	ExpectedTax     decimal.Decimal            `json:"expected_tax"`
	TotalCost       decimal.Decimal            `json:"total_cost"`
	AdditionalCosts map[string]decimal.Decimal `json:"additional_costs,omitempty"`
	ExpectedGains   map[string]decimal.Decimal `json:"expected_gains,omitempty"`

	Pros []string `json:"pros,omitempty"`
	Cons []string `json:"cons,omitempty"`

	IsFeasible       bool   `json:"is_feasible"`
	FeasibilityNotes string `json:"feasibility_notes,omitempty"`
}

// NetBenefit is the sum of expected gains minus total cost and every
// additional cost. Higher is better.
func (s Scenario) NetBenefit() decimal.Decimal {
	net := decimal.Zero
	for _, g := range s.ExpectedGains {
		net = net.Add(g)
	}
	net = net.Sub(s.TotalCost)
	for _, c := range s.AdditionalCosts {
		net = net.Sub(c)
	}
	return net
}
