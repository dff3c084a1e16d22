package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"transfer-tax-lab/internal/advisor"
	"transfer-tax-lab/internal/rules"
	"transfer-tax-lab/internal/storage/memory"
)

func testServer(t *testing.T) (*Server, *memory.StrategyStore, *memory.AuditStore) {
	t.Helper()
	reg, err := rules.DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	a, err := advisor.New(advisor.Options{Registry: reg})
	if err != nil {
		t.Fatalf("advisor.New: %v", err)
	}
	strategies := memory.NewStrategyStore()
	audit := memory.NewAuditStore()
	s := New(Options{
		Registry:      reg,
		Analyzer:      a,
		LedgerStore:   memory.NewLedgerStore(),
		StrategyStore: strategies,
		AuditStore:    audit,
	})
	return s, strategies, audit
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const baseBody = `{
	"created_by": "advisor-kim",
	"facts": {
		"acquisition_date": "2021-06-01",
		"disposal_date": "2024-07-01",
		"acquisition_price": 200000000,
		"disposal_price": 500000000
	}
}`

func TestHealthz(t *testing.T) {
	s, _, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCalculateEndpoint(t *testing.T) {
	s, _, _ := testServer(t)
	w := post(t, s.Router(), "/api/v1/calculate", baseBody)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	var res struct {
		TotalTax      string `json:"total_tax"`
		TaxableIncome string `json:"taxable_income"`
		RuleVersion   string `json:"rule_version"`
		Trace         []any  `json:"trace"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.TotalTax != "94897000" {
		t.Fatalf("total_tax = %q", res.TotalTax)
	}
	if res.TaxableIncome != "279500000" {
		t.Fatalf("taxable_income = %q", res.TaxableIncome)
	}
	if res.RuleVersion != "2024.1" || len(res.Trace) == 0 {
		t.Fatalf("rule_version %q, trace len %d", res.RuleVersion, len(res.Trace))
	}
}

func TestCalculateRejectsMissingFacts(t *testing.T) {
	s, _, _ := testServer(t)
	w := post(t, s.Router(), "/api/v1/calculate", `{"facts":{"acquisition_date":"2020-01-01"}}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), "disposal_price") {
		t.Fatalf("error body %s must name missing fields", w.Body)
	}
}

func TestCalculateRejectsBadJSON(t *testing.T) {
	s, _, _ := testServer(t)
	w := post(t, s.Router(), "/api/v1/calculate", `{"facts":`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestStrategyEndpoint(t *testing.T) {
	s, _, audit := testServer(t)
	body := `{
		"created_by": "advisor-kim",
		"facts": {
			"acquisition_date": "2023-06-01",
			"disposal_date": "2024-12-01",
			"acquisition_price": 500000000,
			"disposal_price": 1000000000,
			"house_count": 1,
			"residence_period_years": 1
		}
	}`
	w := post(t, s.Router(), "/api/v1/strategy", body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	var res struct {
		StrategyID              string `json:"strategy_id"`
		TransactionID           string `json:"transaction_id"`
		Category                string `json:"category"`
		CategoryDescription     string `json:"category_description"`
		ClassificationReasoning string `json:"classification_reasoning"`
		RecommendedScenarioID   string `json:"recommended_scenario_id"`
		Scenarios               []struct {
			ScenarioID    string `json:"scenario_id"`
			DisposalDate  string `json:"disposal_date"`
			ExpectedTax   string `json:"expected_tax"`
			NetBenefit    string `json:"net_benefit"`
			IsRecommended bool   `json:"is_recommended"`
		} `json:"scenarios"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Category != "single_house_taxable" {
		t.Fatalf("category = %q", res.Category)
	}
	if res.CategoryDescription == "" || res.ClassificationReasoning == "" {
		t.Fatalf("category_description = %q, classification_reasoning = %q",
			res.CategoryDescription, res.ClassificationReasoning)
	}
	if res.RecommendedScenarioID != "SC_DELAY_1Y" {
		t.Fatalf("recommended_scenario_id = %q", res.RecommendedScenarioID)
	}
	if len(res.Scenarios) != 3 {
		t.Fatalf("scenario count = %d", len(res.Scenarios))
	}
	var recommended string
	for _, sc := range res.Scenarios {
		if sc.IsRecommended {
			recommended = sc.ScenarioID
		}
	}
	if recommended != "SC_DELAY_1Y" {
		t.Fatalf("recommended = %q", recommended)
	}

	// Strategy persisted and listable.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/strategies/"+res.TransactionID, nil)
	lw := httptest.NewRecorder()
	s.Router().ServeHTTP(lw, req)
	if lw.Code != http.StatusOK {
		t.Fatalf("list status = %d", lw.Code)
	}
	var list []json.RawMessage
	if err := json.Unmarshal(lw.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("stored strategies = %d", len(list))
	}

	// Calculation archived for the transaction.
	entries, err := audit.ListByTransaction(context.Background(), res.TransactionID)
	if err != nil {
		t.Fatalf("ListByTransaction: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d", len(entries))
	}
}
