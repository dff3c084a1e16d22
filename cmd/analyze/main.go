// Package main provides a one-shot analysis entry point: a JSON case file of
// facts in, strategy JSON and a markdown report out.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"transfer-tax-lab/internal/advisor"
	"transfer-tax-lab/internal/calculator"
	"transfer-tax-lab/internal/domain"
	"transfer-tax-lab/internal/explain"
	"transfer-tax-lab/internal/reporting"
	"transfer-tax-lab/internal/rules"
)

// caseFile is the expected input: a map of field name to raw value.
type caseFile struct {
	Facts     map[string]any `json:"facts"`
	CreatedBy string         `json:"created_by"`
}

func main() {
	casePath := flag.String("case", "", "Path to the case file (JSON facts)")
	rulePath := flag.String("rules", "", "Optional rule file overriding the embedded defaults")
	outputDir := flag.String("output-dir", ".", "Output directory for generated files")
	geminiKey := flag.String("gemini-api-key", os.Getenv("GEMINI_API_KEY"), "Optional Gemini API key for the plain-language summary")
	flag.Parse()

	if *casePath == "" {
		fmt.Fprintln(os.Stderr, "Error: --case is required")
		flag.Usage()
		os.Exit(1)
	}

	ctx := context.Background()

	registry, err := buildRegistry(*rulePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rules: %v\n", err)
		os.Exit(1)
	}

	var explainer explain.Explainer = explain.Noop{}
	if *geminiKey != "" {
		g, err := explain.NewGemini(ctx, *geminiKey, os.Getenv("GEMINI_MODEL"), 15*time.Second)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: explainer disabled: %v\n", err)
		} else {
			explainer = g
		}
	}

	analyzer, err := advisor.New(advisor.Options{Registry: registry, Explainer: explainer})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ledger, err := loadLedger(*casePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading case: %v\n", err)
		os.Exit(1)
	}
	if err := ledger.Freeze(); err != nil {
		fmt.Fprintf(os.Stderr, "Error freezing ledger: %v\n", err)
		os.Exit(1)
	}

	strategy, result, err := analyzer.Analyze(ctx, ledger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing case: %v\n", err)
		os.Exit(1)
	}

	if err := writeOutputs(*outputDir, strategy, result); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing outputs: %v\n", err)
		os.Exit(1)
	}

	rec := "none"
	if sc, ok := strategy.RecommendedScenario(); ok {
		rec = fmt.Sprintf("%s (%s)", sc.Name, sc.ScenarioID)
	}
	fmt.Printf("Category:      %s\n", strategy.Category)
	fmt.Printf("Tax if sold:   %s\n", result.TotalTax.StringFixed(0))
	fmt.Printf("Recommended:   %s\n", rec)
	fmt.Printf("Rule version:  %s\n", strategy.RuleVersion)
}

func buildRegistry(rulePath string) (*rules.Registry, error) {
	if rulePath == "" {
		return rules.DefaultRegistry()
	}
	data, err := os.ReadFile(rulePath)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	r := rules.NewRegistry()
	if err := rules.Load(r, data); err != nil {
		return nil, err
	}
	return r, nil
}

func loadLedger(path string) (*domain.FactLedger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	var c caseFile
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse case file: %w", err)
	}
	if c.CreatedBy == "" {
		c.CreatedBy = "cli"
	}
	return domain.NewLedger(c.Facts, c.CreatedBy)
}

func writeOutputs(dir string, s *domain.Strategy, res *calculator.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	strategyJSON, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal strategy: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "strategy.json"), strategyJSON, 0o644); err != nil {
		return err
	}

	resultJSON, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal calculation: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "calculation.json"), resultJSON, 0o644); err != nil {
		return err
	}

	report := reporting.RenderMarkdown(s, res)
	return os.WriteFile(filepath.Join(dir, "report.md"), []byte(report), 0o644)
}
