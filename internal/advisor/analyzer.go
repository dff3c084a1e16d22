package advisor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"transfer-tax-lab/internal/calculator"
	"transfer-tax-lab/internal/domain"
	"transfer-tax-lab/internal/explain"
	"transfer-tax-lab/internal/rules"
)

// Options configures an Analyzer. Registry is required; the zero Explainer
// means no explanation is produced. A zero LargeGainThreshold falls back to
// the 500M default.
type Options struct {
	Registry   *rules.Registry
	Classifier *Classifier
	Explainer  explain.Explainer

	// LargeGainThreshold is the capital gain above which a professional-review
	// risk is attached to the strategy.
	LargeGainThreshold decimal.Decimal
}

// Analyzer runs the full strategy pipeline over a frozen ledger.
type Analyzer struct {
	registry      *rules.Registry
	classifier    *Classifier
	explainer     explain.Explainer
	gainThreshold decimal.Decimal
}

func New(opts Options) (*Analyzer, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("analyzer needs a rule registry")
	}
	a := &Analyzer{
		registry:      opts.Registry,
		classifier:    opts.Classifier,
		explainer:     opts.Explainer,
		gainThreshold: opts.LargeGainThreshold,
	}
	if a.classifier == nil {
		a.classifier = NewClassifier()
	}
	if a.explainer == nil {
		a.explainer = explain.Noop{}
	}
	if a.gainThreshold.IsZero() {
		a.gainThreshold = defaultLargeGainThreshold
	}
	return a, nil
}

// Analyze produces the strategy and the "dispose now" calculation for one
// frozen ledger. The rule snapshot is resolved once, at the ledger's disposal
// date, and every scenario is evaluated against it. An explainer failure is
// absorbed: the strategy is complete without the explanation.
func (a *Analyzer) Analyze(ctx context.Context, l *domain.FactLedger) (*domain.Strategy, *calculator.Result, error) {
	if !l.IsFrozen() {
		return nil, nil, domain.ErrNotFrozen
	}

	snap, err := a.registry.Snapshot(l.DisposalDate.Value)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve rule snapshot: %w", err)
	}

	now, err := calculator.Calculate(l, snap)
	if err != nil {
		return nil, nil, fmt.Errorf("calculate current position: %w", err)
	}

	exemption, err := snap.Exemption()
	if err != nil {
		return nil, nil, err
	}
	category, ruleID, reasoning := a.classifier.Classify(l, exemption)

	scenarios, err := buildScenarios(l, snap, now)
	if err != nil {
		return nil, nil, fmt.Errorf("build scenarios: %w", err)
	}

	s := &domain.Strategy{
		StrategyID:        uuid.NewString(),
		TransactionID:     l.TransactionID,
		LedgerVersion:     l.Version,
		Category:          category,
		CategoryReasoning: reasoning,
		RulesApplied:      append([]string{ruleID}, now.AppliedRules...),
		Scenarios:         scenarios,
		Risks:             analyzeRisks(l, now.CapitalGain, a.gainThreshold),
		MissingInfo:       collectMissingInfo(l),
		ConfidenceScore:   l.CoreConfidence(),
		RuleVersion:       snap.Version(),
		AnalyzedAt:        time.Now().UTC(),
	}
	if id, ok := selectRecommendation(scenarios); ok {
		s.RecommendedScenarioID = id
		s.HasRecommendation = true
	}

	// Advisory only: the deterministic result stands with or without it.
	if text, err := a.explainer.Explain(ctx, s); err == nil {
		s.LLMExplanation = text
	}

	return s, now, nil
}
