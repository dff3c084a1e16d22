package rules

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry holds every known rule version and resolves the one effective at a
// given date. Safe for concurrent lookup; registration happens at startup.
type Registry struct {
	mu       sync.RWMutex
	versions map[string][]RuleVersion // sorted by EffectiveFrom ascending
}

func NewRegistry() *Registry {
	return &Registry{versions: make(map[string][]RuleVersion)}
}

// Register adds one rule version. Duplicate (rule id, version) pairs are
// rejected.
func (r *Registry) Register(v RuleVersion) error {
	if v.RuleID == "" || v.Version == "" {
		return fmt.Errorf("rule version needs both rule id and version, got %q/%q", v.RuleID, v.Version)
	}
	if v.Payload == nil {
		return fmt.Errorf("rule %s@%s has no payload", v.RuleID, v.Version)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.versions[v.RuleID] {
		if existing.Version == v.Version {
			return fmt.Errorf("rule %s@%s already registered", v.RuleID, v.Version)
		}
	}
	list := append(r.versions[v.RuleID], v)
	sort.Slice(list, func(i, j int) bool {
		return list[i].EffectiveFrom.Before(list[j].EffectiveFrom)
	})
	r.versions[v.RuleID] = list
	return nil
}

// Rule returns the latest version of a rule effective at asOf.
func (r *Registry) Rule(ruleID string, asOf time.Time) (RuleVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.versions[ruleID]
	for i := len(list) - 1; i >= 0; i-- {
		if !list[i].EffectiveFrom.After(asOf) {
			return list[i], nil
		}
	}
	return RuleVersion{}, &LookupError{RuleID: ruleID, AsOf: asOf}
}

// Snapshot resolves every rule for one disposal date into an immutable view.
// Fails with LookupError if any rule has no effective version.
func (r *Registry) Snapshot(asOf time.Time) (*Snapshot, error) {
	s := &Snapshot{
		asOf:     asOf,
		resolved: make(map[string]RuleVersion, len(allRuleIDs)),
	}
	for _, id := range allRuleIDs {
		v, err := r.Rule(id, asOf)
		if err != nil {
			return nil, err
		}
		s.resolved[id] = v
		if v.Version > s.version {
			s.version = v.Version
		}
	}
	return s, nil
}

// Snapshot is an immutable resolved rule set for one calculation. All
// accessors panic-free: construction guarantees every rule is present with a
// payload of the right type.
type Snapshot struct {
	asOf     time.Time
	version  string
	resolved map[string]RuleVersion
}

// Version is the highest rule version in the snapshot, used as the
// calculation's rule version label.
func (s *Snapshot) Version() string { return s.version }

// AsOf returns the date the snapshot was resolved for.
func (s *Snapshot) AsOf() time.Time { return s.asOf }

// AppliedRule returns the "id@version" label of one resolved rule.
func (s *Snapshot) AppliedRule(ruleID string) string {
	v := s.resolved[ruleID]
	return fmt.Sprintf("%s@%s", v.RuleID, v.Version)
}

func payload[T any](s *Snapshot, ruleID string) (T, error) {
	v, ok := s.resolved[ruleID]
	if !ok {
		var zero T
		return zero, &LookupError{RuleID: ruleID, AsOf: s.asOf}
	}
	p, ok := v.Payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("rule %s@%s has payload type %T, want %T", v.RuleID, v.Version, v.Payload, zero)
	}
	return p, nil
}

func (s *Snapshot) Brackets() ([]Bracket, error) {
	p, err := payload[[]Bracket](s, RuleProgressiveBrackets)
	if err != nil {
		return nil, err
	}
	out := make([]Bracket, len(p))
	copy(out, p)
	return out, nil
}

func (s *Snapshot) ShortTermRates() (ShortTermRates, error) {
	return payload[ShortTermRates](s, RuleShortTermRates)
}

func (s *Snapshot) LongTermGeneral() (LinearDeduction, error) {
	return payload[LinearDeduction](s, RuleLongTermGeneral)
}

func (s *Snapshot) LongTermOneHouse() (OneHouseDeduction, error) {
	return payload[OneHouseDeduction](s, RuleLongTermOneHouse)
}

func (s *Snapshot) Exemption() (Exemption, error) {
	return payload[Exemption](s, RuleExemptionOneHouse)
}

func (s *Snapshot) Surcharge() (Surcharge, error) {
	return payload[Surcharge](s, RuleSurchargeMultiHouse)
}

func (s *Snapshot) BasicDeduction() (ScalarRule, error) {
	return payload[ScalarRule](s, RuleBasicDeduction)
}

func (s *Snapshot) LocalIncomeTaxRate() (ScalarRule, error) {
	return payload[ScalarRule](s, RuleLocalIncomeTax)
}

func (s *Snapshot) HoldingTaxEstimateRate() (ScalarRule, error) {
	return payload[ScalarRule](s, RuleHoldingTaxEstimate)
}
