// Package domain defines the value objects of the transfer-income tax engine:
// provenance-carrying facts, the fact ledger with its confirm/freeze lifecycle,
// case categories, disposal scenarios, risks, and the strategy aggregate.
package domain

import (
	"fmt"
	"time"
)

// Source identifies where a fact's value came from.
type Source string

const (
	SourceUserInput Source = "user_input"
	SourceDocument  Source = "document"
	SourceAPI       Source = "api"
	SourceSystem    Source = "system"
	SourceAgent     Source = "agent_generated"
)

// Fact is an immutable value with provenance metadata. Every input to the
// tax calculation is wrapped in a Fact so the audit trail records who supplied
// it, how trustworthy it is, and whether it has been confirmed. "Changing" a
// Fact always produces a new value; the receiver is never mutated.
type Fact[T any] struct {
	Value          T         `json:"value"`
	Source         Source    `json:"source"`
	Confidence     float64   `json:"confidence"` // 0.0..1.0, 1.0 for confirmed values
	IsConfirmed    bool      `json:"is_confirmed"`
	EnteredBy      string    `json:"entered_by"`
	EnteredAt      time.Time `json:"entered_at"`
	Notes          string    `json:"notes,omitempty"`
	Reference      string    `json:"reference,omitempty"`
	RuleVersion    string    `json:"rule_version,omitempty"`
	ReasoningTrace string    `json:"reasoning_trace,omitempty"`
}

// NewConfirmedFact wraps a value the caller asserts as final: user_input
// source, confidence 1.0, confirmed. This is the default wrapping for raw
// (non-Fact) values handed to the ledger.
func NewConfirmedFact[T any](value T, enteredBy string) Fact[T] {
	return Fact[T]{
		Value:       value,
		Source:      SourceUserInput,
		Confidence:  1.0,
		IsConfirmed: true,
		EnteredBy:   enteredBy,
		EnteredAt:   time.Now().UTC(),
	}
}

// NewEstimatedFact wraps a value that still needs human confirmation.
func NewEstimatedFact[T any](value T, confidence float64, source Source, enteredBy string) Fact[T] {
	return Fact[T]{
		Value:       value,
		Source:      source,
		Confidence:  confidence,
		IsConfirmed: false,
		EnteredBy:   enteredBy,
		EnteredAt:   time.Now().UTC(),
	}
}

// NewAgentFact wraps a value produced by an automated agent, keeping the
// reasoning that led to it.
func NewAgentFact[T any](value T, agentID, reasoning string, confidence float64) Fact[T] {
	return Fact[T]{
		Value:          value,
		Source:         SourceAgent,
		Confidence:     confidence,
		IsConfirmed:    false,
		EnteredBy:      agentID,
		EnteredAt:      time.Now().UTC(),
		ReasoningTrace: reasoning,
	}
}

// Validate checks the fact's internal consistency.
func (f Fact[T]) Validate() error {
	if f.Confidence < 0 || f.Confidence > 1 {
		return fmt.Errorf("fact confidence %.2f out of range [0,1]", f.Confidence)
	}
	if f.IsConfirmed && f.Confidence != 1.0 {
		return fmt.Errorf("confirmed fact must have confidence 1.0, got %.2f", f.Confidence)
	}
	return nil
}

// Confirm returns a copy of the fact marked confirmed with confidence 1.0.
func (f Fact[T]) Confirm(confirmedBy, notes string) Fact[T] {
	out := f
	out.Confidence = 1.0
	out.IsConfirmed = true
	out.EnteredBy = confirmedBy
	out.EnteredAt = time.Now().UTC()
	if notes != "" {
		out.Notes = notes
	}
	return out
}

// WithValue returns a copy carrying a new value. Confirmation is reset: a
// changed value must be confirmed again.
func (f Fact[T]) WithValue(value T, updatedBy string) Fact[T] {
	out := f
	out.Value = value
	out.IsConfirmed = false
	out.EnteredBy = updatedBy
	out.EnteredAt = time.Now().UTC()
	return out
}
