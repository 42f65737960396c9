// Package uniqueid implements template-driven derived attributes, most
// importantly collision-free unique identifier generation against a ledger
// of previously issued values.
package uniqueid

import (
	"fmt"
	"strings"
)

// Type classifies how a derived attribute's value is produced.
type Type string

const (
	// TypeNormal renders the template with no uniqueness handling.
	TypeNormal Type = "normal"
	// TypeUnique renders the template and resolves collisions against the
	// issued-value ledger with a numeric counter suffix.
	TypeUnique Type = "unique"
	// TypeUUID issues a random UUID, ignoring the template.
	TypeUUID Type = "uuid"
	// TypeCounter issues the next zero-padded sequence number.
	TypeCounter Type = "counter"
)

// CaseRule controls case folding of the rendered value.
type CaseRule string

const (
	CaseSame  CaseRule = "same"
	CaseLower CaseRule = "lower"
	CaseUpper CaseRule = "upper"
)

// Definition is the configuration of one derived attribute.
type Definition struct {
	// Name is the attribute the generated value is written to.
	Name string `json:"name"`
	// Expression is the Go text/template rendered against the account's
	// attributes. The template may reference {{.counter}}; if it does not,
	// the counter is appended as a suffix when needed.
	Expression string `json:"expression,omitempty"`
	Type       Type   `json:"type"`
	// Case folds the rendered value (same, lower, upper).
	Case CaseRule `json:"case,omitempty"`
	// Normalize transliterates non-ASCII characters in the rendered value.
	Normalize bool `json:"normalize,omitempty"`
	// RemoveSpaces strips whitespace and quote characters.
	RemoveSpaces bool `json:"spaces,omitempty"`
	// Digits is the zero-pad width of the collision counter.
	Digits int `json:"digits,omitempty"`
	// MaxLength truncates the counter-less base value when positive.
	MaxLength int `json:"maxLength,omitempty"`
}

// Validate checks the definition for configuration errors.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("attribute definition is missing a name")
	}
	switch d.Type {
	case TypeNormal, TypeUnique, TypeCounter:
		if strings.TrimSpace(d.Expression) == "" && d.Type != TypeCounter {
			return fmt.Errorf("attribute definition %q (%s) requires an expression", d.Name, d.Type)
		}
	case TypeUUID:
	default:
		return fmt.Errorf("attribute definition %q has unknown type %q", d.Name, d.Type)
	}
	if d.Digits < 0 {
		return fmt.Errorf("attribute definition %q has negative digits", d.Name)
	}
	if d.MaxLength < 0 {
		return fmt.Errorf("attribute definition %q has negative max length", d.Name)
	}
	return nil
}
