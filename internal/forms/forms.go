// Package forms models the custom review forms the connector issues for
// ambiguous matches: definitions, instances and their lifecycle states, and
// the input schema a reviewer's decision is parsed from.
package forms

import (
	"fmt"
	"regexp"
	"strings"
)

// InstanceState is the lifecycle state of one form instance.
type InstanceState string

const (
	StateAssigned   InstanceState = "ASSIGNED"
	StateInProgress InstanceState = "IN_PROGRESS"
	StateSubmitted  InstanceState = "SUBMITTED"
	StateCompleted  InstanceState = "COMPLETED"
	StateCancelled  InstanceState = "CANCELLED"
)

// HasResponse reports whether the instance state carries reviewer input.
func (s InstanceState) HasResponse() bool {
	return s == StateCompleted || s == StateInProgress || s == StateSubmitted
}

// Form input keys written by the candidate review form.
const (
	InputDecision          = "identities.decision"
	InputComments          = "identities.comments"
	InputAccountID         = "account.id"
	InputAccountName       = "account.name"
	InputAccountSourceName = "account.sourceName"
)

// DecisionNewIdentity is the decision input value selecting "create a new
// identity" instead of one of the candidate identities.
const DecisionNewIdentity = "newIdentity"

// Definition is a review form definition; one per ambiguous account.
type Definition struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AccountID string `json:"-"`
}

// Instance is one reviewer's copy of a form.
type Instance struct {
	ID               string            `json:"id"`
	FormDefinitionID string            `json:"formDefinitionId"`
	State            InstanceState     `json:"state"`
	StandAloneFormURL string           `json:"standAloneFormUrl,omitempty"`
	Recipient        Recipient         `json:"recipient"`
	FormInput        map[string]string `json:"formInput,omitempty"`
}

// Recipient is the reviewer a form instance is assigned to.
type Recipient struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// CandidateOption is one selectable identity in a review form.
type CandidateOption struct {
	IdentityID  string `json:"identityId"`
	DisplayName string `json:"displayName"`
	// ScoreSummary is a short rendering of the score reports shown to the
	// reviewer alongside the option.
	ScoreSummary string `json:"scoreSummary,omitempty"`
}

// formNamePrefix identifies forms owned by the fusion connector.
const formNamePrefix = "Identity Fusion"

var formNameRegex = regexp.MustCompile(`^Identity Fusion - .+ \(([^)]+)\)$`)

// BuildFormName produces the definition name for an account's review form.
// The account ID is encoded in the name so outstanding forms can be joined
// back to their accounts on the next run.
func BuildFormName(sourceName, accountName, accountID string) string {
	return fmt.Sprintf("%s - %s - %s (%s)", formNamePrefix, sourceName, accountName, accountID)
}

// ParseFormName extracts the account ID from a definition name, reporting
// whether the form belongs to the fusion connector.
func ParseFormName(name string) (accountID string, ok bool) {
	if !strings.HasPrefix(name, formNamePrefix) {
		return "", false
	}
	m := formNameRegex.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}
