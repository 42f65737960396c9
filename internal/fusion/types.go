// Package fusion implements the reconciliation core: the depletable work
// queue of managed accounts, the phase-ordered run that classifies every
// account against existing fusion identities and pending human decisions,
// and the pending-review lifecycle.
package fusion

import (
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/attr"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/scoring"
)

// ManagedAccount is a raw account record fetched from a source system.
// Immutable once fetched for a run; the work queue owns the canonical
// collection.
type ManagedAccount struct {
	ID             string          `json:"id"`
	IdentityID     string          `json:"identityId,omitempty"`
	SourceID       string          `json:"sourceId"`
	SourceName     string          `json:"sourceName"`
	NativeIdentity string          `json:"nativeIdentity"`
	Name           string          `json:"name"`
	Attributes     attr.Attributes `json:"attributes"`
}

// IdentityStatus flags the review state of a fusion identity.
type IdentityStatus string

const (
	StatusAuthorized IdentityStatus = "authorized"
	StatusManager    IdentityStatus = "manager"
	StatusReviewer   IdentityStatus = "reviewer"
	StatusBaseline   IdentityStatus = "baseline"
	StatusRequested  IdentityStatus = "requested"
	StatusUnmatched  IdentityStatus = "unmatched"
	StatusManual     IdentityStatus = "manual"
	StatusOrphan     IdentityStatus = "orphan"
	StatusEdited     IdentityStatus = "edited"
)

// IdentityAction records how the identity was produced or changed this run.
type IdentityAction string

const (
	ActionFetched   IdentityAction = "fetched"
	ActionCreated   IdentityAction = "created"
	ActionCorrelated IdentityAction = "correlated"
	ActionReviewed  IdentityAction = "reviewed"
	ActionUnedited  IdentityAction = "unedited"
)

// FusionIdentity is the system's merged view of one person, also called a
// fusion account. Never deleted mid-run: linked accounts that disappeared
// from their source are flagged missing, not removed, until the cleanup
// threshold policy triggers.
type FusionIdentity struct {
	IdentityID        string           `json:"identityId,omitempty"`
	NativeIdentity    string           `json:"nativeIdentity"`
	Name              string           `json:"name"`
	DisplayName       string           `json:"displayName"`
	SourceName        string           `json:"sourceName"`
	Attributes        attr.Attributes  `json:"attributes"`
	LinkedAccountIDs  map[string]struct{} `json:"-"`
	Statuses          map[IdentityStatus]struct{} `json:"-"`
	Actions           map[IdentityAction]struct{} `json:"-"`
	PendingReviewURLs []string         `json:"pendingReviewUrls,omitempty"`
	// Matches holds the scored candidate associations rebuilt every run.
	Matches []FusionMatch `json:"-"`
	// MissingCounts tracks, per linked account, how many consecutive runs
	// the account has been absent from its source. A reappearing account
	// clears its counter.
	MissingCounts map[string]int `json:"missingCounts,omitempty"`
}

// NewFusionIdentity builds an empty fusion identity shell.
func NewFusionIdentity(nativeIdentity, name, sourceName string) *FusionIdentity {
	return &FusionIdentity{
		NativeIdentity:   nativeIdentity,
		Name:             name,
		DisplayName:      name,
		SourceName:       sourceName,
		Attributes:       make(attr.Attributes),
		LinkedAccountIDs: make(map[string]struct{}),
		MissingCounts:    make(map[string]int),
		Statuses:         make(map[IdentityStatus]struct{}),
		Actions:          make(map[IdentityAction]struct{}),
	}
}

// Link associates an account with the identity and merges its attributes
// into any gaps.
func (f *FusionIdentity) Link(account *ManagedAccount) {
	if f.LinkedAccountIDs == nil {
		f.LinkedAccountIDs = make(map[string]struct{})
	}
	f.LinkedAccountIDs[account.ID] = struct{}{}
	delete(f.MissingCounts, account.ID)
	if f.Attributes == nil {
		f.Attributes = make(attr.Attributes)
	}
	f.Attributes.Merge(account.Attributes)
}

// AddStatus records a review status flag.
func (f *FusionIdentity) AddStatus(s IdentityStatus) {
	if f.Statuses == nil {
		f.Statuses = make(map[IdentityStatus]struct{})
	}
	f.Statuses[s] = struct{}{}
}

// AddAction records a run action flag.
func (f *FusionIdentity) AddAction(a IdentityAction) {
	if f.Actions == nil {
		f.Actions = make(map[IdentityAction]struct{})
	}
	f.Actions[a] = struct{}{}
}

// HasStatus reports whether the status flag is set.
func (f *FusionIdentity) HasStatus(s IdentityStatus) bool {
	_, ok := f.Statuses[s]
	return ok
}

// FusionMatch is a scored candidate association between one managed account
// and one existing fusion identity. Ephemeral; rebuilt every run.
type FusionMatch struct {
	Identity *FusionIdentity  `json:"-"`
	Scores   []scoring.Report `json:"scores"`
}

// User identifies a human reviewer.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AccountRef names the account a decision concerns.
type AccountRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SourceName string `json:"sourceName"`
}

// Decision is a human reviewer's resolution of one ambiguous match.
// Invariant: NewIdentity == true implies IdentityID is empty, and
// NewIdentity == false implies IdentityID is set.
type Decision struct {
	Submitter   User       `json:"submitter"`
	Account     AccountRef `json:"account"`
	NewIdentity bool       `json:"newIdentity"`
	IdentityID  string     `json:"identityId,omitempty"`
	Comments    string     `json:"comments,omitempty"`
	Finished    bool       `json:"finished"`
	FormURL     string     `json:"formUrl,omitempty"`
}

// Valid checks the NewIdentity/IdentityID exclusivity invariant.
func (d Decision) Valid() bool {
	if d.NewIdentity {
		return d.IdentityID == ""
	}
	return d.IdentityID != ""
}

// PlatformIdentity is an identity record from the identity directory.
type PlatformIdentity struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Attributes attr.Attributes `json:"attributes"`
	// AccountIDs are the directory's correlated account IDs.
	AccountIDs []string `json:"accountIds,omitempty"`
}
