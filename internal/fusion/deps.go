package fusion

import (
	"context"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/forms"
)

// AccountDirectory is the platform's account listing surface.
type AccountDirectory interface {
	// ListAccounts returns a source's accounts. A positive limit caps the
	// page for incremental fetch; zero means all.
	ListAccounts(ctx context.Context, sourceID string, limit int) ([]*ManagedAccount, error)
	// ListFusionAccounts returns the fusion source's own accounts, i.e. the
	// fusion identities created by previous runs.
	ListFusionAccounts(ctx context.Context, fusionSourceID string) ([]*FusionIdentity, error)
}

// IdentityDirectory is the platform's identity lookup surface.
type IdentityDirectory interface {
	// ListIdentities returns the directory identities visible to the
	// connector, with their correlated account IDs.
	ListIdentities(ctx context.Context) ([]*PlatformIdentity, error)
	// GetSender resolves the notification sender (the fusion source owner).
	GetSender(ctx context.Context, fusionSourceID string) (*User, error)
}

// FormClient is the custom forms service surface.
type FormClient interface {
	// ListFusionForms returns the connector's outstanding form definitions.
	ListFusionForms(ctx context.Context) ([]forms.Definition, error)
	// ListInstances returns every instance of a form definition.
	ListInstances(ctx context.Context, formDefinitionID string) ([]forms.Instance, error)
	// CreateCandidateForm creates the review form for an ambiguous account
	// and assigns an instance to every reviewer.
	CreateCandidateForm(ctx context.Context, name string, account AccountRef, options []forms.CandidateOption, reviewers []User) (*forms.Definition, []forms.Instance, error)
	// DeleteForm deletes a form definition and its instances.
	DeleteForm(ctx context.Context, formDefinitionID string) error
}

// StateStore is the durable connector state between runs: the process lock,
// the reset flag, per-source cumulative fetch counts and the issued-value
// ledgers of unique attributes.
type StateStore interface {
	// AcquireLock takes the process lock. When the lock is already held it
	// releases the stale lock and returns ErrLockHeld, so a crashed prior
	// run self-heals on the next attempt without touching pending state.
	AcquireLock(ctx context.Context, fusionSourceID string) error
	ReleaseLock(ctx context.Context, fusionSourceID string) error

	ResetFlag(ctx context.Context, fusionSourceID string) (bool, error)
	ClearResetFlag(ctx context.Context, fusionSourceID string) error

	CumulativeCount(ctx context.Context, fusionSourceID, sourceID string) (int, error)
	SetCumulativeCount(ctx context.Context, fusionSourceID, sourceID string, count int) error
	ClearCumulativeCounts(ctx context.Context, fusionSourceID string) error

	AttributeValues(ctx context.Context, fusionSourceID, attribute string) ([]string, error)
	SaveAttributeValues(ctx context.Context, fusionSourceID, attribute string, values []string) error
}

// Notifier dispatches best-effort review notifications. Failures are logged
// by the runner, never retried.
type Notifier interface {
	NotifyReviewers(ctx context.Context, sender *User, reviewers []User, formURL string) error
}

// Emitter receives the fusion identity records produced by a run.
type Emitter func(identity *FusionIdentity)
