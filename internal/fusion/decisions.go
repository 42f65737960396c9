package fusion

import (
	"fmt"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/forms"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/logger"
)

// FormState is the classified view of every outstanding review form,
// produced once per run during the FORM_DATA phase.
type FormState struct {
	// NewIdentityDecisions are finished decisions asking for a brand-new
	// identity, processed in order during PROCESS_DECISIONS.
	NewIdentityDecisions []Decision
	// LinkDecisionsByIdentityID groups finished link decisions by their
	// target identity. Several reviewers may attach different accounts to
	// the same identity in one run; every decision is kept.
	LinkDecisionsByIdentityID map[string][]Decision
	// UnfinishedDecisions are in-progress responses, retained for reviewer
	// context but excluded from processing.
	UnfinishedDecisions []Decision
	// DeleteFormIDs are resolved or fully cancelled forms queued for
	// deletion.
	DeleteFormIDs []string
	// PendingAccountIDs are accounts governed by a still-unanswered form;
	// they are removed from the work queue so no duplicate form is issued
	// while a human is deciding.
	PendingAccountIDs []string
	// PendingURLsByAccountID carries the open form URLs per account for the
	// pending-review entitlement recompute.
	PendingURLsByAccountID map[string][]string
}

// ParseDecision extracts a reviewer's decision from a form instance.
func ParseDecision(def forms.Definition, inst forms.Instance) (Decision, error) {
	choice, ok := inst.FormInput[forms.InputDecision]
	if !ok || choice == "" {
		return Decision{}, fmt.Errorf("form instance %s has no decision input", inst.ID)
	}

	d := Decision{
		Submitter: User{
			ID:    inst.Recipient.ID,
			Name:  inst.Recipient.Name,
			Email: inst.Recipient.Email,
		},
		Account: AccountRef{
			ID:         inst.FormInput[forms.InputAccountID],
			Name:       inst.FormInput[forms.InputAccountName],
			SourceName: inst.FormInput[forms.InputAccountSourceName],
		},
		Comments: inst.FormInput[forms.InputComments],
		Finished: inst.State == forms.StateCompleted,
		FormURL:  inst.StandAloneFormURL,
	}
	if d.Account.ID == "" {
		d.Account.ID = def.AccountID
	}

	if choice == forms.DecisionNewIdentity {
		d.NewIdentity = true
	} else {
		d.IdentityID = choice
	}

	if !d.Valid() {
		return Decision{}, fmt.Errorf("form instance %s produced an invalid decision", inst.ID)
	}
	return d, nil
}

// ClassifyForms walks every outstanding form and its instances and buckets
// the results:
//
//   - a response (COMPLETED/IN_PROGRESS/SUBMITTED) resolves the form: the
//     decision is extracted and the form queued for deletion;
//   - all instances cancelled: the form is deleted but the account stays in
//     the queue so a fresh review can be issued later;
//   - anything else pending: the form is kept and the account is treated as
//     in flight, excluded from this run's matching pass.
func ClassifyForms(defs []forms.Definition, instancesByDef map[string][]forms.Instance) *FormState {
	state := &FormState{
		LinkDecisionsByIdentityID: make(map[string][]Decision),
		PendingURLsByAccountID:    make(map[string][]string),
	}

	for _, def := range defs {
		instances := instancesByDef[def.ID]
		if len(instances) == 0 {
			// Definition without instances is unanswerable; drop it.
			state.DeleteFormIDs = append(state.DeleteFormIDs, def.ID)
			continue
		}

		var (
			responded  *forms.Instance
			cancelled  = 0
			openURLs   []string
		)
		for i := range instances {
			inst := &instances[i]
			switch {
			case inst.State.HasResponse():
				if responded == nil {
					responded = inst
				}
			case inst.State == forms.StateCancelled:
				cancelled++
			default:
				if inst.StandAloneFormURL != "" {
					openURLs = append(openURLs, inst.StandAloneFormURL)
				}
			}
		}

		switch {
		case responded != nil:
			decision, err := ParseDecision(def, *responded)
			if err != nil {
				logger.Warn().Err(err).Str("form_id", def.ID).Msg("skipping unparseable form response")
				state.DeleteFormIDs = append(state.DeleteFormIDs, def.ID)
				continue
			}
			state.DeleteFormIDs = append(state.DeleteFormIDs, def.ID)
			if !decision.Finished {
				// Unfinished responses are kept for context only; the
				// account stays out of the matching pass this run.
				state.UnfinishedDecisions = append(state.UnfinishedDecisions, decision)
				state.PendingAccountIDs = append(state.PendingAccountIDs, decision.Account.ID)
				continue
			}
			if decision.NewIdentity {
				state.NewIdentityDecisions = append(state.NewIdentityDecisions, decision)
			} else {
				state.LinkDecisionsByIdentityID[decision.IdentityID] = append(state.LinkDecisionsByIdentityID[decision.IdentityID], decision)
			}

		case cancelled == len(instances):
			// Every reviewer cancelled: drop the form, leave the account in
			// the queue for a fresh review.
			state.DeleteFormIDs = append(state.DeleteFormIDs, def.ID)

		default:
			// Mixed pending/cancelled with no response: keep the form and
			// exclude the account. An abandoned form makes the account
			// invisible for the whole run, so surface it.
			logger.Warn().
				Str("form_id", def.ID).
				Str("account_id", def.AccountID).
				Msg("account excluded from run while review form is pending")
			state.PendingAccountIDs = append(state.PendingAccountIDs, def.AccountID)
			state.PendingURLsByAccountID[def.AccountID] = append(state.PendingURLsByAccountID[def.AccountID], openURLs...)
		}
	}

	return state
}
