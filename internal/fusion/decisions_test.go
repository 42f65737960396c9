package fusion

import (
	"testing"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/forms"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewForm(id, accountID string) forms.Definition {
	return forms.Definition{
		ID:        id,
		Name:      forms.BuildFormName("HR", "acct-"+accountID, accountID),
		AccountID: accountID,
	}
}

func instance(defID string, state forms.InstanceState, input map[string]string) forms.Instance {
	return forms.Instance{
		ID:                defID + "-inst",
		FormDefinitionID:  defID,
		State:             state,
		StandAloneFormURL: "https://forms.example.com/" + defID,
		Recipient:         forms.Recipient{ID: "rev-1", Name: "Reva Reviewer", Email: "reva@example.com"},
		FormInput:         input,
	}
}

func TestParseDecisionNewIdentity(t *testing.T) {
	def := reviewForm("f1", "a1")
	inst := instance("f1", forms.StateCompleted, map[string]string{
		forms.InputDecision: forms.DecisionNewIdentity,
		forms.InputComments: "no candidate is this person",
	})

	d, err := ParseDecision(def, inst)
	require.NoError(t, err)
	assert.True(t, d.NewIdentity)
	assert.Empty(t, d.IdentityID)
	assert.True(t, d.Finished)
	assert.Equal(t, "a1", d.Account.ID)
	assert.Equal(t, "rev-1", d.Submitter.ID)
	assert.Equal(t, "no candidate is this person", d.Comments)
	assert.True(t, d.Valid())
}

func TestParseDecisionLink(t *testing.T) {
	def := reviewForm("f1", "a1")
	inst := instance("f1", forms.StateCompleted, map[string]string{
		forms.InputDecision:  "identity-42",
		forms.InputAccountID: "a1",
	})

	d, err := ParseDecision(def, inst)
	require.NoError(t, err)
	assert.False(t, d.NewIdentity)
	assert.Equal(t, "identity-42", d.IdentityID)
	assert.True(t, d.Valid())
}

func TestParseDecisionMissingInput(t *testing.T) {
	def := reviewForm("f1", "a1")
	inst := instance("f1", forms.StateCompleted, map[string]string{})

	_, err := ParseDecision(def, inst)
	assert.Error(t, err)
}

func TestParseDecisionAccountIDFallsBackToDefinition(t *testing.T) {
	def := reviewForm("f1", "a9")
	inst := instance("f1", forms.StateCompleted, map[string]string{
		forms.InputDecision: "identity-42",
	})

	d, err := ParseDecision(def, inst)
	require.NoError(t, err)
	assert.Equal(t, "a9", d.Account.ID)
}

func TestClassifyFormsResolvedFormIsDeleted(t *testing.T) {
	defs := []forms.Definition{reviewForm("f1", "a1"), reviewForm("f2", "a2")}
	instances := map[string][]forms.Instance{
		"f1": {instance("f1", forms.StateCompleted, map[string]string{
			forms.InputDecision: forms.DecisionNewIdentity,
		})},
		"f2": {instance("f2", forms.StateCompleted, map[string]string{
			forms.InputDecision: "identity-42",
		})},
	}

	state := ClassifyForms(defs, instances)

	require.Len(t, state.NewIdentityDecisions, 1)
	assert.Equal(t, "a1", state.NewIdentityDecisions[0].Account.ID)
	require.Contains(t, state.LinkDecisionsByIdentityID, "identity-42")
	require.Len(t, state.LinkDecisionsByIdentityID["identity-42"], 1)
	assert.Equal(t, "a2", state.LinkDecisionsByIdentityID["identity-42"][0].Account.ID)
	assert.ElementsMatch(t, []string{"f1", "f2"}, state.DeleteFormIDs)
	assert.Empty(t, state.PendingAccountIDs)
}

func TestClassifyFormsKeepsEveryLinkDecisionPerIdentity(t *testing.T) {
	defs := []forms.Definition{reviewForm("f1", "a1"), reviewForm("f2", "a2")}
	instances := map[string][]forms.Instance{
		"f1": {instance("f1", forms.StateCompleted, map[string]string{
			forms.InputDecision: "identity-7",
		})},
		"f2": {instance("f2", forms.StateCompleted, map[string]string{
			forms.InputDecision: "identity-7",
		})},
	}

	state := ClassifyForms(defs, instances)

	require.Contains(t, state.LinkDecisionsByIdentityID, "identity-7")
	decisions := state.LinkDecisionsByIdentityID["identity-7"]
	require.Len(t, decisions, 2)
	accountIDs := []string{decisions[0].Account.ID, decisions[1].Account.ID}
	assert.ElementsMatch(t, []string{"a1", "a2"}, accountIDs)
}

func TestClassifyFormsUnfinishedResponseStillDeletesForm(t *testing.T) {
	defs := []forms.Definition{reviewForm("f1", "a1")}
	instances := map[string][]forms.Instance{
		"f1": {instance("f1", forms.StateInProgress, map[string]string{
			forms.InputDecision: "identity-42",
		})},
	}

	state := ClassifyForms(defs, instances)

	assert.Equal(t, []string{"f1"}, state.DeleteFormIDs)
	require.Len(t, state.UnfinishedDecisions, 1)
	assert.False(t, state.UnfinishedDecisions[0].Finished)
	assert.Equal(t, []string{"a1"}, state.PendingAccountIDs)
	assert.Empty(t, state.NewIdentityDecisions)
	assert.Empty(t, state.LinkDecisionsByIdentityID)
}

func TestClassifyFormsAllCancelledLeavesAccountInQueue(t *testing.T) {
	defs := []forms.Definition{reviewForm("f1", "a1")}
	instances := map[string][]forms.Instance{
		"f1": {
			instance("f1", forms.StateCancelled, nil),
			instance("f1", forms.StateCancelled, nil),
		},
	}

	state := ClassifyForms(defs, instances)

	assert.Equal(t, []string{"f1"}, state.DeleteFormIDs)
	assert.Empty(t, state.PendingAccountIDs, "a fully cancelled form must not block the account")
}

func TestClassifyFormsPendingKeepsFormAndExcludesAccount(t *testing.T) {
	defs := []forms.Definition{reviewForm("f1", "a1")}
	instances := map[string][]forms.Instance{
		"f1": {
			instance("f1", forms.StateAssigned, nil),
			instance("f1", forms.StateCancelled, nil),
		},
	}

	state := ClassifyForms(defs, instances)

	assert.Empty(t, state.DeleteFormIDs)
	assert.Equal(t, []string{"a1"}, state.PendingAccountIDs)
	require.Contains(t, state.PendingURLsByAccountID, "a1")
	assert.Equal(t, []string{"https://forms.example.com/f1"}, state.PendingURLsByAccountID["a1"])
}

func TestClassifyFormsDefinitionWithoutInstances(t *testing.T) {
	defs := []forms.Definition{reviewForm("f1", "a1")}

	state := ClassifyForms(defs, map[string][]forms.Instance{})

	assert.Equal(t, []string{"f1"}, state.DeleteFormIDs)
	assert.Empty(t, state.PendingAccountIDs)
}

func TestClassifyFormsUnparseableResponseIsDropped(t *testing.T) {
	defs := []forms.Definition{reviewForm("f1", "a1")}
	instances := map[string][]forms.Instance{
		"f1": {instance("f1", forms.StateCompleted, map[string]string{
			forms.InputComments: "submitted without a choice",
		})},
	}

	state := ClassifyForms(defs, instances)

	assert.Equal(t, []string{"f1"}, state.DeleteFormIDs)
	assert.Empty(t, state.NewIdentityDecisions)
	assert.Empty(t, state.LinkDecisionsByIdentityID)
}
