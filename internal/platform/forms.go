package platform

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/forms"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/fusion"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/logger"
)

type formDefinitionRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type formDefinitionPage struct {
	Results []formDefinitionRecord `json:"results"`
	Count   int                    `json:"count"`
}

// ListFusionForms returns the connector's outstanding review form
// definitions, recognized by their name pattern.
func (c *Client) ListFusionForms(ctx context.Context) ([]forms.Definition, error) {
	var out []forms.Definition
	offset := 0
	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(pageSize))
		query.Set("offset", strconv.Itoa(offset))

		var page formDefinitionPage
		if err := c.get(ctx, "/v3/form-definitions", query, &page); err != nil {
			return nil, fmt.Errorf("list form definitions: %w", err)
		}

		for _, rec := range page.Results {
			accountID, ok := forms.ParseFormName(rec.Name)
			if !ok {
				continue
			}
			out = append(out, forms.Definition{ID: rec.ID, Name: rec.Name, AccountID: accountID})
		}

		if len(page.Results) < pageSize {
			break
		}
		offset += len(page.Results)
	}

	logger.Debug().Int("count", len(out)).Msg("listed fusion review forms")
	return out, nil
}

// ListInstances returns every instance of a form definition.
func (c *Client) ListInstances(ctx context.Context, formDefinitionID string) ([]forms.Instance, error) {
	query := url.Values{}
	query.Set("filters", fmt.Sprintf(`formDefinitionId eq "%s"`, formDefinitionID))

	var instances []forms.Instance
	if err := c.get(ctx, "/v3/form-instances", query, &instances); err != nil {
		return nil, fmt.Errorf("list instances of form %s: %w", formDefinitionID, err)
	}
	return instances, nil
}

// formDefinitionRequest is the creation payload of a candidate review form.
// The form carries one select field listing the candidate identities plus
// the "new identity" option, and hidden fields identifying the account.
type formDefinitionRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Owner       formOwner         `json:"owner"`
	FormInput   []formInputField  `json:"formInput"`
	FormElements []formElement    `json:"formElements"`
}

type formOwner struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type formInputField struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

type formElement struct {
	ID     string                 `json:"id"`
	Type   string                 `json:"elementType"`
	Key    string                 `json:"key,omitempty"`
	Config map[string]interface{} `json:"config,omitempty"`
}

type formInstanceRequest struct {
	FormDefinitionID string            `json:"formDefinitionId"`
	Recipients       []formRecipient   `json:"recipients"`
	StandAloneForm   bool              `json:"standAloneForm"`
	State            string            `json:"state"`
	FormInput        map[string]string `json:"formInput,omitempty"`
}

type formRecipient struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// CreateCandidateForm creates the review form for an ambiguous account and
// assigns an instance to every reviewer.
func (c *Client) CreateCandidateForm(ctx context.Context, name string, account fusion.AccountRef, options []forms.CandidateOption, reviewers []fusion.User) (*forms.Definition, []forms.Instance, error) {
	if len(reviewers) == 0 {
		return nil, nil, fmt.Errorf("create review form %q: no reviewers configured", name)
	}

	choices := make([]map[string]interface{}, 0, len(options)+1)
	for _, opt := range options {
		label := opt.DisplayName
		if opt.ScoreSummary != "" {
			label = fmt.Sprintf("%s [%s]", opt.DisplayName, opt.ScoreSummary)
		}
		choices = append(choices, map[string]interface{}{
			"label": label,
			"value": opt.IdentityID,
		})
	}
	choices = append(choices, map[string]interface{}{
		"label": "This is a new identity",
		"value": forms.DecisionNewIdentity,
	})

	req := formDefinitionRequest{
		Name:        name,
		Description: fmt.Sprintf("Identity merge review for account %s from %s", account.Name, account.SourceName),
		Owner:       formOwner{Type: "IDENTITY", ID: reviewers[0].ID},
		FormInput: []formInputField{
			{ID: forms.InputAccountID, Type: "STRING", Label: "Account ID"},
			{ID: forms.InputAccountName, Type: "STRING", Label: "Account name"},
			{ID: forms.InputAccountSourceName, Type: "STRING", Label: "Source"},
		},
		FormElements: []formElement{
			{
				ID:   forms.InputDecision,
				Type: "SELECT",
				Key:  forms.InputDecision,
				Config: map[string]interface{}{
					"label":   "Select the matching identity",
					"options": choices,
				},
			},
			{
				ID:   forms.InputComments,
				Type: "TEXT",
				Key:  forms.InputComments,
				Config: map[string]interface{}{
					"label": "Comments",
				},
			},
		},
	}

	var def formDefinitionRecord
	if err := c.post(ctx, "/v3/form-definitions", req, &def); err != nil {
		return nil, nil, fmt.Errorf("create form definition %q: %w", name, err)
	}

	recipients := make([]formRecipient, 0, len(reviewers))
	for _, reviewer := range reviewers {
		recipients = append(recipients, formRecipient{Type: "IDENTITY", ID: reviewer.ID})
	}

	instReq := formInstanceRequest{
		FormDefinitionID: def.ID,
		Recipients:       recipients,
		StandAloneForm:   true,
		State:            string(forms.StateAssigned),
		FormInput: map[string]string{
			forms.InputAccountID:         account.ID,
			forms.InputAccountName:       account.Name,
			forms.InputAccountSourceName: account.SourceName,
		},
	}

	var instances []forms.Instance
	if err := c.post(ctx, "/v3/form-instances", instReq, &instances); err != nil {
		// Roll back the definition so no orphaned form lingers.
		if delErr := c.DeleteForm(ctx, def.ID); delErr != nil {
			logger.Error().Err(delErr).Str("form_id", def.ID).Msg("failed to roll back orphaned form definition")
		}
		return nil, nil, fmt.Errorf("create instances for form %q: %w", name, err)
	}

	logger.Info().
		Str("form_id", def.ID).
		Str("account_id", account.ID).
		Int("reviewers", len(reviewers)).
		Msg("created candidate review form")

	parsed := forms.Definition{ID: def.ID, Name: def.Name}
	if accountID, ok := forms.ParseFormName(def.Name); ok {
		parsed.AccountID = accountID
	}
	return &parsed, instances, nil
}

// DeleteForm deletes a form definition and, implicitly, its instances.
func (c *Client) DeleteForm(ctx context.Context, formDefinitionID string) error {
	path := fmt.Sprintf("/v3/form-definitions/%s", url.PathEscape(formDefinitionID))
	if err := c.delete(ctx, path); err != nil {
		return fmt.Errorf("delete form %s: %w", formDefinitionID, err)
	}
	return nil
}
