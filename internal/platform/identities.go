package platform

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/attr"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/fusion"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/logger"
)

type identityRecord struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Attributes attr.Attributes `json:"attributes"`
	Accounts   []struct {
		ID string `json:"id"`
	} `json:"accounts,omitempty"`
}

type sourceRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"owner"`
}

type publicIdentityRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ListIdentities returns every identity visible to the connector, with their
// correlated account IDs. Listing is offset-paginated through the search
// surface.
func (c *Client) ListIdentities(ctx context.Context) ([]*fusion.PlatformIdentity, error) {
	var all []*fusion.PlatformIdentity
	offset := 0
	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(pageSize))
		query.Set("offset", strconv.Itoa(offset))

		var page []identityRecord
		if err := c.get(ctx, "/v3/identities", query, &page); err != nil {
			return nil, fmt.Errorf("list identities: %w", err)
		}

		for _, rec := range page {
			pi := &fusion.PlatformIdentity{
				ID:         rec.ID,
				Name:       rec.Name,
				Attributes: rec.Attributes,
			}
			for _, acct := range rec.Accounts {
				pi.AccountIDs = append(pi.AccountIDs, acct.ID)
			}
			all = append(all, pi)
		}

		if len(page) < pageSize {
			break
		}
		offset += len(page)
	}

	logger.Debug().Int("count", len(all)).Msg("listed identities")
	return all, nil
}

// GetSender resolves the review notification sender: the owner of the fusion
// source.
func (c *Client) GetSender(ctx context.Context, fusionSourceID string) (*fusion.User, error) {
	var src sourceRecord
	path := fmt.Sprintf("/v3/sources/%s", url.PathEscape(fusionSourceID))
	if err := c.get(ctx, path, nil, &src); err != nil {
		return nil, fmt.Errorf("get fusion source: %w", err)
	}
	if src.Owner.ID == "" {
		return nil, fmt.Errorf("fusion source %s has no owner", fusionSourceID)
	}

	user, err := c.getPublicIdentity(ctx, src.Owner.ID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Client) getPublicIdentity(ctx context.Context, identityID string) (*fusion.User, error) {
	query := url.Values{}
	query.Set("filters", fmt.Sprintf(`id eq "%s"`, identityID))

	var page []publicIdentityRecord
	if err := c.get(ctx, "/v3/public-identities", query, &page); err != nil {
		return nil, fmt.Errorf("get identity %s: %w", identityID, err)
	}
	if len(page) == 0 {
		return nil, fmt.Errorf("identity %s not found", identityID)
	}
	rec := page[0]
	return &fusion.User{ID: rec.ID, Name: rec.Name, Email: rec.Email}, nil
}
