package platform

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/attr"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/fusion"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/logger"
)

// accountRecord is the platform's account representation.
type accountRecord struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	NativeIdentity string          `json:"nativeIdentity"`
	SourceID       string          `json:"sourceId"`
	SourceName     string          `json:"sourceName"`
	IdentityID     string          `json:"identityId,omitempty"`
	Uncorrelated   bool            `json:"uncorrelated"`
	Attributes     attr.Attributes `json:"attributes"`
}

// ListAccounts returns a source's accounts. A positive limit caps the total
// fetched; zero fetches everything. Listing is offset-paginated.
func (c *Client) ListAccounts(ctx context.Context, sourceID string, limit int) ([]*fusion.ManagedAccount, error) {
	records, err := c.listAccountRecords(ctx, sourceID, limit)
	if err != nil {
		return nil, err
	}

	accounts := make([]*fusion.ManagedAccount, 0, len(records))
	for _, rec := range records {
		accounts = append(accounts, &fusion.ManagedAccount{
			ID:             rec.ID,
			IdentityID:     correlatedIdentityID(rec),
			SourceID:       rec.SourceID,
			SourceName:     rec.SourceName,
			NativeIdentity: rec.NativeIdentity,
			Name:           rec.Name,
			Attributes:     rec.Attributes,
		})
	}
	return accounts, nil
}

// ListFusionAccounts returns the fusion source's own accounts rehydrated as
// fusion identities.
func (c *Client) ListFusionAccounts(ctx context.Context, fusionSourceID string) ([]*fusion.FusionIdentity, error) {
	records, err := c.listAccountRecords(ctx, fusionSourceID, 0)
	if err != nil {
		return nil, err
	}

	identities := make([]*fusion.FusionIdentity, 0, len(records))
	for _, rec := range records {
		identities = append(identities, rehydrateIdentity(rec))
	}
	return identities, nil
}

// TriggerAggregation asks the platform to refresh a source's accounts.
func (c *Client) TriggerAggregation(ctx context.Context, sourceID string) error {
	path := fmt.Sprintf("/v3/sources/%s/load-accounts", url.PathEscape(sourceID))
	if err := c.post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("trigger aggregation for source %s: %w", sourceID, err)
	}
	logger.Info().Str("source_id", sourceID).Msg("triggered account aggregation")
	return nil
}

func (c *Client) listAccountRecords(ctx context.Context, sourceID string, limit int) ([]accountRecord, error) {
	var all []accountRecord
	offset := 0
	for {
		size := pageSize
		if limit > 0 && limit-len(all) < size {
			size = limit - len(all)
		}
		if size <= 0 {
			break
		}

		query := url.Values{}
		query.Set("filters", fmt.Sprintf(`sourceId eq "%s"`, sourceID))
		query.Set("limit", strconv.Itoa(size))
		query.Set("offset", strconv.Itoa(offset))

		var page []accountRecord
		if err := c.get(ctx, "/v3/accounts", query, &page); err != nil {
			return nil, fmt.Errorf("list accounts for source %s: %w", sourceID, err)
		}
		all = append(all, page...)
		if len(page) < size {
			break
		}
		offset += len(page)
	}

	logger.Debug().Str("source_id", sourceID).Int("count", len(all)).Msg("listed accounts")
	return all, nil
}

func correlatedIdentityID(rec accountRecord) string {
	if rec.Uncorrelated {
		return ""
	}
	return rec.IdentityID
}

// Fusion account attribute names holding the identity's bookkeeping state.
// These live in the fusion source's account schema and round-trip through
// aggregation.
const (
	attrAccounts = "accounts"
	attrStatuses = "statuses"
	attrActions  = "actions"
	attrReviews  = "reviews"
	// attrMissing holds per-account consecutive-miss counters as
	// "accountID:count" entries.
	attrMissing = "missing"
)

// rehydrateIdentity rebuilds a fusion identity from its persisted fusion
// source account.
func rehydrateIdentity(rec accountRecord) *fusion.FusionIdentity {
	fi := fusion.NewFusionIdentity(rec.NativeIdentity, rec.Name, rec.SourceName)
	fi.IdentityID = correlatedIdentityID(rec)
	fi.Attributes = rec.Attributes.Clone()

	for _, id := range rec.Attributes.GetStrings(attrAccounts) {
		fi.LinkedAccountIDs[id] = struct{}{}
	}
	for _, s := range rec.Attributes.GetStrings(attrStatuses) {
		fi.AddStatus(fusion.IdentityStatus(s))
	}
	for _, entry := range rec.Attributes.GetStrings(attrMissing) {
		accountID, count, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(count); err == nil {
			fi.MissingCounts[accountID] = n
		}
	}

	// Bookkeeping attributes are not identity data; keep the bag clean for
	// matching.
	delete(fi.Attributes, attrAccounts)
	delete(fi.Attributes, attrStatuses)
	delete(fi.Attributes, attrActions)
	delete(fi.Attributes, attrReviews)
	delete(fi.Attributes, attrMissing)

	return fi
}

// SerializeIdentity renders a fusion identity as the account attribute bag
// emitted back to the platform.
func SerializeIdentity(fi *fusion.FusionIdentity) attr.Attributes {
	out := fi.Attributes.Clone()

	accounts := make([]string, 0, len(fi.LinkedAccountIDs))
	for id := range fi.LinkedAccountIDs {
		accounts = append(accounts, id)
	}
	statuses := make([]string, 0, len(fi.Statuses))
	for s := range fi.Statuses {
		statuses = append(statuses, string(s))
	}
	actions := make([]string, 0, len(fi.Actions))
	for a := range fi.Actions {
		actions = append(actions, string(a))
	}

	missing := make([]string, 0, len(fi.MissingCounts))
	for id, count := range fi.MissingCounts {
		missing = append(missing, id+":"+strconv.Itoa(count))
	}
	sort.Strings(missing)

	out[attrAccounts] = attr.Strings(accounts)
	out[attrStatuses] = attr.Strings(statuses)
	out[attrActions] = attr.Strings(actions)
	out[attrReviews] = attr.Strings(fi.PendingReviewURLs)
	out[attrMissing] = attr.Strings(missing)
	return out
}
