package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/attr"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/forms"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/fusion"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountFixture(i int) accountRecord {
	id := "a" + strconv.Itoa(i)
	return accountRecord{
		ID:             id,
		Name:           "acct-" + id,
		NativeIdentity: "native-" + id,
		SourceID:       "src-1",
		SourceName:     "HR",
		Attributes:     attr.Attributes{"email": attr.String(id + "@example.com")},
	}
}

func TestListAccountsPaginates(t *testing.T) {
	total := pageSize + 40
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		var page []accountRecord
		for i := offset; i < offset+limit && i < total; i++ {
			page = append(page, accountFixture(i))
		}
		require.NoError(t, json.NewEncoder(w).Encode(page))
	})

	accounts, err := client.ListAccounts(context.Background(), "src-1", 0)
	require.NoError(t, err)
	assert.Len(t, accounts, total)
	assert.Equal(t, "a0", accounts[0].ID)
	assert.Equal(t, "HR", accounts[0].SourceName)
}

func TestListAccountsHonorsLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		var page []accountRecord
		for i := offset; i < offset+limit; i++ {
			page = append(page, accountFixture(i))
		}
		require.NoError(t, json.NewEncoder(w).Encode(page))
	})

	accounts, err := client.ListAccounts(context.Background(), "src-1", 30)
	require.NoError(t, err)
	assert.Len(t, accounts, 30)
}

func TestListAccountsDropsUncorrelatedIdentityID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		rec := accountFixture(0)
		rec.IdentityID = "ident-1"
		rec.Uncorrelated = true
		require.NoError(t, json.NewEncoder(w).Encode([]accountRecord{rec}))
	})

	accounts, err := client.ListAccounts(context.Background(), "src-1", 0)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Empty(t, accounts[0].IdentityID)
}

func TestListFusionFormsFiltersByNamePattern(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		page := formDefinitionPage{Results: []formDefinitionRecord{
			{ID: "f1", Name: forms.BuildFormName("HR", "acct-a1", "a1")},
			{ID: "f2", Name: "Access request approval"},
			{ID: "f3", Name: forms.BuildFormName("AD", "acct-a2", "a2")},
		}}
		require.NoError(t, json.NewEncoder(w).Encode(page))
	})

	defs, err := client.ListFusionForms(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "a1", defs[0].AccountID)
	assert.Equal(t, "a2", defs[1].AccountID)
}

func TestTriggerAggregationPostsLoadAccounts(t *testing.T) {
	var gotMethod, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	err := client.TriggerAggregation(context.Background(), "src-1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/v3/sources/src-1/load-accounts", gotPath)
}

func TestRehydrateSerializeRoundTrip(t *testing.T) {
	fi := fusion.NewFusionIdentity("native-1", "John Doe", "Identity Fusion")
	fi.Attributes["email"] = attr.String("jdoe@example.com")
	fi.LinkedAccountIDs["a1"] = struct{}{}
	fi.LinkedAccountIDs["a2"] = struct{}{}
	fi.AddStatus(fusion.StatusManual)
	fi.MissingCounts["a1"] = 2

	bag := SerializeIdentity(fi)

	rec := accountRecord{
		ID:             "fa-1",
		Name:           fi.Name,
		NativeIdentity: fi.NativeIdentity,
		SourceID:       "fusion-1",
		SourceName:     fi.SourceName,
		Attributes:     bag,
	}
	back := rehydrateIdentity(rec)

	assert.Equal(t, fi.NativeIdentity, back.NativeIdentity)
	assert.Equal(t, "jdoe@example.com", back.Attributes.GetString("email"))
	assert.Contains(t, back.LinkedAccountIDs, "a1")
	assert.Contains(t, back.LinkedAccountIDs, "a2")
	assert.True(t, back.HasStatus(fusion.StatusManual))
	assert.Equal(t, map[string]int{"a1": 2}, back.MissingCounts)

	_, hasBookkeeping := back.Attributes.Get(attrAccounts)
	assert.False(t, hasBookkeeping, "bookkeeping attributes must not leak into matching")
}
