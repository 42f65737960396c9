package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient wires a client against a test server that also serves the
// token endpoint.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/", handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return NewClient(config.PlatformConfig{
		BaseURL:      server.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RateLimit:    1000,
		MaxRetries:   2,
		Timeout:      5 * time.Second,
	})
}

func TestDoSendsBearerToken(t *testing.T) {
	var gotAuth atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"ok":true}`)
	})

	var out map[string]bool
	err := client.get(context.Background(), "/v3/ping", nil, &out)
	require.NoError(t, err)
	assert.True(t, out["ok"])
	assert.Equal(t, "Bearer test-token", gotAuth.Load())
}

func TestDoRetriesThrottledRequests(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	})

	var out map[string]bool
	err := client.get(context.Background(), "/v3/accounts", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDoRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	})

	var out map[string]bool
	err := client.get(context.Background(), "/v3/accounts", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoFailsFastOnClientError(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, `{"detailCode":"400.1 Bad request"}`, http.StatusBadRequest)
	})

	err := client.get(context.Background(), "/v3/accounts", nil, nil)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load(), "client errors must not be retried")
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.get(context.Background(), "/v3/accounts", nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load(), "initial attempt plus two retries")
}

func TestDeleteTreatsNotFoundAsSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.delete(context.Background(), "/v3/form-definitions/gone")
	assert.NoError(t, err)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.get(ctx, "/v3/accounts", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffDelayHonorsRetryAfter(t *testing.T) {
	apiErr := &APIError{StatusCode: http.StatusTooManyRequests}
	err := retryAfterError(apiErr, "3")

	delay := backoffDelay(1, err)
	assert.Equal(t, 3*time.Second, delay)
}

func TestBackoffDelayIsCappedAndJittered(t *testing.T) {
	for attempt := 1; attempt <= 12; attempt++ {
		delay := backoffDelay(attempt, &APIError{StatusCode: http.StatusBadGateway})
		assert.LessOrEqual(t, delay, retryMaxDelay)
		assert.GreaterOrEqual(t, delay, retryBaseDelay/4)
	}
}

func TestPatchSetsJSONPatchContentType(t *testing.T) {
	var gotType atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotType.Store(r.Header.Get("Content-Type"))
		var ops []PatchOp
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ops))
		fmt.Fprint(w, `{}`)
	})

	ops := []PatchOp{{Op: "replace", Path: "/connectorAttributes/locked", Value: true}}
	err := client.patch(context.Background(), "/v3/sources/src-1", ops, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/json-patch+json", gotType.Load())
}
