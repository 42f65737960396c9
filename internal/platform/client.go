// Package platform implements the identity platform API client: token
// acquisition, rate limiting, retry with backoff, and the typed surfaces the
// fusion runner consumes (accounts, identities, forms, notifications).
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/config"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/logger"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	// pageSize is the page length used for offset-paginated listings.
	pageSize = 250

	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 30 * time.Second
)

// APIError is a non-2xx platform response.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform API %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Retryable reports whether the failure is transient: throttling or a
// server-side error. Client errors other than 429 fail fast.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client is the authenticated platform API client shared by all surfaces.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewClient builds a client using the OAuth2 client-credentials flow. The
// token is refreshed transparently by the underlying transport.
func NewClient(cfg config.PlatformConfig) *Client {
	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     strings.TrimSuffix(cfg.BaseURL, "/") + "/oauth/token",
	}

	httpClient := creds.Client(context.Background())
	httpClient.Timeout = cfg.Timeout

	burst := int(cfg.RateLimit)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), burst),
		maxRetries: cfg.MaxRetries,
	}
}

// get issues a GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// post issues a POST with a JSON body and decodes the response into out.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// patch issues a JSON-patch request.
func (c *Client) patch(ctx context.Context, path string, ops []PatchOp, out interface{}) error {
	return c.do(ctx, http.MethodPatch, path, nil, ops, out)
}

// delete issues a DELETE; 404 responses are treated as success.
func (c *Client) delete(ctx context.Context, path string) error {
	err := c.do(ctx, http.MethodDelete, path, nil, nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

// PatchOp is a JSON-patch operation.
type PatchOp struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value,omitempty"`
}

// do executes one request with rate limiting and bounded retries. Throttled
// (429) and server-error responses are retried with exponential backoff and
// jitter, honoring Retry-After when present; other client errors fail fast.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt, lastErr)
			logger.Warn().
				Err(lastErr).
				Str("method", method).
				Str("path", path).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("retrying platform request")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			if method == http.MethodPatch {
				req.Header.Set("Content-Type", "application/json-patch+json")
			} else {
				req.Header.Set("Content-Type", "application/json")
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Network-level failure, retryable.
			lastErr = fmt.Errorf("%s %s: %w", method, path, err)
			continue
		}

		err = decodeResponse(resp, method, path, out)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Retryable() {
			lastErr = err
			continue
		}
		return err
	}

	return fmt.Errorf("request failed after %d retries: %w", c.maxRetries, lastErr)
}

func decodeResponse(resp *http.Response, method, path string, out interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Body:       strings.TrimSpace(string(snippet)),
		}
		if after := resp.Header.Get("Retry-After"); after != "" {
			apiErr.Body = fmt.Sprintf("%s (retry-after %s)", apiErr.Body, after)
		}
		return retryAfterError(apiErr, resp.Header.Get("Retry-After"))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// throttledError carries the server's Retry-After hint through the retry
// loop.
type throttledError struct {
	*APIError
	retryAfter time.Duration
}

func (e *throttledError) Unwrap() error { return e.APIError }

func retryAfterError(apiErr *APIError, header string) error {
	if header == "" {
		return apiErr
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return apiErr
	}
	return &throttledError{APIError: apiErr, retryAfter: time.Duration(seconds) * time.Second}
}

// backoffDelay computes the wait before the given attempt: exponential with
// jitter, capped, overridden by an explicit Retry-After hint.
func backoffDelay(attempt int, lastErr error) time.Duration {
	var throttled *throttledError
	if errors.As(lastErr, &throttled) && throttled.retryAfter > 0 {
		return throttled.retryAfter
	}

	delay := retryBaseDelay << (attempt - 1)
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	// Full jitter between half and the full delay.
	half := delay / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}
