// Package api provides the shared request pipeline used by every REST call in
// the client. It attaches the bearer token to outgoing requests and, on a 401,
// performs exactly one refresh-token exchange followed by exactly one retry of
// the original request. Concurrent 401s coalesce into a single in-flight
// exchange whose outcome all waiters share.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/facilitycare/client-go/credentials"
	"github.com/facilitycare/client-go/internal/apierrors"
)

const defaultTimeout = 30 * time.Second

// Client is the shared HTTP pipeline. All SDK components issue requests
// through it; none of them construct http.Requests directly.
type Client struct {
	baseURL    string
	store      credentials.Store
	httpClient *http.Client
	logger     zerolog.Logger

	refreshGroup singleflight.Group

	expiredMu        sync.Mutex
	expiredListeners []func()
}

// Option modifies a Client at construction time.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport (primarily for tests).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout on the underlying transport.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a Client for the given base URL. The credential store supplies
// the bearer token for every request and receives the rotated pair after a
// successful refresh exchange.
func New(baseURL string, store credentials.Store, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[api.New] baseURL is required")
	}
	if store == nil {
		return nil, errors.New("[api.New] credential store is required")
	}

	c := &Client{
		baseURL:    baseURL,
		store:      store,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log.With().Str("component", "api").Logger(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// OnSessionExpired registers a listener invoked after a failed refresh
// exchange has cleared the credentials. The HTTP client never references the
// session manager directly; this signal is the only coupling between them.
func (c *Client) OnSessionExpired(listener func()) {
	c.expiredMu.Lock()
	defer c.expiredMu.Unlock()
	c.expiredListeners = append(c.expiredListeners, listener)
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT request with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do runs a request through the full pipeline: bearer attach, 401 handling,
// single refresh-and-retry, JSON decode. out may be nil when the caller does
// not need the response body.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[Client.Do] failed to encode request body")
		}
		payload = data
	}

	staleAccess := c.store.Access()
	status, respBody, err := c.send(ctx, method, path, payload, staleAccess)
	if err != nil {
		return err
	}

	// A 401 from the login endpoint means bad credentials, not an expired
	// access token. Refreshing there would loop forever.
	if status == http.StatusUnauthorized && path != EndpointLogin {
		access, refreshErr := c.refresh(ctx, staleAccess)
		if refreshErr != nil {
			// The refresh error, not the original 401, reaches the caller.
			return refreshErr
		}

		// Single retry with the rotated token. A second 401 is surfaced
		// as-is; the request is never retried twice.
		status, respBody, err = c.send(ctx, method, path, payload, access)
		if err != nil {
			return err
		}
	}

	if status < 200 || status >= 300 {
		return apierrors.FromResponse(status, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Wrapf(err, "[Client.Do] failed to decode %s %s response", method, path)
	}
	return nil
}

// send performs one HTTP round trip with the given access token. It returns
// the status and fully-read body; transport failures are the only errors.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, access string) (int, []byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "[Client.send] failed to build %s %s", method, path)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "[Client.send] %s %s failed", method, path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "[Client.send] failed to read %s %s response", method, path)
	}
	return resp.StatusCode, respBody, nil
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// refresh exchanges the stored refresh token for a new pair. Concurrent
// callers share one exchange: the backend rotates refresh tokens on use, so a
// second concurrent exchange with the same token would fail spuriously.
// On failure the credentials are cleared and the session-expired signal fires
// exactly once for the exchange.
func (c *Client) refresh(ctx context.Context, staleAccess string) (string, error) {
	access, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		// Another caller may have finished an exchange between our 401
		// and this point; its rotated token is good, use it instead of
		// burning a second exchange.
		if current := c.store.Access(); current != "" && current != staleAccess {
			return current, nil
		}
		return c.exchangeRefreshToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return access.(string), nil
}

// exchangeRefreshToken posts directly to the refresh endpoint, bypassing Do so
// a 401 here cannot recurse into another refresh.
func (c *Client) exchangeRefreshToken(ctx context.Context) (string, error) {
	refreshToken := c.store.Refresh()
	if refreshToken == "" {
		c.store.Clear()
		c.signalSessionExpired()
		return "", errors.Wrap(apierrors.ErrNoRefreshToken, "[Client.exchangeRefreshToken]")
	}

	payload, err := json.Marshal(refreshRequest{Refresh: refreshToken})
	if err != nil {
		return "", errors.Wrap(err, "[Client.exchangeRefreshToken] failed to encode request")
	}

	status, respBody, err := c.send(ctx, http.MethodPost, EndpointRefreshToken, payload, "")
	if err != nil {
		c.store.Clear()
		c.signalSessionExpired()
		return "", err
	}
	if status != http.StatusOK {
		c.store.Clear()
		c.signalSessionExpired()
		return "", errors.Wrap(apierrors.ErrSessionExpired, "[Client.exchangeRefreshToken] refresh token rejected")
	}

	var tokens refreshResponse
	if err := json.Unmarshal(respBody, &tokens); err != nil {
		c.store.Clear()
		c.signalSessionExpired()
		return "", errors.Wrap(err, "[Client.exchangeRefreshToken] failed to decode response")
	}
	if tokens.Access == "" {
		c.store.Clear()
		c.signalSessionExpired()
		return "", errors.Wrap(apierrors.ErrSessionExpired, "[Client.exchangeRefreshToken] empty access token in response")
	}

	c.store.Save(tokens.Access, tokens.Refresh)
	c.logger.Debug().Msg("access token refreshed")
	return tokens.Access, nil
}

func (c *Client) signalSessionExpired() {
	c.expiredMu.Lock()
	listeners := make([]func(), len(c.expiredListeners))
	copy(listeners, c.expiredListeners)
	c.expiredMu.Unlock()

	c.logger.Info().Msg("session expired, notifying listeners")
	for _, listener := range listeners {
		listener()
	}
}
