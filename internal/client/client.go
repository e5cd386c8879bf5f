// Package client calls the auth gateway on behalf of the app shell.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/jobmarket/internal/persist"
	"github.com/jonathan/jobmarket/internal/types"
	"go.uber.org/zap"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 15 * time.Second

// maxBodySize caps how much of a response is read.
const maxBodySize = 1 << 20

// HealthStatus is the body of GET /.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
}

// Client is a gateway client. It satisfies the composer's Authenticator,
// CredentialVerifier and RoleSyncer interfaces.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	offline *OfflineVerifier
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the gateway at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &Error{Op: "client", Message: fmt.Sprintf("invalid gateway URL %q", baseURL), Cause: err}
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
		offline: &OfflineVerifier{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Health calls GET /.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.do(ctx, http.MethodGet, "/", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Authenticate exchanges a provider ID token for a session identity and a gateway token.
func (c *Client) Authenticate(ctx context.Context, provider, idToken string) (*types.AuthResponse, error) {
	if provider == "" {
		return nil, &Error{Op: "authenticate", Message: "provider is required"}
	}

	var out types.AuthResponse
	path := "/api/auth/" + url.PathEscape(provider)
	if err := c.do(ctx, http.MethodPost, path, "", types.ProviderAuthRequest{IDToken: idToken}, &out); err != nil {
		return nil, err
	}
	if out.Identity == nil {
		return nil, &Error{Op: "authenticate", Message: "response has no identity"}
	}
	return &out, nil
}

// Me returns the identity behind token.
func (c *Client) Me(ctx context.Context, token string) (*types.SessionIdentity, error) {
	var out types.IdentityResponse
	if err := c.do(ctx, http.MethodGet, "/api/me", token, nil, &out); err != nil {
		return nil, err
	}
	if out.Identity == nil {
		return nil, &Error{Op: "me", Message: "response has no identity"}
	}
	return out.Identity, nil
}

// SyncRole stores the selected role on the gateway account.
func (c *Client) SyncRole(ctx context.Context, token string, role types.Role) error {
	return c.do(ctx, http.MethodPut, "/api/me/role", token, types.SelectRoleRequest{Role: role}, nil)
}

// Verify checks a persisted credential against the gateway. Expired tokens
// are rejected without a request.
func (c *Client) Verify(ctx context.Context, cred persist.Credential) (*types.SessionIdentity, error) {
	if cred.Token == "" {
		return nil, ErrMissingToken
	}
	if _, err := c.offline.Verify(ctx, cred); err != nil {
		return nil, err
	}

	identity, err := c.Me(ctx, cred.Token)
	if err != nil {
		return nil, fmt.Errorf("gateway rejected credential: %w", err)
	}
	if identity.ID != cred.Identity.ID {
		return nil, fmt.Errorf("gateway returned identity %q for credential of %q", identity.ID, cred.Identity.ID)
	}
	return identity, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	op := method + " " + path
	endpoint := c.baseURL.JoinPath(path)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Message: "failed to encode request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return &Error{Op: op, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: op, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &Error{Op: op, Message: "failed to read response", Cause: err}
	}
	c.logger.Debug("Gateway request",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Op: op, Message: "failed to decode response", Cause: err}
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Error
		if payload.Message != "" {
			apiErr.Message = payload.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// IsUnauthorized reports whether err is a 401 from the gateway.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
