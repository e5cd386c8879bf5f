package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/jobmarket/internal/config"
	"github.com/jonathan/jobmarket/internal/db"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// TokenVerifier checks a provider ID token and returns the profile it asserts.
// Implementations delegate to the provider; the gateway never parses provider
// tokens itself.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*db.ProviderProfile, error)
}

// payloadValidator is the part of *idtoken.Validator GoogleVerifier uses.
type payloadValidator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

// GoogleVerifier verifies Google ID tokens against Google's signing keys.
type GoogleVerifier struct {
	clientID  string
	validator payloadValidator
}

// NewGoogleVerifier creates a verifier accepting tokens issued for clientID.
func NewGoogleVerifier(ctx context.Context, clientID string, hc *http.Client) (*GoogleVerifier, error) {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	v, err := idtoken.NewValidator(ctx, option.WithHTTPClient(hc))
	if err != nil {
		return nil, fmt.Errorf("failed to create google token validator: %w", err)
	}
	return &GoogleVerifier{clientID: clientID, validator: v}, nil
}

// Verify implements TokenVerifier.
func (g *GoogleVerifier) Verify(ctx context.Context, idToken string) (*db.ProviderProfile, error) {
	payload, err := g.validator.Validate(ctx, idToken, g.clientID)
	if err != nil {
		return nil, &ErrInvalidToken{Provider: config.ProviderGoogle, Cause: err}
	}
	if payload.Subject == "" {
		return nil, &ErrInvalidToken{Provider: config.ProviderGoogle, Cause: fmt.Errorf("token has no subject")}
	}

	profile := &db.ProviderProfile{
		Provider:    config.ProviderGoogle,
		Subject:     payload.Subject,
		DisplayName: claimString(payload.Claims, "name"),
		AvatarURL:   claimString(payload.Claims, "picture"),
	}
	if verified, _ := payload.Claims["email_verified"].(bool); verified {
		profile.Email = claimString(payload.Claims, "email")
	}
	return profile, nil
}

func claimString(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return s
}

// LineVerifier verifies LINE ID tokens with LINE's verify endpoint.
type LineVerifier struct {
	channelID string
	endpoint  string
	http      *http.Client
}

// NewLineVerifier creates a verifier accepting tokens issued for channelID.
func NewLineVerifier(channelID, endpoint string, hc *http.Client) *LineVerifier {
	if endpoint == "" {
		endpoint = config.DefaultLineVerifyURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &LineVerifier{channelID: channelID, endpoint: endpoint, http: hc}
}

type lineVerifyResponse struct {
	Subject          string `json:"sub"`
	Audience         string `json:"aud"`
	Name             string `json:"name"`
	Picture          string `json:"picture"`
	Email            string `json:"email"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Verify implements TokenVerifier.
func (l *LineVerifier) Verify(ctx context.Context, idToken string) (*db.ProviderProfile, error) {
	form := url.Values{"id_token": {idToken}, "client_id": {l.channelID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create line verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("line verify request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read line verify response: %w", err)
	}

	var out lineVerifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse line verify response (status %d): %w", resp.StatusCode, err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		// LINE answers 400 for expired, malformed or foreign tokens.
		return nil, &ErrInvalidToken{Provider: config.ProviderLine, Cause: fmt.Errorf("%s: %s", out.Error, out.ErrorDescription)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("line verify returned status %d", resp.StatusCode)
	case out.Subject == "":
		return nil, &ErrInvalidToken{Provider: config.ProviderLine, Cause: fmt.Errorf("token has no subject")}
	case out.Audience != l.channelID:
		return nil, &ErrInvalidToken{Provider: config.ProviderLine, Cause: fmt.Errorf("audience %q does not match channel", out.Audience)}
	}

	return &db.ProviderProfile{
		Provider:    config.ProviderLine,
		Subject:     out.Subject,
		DisplayName: out.Name,
		Email:       out.Email,
		AvatarURL:   out.Picture,
	}, nil
}

// NewVerifiers builds a verifier for every configured provider.
func NewVerifiers(ctx context.Context, cfg *config.ProviderConfig) (map[string]TokenVerifier, error) {
	verifiers := make(map[string]TokenVerifier)
	if cfg.GoogleClientID != "" {
		g, err := NewGoogleVerifier(ctx, cfg.GoogleClientID, nil)
		if err != nil {
			return nil, err
		}
		verifiers[config.ProviderGoogle] = g
	}
	if cfg.LineChannelID != "" {
		verifiers[config.ProviderLine] = NewLineVerifier(cfg.LineChannelID, cfg.LineVerifyURL, nil)
	}
	return verifiers, nil
}
