package client

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonathan/jobmarket/internal/persist"
	"github.com/jonathan/jobmarket/internal/types"
)

// OfflineVerifier accepts a credential unless its gateway token has expired.
// The signature is not checked: the shell does not hold the gateway's secret,
// so this only avoids restoring sessions the gateway will refuse anyway.
// Credentials without a token are accepted as they are.
type OfflineVerifier struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// Leeway tolerates clock skew.
	Leeway time.Duration
}

// Verify implements the composer's CredentialVerifier.
func (v *OfflineVerifier) Verify(_ context.Context, cred persist.Credential) (*types.SessionIdentity, error) {
	if cred.Token == "" {
		return cred.Identity.Clone(), nil
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(cred.Token, claims); err != nil {
		return nil, fmt.Errorf("malformed credential token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return cred.Identity.Clone(), nil
	}

	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	if now().After(claims.ExpiresAt.Add(v.Leeway)) {
		return nil, fmt.Errorf("%w at %s", ErrCredentialExpired, claims.ExpiresAt.Format(time.RFC3339))
	}
	return cred.Identity.Clone(), nil
}
