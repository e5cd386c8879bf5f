// Package persist stores the shell's sign-in credential and selected role between launches.
package persist

import (
	"context"
	"time"

	"github.com/jonathan/jobmarket/internal/types"
)

// Credential is what the shell keeps after a successful sign-in.
// Token is the gateway-issued bearer token; it may be empty for identities
// signed in without the gateway.
type Credential struct {
	Identity types.SessionIdentity `json:"identity"`
	Token    string                `json:"token,omitempty"`
	SavedAt  time.Time             `json:"savedAt"`
}

// CredentialStore persists a single credential.
// Load returns (nil, nil) when nothing is stored.
type CredentialStore interface {
	Load(ctx context.Context) (*Credential, error)
	Save(ctx context.Context, cred Credential) error
	Clear(ctx context.Context) error
}

// RoleStore persists the selected role.
// LoadRole returns (nil, nil) when nothing is stored.
type RoleStore interface {
	LoadRole(ctx context.Context) (*types.Role, error)
	SaveRole(ctx context.Context, role types.Role) error
	ClearRole(ctx context.Context) error
}
