package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ProviderAuthRequest is the body of POST /api/auth/{provider}.
type ProviderAuthRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// CreateUserRequest represents the request to create an employer account with password authentication.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=1"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     *Role  `json:"role,omitempty" validate:"omitempty,oneof=seeker employer"`
}

// LoginRequest represents the password login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SelectRoleRequest is the body of PUT /api/me/role.
type SelectRoleRequest struct {
	Role Role `json:"role" validate:"required,oneof=seeker employer"`
}

// AuthResponse is returned by every sign-in endpoint.
type AuthResponse struct {
	Identity *SessionIdentity `json:"identity"`
	Token    string           `json:"token"`
}

// IdentityResponse is returned by GET /api/me and PUT /api/me/role.
type IdentityResponse struct {
	Identity *SessionIdentity `json:"identity"`
}

// User represents a gateway account (avoids import cycle with db package).
type User struct {
	ID          uuid.UUID `json:"id"`
	Provider    string    `json:"provider"`
	Subject     string    `json:"subject"`
	DisplayName string    `json:"displayName,omitempty"`
	Email       string    `json:"email,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	Role        *Role     `json:"role,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Identity converts an account into the session identity handed to clients.
func (u *User) Identity() *SessionIdentity {
	if u == nil {
		return nil
	}
	id := &SessionIdentity{
		ID:          u.ID.String(),
		DisplayName: StringPtr(u.DisplayName),
		Email:       StringPtr(u.Email),
		AvatarURL:   StringPtr(u.AvatarURL),
	}
	if u.Role != nil {
		id.Role = RolePtr(*u.Role)
	}
	return id
}

// Validate validates the ProviderAuthRequest using the validator.
func (r *ProviderAuthRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the CreateUserRequest using the validator.
func (r *CreateUserRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the SelectRoleRequest using the validator.
func (r *SelectRoleRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
