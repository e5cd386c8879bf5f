package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// SessionIdentity is the authenticated user's identifying record.
// Only ID is required; the remaining fields are optional and validated when present.
type SessionIdentity struct {
	ID          string  `json:"id" yaml:"id" validate:"required,notblank"`
	DisplayName *string `json:"displayName,omitempty" yaml:"displayName,omitempty" validate:"omitempty,max=200"`
	Email       *string `json:"email,omitempty" yaml:"email,omitempty" validate:"omitempty,email"`
	AvatarURL   *string `json:"avatarUrl,omitempty" yaml:"avatarUrl,omitempty" validate:"omitempty,url"`
	Role        *Role   `json:"role,omitempty" yaml:"role,omitempty" validate:"omitempty,oneof=seeker employer"`
}

var identityValidator = newIdentityValidator()

// newIdentityValidator adds notblank, which rejects whitespace-only strings.
func newIdentityValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate validates the identity using the validator.
func (i *SessionIdentity) Validate() error {
	return identityValidator.Struct(i)
}

// Clone returns a deep copy so callers cannot mutate shared state through pointers.
func (i *SessionIdentity) Clone() *SessionIdentity {
	if i == nil {
		return nil
	}
	out := &SessionIdentity{ID: i.ID}
	out.DisplayName = cloneString(i.DisplayName)
	out.Email = cloneString(i.Email)
	out.AvatarURL = cloneString(i.AvatarURL)
	if i.Role != nil {
		r := *i.Role
		out.Role = &r
	}
	return out
}

// Equal reports whether two identities carry the same values.
// Two nil identities are equal.
func (i *SessionIdentity) Equal(other *SessionIdentity) bool {
	if i == nil || other == nil {
		return i == nil && other == nil
	}
	if i.ID != other.ID {
		return false
	}
	if !equalString(i.DisplayName, other.DisplayName) ||
		!equalString(i.Email, other.Email) ||
		!equalString(i.AvatarURL, other.AvatarURL) {
		return false
	}
	if (i.Role == nil) != (other.Role == nil) {
		return false
	}
	return i.Role == nil || *i.Role == *other.Role
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
