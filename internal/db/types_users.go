package db

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ProviderPassword is the provider name of email/password accounts.
// Their subject is the lower-cased email.
const ProviderPassword = "password"

// ErrDuplicateUser is returned when (provider, subject) is already registered.
var ErrDuplicateUser = errors.New("user already exists")

// User is a row of the users table.
type User struct {
	ID           uuid.UUID `json:"id"`
	Provider     string    `json:"provider"`
	Subject      string    `json:"subject"`
	DisplayName  *string   `json:"display_name,omitempty"`
	Email        *string   `json:"email,omitempty"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	Role         *string   `json:"role,omitempty"`
	PasswordHash *string   `json:"-" db:"password_hash"` // Never serialize to JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProviderProfile is what a verified ID token tells us about its user.
type ProviderProfile struct {
	Provider    string
	Subject     string
	DisplayName string
	Email       string
	AvatarURL   string
}
