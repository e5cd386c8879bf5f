package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/jobmarket/internal/config"
	"github.com/jonathan/jobmarket/internal/db"
	"github.com/jonathan/jobmarket/internal/types"
)

// UserStore is the account storage the gateway needs. *db.DB implements it.
type UserStore interface {
	UpsertProviderUser(ctx context.Context, p db.ProviderProfile) (*db.User, error)
	CreatePasswordUser(ctx context.Context, name, email, passwordHash string, role *string) (*db.User, error)
	GetPasswordUser(ctx context.Context, email string) (*db.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) (*db.User, error)
}

// UserService provides business logic for gateway accounts
type UserService struct {
	store          UserStore
	passwordConfig *config.PasswordConfig
	verifiers      map[string]TokenVerifier
}

// NewUserService creates a new UserService with the given dependencies
func NewUserService(store UserStore, passwordConfig *config.PasswordConfig, verifiers map[string]TokenVerifier) *UserService {
	if verifiers == nil {
		verifiers = map[string]TokenVerifier{}
	}
	return &UserService{
		store:          store,
		passwordConfig: passwordConfig,
		verifiers:      verifiers,
	}
}

// convertDBUserToTypesUser converts db.User to types.User, excluding password hash
func convertDBUserToTypesUser(dbUser *db.User) *types.User {
	if dbUser == nil {
		return nil
	}
	user := &types.User{
		ID:          dbUser.ID,
		Provider:    dbUser.Provider,
		Subject:     dbUser.Subject,
		DisplayName: deref(dbUser.DisplayName),
		Email:       deref(dbUser.Email),
		AvatarURL:   deref(dbUser.AvatarURL),
		CreatedAt:   dbUser.CreatedAt,
		UpdatedAt:   dbUser.UpdatedAt,
	}
	// A role column the enum no longer knows is treated as unselected.
	if dbUser.Role != nil {
		if r, err := types.ParseRole(*dbUser.Role); err == nil {
			user.Role = &r
		}
	}
	return user
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Provider reports whether a verifier is configured for provider.
func (s *UserService) Provider(provider string) (TokenVerifier, error) {
	v, ok := s.verifiers[provider]
	if !ok {
		return nil, &ErrUnknownProvider{Provider: provider}
	}
	return v, nil
}

// SignInWithProvider verifies idToken with the provider and returns the
// matching account, creating it on first sign-in.
func (s *UserService) SignInWithProvider(ctx context.Context, provider, idToken string) (*types.User, error) {
	verifier, err := s.Provider(provider)
	if err != nil {
		return nil, err
	}

	profile, err := verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	profile.Provider = provider

	dbUser, err := s.store.UpsertProviderUser(ctx, *profile)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert %s user: %w", provider, err)
	}
	return convertDBUserToTypesUser(dbUser), nil
}

// Register creates a new user with password authentication.
// Password accounts default to the employer role.
func (s *UserService) Register(ctx context.Context, req *types.CreateUserRequest) (*types.User, error) {
	passwordHash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := types.RoleEmployer
	if req.Role != nil {
		role = *req.Role
	}
	roleStr := role.String()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	dbUser, err := s.store.CreatePasswordUser(ctx, req.Name, email, passwordHash, &roleStr)
	if err != nil {
		if errors.Is(err, db.ErrDuplicateUser) {
			return nil, &ErrEmailAlreadyExists{Email: email}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return convertDBUserToTypesUser(dbUser), nil
}

// Login authenticates a password user and returns user data
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (*types.User, error) {
	dbUser, err := s.store.GetPasswordUser(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	// Unknown email and wrong password are indistinguishable to the caller.
	if dbUser == nil || dbUser.PasswordHash == nil {
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwordConfig.VerifyPassword(req.Password, *dbUser.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}

	return convertDBUserToTypesUser(dbUser), nil
}

// Get returns the account with the given ID.
func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	dbUser, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if dbUser == nil {
		return nil, &ErrUserNotFound{UserID: userID}
	}
	return convertDBUserToTypesUser(dbUser), nil
}

// SelectRole stores the account's selected role.
func (s *UserService) SelectRole(ctx context.Context, userID uuid.UUID, role types.Role) (*types.User, error) {
	if !role.Valid() {
		return nil, &ErrValidation{Field: "role", Message: fmt.Sprintf("unknown role %q", role)}
	}
	dbUser, err := s.store.UpdateRole(ctx, userID, role.String())
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	if dbUser == nil {
		return nil, &ErrUserNotFound{UserID: userID}
	}
	return convertDBUserToTypesUser(dbUser), nil
}
