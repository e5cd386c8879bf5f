package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id, provider, subject, display_name, email, avatar_url, role, password_hash, created_at, updated_at`

// uniqueViolation is PostgreSQL's SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Provider, &u.Subject, &u.DisplayName, &u.Email, &u.AvatarURL,
		&u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// UpsertProviderUser creates the account for a provider subject, or refreshes
// its profile fields if it exists. Profile fields the provider omits keep their
// stored values; the role is never touched.
func (db *DB) UpsertProviderUser(ctx context.Context, p ProviderProfile) (*User, error) {
	if p.Provider == "" || p.Subject == "" {
		return nil, fmt.Errorf("provider and subject are required")
	}

	user, err := scanUser(db.pool.QueryRow(ctx,
		`INSERT INTO users (provider, subject, display_name, email, avatar_url)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (provider, subject) DO UPDATE SET
			display_name = COALESCE(EXCLUDED.display_name, users.display_name),
			email        = COALESCE(EXCLUDED.email, users.email),
			avatar_url   = COALESCE(EXCLUDED.avatar_url, users.avatar_url),
			updated_at   = NOW()
		 RETURNING `+userColumns,
		p.Provider, p.Subject, nullable(p.DisplayName), nullable(p.Email), nullable(p.AvatarURL),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert %s user: %w", p.Provider, err)
	}
	return user, nil
}

// CreatePasswordUser creates an email/password account.
// It returns ErrDuplicateUser if the email is already registered.
func (db *DB) CreatePasswordUser(ctx context.Context, name, email, passwordHash string, role *string) (*User, error) {
	email = strings.TrimSpace(email)
	user, err := scanUser(db.pool.QueryRow(ctx,
		`INSERT INTO users (provider, subject, display_name, email, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		ProviderPassword, strings.ToLower(email), nullable(name), email, passwordHash, role,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser retrieves a user by ID. It returns (nil, nil) when no user exists.
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetPasswordUser retrieves the email/password account for email.
// It returns (nil, nil) when no such account exists.
func (db *DB) GetPasswordUser(ctx context.Context, email string) (*User, error) {
	subject := strings.ToLower(strings.TrimSpace(email))
	if subject == "" {
		return nil, nil
	}
	user, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE provider = $1 AND subject = $2`,
		ProviderPassword, subject))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// UpdateRole sets the user's role. It returns (nil, nil) when no user exists.
func (db *DB) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*User, error) {
	user, err := scanUser(db.pool.QueryRow(ctx,
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
		id, role))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	return user, nil
}

// DeleteUser deletes a user.
func (db *DB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}
