package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/jobmarket/internal/schemas"
	"github.com/jonathan/jobmarket/internal/types"

	_ "modernc.org/sqlite"
)

const (
	keyCredential = "credential"
	keyRole       = "role"
)

// SQLiteStore keeps the credential and role in a device-local SQLite file.
// It implements both CredentialStore and RoleStore.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) the store at path.
// Use ":memory:" for a throwaway store.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store ping failed: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS shell_state (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create shell_state table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load implements CredentialStore. A stored credential that fails schema
// validation is reported as an error, not silently dropped.
func (s *SQLiteStore) Load(ctx context.Context) (*Credential, error) {
	raw, err := s.get(ctx, keyCredential)
	if err != nil || raw == "" {
		return nil, err
	}

	if err := schemas.ValidateCredential([]byte(raw)); err != nil {
		return nil, fmt.Errorf("stored credential is invalid: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return nil, fmt.Errorf("failed to decode stored credential: %w", err)
	}
	return &cred, nil
}

// Save implements CredentialStore.
func (s *SQLiteStore) Save(ctx context.Context, cred Credential) error {
	if cred.SavedAt.IsZero() {
		cred.SavedAt = time.Now().UTC()
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	return s.put(ctx, keyCredential, string(data))
}

// Clear implements CredentialStore.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.delete(ctx, keyCredential)
}

// LoadRole implements RoleStore.
func (s *SQLiteStore) LoadRole(ctx context.Context) (*types.Role, error) {
	raw, err := s.get(ctx, keyRole)
	if err != nil || raw == "" {
		return nil, err
	}

	r, err := types.ParseRole(raw)
	if err != nil {
		return nil, fmt.Errorf("stored role is invalid: %w", err)
	}
	return &r, nil
}

// SaveRole implements RoleStore.
func (s *SQLiteStore) SaveRole(ctx context.Context, role types.Role) error {
	if !role.Valid() {
		return fmt.Errorf("cannot save unknown role %q", role)
	}
	return s.put(ctx, keyRole, string(role))
}

// ClearRole implements RoleStore.
func (s *SQLiteStore) ClearRole(ctx context.Context) error {
	return s.delete(ctx, keyRole)
}

func (s *SQLiteStore) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM shell_state WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shell_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM shell_state WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
