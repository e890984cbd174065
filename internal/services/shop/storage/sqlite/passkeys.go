package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/storefront/internal/services/shop/storage"
)

// PutPasskeyCredential upserts a WebAuthn credential.
func (s *Store) PutPasskeyCredential(ctx context.Context, credential storage.PasskeyCredential) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(credential.CredentialID) == "" {
		return fmt.Errorf("credential id is required")
	}
	if strings.TrimSpace(credential.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(credential.CredentialJSON) == "" {
		return fmt.Errorf("credential json is required")
	}

	lastUsed := sql.NullInt64{}
	if credential.LastUsedAt != nil {
		lastUsed = sql.NullInt64{Int64: toMillis(*credential.LastUsedAt), Valid: true}
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO passkey_credentials (credential_id, user_id, credential_json, created_at, updated_at, last_used_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (credential_id) DO UPDATE SET
    credential_json = excluded.credential_json,
    updated_at = excluded.updated_at,
    last_used_at = excluded.last_used_at`,
		credential.CredentialID, credential.UserID, credential.CredentialJSON,
		toMillis(credential.CreatedAt), toMillis(credential.UpdatedAt), lastUsed,
	)
	if err != nil {
		return fmt.Errorf("put passkey: %w", err)
	}
	return nil
}

// GetPasskeyCredential fetches a stored WebAuthn credential.
func (s *Store) GetPasskeyCredential(ctx context.Context, credentialID string) (storage.PasskeyCredential, error) {
	if err := s.ready(ctx); err != nil {
		return storage.PasskeyCredential{}, err
	}
	if strings.TrimSpace(credentialID) == "" {
		return storage.PasskeyCredential{}, fmt.Errorf("credential id is required")
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT credential_id, user_id, credential_json, created_at, updated_at, last_used_at
FROM passkey_credentials WHERE credential_id = ?`, credentialID)
	credential, err := scanPasskey(row)
	if err != nil {
		return storage.PasskeyCredential{}, notFound(err)
	}
	return credential, nil
}

// ListPasskeyCredentials returns passkeys for a user.
func (s *Store) ListPasskeyCredentials(ctx context.Context, userID string) ([]storage.PasskeyCredential, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT credential_id, user_id, credential_json, created_at, updated_at, last_used_at
FROM passkey_credentials WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list passkeys: %w", err)
	}
	defer rows.Close()

	var credentials []storage.PasskeyCredential
	for rows.Next() {
		credential, err := scanPasskey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan passkey: %w", err)
		}
		credentials = append(credentials, credential)
	}
	return credentials, rows.Err()
}

func scanPasskey(row rowScanner) (storage.PasskeyCredential, error) {
	var (
		credential storage.PasskeyCredential
		createdAt  int64
		updatedAt  int64
		lastUsed   sql.NullInt64
	)
	if err := row.Scan(&credential.CredentialID, &credential.UserID, &credential.CredentialJSON, &createdAt, &updatedAt, &lastUsed); err != nil {
		return storage.PasskeyCredential{}, err
	}
	credential.CreatedAt = fromMillis(createdAt)
	credential.UpdatedAt = fromMillis(updatedAt)
	if lastUsed.Valid {
		value := fromMillis(lastUsed.Int64)
		credential.LastUsedAt = &value
	}
	return credential, nil
}

// PutPasskeySession stores a WebAuthn ceremony.
func (s *Store) PutPasskeySession(ctx context.Context, session storage.PasskeySession) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(session.Kind) == "" {
		return fmt.Errorf("session kind is required")
	}
	if strings.TrimSpace(session.SessionJSON) == "" {
		return fmt.Errorf("session json is required")
	}

	userID := sql.NullString{}
	if strings.TrimSpace(session.UserID) != "" {
		userID = sql.NullString{String: session.UserID, Valid: true}
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO passkey_sessions (id, kind, user_id, session_json, expires_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    kind = excluded.kind,
    user_id = excluded.user_id,
    session_json = excluded.session_json,
    expires_at = excluded.expires_at`,
		session.ID, session.Kind, userID, session.SessionJSON, toMillis(session.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("put passkey session: %w", err)
	}
	return nil
}

// GetPasskeySession fetches a stored WebAuthn ceremony.
func (s *Store) GetPasskeySession(ctx context.Context, id string) (storage.PasskeySession, error) {
	if err := s.ready(ctx); err != nil {
		return storage.PasskeySession{}, err
	}
	if strings.TrimSpace(id) == "" {
		return storage.PasskeySession{}, fmt.Errorf("session id is required")
	}
	var (
		session   storage.PasskeySession
		userID    sql.NullString
		expiresAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx, "SELECT id, kind, user_id, session_json, expires_at FROM passkey_sessions WHERE id = ?", id).
		Scan(&session.ID, &session.Kind, &userID, &session.SessionJSON, &expiresAt)
	if err != nil {
		return storage.PasskeySession{}, notFound(err)
	}
	session.UserID = userID.String
	session.ExpiresAt = fromMillis(expiresAt)
	return session, nil
}

// DeletePasskeySession removes a WebAuthn ceremony.
func (s *Store) DeletePasskeySession(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("session id is required")
	}
	if _, err := s.sqlDB.ExecContext(ctx, "DELETE FROM passkey_sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete passkey session: %w", err)
	}
	return nil
}

// DeleteExpiredPasskeySessions removes ceremonies that expired before now.
func (s *Store) DeleteExpiredPasskeySessions(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM passkey_sessions WHERE expires_at <= ?", toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired passkey sessions: %w", err)
	}
	return result.RowsAffected()
}
