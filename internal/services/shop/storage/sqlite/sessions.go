package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RevokeSession records a session token id as revoked until it expires.
func (s *Store) RevokeSession(ctx context.Context, tokenID string, userID string, expiresAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(tokenID) == "" {
		return fmt.Errorf("token id is required")
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO revoked_sessions (token_id, user_id, expires_at) VALUES (?, ?, ?)
ON CONFLICT (token_id) DO NOTHING`, tokenID, userID, toMillis(expiresAt))
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// IsSessionRevoked reports whether a token id was revoked.
func (s *Store) IsSessionRevoked(ctx context.Context, tokenID string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	var count int64
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM revoked_sessions WHERE token_id = ?", tokenID).Scan(&count); err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return count > 0, nil
}

// DeleteExpiredRevocations drops revocations whose tokens have expired anyway.
func (s *Store) DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM revoked_sessions WHERE expires_at <= ?", toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired revocations: %w", err)
	}
	return result.RowsAffected()
}
