package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/storefront/internal/services/shop/account"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
)

const userColumns = "id, email, role, locale, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (account.User, error) {
	var (
		u         account.User
		role      string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&u.ID, &u.Email, &role, &u.Locale, &createdAt, &updatedAt); err != nil {
		return account.User{}, err
	}
	u.Role = account.Role(role)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

// CreateUser inserts a user with its password hash and profile.
func (s *Store) CreateUser(ctx context.Context, u account.User, passwordHash string, profile account.Profile) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?)",
			u.ID, u.Email, string(u.Role), u.Locale, toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
		)
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		if passwordHash != "" {
			if err := putPasswordHash(ctx, tx, u.ID, passwordHash, u.CreatedAt); err != nil {
				return err
			}
		}
		profile.UserID = u.ID
		if profile.UpdatedAt.IsZero() {
			profile.UpdatedAt = u.CreatedAt
		}
		return putProfile(ctx, tx, profile)
	})
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, userID string) (account.User, error) {
	if err := s.ready(ctx); err != nil {
		return account.User{}, err
	}
	u, err := scanUser(s.sqlDB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", userID))
	if err != nil {
		return account.User{}, notFound(err)
	}
	return u, nil
}

// GetUserByEmail fetches a user by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (account.User, error) {
	if err := s.ready(ctx); err != nil {
		return account.User{}, err
	}
	u, err := scanUser(s.sqlDB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
	if err != nil {
		return account.User{}, notFound(err)
	}
	return u, nil
}

// GetPasswordHash returns the stored bcrypt hash for a user.
func (s *Store) GetPasswordHash(ctx context.Context, userID string) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	var hash string
	err := s.sqlDB.QueryRowContext(ctx, "SELECT password_hash FROM user_passwords WHERE user_id = ?", userID).Scan(&hash)
	if err != nil {
		return "", notFound(err)
	}
	return hash, nil
}

// SetPasswordHash replaces a user's password hash.
func (s *Store) SetPasswordHash(ctx context.Context, userID string, hash string, now time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	return putPasswordHash(ctx, s.sqlDB, userID, hash, now)
}

func putPasswordHash(ctx context.Context, q queryer, userID string, hash string, now time.Time) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO user_passwords (user_id, password_hash, updated_at) VALUES (?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET password_hash = excluded.password_hash, updated_at = excluded.updated_at`,
		userID, hash, toMillis(now),
	)
	if err != nil {
		return fmt.Errorf("put password: %w", err)
	}
	return nil
}

// UpdateUserRole changes a user's role.
func (s *Store) UpdateUserRole(ctx context.Context, userID string, role account.Role, now time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, "UPDATE users SET role = ?, updated_at = ? WHERE id = ?", string(role), toMillis(now), userID)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return requireRow(result)
}

// ListUsers returns users newest first.
func (s *Store) ListUsers(ctx context.Context, query storage.UserQuery) ([]account.User, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var (
		where []string
		args  []any
	)
	if query.Role != "" {
		where = append(where, "role = ?")
		args = append(args, string(query.Role))
	}
	if query.Email != "" {
		where = append(where, "email LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(query.Email)+"%")
	}
	stmt := "SELECT " + userColumns + " FROM users"
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, query.Limit, query.Offset)

	rows, err := s.sqlDB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []account.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

// GetProfile fetches a user's profile.
func (s *Store) GetProfile(ctx context.Context, userID string) (account.Profile, error) {
	if err := s.ready(ctx); err != nil {
		return account.Profile{}, err
	}
	var (
		p         account.Profile
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT user_id, display_name, phone, address_line1, address_line2, address_city,
       address_region, address_postal_code, address_country, avatar_key, updated_at
FROM profiles WHERE user_id = ?`, userID).Scan(
		&p.UserID, &p.DisplayName, &p.Phone,
		&p.Address.Line1, &p.Address.Line2, &p.Address.City,
		&p.Address.Region, &p.Address.PostalCode, &p.Address.Country,
		&p.AvatarKey, &updatedAt,
	)
	if err != nil {
		return account.Profile{}, notFound(err)
	}
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

// PutProfile upserts a profile.
func (s *Store) PutProfile(ctx context.Context, profile account.Profile) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return putProfile(ctx, s.sqlDB, profile)
}

func putProfile(ctx context.Context, q queryer, p account.Profile) error {
	if strings.TrimSpace(p.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	_, err := q.ExecContext(ctx, `
INSERT INTO profiles (user_id, display_name, phone, address_line1, address_line2, address_city,
                      address_region, address_postal_code, address_country, avatar_key, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    display_name = excluded.display_name,
    phone = excluded.phone,
    address_line1 = excluded.address_line1,
    address_line2 = excluded.address_line2,
    address_city = excluded.address_city,
    address_region = excluded.address_region,
    address_postal_code = excluded.address_postal_code,
    address_country = excluded.address_country,
    avatar_key = excluded.avatar_key,
    updated_at = excluded.updated_at`,
		p.UserID, p.DisplayName, p.Phone,
		p.Address.Line1, p.Address.Line2, p.Address.City,
		p.Address.Region, p.Address.PostalCode, p.Address.Country,
		p.AvatarKey, toMillis(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

// SetAvatarKey stores a new avatar key and returns the previous one.
func (s *Store) SetAvatarKey(ctx context.Context, userID string, key string, now time.Time) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	var previous string
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, "SELECT avatar_key FROM profiles WHERE user_id = ?", userID).Scan(&previous); err != nil {
			return notFound(err)
		}
		_, err := tx.ExecContext(ctx, "UPDATE profiles SET avatar_key = ?, updated_at = ? WHERE user_id = ?", key, toMillis(now), userID)
		if err != nil {
			return fmt.Errorf("set avatar: %w", err)
		}
		return nil
	})
	return previous, err
}
