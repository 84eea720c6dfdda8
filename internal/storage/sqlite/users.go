package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"stageranker/internal/models"
)

const userColumns = `id, username, email, password_hash, role, created_at`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

// CreateUser inserts an account. The password must already be hashed.
func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	username := strings.TrimSpace(u.Username)
	if username == "" {
		return models.User{}, fmt.Errorf("%w: username must not be empty", ErrInvalid)
	}
	if u.PasswordHash == "" {
		return models.User{}, fmt.Errorf("%w: password hash must not be empty", ErrInvalid)
	}
	if _, ok := models.ValidRoles[u.Role]; !ok {
		u.Role = models.RoleUser
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO users(username, email, password_hash, role) VALUES(?, ?, ?, ?)`,
		username, strings.TrimSpace(u.Email), u.PasswordHash, string(u.Role))
	if isUniqueViolation(err) {
		return models.User{}, fmt.Errorf("create user %q: %w", username, ErrUsernameTaken)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByUsername fetches a user by its unique username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, strings.TrimSpace(username)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UserExists reports whether a username is already registered.
func (s *Store) UserExists(ctx context.Context, username string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE username = ?`, strings.TrimSpace(username)).Scan(&n); err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}
