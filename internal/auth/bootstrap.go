package auth

import (
	"context"
	"log/slog"

	"stageranker/internal/models"
)

// UserStore is the subset of the store needed to provision accounts.
type UserStore interface {
	UserExists(ctx context.Context, username string) (bool, error)
	CreateUser(ctx context.Context, u models.User) (models.User, error)
}

// SuperuserConfig describes the account created at startup.
type SuperuserConfig struct {
	Username string
	Password string
	Email    string
}

// BootstrapSuperuser creates the configured superuser once. It does nothing
// when the username or password is unset or the account already exists, and
// reports whether an account was created.
func BootstrapSuperuser(ctx context.Context, store UserStore, cfg SuperuserConfig, logger *slog.Logger) (bool, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return false, nil
	}

	exists, err := store.UserExists(ctx, cfg.Username)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	hash, err := HashPassword(cfg.Password)
	if err != nil {
		return false, err
	}
	user, err := store.CreateUser(ctx, models.User{
		Username:     cfg.Username,
		Email:        cfg.Email,
		PasswordHash: hash,
		Role:         models.RoleSuperuser,
	})
	if err != nil {
		return false, err
	}
	if logger != nil {
		logger.Info("superuser created", slog.String("username", user.Username))
	}
	return true, nil
}
