package auth

import (
	"context"
	"errors"
	"strings"

	"stageranker/internal/models"
	"stageranker/internal/storage/sqlite"
)

// Registration is a sign-up form.
type Registration struct {
	Username        string `json:"username" form:"username"`
	Password        string `json:"password" form:"password"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm"`
	Email           string `json:"email" form:"email"`
}

// RegistrationError carries every problem found with a sign-up form.
type RegistrationError struct {
	Problems []string
}

func (e *RegistrationError) Error() string {
	return "registration rejected: " + strings.Join(e.Problems, "; ")
}

// Register validates r and creates a regular user account. Validation
// problems are returned together as a *RegistrationError.
func Register(ctx context.Context, store UserStore, r Registration) (models.User, error) {
	username := strings.TrimSpace(r.Username)
	var problems []string

	if username == "" {
		problems = append(problems, "Username is required.")
	} else {
		exists, err := store.UserExists(ctx, username)
		if err != nil {
			return models.User{}, err
		}
		if exists {
			problems = append(problems, "Username already exists. Please choose a different one.")
		}
	}

	if r.Password == "" {
		problems = append(problems, "Password is required.")
	} else if len(r.Password) < MinPasswordLength {
		problems = append(problems, "Password must be at least 8 characters long.")
	}
	if r.Password != r.PasswordConfirm {
		problems = append(problems, "Passwords do not match.")
	}

	if len(problems) > 0 {
		return models.User{}, &RegistrationError{Problems: problems}
	}

	hash, err := HashPassword(r.Password)
	if err != nil {
		return models.User{}, err
	}
	user, err := store.CreateUser(ctx, models.User{
		Username:     username,
		Email:        strings.TrimSpace(r.Email),
		PasswordHash: hash,
		Role:         models.RoleUser,
	})
	if errors.Is(err, sqlite.ErrUsernameTaken) {
		return models.User{}, &RegistrationError{Problems: []string{"Username already exists. Please choose a different one."}}
	}
	return user, err
}
