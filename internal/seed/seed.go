package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/auth"
	"github.com/rs/zerolog"
)

// UserStore is the part of the user repository the seed needs
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// AdminAccount describes the bootstrap administrator
type AdminAccount struct {
	Username string
	Email    string
	Password string
}

// CreateDefaultAdmin creates the administrator account if it does not exist
// yet. An empty password disables seeding.
func CreateDefaultAdmin(ctx context.Context, users UserStore, admin AdminAccount, lgr zerolog.Logger) error {
	if admin.Password == "" {
		lgr.Info().Msg("No admin password configured, skipping admin seeding")
		return nil
	}

	_, err := users.GetByUsername(ctx, admin.Username)
	if err == nil {
		lgr.Info().Str("username", admin.Username).Msg("Admin user already exists, skipping creation")
		return nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return fmt.Errorf("error checking admin user: %w", err)
	}

	hash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("error hashing admin password: %w", err)
	}

	user := &models.User{
		Username:   admin.Username,
		Email:      admin.Email,
		Password:   hash,
		FirstName:  "System",
		LastName:   "Administrator",
		Role:       models.RoleAdmin,
		IsVerified: true,
		IsActive:   true,
	}
	if err := users.Create(ctx, user); err != nil {
		return fmt.Errorf("error creating admin user: %w", err)
	}

	lgr.Info().Int64("adminID", user.ID).Str("username", user.Username).Msg("Default admin user created")
	return nil
}
