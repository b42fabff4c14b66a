package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/app/repositories"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/auth"
	"github.com/rs/zerolog"
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo   repositories.IUserRepository
	tokenRepo  repositories.ITokenRepository
	jwtService *auth.JWTService
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repositories.IUserRepository,
	tokenRepo repositories.ITokenRepository,
	jwtService *auth.JWTService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtService: jwtService,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates an unverified ALUMNI account
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("password hashing error: %w", err)
	}

	user := &models.User{
		Username:   strings.TrimSpace(req.Username),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Password:   hash,
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		StudentID:  req.StudentID,
		Role:       models.RoleAlumni,
		IsVerified: false,
		IsActive:   true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("username", user.Username).Msg("User registered")
	return &dto.RegisterResponse{
		Message: "Registration successful, waiting for verification",
		UserID:  user.ID,
	}, nil
}

// Login authenticates a user by username and password
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	now := s.now()
	if err := s.checkStanding(ctx, user, now); err != nil {
		return nil, err
	}
	if user.Role == models.RoleFaculty && !user.IsVerified {
		return nil, apperrors.ErrAccountNotVerified
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to record last login")
	} else {
		user.LastLoginAt = &now
	}

	return s.generateAuthResponse(ctx, user)
}

// RefreshToken exchanges a refresh token for a new pair. The old token is
// revoked so it cannot be reused.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	stored, err := s.tokenRepo.GetToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if stored.IsRevoked {
		return nil, apperrors.ErrTokenRevoked
	}
	now := s.now()
	if stored.ExpiresAt.Before(now) {
		if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil && !errors.Is(err, apperrors.ErrTokenRevoked) {
			s.logger.Warn().Err(err).Int64("userID", stored.UserID).Msg("Failed to revoke expired refresh token")
		}
		return nil, apperrors.ErrTokenExpired
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.checkStanding(ctx, user, now); err != nil {
		return nil, err
	}

	// Losing this race to a concurrent refresh means the token was reused.
	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		if errors.Is(err, apperrors.ErrTokenRevoked) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}
	return s.generateAuthResponse(ctx, user)
}

// EnsureActive reports whether the account behind an access token may still
// act. Access tokens outlive account state changes, so callers check this per
// request.
func (s *AuthService) EnsureActive(ctx context.Context, userID int64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.ErrUnauthorized
		}
		return err
	}
	return s.checkStanding(ctx, user, s.now())
}

// checkStanding rejects disabled accounts and deactivates those that missed
// their password change deadline.
func (s *AuthService) checkStanding(ctx context.Context, user *models.User, now time.Time) error {
	if !user.IsActive {
		return apperrors.ErrAccountDisabled
	}
	if !user.PasswordChangeOverdue(now) {
		return nil
	}
	if err := s.userRepo.SetActive(ctx, user.ID, false); err != nil {
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to deactivate account with overdue password change")
	} else {
		user.IsActive = false
		if err := s.tokenRepo.RevokeAllUserTokens(ctx, user.ID); err != nil {
			s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to revoke refresh tokens of deactivated account")
		}
	}
	s.logger.Warn().Int64("userID", user.ID).Msg("Account deactivated: password change deadline passed")
	return apperrors.NewCustomError(apperrors.ErrAccountDisabled,
		"Account deactivated because the required password change was not made in time")
}

// GetCurrentUser returns the caller's account
func (s *AuthService) GetCurrentUser(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}

// ChangePassword sets a new password for the caller and clears any pending
// password change requirement. The old password is required unless a change
// is pending.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !user.PasswordChangeRequired || req.OldPassword != "" {
		if !auth.CheckPassword(user.Password, req.OldPassword) {
			return &apperrors.CustomError{
				Err:     apperrors.ErrInvalidPassword,
				Message: "Old password is incorrect",
				Field:   "old_password",
			}
		}
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("password hashing error: %w", err)
	}

	user.Password = hash
	user.PasswordChangeRequired = false
	user.PasswordChangeDeadline = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	if err := s.tokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to revoke refresh tokens after password change")
	}
	s.logger.Info().Int64("userID", userID).Msg("Password changed")
	return nil
}

// generateAuthResponse issues a token pair and stores the refresh token
func (s *AuthService) generateAuthResponse(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	if err := s.tokenRepo.CreateToken(ctx, pair.RefreshToken, user.ID, s.jwtService.GetRefreshTokenExpiry()); err != nil {
		return nil, fmt.Errorf("token saving error: %w", err)
	}

	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken:           pair.AccessToken,
			TokenType:             "Bearer",
			ExpiresIn:             int64(pair.ExpiresIn),
			RefreshToken:          pair.RefreshToken,
			RefreshTokenExpiresIn: int64(pair.RefreshExpiresIn),
		},
		User: dto.NewUserResponse(user),
	}, nil
}
