package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/app/repositories"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/auth"
	"github.com/alumnisphere/api/internal/pkg/email"
	"github.com/alumnisphere/api/internal/pkg/filestorage"
	"github.com/alumnisphere/api/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// DefaultRejectionReason is sent when an admin rejects without a reason.
const DefaultRejectionReason = "Not eligible"

// UserService defines account administration operations
type UserService interface {
	ListUsers(ctx context.Context, filter dto.AdminUserFilter) (*dto.PaginatedResponse[dto.UserResponse], error)
	VerifyUser(ctx context.Context, userID int64) (*dto.UserActionResponse, error)
	RejectUser(ctx context.Context, userID int64, reason string) (*dto.UserActionResponse, error)
	UploadAvatar(ctx context.Context, userID int64, fileHeader *multipart.FileHeader) (*dto.AvatarResponse, error)
}

// UserServiceConfig holds the faculty onboarding settings
type UserServiceConfig struct {
	FacultyDefaultPassword string
	PasswordChangeWindow   time.Duration
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	userRepo     repositories.IUserRepository
	emailService email.EmailService
	fileStorage  filestorage.FileStorage
	config       UserServiceConfig
	logger       zerolog.Logger
	now          func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(
	userRepo repositories.IUserRepository,
	emailService email.EmailService,
	fileStorage filestorage.FileStorage,
	config UserServiceConfig,
	logger zerolog.Logger,
) UserService {
	return &userServiceImpl{
		userRepo:     userRepo,
		emailService: emailService,
		fileStorage:  fileStorage,
		config:       config,
		logger:       logger,
		now:          time.Now,
	}
}

// ListUsers returns a filtered page of accounts
func (s *userServiceImpl) ListUsers(ctx context.Context, filter dto.AdminUserFilter) (*dto.PaginatedResponse[dto.UserResponse], error) {
	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.Size)
	users, total, err := s.userRepo.List(ctx, repositories.UserFilter{
		Role:     filter.Role,
		Verified: filter.Verified,
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, *dto.NewUserResponse(u))
	}
	page := dto.NewPaginatedResponse(items, helpers.NewPaginationInfo(total, filter.Page, int(limit)))
	return &page, nil
}

// VerifyUser marks an ALUMNI or FACULTY account as verified. FACULTY accounts
// are also given the default password and must change it within the
// configured window.
func (s *userServiceImpl) VerifyUser(ctx context.Context, userID int64) (*dto.UserActionResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Role.RequiresVerification() {
		return nil, apperrors.NewBadRequestError("Only ALUMNI and FACULTY accounts can be verified")
	}

	user.IsVerified = true
	var deadline time.Time
	if user.Role == models.RoleFaculty {
		hash, err := auth.HashPassword(s.config.FacultyDefaultPassword)
		if err != nil {
			return nil, fmt.Errorf("password hashing error: %w", err)
		}
		deadline = s.now().Add(s.config.PasswordChangeWindow)
		user.Password = hash
		user.PasswordChangeRequired = true
		user.PasswordChangeDeadline = &deadline
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("error verifying user: %w", err)
	}
	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Msg("User verified")

	if err := s.emailService.SendAccountVerifiedEmail(user.Email, user.FullName()); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to send verification email")
	}
	if user.Role == models.RoleFaculty {
		err := s.emailService.SendFacultyCredentialsEmail(user.Email, user.FullName(), user.Username, s.config.FacultyDefaultPassword, deadline)
		if err != nil {
			s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to send faculty credentials email")
		}
	}

	return &dto.UserActionResponse{Status: "verified", User: dto.NewUserResponse(user)}, nil
}

// RejectUser deactivates an account and notifies its owner
func (s *userServiceImpl) RejectUser(ctx context.Context, userID int64, reason string) (*dto.UserActionResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.SetActive(ctx, user.ID, false); err != nil {
		return nil, fmt.Errorf("error rejecting user: %w", err)
	}
	user.IsActive = false
	s.logger.Info().Int64("userID", user.ID).Msg("User rejected")

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultRejectionReason
	}
	if err := s.emailService.SendAccountRejectedEmail(user.Email, user.FullName(), reason); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to send rejection email")
	}

	return &dto.UserActionResponse{Status: "rejected", User: dto.NewUserResponse(user)}, nil
}

// UploadAvatar stores a new avatar image and removes the previous one
func (s *userServiceImpl) UploadAvatar(ctx context.Context, userID int64, fileHeader *multipart.FileHeader) (*dto.AvatarResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.fileStorage.SaveFileWithPath(fileHeader, "avatars")
	if err != nil {
		if errors.Is(err, filestorage.ErrUnsupportedFileType) {
			return nil, apperrors.NewValidationError("avatar", "avatar must be an image (jpg, jpeg, png, gif, webp)")
		}
		return nil, fmt.Errorf("error saving avatar: %w", err)
	}

	if err := s.userRepo.UpdateAvatar(ctx, userID, &url); err != nil {
		_ = s.fileStorage.DeleteFile(url)
		return nil, fmt.Errorf("error updating avatar: %w", err)
	}

	if user.AvatarURL != nil && *user.AvatarURL != "" {
		if err := s.fileStorage.DeleteFile(*user.AvatarURL); err != nil {
			s.logger.Warn().Err(err).Str("path", *user.AvatarURL).Msg("Failed to delete previous avatar")
		}
	}
	return &dto.AvatarResponse{AvatarURL: url}, nil
}
