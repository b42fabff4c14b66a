package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/app/repositories"
	"github.com/alumnisphere/api/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// ProfileService defines profile operations
type ProfileService interface {
	ListProfiles(ctx context.Context, page, size int) (*dto.PaginatedResponse[dto.ProfileResponse], error)
	GetProfile(ctx context.Context, profileID int64) (*dto.ProfileResponse, error)
	GetMyProfile(ctx context.Context, userID int64) (*dto.ProfileResponse, error)
	UpdateMyProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
}

type profileServiceImpl struct {
	profileRepo repositories.IProfileRepository
	logger      zerolog.Logger
}

// NewProfileService creates a new ProfileService
func NewProfileService(profileRepo repositories.IProfileRepository, logger zerolog.Logger) ProfileService {
	return &profileServiceImpl{profileRepo: profileRepo, logger: logger}
}

func (s *profileServiceImpl) ListProfiles(ctx context.Context, page, size int) (*dto.PaginatedResponse[dto.ProfileResponse], error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	profiles, total, err := s.profileRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing profiles: %w", err)
	}

	items := make([]dto.ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, dto.NewProfileResponse(p))
	}
	resp := dto.NewPaginatedResponse(items, helpers.NewPaginationInfo(total, page, int(limit)))
	return &resp, nil
}

func (s *profileServiceImpl) GetProfile(ctx context.Context, profileID int64) (*dto.ProfileResponse, error) {
	p, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewProfileResponse(p)
	return &resp, nil
}

// GetMyProfile returns the caller's profile, creating an empty one on first
// access
func (s *profileServiceImpl) GetMyProfile(ctx context.Context, userID int64) (*dto.ProfileResponse, error) {
	p, err := s.profileRepo.GetOrCreate(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to load profile")
		return nil, fmt.Errorf("error loading profile: %w", err)
	}
	resp := dto.NewProfileResponse(p)
	return &resp, nil
}

func (s *profileServiceImpl) UpdateMyProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	p, err := s.profileRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading profile: %w", err)
	}

	if req.Bio != nil {
		p.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.GraduationYear != nil {
		p.GraduationYear = req.GraduationYear
	}
	if req.Company != nil {
		p.Company = strings.TrimSpace(*req.Company)
	}
	if req.Position != nil {
		p.Position = strings.TrimSpace(*req.Position)
	}
	if req.Location != nil {
		p.Location = strings.TrimSpace(*req.Location)
	}

	if err := s.profileRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("error updating profile: %w", err)
	}
	resp := dto.NewProfileResponse(p)
	return &resp, nil
}
