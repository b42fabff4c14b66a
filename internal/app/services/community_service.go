package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/app/repositories"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// RecentGroupPosts is how many posts a group detail embeds.
const RecentGroupPosts = 5

// CommunityService defines community group operations
type CommunityService interface {
	ListGroups(ctx context.Context, page, size int) (*dto.PaginatedResponse[dto.GroupResponse], error)
	GetGroup(ctx context.Context, groupID int64) (*dto.GroupResponse, error)
	CreateGroup(ctx context.Context, userID int64, req *dto.CreateGroupRequest) (*dto.GroupResponse, error)
	JoinGroup(ctx context.Context, userID, groupID int64) (*dto.JoinGroupResponse, error)
	ListMembers(ctx context.Context, groupID int64) ([]dto.GroupMemberResponse, error)
	CreateGroupPost(ctx context.Context, userID, groupID int64, req *dto.CreateGroupPostRequest) (*dto.GroupPostResponse, error)
	ListGroupPosts(ctx context.Context, groupID int64) ([]dto.GroupPostResponse, error)
}

type communityServiceImpl struct {
	communityRepo repositories.ICommunityRepository
	logger        zerolog.Logger
}

// NewCommunityService creates a new CommunityService
func NewCommunityService(communityRepo repositories.ICommunityRepository, logger zerolog.Logger) CommunityService {
	return &communityServiceImpl{communityRepo: communityRepo, logger: logger}
}

func (s *communityServiceImpl) groupResponse(ctx context.Context, g *models.CommunityGroup, withPosts bool) (*dto.GroupResponse, error) {
	members, err := s.communityRepo.CountActiveMembers(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("error counting group members: %w", err)
	}

	resp := &dto.GroupResponse{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		PrivacyType:   g.PrivacyType,
		CoverImageURL: g.CoverImageURL,
		CreatedAt:     g.CreatedAt,
		MembersCount:  members,
	}

	if withPosts {
		posts, err := s.communityRepo.ListGroupPosts(ctx, g.ID, RecentGroupPosts)
		if err != nil {
			return nil, fmt.Errorf("error loading recent group posts: %w", err)
		}
		resp.RecentPosts = make([]dto.GroupPostResponse, 0, len(posts))
		for _, p := range posts {
			resp.RecentPosts = append(resp.RecentPosts, dto.NewGroupPostResponse(p))
		}
	}
	return resp, nil
}

func (s *communityServiceImpl) ListGroups(ctx context.Context, page, size int) (*dto.PaginatedResponse[dto.GroupResponse], error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	groups, total, err := s.communityRepo.ListGroups(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing groups: %w", err)
	}

	items := make([]dto.GroupResponse, 0, len(groups))
	for _, g := range groups {
		resp, err := s.groupResponse(ctx, g, false)
		if err != nil {
			return nil, err
		}
		items = append(items, *resp)
	}
	out := dto.NewPaginatedResponse(items, helpers.NewPaginationInfo(total, page, int(limit)))
	return &out, nil
}

// GetGroup returns a group with its member count and latest posts
func (s *communityServiceImpl) GetGroup(ctx context.Context, groupID int64) (*dto.GroupResponse, error) {
	g, err := s.communityRepo.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.groupResponse(ctx, g, true)
}

// CreateGroup creates a group with the caller as its ADMIN member
func (s *communityServiceImpl) CreateGroup(ctx context.Context, userID int64, req *dto.CreateGroupRequest) (*dto.GroupResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.NewValidationError("name", "name may not be blank")
	}
	privacy := req.PrivacyType
	if privacy == "" {
		privacy = models.PrivacyPublic
	}

	g := &models.CommunityGroup{
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		PrivacyType:   privacy,
		CoverImageURL: req.CoverImageURL,
		CreatorID:     userID,
	}
	if err := s.communityRepo.CreateGroup(ctx, g); err != nil {
		return nil, fmt.Errorf("error creating group: %w", err)
	}
	s.logger.Info().Int64("groupID", g.ID).Int64("creatorID", userID).Msg("Community group created")
	return s.groupResponse(ctx, g, true)
}

// JoinGroup joins a PUBLIC group. PRIVATE groups require approval.
func (s *communityServiceImpl) JoinGroup(ctx context.Context, userID, groupID int64) (*dto.JoinGroupResponse, error) {
	g, err := s.communityRepo.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.PrivacyType == models.PrivacyPrivate {
		return nil, apperrors.ErrGroupPrivate
	}

	_, created, err := s.communityRepo.JoinGroup(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("error joining group: %w", err)
	}
	if !created {
		return &dto.JoinGroupResponse{Status: dto.JoinStatusAlreadyMember}, nil
	}
	return &dto.JoinGroupResponse{Status: dto.JoinStatusJoined}, nil
}

func (s *communityServiceImpl) ListMembers(ctx context.Context, groupID int64) ([]dto.GroupMemberResponse, error) {
	if _, err := s.communityRepo.GetGroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	members, err := s.communityRepo.ListActiveMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("error listing group members: %w", err)
	}

	items := make([]dto.GroupMemberResponse, 0, len(members))
	for _, m := range members {
		items = append(items, dto.GroupMemberResponse{
			UserInfo: dto.NewUserSummary(m.User),
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
	}
	return items, nil
}

// CreateGroupPost publishes a post in a group the caller actively belongs to
func (s *communityServiceImpl) CreateGroupPost(ctx context.Context, userID, groupID int64, req *dto.CreateGroupPostRequest) (*dto.GroupPostResponse, error) {
	if err := requireContent(req.Content); err != nil {
		return nil, err
	}
	if _, err := s.communityRepo.GetGroupByID(ctx, groupID); err != nil {
		return nil, err
	}

	membership, err := s.communityRepo.GetMembership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !membership.IsActive {
		return nil, apperrors.ErrNotGroupMember
	}

	post := &models.GroupPost{GroupID: groupID, AuthorID: userID, Content: req.Content, ImageURL: req.ImageURL}
	if err := s.communityRepo.CreateGroupPost(ctx, post); err != nil {
		return nil, fmt.Errorf("error creating group post: %w", err)
	}
	post.Author = membership.User
	resp := dto.NewGroupPostResponse(post)
	return &resp, nil
}

func (s *communityServiceImpl) ListGroupPosts(ctx context.Context, groupID int64) ([]dto.GroupPostResponse, error) {
	if _, err := s.communityRepo.GetGroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	posts, err := s.communityRepo.ListGroupPosts(ctx, groupID, 0)
	if err != nil {
		return nil, fmt.Errorf("error listing group posts: %w", err)
	}
	items := make([]dto.GroupPostResponse, 0, len(posts))
	for _, p := range posts {
		items = append(items, dto.NewGroupPostResponse(p))
	}
	return items, nil
}
