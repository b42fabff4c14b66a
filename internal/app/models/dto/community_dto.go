package dto

import (
	"time"

	"github.com/alumnisphere/api/internal/app/models"
)

// CreateGroupRequest creates a community group
type CreateGroupRequest struct {
	Name          string             `json:"name" binding:"required,max=255" example:"Class of 2015"`
	Description   string             `json:"description" example:"Alumni of the 2015 cohort"`
	PrivacyType   models.PrivacyType `json:"privacy_type" binding:"omitempty,oneof=PUBLIC PRIVATE" example:"PUBLIC"`
	CoverImageURL *string            `json:"cover_image_url,omitempty" binding:"omitempty,url"`
}

// CreateGroupPostRequest publishes a post inside a group
type CreateGroupPostRequest struct {
	Content  string  `json:"content" binding:"required"`
	ImageURL *string `json:"image_url,omitempty" binding:"omitempty,url"`
}

// GroupPostResponse is a group post with author
type GroupPostResponse struct {
	ID        int64        `json:"id"`
	Author    *UserSummary `json:"author"`
	Content   string       `json:"content"`
	ImageURL  *string      `json:"image_url,omitempty"`
	IsPinned  bool         `json:"is_pinned"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewGroupPostResponse maps a group post model
func NewGroupPostResponse(p *models.GroupPost) GroupPostResponse {
	return GroupPostResponse{
		ID:        p.ID,
		Author:    NewUserSummary(p.Author),
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		IsPinned:  p.IsPinned,
		CreatedAt: p.CreatedAt,
	}
}

// GroupResponse is a group with membership count and latest posts
type GroupResponse struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	PrivacyType   models.PrivacyType  `json:"privacy_type"`
	CoverImageURL *string             `json:"cover_image_url,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	MembersCount  int64               `json:"members_count"`
	RecentPosts   []GroupPostResponse `json:"recent_posts,omitempty"`
}

// GroupMemberResponse is one active member
type GroupMemberResponse struct {
	UserInfo *UserSummary          `json:"user_info"`
	Role     models.MembershipRole `json:"role"`
	JoinedAt time.Time             `json:"joined_at"`
}

// JoinGroupResponse reports the outcome of join_group
type JoinGroupResponse struct {
	Status string `json:"status" example:"joined" enums:"joined,already a member"`
}

// Join outcomes
const (
	JoinStatusJoined        = "joined"
	JoinStatusAlreadyMember = "already a member"
)
