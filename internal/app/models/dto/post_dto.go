package dto

import (
	"time"

	"github.com/alumnisphere/api/internal/app/models"
)

// CreatePostRequest creates or replaces a post
type CreatePostRequest struct {
	Content  string  `json:"content" binding:"required" example:"Great to see everyone at homecoming!"`
	ImageURL *string `json:"image_url,omitempty" binding:"omitempty,url"`
}

// LockCommentsRequest toggles the comment lock of a post
type LockCommentsRequest struct {
	Locked *bool `json:"locked" binding:"required"`
}

// ReactRequest leaves or changes the caller's reaction
type ReactRequest struct {
	ReactionType models.ReactionType `json:"reaction_type" binding:"required,oneof=LIKE HEART HAHA" example:"LIKE"`
}

// CommentRequest creates or edits a comment
type CommentRequest struct {
	Content string `json:"content" binding:"required" example:"Congratulations!"`
}

// PostResponse is a post with author and counters
type PostResponse struct {
	ID             int64        `json:"id"`
	Author         *UserSummary `json:"author"`
	Content        string       `json:"content"`
	ImageURL       *string      `json:"image_url,omitempty"`
	CommentsLocked bool         `json:"comments_locked"`
	ReactionsCount int64        `json:"reactions_count"`
	CommentsCount  int64        `json:"comments_count"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewPostResponse maps a post model
func NewPostResponse(p *models.Post) PostResponse {
	return PostResponse{
		ID:             p.ID,
		Author:         NewUserSummary(p.Author),
		Content:        p.Content,
		ImageURL:       p.ImageURL,
		CommentsLocked: p.CommentsLocked,
		ReactionsCount: p.ReactionsCount,
		CommentsCount:  p.CommentsCount,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// CommentResponse is a comment with its author
type CommentResponse struct {
	ID        int64        `json:"id"`
	PostID    int64        `json:"post_id"`
	Author    *UserSummary `json:"author"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewCommentResponse maps a comment model
func NewCommentResponse(c *models.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		Author:    NewUserSummary(c.Author),
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ReactionResponse reports the caller's reaction after an upsert
type ReactionResponse struct {
	Status       string              `json:"status" example:"reaction added"`
	ReactionType models.ReactionType `json:"reaction_type" example:"LIKE"`
}
