package models

import "time"

// ReactionType is the kind of reaction a user leaves on a post
type ReactionType string

const (
	ReactionLike  ReactionType = "LIKE"
	ReactionHeart ReactionType = "HEART"
	ReactionHaha  ReactionType = "HAHA"
)

// Post is a timeline entry
type Post struct {
	ID             int64     `json:"id" db:"id"`
	AuthorID       int64     `json:"author_id" db:"author_id"`
	Content        string    `json:"content" db:"content"`
	ImageURL       *string   `json:"image_url,omitempty" db:"image_url"`
	CommentsLocked bool      `json:"comments_locked" db:"comments_locked"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	// Derived
	ReactionsCount int64 `json:"reactions_count" db:"-"`
	CommentsCount  int64 `json:"comments_count" db:"-"`

	Author *User `json:"author,omitempty"`
}

// Comment on a post
type Comment struct {
	ID        int64     `json:"id" db:"id"`
	PostID    int64     `json:"post_id" db:"post_id"`
	AuthorID  int64     `json:"author_id" db:"author_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Author *User `json:"author,omitempty"`
}

// Reaction is unique per (post, user)
type Reaction struct {
	ID           int64        `json:"id" db:"id"`
	PostID       int64        `json:"post_id" db:"post_id"`
	UserID       int64        `json:"user_id" db:"user_id"`
	ReactionType ReactionType `json:"reaction_type" db:"reaction_type"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}
