package models

import "time"

// PrivacyType controls whether a group can be joined directly
type PrivacyType string

const (
	PrivacyPublic  PrivacyType = "PUBLIC"
	PrivacyPrivate PrivacyType = "PRIVATE"
)

// MembershipRole is a member's role inside a group
type MembershipRole string

const (
	MembershipAdmin  MembershipRole = "ADMIN"
	MembershipMember MembershipRole = "MEMBER"
)

// CommunityGroup represents an alumni community
type CommunityGroup struct {
	ID            int64       `json:"id" db:"id"`
	Name          string      `json:"name" db:"name"`
	Description   string      `json:"description" db:"description"`
	PrivacyType   PrivacyType `json:"privacy_type" db:"privacy_type"`
	CoverImageURL *string     `json:"cover_image_url,omitempty" db:"cover_image_url"`
	CreatorID     int64       `json:"creator_id" db:"creator_id"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// GroupMembership links a user to a group
type GroupMembership struct {
	ID       int64          `json:"id" db:"id"`
	GroupID  int64          `json:"group_id" db:"group_id"`
	UserID   int64          `json:"user_id" db:"user_id"`
	Role     MembershipRole `json:"role" db:"role"`
	IsActive bool           `json:"is_active" db:"is_active"`
	JoinedAt time.Time      `json:"joined_at" db:"joined_at"`

	// Related entities
	User *User `json:"user,omitempty"`
}

// GroupPost is a post published inside a group
type GroupPost struct {
	ID        int64     `json:"id" db:"id"`
	GroupID   int64     `json:"group_id" db:"group_id"`
	AuthorID  int64     `json:"author_id" db:"author_id"`
	Content   string    `json:"content" db:"content"`
	ImageURL  *string   `json:"image_url,omitempty" db:"image_url"`
	IsPinned  bool      `json:"is_pinned" db:"is_pinned"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Author *User `json:"author,omitempty"`
}
