package dto

import (
	"time"

	"github.com/alumnisphere/api/internal/app/models"
)

// UserSummary is the compact user identity embedded in other resources
type UserSummary struct {
	ID        int64   `json:"id" example:"3"`
	Username  string  `json:"username" example:"nguyenvana"`
	FullName  string  `json:"full_name" example:"Van A Nguyen"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// NewUserSummary maps a user to its summary; nil stays nil.
func NewUserSummary(u *models.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName(),
		AvatarURL: u.AvatarURL,
	}
}

// UserResponse represents the full account of a user
type UserResponse struct {
	ID                     int64      `json:"id"`
	Username               string     `json:"username"`
	Email                  string     `json:"email"`
	FirstName              string     `json:"first_name"`
	LastName               string     `json:"last_name"`
	StudentID              *string    `json:"student_id,omitempty"`
	Role                   string     `json:"role" example:"ALUMNI" enums:"ADMIN,FACULTY,ALUMNI"`
	AvatarURL              *string    `json:"avatar_url,omitempty"`
	IsVerified             bool       `json:"is_verified"`
	IsActive               bool       `json:"is_active"`
	PasswordChangeRequired bool       `json:"password_change_required"`
	PasswordChangeDeadline *time.Time `json:"password_change_deadline,omitempty"`
	LastLoginAt            *time.Time `json:"last_login_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
}

// NewUserResponse maps a user model to its API representation
func NewUserResponse(u *models.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:                     u.ID,
		Username:               u.Username,
		Email:                  u.Email,
		FirstName:              u.FirstName,
		LastName:               u.LastName,
		StudentID:              u.StudentID,
		Role:                   string(u.Role),
		AvatarURL:              u.AvatarURL,
		IsVerified:             u.IsVerified,
		IsActive:               u.IsActive,
		PasswordChangeRequired: u.PasswordChangeRequired,
		PasswordChangeDeadline: u.PasswordChangeDeadline,
		LastLoginAt:            u.LastLoginAt,
		CreatedAt:              u.CreatedAt,
	}
}

// AdminUserFilter narrows the admin user listing
type AdminUserFilter struct {
	Role     *models.Role `form:"role" binding:"omitempty,oneof=ADMIN FACULTY ALUMNI"`
	Verified *bool        `form:"verified"`
	Page     int          `form:"-"`
	Size     int          `form:"-"`
}

// RejectUserRequest carries the optional rejection reason
type RejectUserRequest struct {
	Reason string `json:"reason,omitempty" binding:"max=500" example:"Not eligible"`
}

// UserActionResponse reports the outcome of an admin action on a user
type UserActionResponse struct {
	Status string        `json:"status" example:"verified"`
	User   *UserResponse `json:"user"`
}

// AvatarResponse is returned after an avatar upload
type AvatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}
