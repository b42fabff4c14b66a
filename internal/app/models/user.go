package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID                     int64      `json:"id" db:"id" example:"1"`
	Username               string     `json:"username" db:"username" example:"nguyenvana"`
	Email                  string     `json:"email" db:"email" example:"user@alumni.edu.vn"`
	Password               string     `json:"-" db:"password_hash"` // bcrypt hash, never serialized
	FirstName              string     `json:"first_name" db:"first_name" example:"Van A"`
	LastName               string     `json:"last_name" db:"last_name" example:"Nguyen"`
	StudentID              *string    `json:"student_id,omitempty" db:"student_id" example:"1951012345"`
	Role                   Role       `json:"role" db:"role" example:"ALUMNI"`
	AvatarURL              *string    `json:"avatar_url,omitempty" db:"avatar_url"`
	IsVerified             bool       `json:"is_verified" db:"is_verified"`
	IsActive               bool       `json:"is_active" db:"is_active"`
	PasswordChangeRequired bool       `json:"password_change_required" db:"password_change_required"`
	PasswordChangeDeadline *time.Time `json:"password_change_deadline,omitempty" db:"password_change_deadline"`
	LastLoginAt            *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" db:"updated_at"`
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Username
	}
}

// PasswordChangeOverdue reports whether a required password change was not
// made before the deadline.
func (u *User) PasswordChangeOverdue(now time.Time) bool {
	return u.PasswordChangeRequired && u.PasswordChangeDeadline != nil && now.After(*u.PasswordChangeDeadline)
}

// RefreshToken is a stored, revocable refresh token.
type RefreshToken struct {
	ID        int64     `db:"id"`
	Token     string    `db:"token"`
	UserID    int64     `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	IsRevoked bool      `db:"is_revoked"`
	CreatedAt time.Time `db:"created_at"`
}

// UserProfile holds the optional career details of a user.
type UserProfile struct {
	ID             int64     `json:"id" db:"id"`
	UserID         int64     `json:"user_id" db:"user_id"`
	Bio            string    `json:"bio" db:"bio"`
	GraduationYear *int      `json:"graduation_year,omitempty" db:"graduation_year"`
	Company        string    `json:"company" db:"company"`
	Position       string    `json:"position" db:"position"`
	Location       string    `json:"location" db:"location"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	User *User `json:"user,omitempty"`
}
