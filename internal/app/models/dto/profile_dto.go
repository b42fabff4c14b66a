package dto

import (
	"time"

	"github.com/alumnisphere/api/internal/app/models"
)

// UpdateProfileRequest partially updates the caller's profile. Nil fields are
// left untouched.
type UpdateProfileRequest struct {
	Bio            *string `json:"bio,omitempty"`
	GraduationYear *int    `json:"graduation_year,omitempty" binding:"omitempty,min=1950,max=2100"`
	Company        *string `json:"company,omitempty" binding:"omitempty,max=255"`
	Position       *string `json:"position,omitempty" binding:"omitempty,max=255"`
	Location       *string `json:"location,omitempty" binding:"omitempty,max=255"`
}

// ProfileResponse is a profile together with its owner
type ProfileResponse struct {
	ID             int64        `json:"id"`
	User           *UserSummary `json:"user"`
	Bio            string       `json:"bio"`
	GraduationYear *int         `json:"graduation_year,omitempty"`
	Company        string       `json:"company"`
	Position       string       `json:"position"`
	Location       string       `json:"location"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewProfileResponse maps a profile model
func NewProfileResponse(p *models.UserProfile) ProfileResponse {
	return ProfileResponse{
		ID:             p.ID,
		User:           NewUserSummary(p.User),
		Bio:            p.Bio,
		GraduationYear: p.GraduationYear,
		Company:        p.Company,
		Position:       p.Position,
		Location:       p.Location,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
