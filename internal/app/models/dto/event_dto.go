package dto

import (
	"time"

	"github.com/alumnisphere/api/internal/app/models"
)

// CreateEventRequest announces a new event
type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required,max=255" example:"Homecoming 2026"`
	Description string    `json:"description" binding:"required"`
	EventDate   time.Time `json:"event_date" binding:"required"`
	Location    string    `json:"location" binding:"required,max=255" example:"Main hall"`
}

// EventResponse is an event with its creator
type EventResponse struct {
	ID               int64        `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	EventDate        time.Time    `json:"event_date"`
	Location         string       `json:"location"`
	CreatedBy        *UserSummary `json:"created_by,omitempty"`
	NotificationSent bool         `json:"notification_sent"`
	CreatedAt        time.Time    `json:"created_at"`
}

// NewEventResponse maps an event model
func NewEventResponse(e *models.Event) EventResponse {
	resp := EventResponse{
		ID:               e.ID,
		Title:            e.Title,
		Description:      e.Description,
		EventDate:        e.EventDate,
		Location:         e.Location,
		NotificationSent: e.NotificationSent,
		CreatedAt:        e.CreatedAt,
	}
	if e.Creator != nil {
		resp.CreatedBy = NewUserSummary(e.Creator)
	} else {
		resp.CreatedBy = &UserSummary{ID: e.CreatedBy}
	}
	return resp
}
