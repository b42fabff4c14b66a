package models

import "time"

// Event is an alumni event announced to all active users
type Event struct {
	ID               int64     `json:"id" db:"id"`
	Title            string    `json:"title" db:"title"`
	Description      string    `json:"description" db:"description"`
	EventDate        time.Time `json:"event_date" db:"event_date"`
	Location         string    `json:"location" db:"location"`
	CreatedBy        int64     `json:"created_by" db:"created_by"`
	NotificationSent bool      `json:"notification_sent" db:"notification_sent"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`

	Creator *User `json:"creator,omitempty"`
}
