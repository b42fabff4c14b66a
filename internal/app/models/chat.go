package models

import (
	"errors"
	"time"
)

// ErrSameParticipant is returned when both sides of a pair are the same user.
var ErrSameParticipant = errors.New("participants must be two different users")

// ParticipantPair is the unordered pair of users sharing a chat room, stored
// with Low < High so {a, b} and {b, a} map to the same room.
type ParticipantPair struct {
	Low  int64
	High int64
}

// NewParticipantPair normalizes two user IDs into a pair.
func NewParticipantPair(a, b int64) (ParticipantPair, error) {
	if a == b {
		return ParticipantPair{}, ErrSameParticipant
	}
	if a > b {
		a, b = b, a
	}
	return ParticipantPair{Low: a, High: b}, nil
}

// Contains reports whether userID is one of the two participants.
func (p ParticipantPair) Contains(userID int64) bool {
	return p.Low == userID || p.High == userID
}

// Other returns the participant that is not userID. ok is false when userID
// is not in the pair.
func (p ParticipantPair) Other(userID int64) (other int64, ok bool) {
	switch userID {
	case p.Low:
		return p.High, true
	case p.High:
		return p.Low, true
	}
	return 0, false
}

// IDs returns both participant IDs in ascending order.
func (p ParticipantPair) IDs() []int64 {
	return []int64{p.Low, p.High}
}

// ChatRoom is a direct conversation between exactly two users. LastMessage
// and LastMessageTime mirror the newest message in the room.
type ChatRoom struct {
	ID              int64           `json:"id" db:"id"`
	Participants    ParticipantPair `json:"-"`
	LastMessage     *string         `json:"last_message,omitempty" db:"last_message"`
	LastMessageTime *time.Time      `json:"last_message_time,omitempty" db:"last_message_time"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// ChatMessage represents a message in a chat room
type ChatMessage struct {
	ID         int64     `json:"id" db:"id"`
	ChatRoomID int64     `json:"chat_room_id" db:"chat_room_id"`
	SenderID   int64     `json:"sender_id" db:"sender_id"`
	Content    string    `json:"content" db:"content"`
	IsRead     bool      `json:"is_read" db:"is_read"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	// Related entities
	Sender *User `json:"sender,omitempty"`
}
