package dto

import (
	"time"
	"unicode/utf8"

	"github.com/alumnisphere/api/internal/app/models"
)

// PreviewLength is the number of characters kept in a room list preview.
const PreviewLength = 50

// previewMarker is appended to truncated previews.
const previewMarker = "..."

// PreviewOf truncates s to PreviewLength characters, appending "..." when
// anything was cut. Counting is by rune so multi-byte text is never split.
func PreviewOf(s string) string {
	if utf8.RuneCountInString(s) <= PreviewLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:PreviewLength]) + previewMarker
}

// CreateChatRoomRequest opens (or returns) the room with another user
type CreateChatRoomRequest struct {
	ParticipantID int64 `json:"participant_id" binding:"required,gt=0" example:"7"`
}

// CreateChatMessageRequest posts a message into a room
type CreateChatMessageRequest struct {
	ChatRoom int64  `json:"chat_room" binding:"required,gt=0" example:"1"`
	Content  string `json:"content" binding:"required" example:"Hello!"`
}

// ChatMessageFilter narrows the message listing
type ChatMessageFilter struct {
	ChatRoomID *int64
	Page       int
	Size       int
}

// ChatRoomListItem is the lightweight projection used by GET /rooms
type ChatRoomListItem struct {
	ID                 int64        `json:"id" example:"1"`
	OtherParticipant   *UserSummary `json:"other_participant"`
	LastMessagePreview *string      `json:"last_message_preview,omitempty" example:"See you at the reunion..."`
	LastMessageTime    *time.Time   `json:"last_message_time,omitempty"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// NewChatRoomListItem builds the list projection from the room's mirror
// fields and the other participant.
func NewChatRoomListItem(room *models.ChatRoom, other *models.User) ChatRoomListItem {
	item := ChatRoomListItem{
		ID:               room.ID,
		OtherParticipant: NewUserSummary(other),
		LastMessageTime:  room.LastMessageTime,
		UpdatedAt:        room.UpdatedAt,
	}
	if room.LastMessage != nil {
		preview := PreviewOf(*room.LastMessage)
		item.LastMessagePreview = &preview
	}
	return item
}

// ChatMessageResponse is a single message with its sender
type ChatMessageResponse struct {
	ID         int64        `json:"id" example:"10"`
	ChatRoomID int64        `json:"chat_room" example:"1"`
	SenderID   int64        `json:"sender_id" example:"3"`
	Sender     *UserSummary `json:"sender,omitempty"`
	Content    string       `json:"content" example:"Hello!"`
	IsRead     bool         `json:"is_read"`
	CreatedAt  time.Time    `json:"created_at"`
}

// NewChatMessageResponse maps a message model
func NewChatMessageResponse(m *models.ChatMessage) *ChatMessageResponse {
	if m == nil {
		return nil
	}
	return &ChatMessageResponse{
		ID:         m.ID,
		ChatRoomID: m.ChatRoomID,
		SenderID:   m.SenderID,
		Sender:     NewUserSummary(m.Sender),
		Content:    m.Content,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
	}
}

// ChatRoomDetailResponse is the full projection used by detail endpoints
type ChatRoomDetailResponse struct {
	ID           int64                `json:"id" example:"1"`
	Participants []UserSummary        `json:"participants"`
	LastMessage  *ChatMessageResponse `json:"last_message,omitempty"`
	UnreadCount  int64                `json:"unread_count" example:"2"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// MarkReadResponse reports how many messages were flipped to read
type MarkReadResponse struct {
	Status  string `json:"status" example:"messages marked as read"`
	Updated int64  `json:"updated" example:"3"`
}

// ChatEvent is pushed over the WebSocket to room participants
type ChatEvent struct {
	Type       string               `json:"type" example:"chat.message"`
	ChatRoomID int64                `json:"chat_room"`
	Message    *ChatMessageResponse `json:"message,omitempty"`
	ReaderID   int64                `json:"reader_id,omitempty"`
	Updated    int64                `json:"updated,omitempty"`
}

// Chat event types
const (
	ChatEventMessage = "chat.message"
	ChatEventRead    = "chat.read"
)
