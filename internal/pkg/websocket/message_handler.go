package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// Commands a client may send over the socket
const (
	CommandSendMessage = "chat.send"
	CommandMarkRead    = "chat.mark_read"
	EventError         = "error"
)

const commandTimeout = 5 * time.Second

// ChatCommands is the part of the chat service reachable over the socket.
// Results reach the participants through the hub's normal push path.
type ChatCommands interface {
	SendMessage(ctx context.Context, userID int64, req *dto.CreateChatMessageRequest) (*dto.ChatMessageResponse, error)
	MarkRead(ctx context.Context, userID, roomID int64) (*dto.MarkReadResponse, error)
}

// AccountGuard confirms that a connected user may still act
type AccountGuard interface {
	EnsureActive(ctx context.Context, userID int64) error
}

// Command is an inbound client frame
type Command struct {
	Type     string `json:"type"`
	ChatRoom int64  `json:"chat_room"`
	Content  string `json:"content,omitempty"`
}

// ErrorEvent is sent back to the client whose command failed
type ErrorEvent struct {
	Type     string `json:"type"`
	Command  string `json:"command,omitempty"`
	ChatRoom int64  `json:"chat_room,omitempty"`
	Message  string `json:"message"`
}

// MessageHandler executes client commands against the chat service
type MessageHandler struct {
	chat     ChatCommands
	accounts AccountGuard
	logger   zerolog.Logger
}

// NewMessageHandler creates a new MessageHandler. accounts may be nil.
func NewMessageHandler(chat ChatCommands, accounts AccountGuard, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{chat: chat, accounts: accounts, logger: logger}
}

// checkAccount is run before every command; an error ends the connection.
func (h *MessageHandler) checkAccount(userID int64) error {
	if h.accounts == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return h.accounts.EnsureActive(ctx, userID)
}

// Handle runs one raw client frame and returns the reply to send back to that
// client, or nil when there is nothing to say.
func (h *MessageHandler) Handle(userID int64, raw []byte) []byte {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return h.errorReply(cmd, "malformed command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var err error
	switch cmd.Type {
	case CommandSendMessage:
		_, err = h.chat.SendMessage(ctx, userID, &dto.CreateChatMessageRequest{ChatRoom: cmd.ChatRoom, Content: cmd.Content})
	case CommandMarkRead:
		_, err = h.chat.MarkRead(ctx, userID, cmd.ChatRoom)
	default:
		return h.errorReply(cmd, "unknown command type")
	}
	if err != nil {
		h.logger.Debug().Err(err).Int64("userID", userID).Str("command", cmd.Type).Msg("WebSocket command failed")
		return h.errorReply(cmd, apperrors.MessageOf(err, publicMessage(err)))
	}
	return nil
}

// publicMessage hides internal failures from the client
func publicMessage(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrChatRoomNotFound),
		apperrors.Is(err, apperrors.ErrNotRoomParticipant),
		apperrors.Is(err, apperrors.ErrValidationFailed):
		return err.Error()
	default:
		return "internal error"
	}
}

func (h *MessageHandler) errorReply(cmd Command, message string) []byte {
	data, err := json.Marshal(ErrorEvent{Type: EventError, Command: cmd.Type, ChatRoom: cmd.ChatRoom, Message: message})
	if err != nil {
		return nil
	}
	return data
}
