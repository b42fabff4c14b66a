package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/app/repositories"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/helpers"
	"github.com/alumnisphere/api/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

// Publisher pushes real-time events to connected users. Delivery is best
// effort and must not block.
type Publisher interface {
	PublishToUsers(userIDs []int64, event interface{})
}

// ChatService defines the interface for direct messaging operations
type ChatService interface {
	ListRooms(ctx context.Context, userID int64) ([]dto.ChatRoomListItem, error)
	GetRoom(ctx context.Context, userID, roomID int64) (*dto.ChatRoomDetailResponse, error)
	GetOrCreateRoomWithUser(ctx context.Context, userID, otherUserID int64) (*dto.ChatRoomDetailResponse, bool, error)
	MarkRead(ctx context.Context, userID, roomID int64) (*dto.MarkReadResponse, error)

	ListMessages(ctx context.Context, userID int64, filter dto.ChatMessageFilter) (*dto.PaginatedResponse[dto.ChatMessageResponse], error)
	GetMessage(ctx context.Context, userID, messageID int64) (*dto.ChatMessageResponse, error)
	SendMessage(ctx context.Context, userID int64, req *dto.CreateChatMessageRequest) (*dto.ChatMessageResponse, error)
	DeleteMessage(ctx context.Context, userID, messageID int64) error
}

// chatServiceImpl implements ChatService
type chatServiceImpl struct {
	chatRepo  repositories.IChatRepository
	userRepo  repositories.IUserRepository
	publisher Publisher
	logger    zerolog.Logger
}

// NewChatService creates a new ChatService. publisher may be nil.
func NewChatService(
	chatRepo repositories.IChatRepository,
	userRepo repositories.IUserRepository,
	publisher Publisher,
	logger zerolog.Logger,
) ChatService {
	return &chatServiceImpl{
		chatRepo:  chatRepo,
		userRepo:  userRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// visibleRoom loads a room and hides it from users outside the pair.
func (s *chatServiceImpl) visibleRoom(ctx context.Context, userID, roomID int64) (*models.ChatRoom, error) {
	room, err := s.chatRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.Participants.Contains(userID) {
		return nil, apperrors.ErrChatRoomNotFound
	}
	return room, nil
}

// ListRooms returns the caller's rooms, most recently active first. Each item
// is built from the room's last-message mirror; messages are not loaded.
func (s *chatServiceImpl) ListRooms(ctx context.Context, userID int64) ([]dto.ChatRoomListItem, error) {
	rooms, err := s.chatRepo.ListRoomsForUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to list chat rooms")
		return nil, fmt.Errorf("error listing chat rooms: %w", err)
	}

	otherIDs := make([]int64, 0, len(rooms))
	for _, room := range rooms {
		other, _ := room.Participants.Other(userID)
		otherIDs = append(otherIDs, other)
	}
	users, err := s.userRepo.GetByIDs(ctx, otherIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading chat participants: %w", err)
	}

	items := make([]dto.ChatRoomListItem, 0, len(rooms))
	for i, room := range rooms {
		items = append(items, dto.NewChatRoomListItem(room, users[otherIDs[i]]))
	}
	return items, nil
}

func (s *chatServiceImpl) roomDetail(ctx context.Context, userID int64, room *models.ChatRoom) (*dto.ChatRoomDetailResponse, error) {
	users, err := s.userRepo.GetByIDs(ctx, room.Participants.IDs())
	if err != nil {
		return nil, fmt.Errorf("error loading chat participants: %w", err)
	}

	participants := make([]dto.UserSummary, 0, 2)
	for _, id := range room.Participants.IDs() {
		if u, ok := users[id]; ok {
			participants = append(participants, *dto.NewUserSummary(u))
		}
	}

	latest, err := s.chatRepo.LatestMessage(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading latest message: %w", err)
	}

	unread, err := s.chatRepo.CountUnread(ctx, room.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("error counting unread messages: %w", err)
	}

	return &dto.ChatRoomDetailResponse{
		ID:           room.ID,
		Participants: participants,
		LastMessage:  dto.NewChatMessageResponse(latest),
		UnreadCount:  unread,
		CreatedAt:    room.CreatedAt,
		UpdatedAt:    room.UpdatedAt,
	}, nil
}

// GetRoom returns the detail projection of a room the caller belongs to
func (s *chatServiceImpl) GetRoom(ctx context.Context, userID, roomID int64) (*dto.ChatRoomDetailResponse, error) {
	room, err := s.visibleRoom(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	return s.roomDetail(ctx, userID, room)
}

// GetOrCreateRoomWithUser resolves the unique room between the caller and
// otherUserID, creating it on first contact
func (s *chatServiceImpl) GetOrCreateRoomWithUser(ctx context.Context, userID, otherUserID int64) (*dto.ChatRoomDetailResponse, bool, error) {
	pair, err := models.NewParticipantPair(userID, otherUserID)
	if errors.Is(err, models.ErrSameParticipant) {
		return nil, false, apperrors.ErrSelfChat
	}

	other, err := s.userRepo.GetByID(ctx, otherUserID)
	if err != nil {
		return nil, false, err
	}
	if !other.IsActive {
		return nil, false, apperrors.ErrUserNotFound
	}

	room, created, err := s.chatRepo.FindOrCreateRoom(ctx, pair)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", userID).Int64("otherUserID", otherUserID).Msg("Failed to resolve chat room")
		return nil, false, fmt.Errorf("error resolving chat room: %w", err)
	}
	if created {
		metrics.ChatRoomsCreated.Inc()
		s.logger.Info().Int64("roomID", room.ID).Int64("low", pair.Low).Int64("high", pair.High).Msg("Chat room created")
	}

	detail, err := s.roomDetail(ctx, userID, room)
	if err != nil {
		return nil, false, err
	}
	return detail, created, nil
}

// MarkRead flags the messages the caller received in a room as read.
// Repeating the call updates nothing.
func (s *chatServiceImpl) MarkRead(ctx context.Context, userID, roomID int64) (*dto.MarkReadResponse, error) {
	room, err := s.visibleRoom(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}

	updated, err := s.chatRepo.MarkRead(ctx, room.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("error marking messages read: %w", err)
	}

	if updated > 0 {
		metrics.ChatMessagesMarkedRead.Add(float64(updated))
		if other, ok := room.Participants.Other(userID); ok {
			s.publish([]int64{other}, dto.ChatEvent{
				Type:       dto.ChatEventRead,
				ChatRoomID: room.ID,
				ReaderID:   userID,
				Updated:    updated,
			})
		}
	}

	return &dto.MarkReadResponse{Status: "messages marked as read", Updated: updated}, nil
}

// ListMessages returns messages from the caller's rooms, newest first
func (s *chatServiceImpl) ListMessages(ctx context.Context, userID int64, filter dto.ChatMessageFilter) (*dto.PaginatedResponse[dto.ChatMessageResponse], error) {
	if filter.Size <= 0 {
		filter.Size = helpers.MessagePageSize
	}
	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.Size)

	messages, total, err := s.chatRepo.ListMessages(ctx, repositories.MessageFilter{
		ParticipantID: userID,
		ChatRoomID:    filter.ChatRoomID,
		Offset:        offset,
		Limit:         limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to list chat messages")
		return nil, fmt.Errorf("error listing chat messages: %w", err)
	}

	items := make([]dto.ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		items = append(items, *dto.NewChatMessageResponse(m))
	}
	page := dto.NewPaginatedResponse(items, helpers.NewPaginationInfo(total, filter.Page, int(limit)))
	return &page, nil
}

// visibleMessage loads a message if the caller participates in its room.
func (s *chatServiceImpl) visibleMessage(ctx context.Context, userID, messageID int64) (*models.ChatMessage, *models.ChatRoom, error) {
	msg, err := s.chatRepo.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, nil, err
	}
	room, err := s.chatRepo.GetRoomByID(ctx, msg.ChatRoomID)
	if err != nil {
		return nil, nil, err
	}
	if !room.Participants.Contains(userID) {
		return nil, nil, apperrors.ErrChatMessageNotFound
	}
	return msg, room, nil
}

// GetMessage returns a single message from one of the caller's rooms
func (s *chatServiceImpl) GetMessage(ctx context.Context, userID, messageID int64) (*dto.ChatMessageResponse, error) {
	msg, _, err := s.visibleMessage(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	return dto.NewChatMessageResponse(msg), nil
}

// SendMessage stores a message from the caller and pushes it to both
// participants
func (s *chatServiceImpl) SendMessage(ctx context.Context, userID int64, req *dto.CreateChatMessageRequest) (*dto.ChatMessageResponse, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperrors.NewValidationError("content", "content may not be blank")
	}

	room, err := s.chatRepo.GetRoomByID(ctx, req.ChatRoom)
	if err != nil {
		return nil, err
	}
	if !room.Participants.Contains(userID) {
		s.logger.Warn().Int64("userID", userID).Int64("roomID", room.ID).Msg("Rejected message from non-participant")
		return nil, apperrors.ErrNotRoomParticipant
	}

	msg := &models.ChatMessage{
		ChatRoomID: room.ID,
		SenderID:   userID,
		Content:    req.Content,
	}
	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		s.logger.Error().Err(err).Int64("roomID", room.ID).Int64("senderID", userID).Msg("Failed to create chat message")
		return nil, fmt.Errorf("error creating chat message: %w", err)
	}
	metrics.ChatMessagesSent.Inc()

	if sender, err := s.userRepo.GetByID(ctx, userID); err == nil {
		msg.Sender = sender
	} else {
		s.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to load message sender")
	}

	resp := dto.NewChatMessageResponse(msg)
	s.publish(room.Participants.IDs(), dto.ChatEvent{
		Type:       dto.ChatEventMessage,
		ChatRoomID: room.ID,
		Message:    resp,
	})
	return resp, nil
}

// DeleteMessage removes a message sent by the caller
func (s *chatServiceImpl) DeleteMessage(ctx context.Context, userID, messageID int64) error {
	msg, _, err := s.visibleMessage(ctx, userID, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID {
		return apperrors.NewForbiddenError("only the sender can delete this message")
	}

	if err := s.chatRepo.DeleteMessage(ctx, messageID); err != nil {
		return fmt.Errorf("error deleting chat message: %w", err)
	}
	s.logger.Info().Int64("messageID", messageID).Int64("roomID", msg.ChatRoomID).Msg("Chat message deleted")
	return nil
}

func (s *chatServiceImpl) publish(userIDs []int64, event dto.ChatEvent) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishToUsers(userIDs, event)
}
