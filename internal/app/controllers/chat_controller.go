package controllers

import (
	"net/http"

	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/app/services"
	"github.com/alumnisphere/api/internal/middleware"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/helpers"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ChatController handles direct-message rooms and messages
type ChatController struct {
	chatService services.ChatService
	logger      zerolog.Logger
}

// NewChatController creates a new ChatController
func NewChatController(chatService services.ChatService, logger zerolog.Logger) *ChatController {
	return &ChatController{
		chatService: chatService,
		logger:      logger,
	}
}

// ListRooms godoc
// @Summary List my chat rooms
// @Description Rooms the caller participates in, most recently active first, with the other participant, a preview of the last message and the unread count
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.ChatRoomListItem}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /rooms [get]
func (c *ChatController) ListRooms(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	rooms, err := c.chatService.ListRooms(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(rooms))
}

// CreateRoom godoc
// @Summary Open a chat room
// @Description Returns the caller's room with the given participant, creating it when needed
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateChatRoomRequest true "Other participant"
// @Success 200 {object} dto.APIResponse{data=dto.ChatRoomDetailResponse} "Existing room"
// @Success 201 {object} dto.APIResponse{data=dto.ChatRoomDetailResponse} "Room created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request or self chat"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /rooms [post]
func (c *ChatController) CreateRoom(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.CreateChatRoomRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	c.respondRoomWith(ctx, userID, req.ParticipantID)
}

// GetRoomWithUser godoc
// @Summary Find or create the room with a user
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param user_id query int true "Other participant's user ID"
// @Success 200 {object} dto.APIResponse{data=dto.ChatRoomDetailResponse} "Existing room"
// @Success 201 {object} dto.APIResponse{data=dto.ChatRoomDetailResponse} "Room created"
// @Failure 400 {object} dto.ErrorResponse "Missing user_id or self chat"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /rooms/with_user [get]
func (c *ChatController) GetRoomWithUser(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	otherID, present, err := helpers.ParseIDQuery(ctx, "user_id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if !present {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("user_id", "user_id parameter is required"))
		return
	}
	c.respondRoomWith(ctx, userID, otherID)
}

func (c *ChatController) respondRoomWith(ctx *gin.Context, userID, otherID int64) {
	room, created, err := c.chatService.GetOrCreateRoomWithUser(ctx.Request.Context(), userID, otherID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		c.logger.Info().Int64("roomID", room.ID).Int64("userID", userID).Int64("otherID", otherID).Msg("Chat room created")
	}
	ctx.JSON(status, dto.NewSuccessResponse(room))
}

// GetRoom godoc
// @Summary Get a chat room
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat room ID"
// @Success 200 {object} dto.APIResponse{data=dto.ChatRoomDetailResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Chat room not found"
// @Router /rooms/{id} [get]
func (c *ChatController) GetRoom(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	roomID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	room, err := c.chatService.GetRoom(ctx.Request.Context(), userID, roomID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(room))
}

// MarkRead godoc
// @Summary Mark a room as read
// @Description Marks every unread message from the other participant as read
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat room ID"
// @Success 200 {object} dto.APIResponse{data=dto.MarkReadResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Chat room not found"
// @Router /rooms/{id}/mark_read [post]
func (c *ChatController) MarkRead(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	roomID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	result, err := c.chatService.MarkRead(ctx.Request.Context(), userID, roomID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}

// ListMessages godoc
// @Summary List messages
// @Description Messages in the caller's rooms, newest first. Filter by chat_room.
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param chat_room query int false "Chat room ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(50)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse[dto.ChatMessageResponse]}
// @Failure 400 {object} dto.ErrorResponse "Invalid chat_room"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /messages [get]
func (c *ChatController) ListMessages(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	roomID, present, err := helpers.ParseIDQuery(ctx, "chat_room")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	filter := dto.ChatMessageFilter{}
	if present {
		filter.ChatRoomID = &roomID
	}
	filter.Page, filter.Size = helpers.ParsePaginationParams(ctx, helpers.MessagePageSize)

	messages, err := c.chatService.ListMessages(ctx.Request.Context(), userID, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(messages))
}

// GetMessage godoc
// @Summary Get a message
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} dto.APIResponse{data=dto.ChatMessageResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Chat message not found"
// @Router /messages/{id} [get]
func (c *ChatController) GetMessage(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	messageID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	message, err := c.chatService.GetMessage(ctx.Request.Context(), userID, messageID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(message))
}

// SendMessage godoc
// @Summary Send a message
// @Description Stores the message, updates the room's last message and pushes a chat.message event to both participants
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateChatMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=dto.ChatMessageResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not a participant"
// @Failure 404 {object} dto.ErrorResponse "Chat room not found"
// @Router /messages [post]
func (c *ChatController) SendMessage(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.CreateChatMessageRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	message, err := c.chatService.SendMessage(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(message))
}

// DeleteMessage godoc
// @Summary Delete a message
// @Description Only the sender may delete. The room's last message is recomputed.
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 204 "No Content"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not the sender"
// @Failure 404 {object} dto.ErrorResponse "Chat message not found"
// @Router /messages/{id} [delete]
func (c *ChatController) DeleteMessage(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	messageID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.chatService.DeleteMessage(ctx.Request.Context(), userID, messageID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
