package middleware

import (
	"errors"
	"net/http"

	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type errorMapping struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

// errorMappings is checked in order; the first match wins. Specific
// sentinels come before the generic ones they may wrap.
var errorMappings = []errorMapping{
	// Authentication
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid username or password"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found"},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Token revoked"},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Authentication required"},
	{apperrors.ErrAccountDisabled, http.StatusForbidden, dto.ErrorCodeAccountDisabled, "Account is disabled"},
	{apperrors.ErrAccountNotVerified, http.StatusForbidden, dto.ErrorCodeAccountNotVerified, "Account has not been verified yet"},
	{apperrors.ErrInvalidPassword, http.StatusBadRequest, dto.ErrorCodeInvalidPassword, "Invalid password"},

	// Forbidden
	{apperrors.ErrNotRoomParticipant, http.StatusForbidden, dto.ErrorCodeForbidden, "You are not a participant of this chat room"},
	{apperrors.ErrCommentsLocked, http.StatusForbidden, dto.ErrorCodeForbidden, "Comments are locked for this post"},
	{apperrors.ErrGroupPrivate, http.StatusForbidden, dto.ErrorCodeForbidden, "This group requires approval"},
	{apperrors.ErrNotGroupMember, http.StatusForbidden, dto.ErrorCodeForbidden, "You are not an active member of this group"},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},

	// Not found
	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "User not found"},
	{apperrors.ErrChatRoomNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Chat room not found"},
	{apperrors.ErrChatMessageNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Chat message not found"},
	{apperrors.ErrPostNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Post not found"},
	{apperrors.ErrCommentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Comment not found"},
	{apperrors.ErrGroupNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Community group not found"},
	{apperrors.ErrSurveyNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Survey not found"},
	{apperrors.ErrEventNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Event not found"},
	{apperrors.ErrProfileNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Profile not found"},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},

	// Conflicts
	{apperrors.ErrUsernameExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Username already exists"},
	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Email already exists"},
	{apperrors.ErrSurveyAnswered, http.StatusConflict, dto.ErrorCodeConflict, "Survey questions cannot be changed after responses were submitted"},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict, "Conflict"},

	// Bad requests
	{apperrors.ErrSelfChat, http.StatusBadRequest, dto.ErrorCodeInvalidRequest, "You cannot open a chat room with yourself"},
	{apperrors.ErrSurveyClosed, http.StatusBadRequest, dto.ErrorCodeInvalidRequest, "Survey is not accepting responses"},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeInvalidRequest, "Bad request"},

	{apperrors.ErrTooManyRequests, http.StatusTooManyRequests, dto.ErrorCodeTooManyRequests, "Too many requests"},
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			detail := dto.NewErrorDetail(m.code, apperrors.MessageOf(err, m.message))
			if field := apperrors.FieldOf(err); field != "" {
				detail = detail.WithField(field)
			}
			var ce *apperrors.CustomError
			if errors.As(err, &ce) && ce.Details != nil {
				detail = detail.WithDetails(ce.Details)
			}
			c.JSON(m.status, dto.NewErrorResponse(detail))
			return
		}
	}

	logger.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("Unhandled error")
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
}
