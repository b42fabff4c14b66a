// Package apperrors holds the sentinel errors services return and the
// CustomError wrapper that adds a client-facing message.
package apperrors

import "errors"

// Generic kinds. The HTTP layer maps each to a status code.
var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrValidationFailed      = errors.New("validation failed")
	ErrBadRequest            = errors.New("bad request")
	ErrTooManyRequests       = errors.New("too many requests")
)

// Authentication
var (
	ErrUnauthorized       = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrAccountNotVerified = errors.New("account not verified")
)

// Users
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrUsernameExists     = errors.New("username already exists")
	ErrProfileNotFound    = errors.New("profile not found")
)

// Chat
var (
	ErrChatRoomNotFound    = errors.New("chat room not found")
	ErrChatMessageNotFound = errors.New("chat message not found")
	ErrNotRoomParticipant  = errors.New("not a participant of this chat room")
	ErrSelfChat            = errors.New("cannot open a chat room with yourself")
)

// Posts, groups, surveys and events
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrCommentsLocked  = errors.New("comments are locked for this post")
	ErrGroupNotFound   = errors.New("community group not found")
	ErrGroupPrivate    = errors.New("this group requires approval")
	ErrNotGroupMember  = errors.New("not an active member of this group")
	ErrSurveyNotFound  = errors.New("survey not found")
	ErrSurveyClosed    = errors.New("survey is not accepting responses")
	ErrSurveyAnswered  = errors.New("survey questions cannot change once responses exist")
	ErrEventNotFound   = errors.New("event not found")
)

// CustomError attaches a client message, and optionally the offending field
// or extra details, to one of the sentinels above.
type CustomError struct {
	Err     error
	Message string
	Field   string
	Details map[string]interface{}
}

func (e *CustomError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *CustomError) Unwrap() error { return e.Err }

// WithDetails sets extra context rendered in the error response.
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

func NewCustomError(kind error, message string) *CustomError {
	return &CustomError{Err: kind, Message: message}
}

func NewResourceNotFoundError(message string) error {
	return NewCustomError(ErrResourceNotFound, message)
}

func NewForbiddenError(message string) error {
	return NewCustomError(ErrPermissionDenied, message)
}

func NewBadRequestError(message string) error {
	return NewCustomError(ErrBadRequest, message)
}

// NewValidationError reports a problem with a single request field.
func NewValidationError(field, message string) error {
	return &CustomError{Err: ErrValidationFailed, Message: message, Field: field}
}

// Is reports whether err matches any of targets.
func Is(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// MessageOf returns the client message of the first CustomError in the
// chain, or fallback.
func MessageOf(err error, fallback string) string {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return fallback
}

// FieldOf returns the offending field of the first CustomError in the chain.
func FieldOf(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Field
	}
	return ""
}
