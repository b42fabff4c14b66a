package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCustomErrorUnwrapsToKind(t *testing.T) {
	err := fmt.Errorf("send message: %w", NewValidationError("content", "Message content cannot be empty"))

	if !errors.Is(err, ErrValidationFailed) {
		t.Fatal("expected ErrValidationFailed in chain")
	}
	if got := FieldOf(err); got != "content" {
		t.Errorf("FieldOf = %q", got)
	}
	if got := MessageOf(err, "fallback"); got != "Message content cannot be empty" {
		t.Errorf("MessageOf = %q", got)
	}
}

func TestMessageOfFallback(t *testing.T) {
	if got := MessageOf(ErrChatRoomNotFound, "Chat room not found"); got != "Chat room not found" {
		t.Errorf("MessageOf = %q", got)
	}
	if got := FieldOf(ErrChatRoomNotFound); got != "" {
		t.Errorf("FieldOf = %q", got)
	}
}

func TestIsAny(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ErrNotRoomParticipant)
	if !Is(err, ErrChatRoomNotFound, ErrNotRoomParticipant) {
		t.Error("expected match on second target")
	}
	if Is(err, ErrPostNotFound) || Is(err) {
		t.Error("unexpected match")
	}
}

func TestCustomErrorText(t *testing.T) {
	if got := NewCustomError(ErrAccountDisabled, "").Error(); got != ErrAccountDisabled.Error() {
		t.Errorf("Error() = %q", got)
	}
	if got := (&CustomError{}).Error(); got != "unknown error" {
		t.Errorf("Error() = %q", got)
	}
}
