package dto

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/alumnisphere/api/internal/app/models"
)

func TestPreviewOf(t *testing.T) {
	exact := strings.Repeat("a", PreviewLength)
	long := strings.Repeat("b", PreviewLength+1)
	vietnamese := strings.Repeat("ư", PreviewLength+10)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "short", in: "hello", want: "hello"},
		{name: "exactly fifty", in: exact, want: exact},
		{name: "fifty one", in: long, want: strings.Repeat("b", PreviewLength) + "..."},
		{name: "multibyte", in: vietnamese, want: strings.Repeat("ư", PreviewLength) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PreviewOf(tt.in)
			if got != tt.want {
				t.Errorf("PreviewOf() = %q, want %q", got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Error("preview is not valid UTF-8")
			}
		})
	}
}

func TestNewChatRoomListItem(t *testing.T) {
	msg := strings.Repeat("x", 80)
	now := time.Now()
	room := &models.ChatRoom{ID: 4, LastMessage: &msg, LastMessageTime: &now, UpdatedAt: now}
	other := &models.User{ID: 9, Username: "minh", FirstName: "Minh", LastName: "Tran"}

	item := NewChatRoomListItem(room, other)

	if item.OtherParticipant == nil || item.OtherParticipant.ID != 9 || item.OtherParticipant.FullName != "Minh Tran" {
		t.Errorf("unexpected other participant %+v", item.OtherParticipant)
	}
	if item.LastMessagePreview == nil || utf8.RuneCountInString(*item.LastMessagePreview) != PreviewLength+3 {
		t.Errorf("unexpected preview %v", item.LastMessagePreview)
	}
	if item.LastMessageTime == nil || !item.LastMessageTime.Equal(now) {
		t.Error("last message time not mirrored")
	}

	empty := NewChatRoomListItem(&models.ChatRoom{ID: 5}, other)
	if empty.LastMessagePreview != nil {
		t.Error("room without messages must have no preview")
	}
}
