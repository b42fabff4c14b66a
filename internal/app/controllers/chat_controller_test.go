package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/middleware"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubChatService answers from fixed data; room 1 holds users 1 and 2.
type stubChatService struct {
	lastFilter dto.ChatMessageFilter
	deleted    []int64
}

func (s *stubChatService) ListRooms(context.Context, int64) ([]dto.ChatRoomListItem, error) {
	return []dto.ChatRoomListItem{}, nil
}

func (s *stubChatService) GetRoom(_ context.Context, userID, roomID int64) (*dto.ChatRoomDetailResponse, error) {
	if roomID != 1 || userID > 2 {
		return nil, apperrors.ErrChatRoomNotFound
	}
	return &dto.ChatRoomDetailResponse{ID: 1}, nil
}

func (s *stubChatService) GetOrCreateRoomWithUser(_ context.Context, userID, otherID int64) (*dto.ChatRoomDetailResponse, bool, error) {
	switch {
	case userID == otherID:
		return nil, false, apperrors.ErrSelfChat
	case otherID == 2:
		return &dto.ChatRoomDetailResponse{ID: 1}, false, nil
	case otherID == 3:
		return &dto.ChatRoomDetailResponse{ID: 2}, true, nil
	default:
		return nil, false, apperrors.ErrUserNotFound
	}
}

func (s *stubChatService) MarkRead(context.Context, int64, int64) (*dto.MarkReadResponse, error) {
	return &dto.MarkReadResponse{Status: "ok", Updated: 2}, nil
}

func (s *stubChatService) ListMessages(_ context.Context, _ int64, filter dto.ChatMessageFilter) (*dto.PaginatedResponse[dto.ChatMessageResponse], error) {
	s.lastFilter = filter
	page := dto.NewPaginatedResponse[dto.ChatMessageResponse](nil, dto.PaginationInfo{CurrentPage: filter.Page, PageSize: filter.Size})
	return &page, nil
}

func (s *stubChatService) GetMessage(context.Context, int64, int64) (*dto.ChatMessageResponse, error) {
	return nil, apperrors.ErrChatMessageNotFound
}

func (s *stubChatService) SendMessage(_ context.Context, userID int64, req *dto.CreateChatMessageRequest) (*dto.ChatMessageResponse, error) {
	if req.ChatRoom != 1 {
		return nil, apperrors.ErrNotRoomParticipant
	}
	return &dto.ChatMessageResponse{ID: 10, ChatRoomID: 1, Content: req.Content}, nil
}

func (s *stubChatService) DeleteMessage(_ context.Context, userID, messageID int64) error {
	if userID != 1 {
		return apperrors.ErrPermissionDenied
	}
	s.deleted = append(s.deleted, messageID)
	return nil
}

func newChatRouter(svc *stubChatService) *gin.Engine {
	ctrl := NewChatController(svc, logger.Nop())
	router := gin.New()
	// X-User stands in for the JWT middleware.
	router.Use(func(c *gin.Context) {
		switch c.GetHeader("X-User") {
		case "1":
			c.Set(middleware.ContextUserID, int64(1))
			c.Set(middleware.ContextRole, models.RoleAlumni)
		case "2":
			c.Set(middleware.ContextUserID, int64(2))
			c.Set(middleware.ContextRole, models.RoleAlumni)
		}
		c.Next()
	})
	router.GET("/rooms", ctrl.ListRooms)
	router.POST("/rooms", ctrl.CreateRoom)
	router.GET("/rooms/with_user", ctrl.GetRoomWithUser)
	router.GET("/rooms/:id", ctrl.GetRoom)
	router.POST("/rooms/:id/mark_read", ctrl.MarkRead)
	router.GET("/messages", ctrl.ListMessages)
	router.POST("/messages", ctrl.SendMessage)
	router.GET("/messages/:id", ctrl.GetMessage)
	router.DELETE("/messages/:id", ctrl.DeleteMessage)
	return router
}

func perform(router *gin.Engine, method, target, user, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != "" {
		req.Header.Set("X-User", user)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorDetail {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v (%s)", err, w.Body.String())
	}
	if resp.Error == nil {
		t.Fatalf("no error detail in %s", w.Body.String())
	}
	return resp.Error
}

func TestChatControllerStatusCodes(t *testing.T) {
	router := newChatRouter(&stubChatService{})

	tests := []struct {
		name   string
		method string
		target string
		user   string
		body   string
		want   int
	}{
		{"no caller", http.MethodGet, "/rooms", "", "", http.StatusUnauthorized},
		{"list rooms", http.MethodGet, "/rooms", "1", "", http.StatusOK},
		{"existing room", http.MethodGet, "/rooms/with_user?user_id=2", "1", "", http.StatusOK},
		{"new room", http.MethodGet, "/rooms/with_user?user_id=3", "1", "", http.StatusCreated},
		{"self chat", http.MethodGet, "/rooms/with_user?user_id=1", "1", "", http.StatusBadRequest},
		{"missing user_id", http.MethodGet, "/rooms/with_user", "1", "", http.StatusBadRequest},
		{"bad user_id", http.MethodGet, "/rooms/with_user?user_id=abc", "1", "", http.StatusBadRequest},
		{"unknown user", http.MethodGet, "/rooms/with_user?user_id=99", "1", "", http.StatusNotFound},
		{"create room by body", http.MethodPost, "/rooms", "1", `{"participant_id":3}`, http.StatusCreated},
		{"create room missing body", http.MethodPost, "/rooms", "1", `{}`, http.StatusBadRequest},
		{"get room", http.MethodGet, "/rooms/1", "2", "", http.StatusOK},
		{"get room bad id", http.MethodGet, "/rooms/zero", "1", "", http.StatusBadRequest},
		{"get foreign room", http.MethodGet, "/rooms/5", "1", "", http.StatusNotFound},
		{"mark read", http.MethodPost, "/rooms/1/mark_read", "1", "", http.StatusOK},
		{"send", http.MethodPost, "/messages", "1", `{"chat_room":1,"content":"hi"}`, http.StatusCreated},
		{"send outsider", http.MethodPost, "/messages", "1", `{"chat_room":7,"content":"hi"}`, http.StatusForbidden},
		{"send without content", http.MethodPost, "/messages", "1", `{"chat_room":1}`, http.StatusBadRequest},
		{"get missing message", http.MethodGet, "/messages/4", "1", "", http.StatusNotFound},
		{"delete own", http.MethodDelete, "/messages/4", "1", "", http.StatusNoContent},
		{"delete other's", http.MethodDelete, "/messages/4", "2", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(router, tt.method, tt.target, tt.user, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestListMessagesParsesFilter(t *testing.T) {
	svc := &stubChatService{}
	router := newChatRouter(svc)

	w := perform(router, http.MethodGet, "/messages?chat_room=1&page=2", "1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}
	if svc.lastFilter.ChatRoomID == nil || *svc.lastFilter.ChatRoomID != 1 {
		t.Errorf("chat room filter = %v", svc.lastFilter.ChatRoomID)
	}
	if svc.lastFilter.Page != 2 || svc.lastFilter.Size != 50 {
		t.Errorf("page/size = %d/%d, want 2/50", svc.lastFilter.Page, svc.lastFilter.Size)
	}

	w = perform(router, http.MethodGet, "/messages", "1", "")
	if w.Code != http.StatusOK || svc.lastFilter.ChatRoomID != nil {
		t.Errorf("unfiltered listing: status %d, filter %v", w.Code, svc.lastFilter.ChatRoomID)
	}

	w = perform(router, http.MethodGet, "/messages?chat_room=-3", "1", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if detail := decodeError(t, w); detail.Field != "chat_room" {
		t.Errorf("field = %q, want chat_room", detail.Field)
	}
}

func TestSendMessageValidationNamesField(t *testing.T) {
	router := newChatRouter(&stubChatService{})

	w := perform(router, http.MethodPost, "/messages", "1", `{"content":"hi"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	detail := decodeError(t, w)
	if detail.Code != dto.ErrorCodeValidationFailed {
		t.Errorf("code = %s", detail.Code)
	}
}
