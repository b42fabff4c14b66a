package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/app/repositories"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/email"
)

// fakeUserRepo is an in-memory IUserRepository.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[int64]*models.User)}
	for _, u := range users {
		if u.ID > r.nextID {
			r.nextID = u.ID
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return apperrors.ErrUsernameExists
		}
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []int64) (map[int64]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *fakeUserRepo) List(_ context.Context, filter repositories.UserFilter) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Verified != nil && u.IsVerified != *filter.Verified {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) mutate(id int64, fn func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	fn(u)
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, userID int64, at time.Time) error {
	return r.mutate(userID, func(u *models.User) { u.LastLoginAt = &at })
}

func (r *fakeUserRepo) UpdateAvatar(_ context.Context, userID int64, avatarURL *string) error {
	return r.mutate(userID, func(u *models.User) { u.AvatarURL = avatarURL })
}

func (r *fakeUserRepo) SetActive(_ context.Context, userID int64, active bool) error {
	return r.mutate(userID, func(u *models.User) { u.IsActive = active })
}

func (r *fakeUserRepo) ListActiveEmails(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, u := range r.users {
		if u.IsActive && u.Email != "" {
			out = append(out, u.Email)
		}
	}
	sort.Strings(out)
	return out, nil
}

// fakeChatRepo is an in-memory IChatRepository that keeps the room mirror
// the same way the SQL implementation does.
type fakeChatRepo struct {
	mu       sync.Mutex
	clock    time.Time
	nextRoom int64
	nextMsg  int64
	rooms    map[int64]*models.ChatRoom
	messages []*models.ChatMessage
	users    *fakeUserRepo
}

func newFakeChatRepo(users *fakeUserRepo) *fakeChatRepo {
	return &fakeChatRepo{
		clock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		rooms: make(map[int64]*models.ChatRoom),
		users: users,
	}
}

func (r *fakeChatRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *fakeChatRepo) FindOrCreateRoom(_ context.Context, pair models.ParticipantPair) (*models.ChatRoom, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		if room.Participants == pair {
			cp := *room
			return &cp, false, nil
		}
	}
	r.nextRoom++
	now := r.tick()
	room := &models.ChatRoom{ID: r.nextRoom, Participants: pair, CreatedAt: now, UpdatedAt: now}
	r.rooms[room.ID] = room
	cp := *room
	return &cp, true, nil
}

func (r *fakeChatRepo) GetRoomByID(_ context.Context, roomID int64) (*models.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, apperrors.ErrChatRoomNotFound
	}
	cp := *room
	return &cp, nil
}

func (r *fakeChatRepo) ListRoomsForUser(_ context.Context, userID int64) ([]*models.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ChatRoom
	for _, room := range r.rooms {
		if room.Participants.Contains(userID) {
			cp := *room
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeChatRepo) CreateMessage(_ context.Context, msg *models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[msg.ChatRoomID]
	if !ok {
		return apperrors.ErrChatRoomNotFound
	}
	r.nextMsg++
	msg.ID = r.nextMsg
	msg.IsRead = false
	msg.CreatedAt = r.tick()
	cp := *msg
	r.messages = append(r.messages, &cp)

	content := msg.Content
	created := msg.CreatedAt
	room.LastMessage = &content
	room.LastMessageTime = &created
	room.UpdatedAt = created
	return nil
}

func (r *fakeChatRepo) withSender(m *models.ChatMessage) *models.ChatMessage {
	cp := *m
	if u, ok := r.users.users[m.SenderID]; ok {
		sender := *u
		cp.Sender = &sender
	}
	return &cp
}

func (r *fakeChatRepo) GetMessageByID(_ context.Context, messageID int64) (*models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == messageID {
			return r.withSender(m), nil
		}
	}
	return nil, apperrors.ErrChatMessageNotFound
}

func (r *fakeChatRepo) LatestMessage(_ context.Context, roomID int64) (*models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].ChatRoomID == roomID {
			return r.withSender(r.messages[i]), nil
		}
	}
	return nil, nil
}

func (r *fakeChatRepo) ListMessages(_ context.Context, filter repositories.MessageFilter) ([]*models.ChatMessage, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*models.ChatMessage
	for i := len(r.messages) - 1; i >= 0; i-- {
		m := r.messages[i]
		room := r.rooms[m.ChatRoomID]
		if !room.Participants.Contains(filter.ParticipantID) {
			continue
		}
		if filter.ChatRoomID != nil && m.ChatRoomID != *filter.ChatRoomID {
			continue
		}
		matched = append(matched, r.withSender(m))
	}
	total := int64(len(matched))
	start := int(filter.Offset)
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if filter.Limit > 0 && start+int(filter.Limit) < end {
		end = start + int(filter.Limit)
	}
	return matched[start:end], total, nil
}

func (r *fakeChatRepo) DeleteMessage(_ context.Context, messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := -1
	for i, m := range r.messages {
		if m.ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperrors.ErrChatMessageNotFound
	}
	roomID := r.messages[idx].ChatRoomID
	r.messages = append(r.messages[:idx], r.messages[idx+1:]...)

	room := r.rooms[roomID]
	room.LastMessage, room.LastMessageTime = nil, nil
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].ChatRoomID == roomID {
			content := r.messages[i].Content
			created := r.messages[i].CreatedAt
			room.LastMessage, room.LastMessageTime = &content, &created
			break
		}
	}
	return nil
}

func (r *fakeChatRepo) CountUnread(_ context.Context, roomID, viewerID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.messages {
		if m.ChatRoomID == roomID && !m.IsRead && m.SenderID != viewerID {
			n++
		}
	}
	return n, nil
}

func (r *fakeChatRepo) MarkRead(_ context.Context, roomID, viewerID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.messages {
		if m.ChatRoomID == roomID && !m.IsRead && m.SenderID != viewerID {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *fakeChatRepo) messageCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

// recordingPublisher captures pushed events.
type recordingPublisher struct {
	mu     sync.Mutex
	pushes []publishedEvent
}

type publishedEvent struct {
	userIDs []int64
	event   interface{}
}

func (p *recordingPublisher) PublishToUsers(userIDs []int64, event interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, publishedEvent{userIDs: append([]int64(nil), userIDs...), event: event})
}

// fakeEmailService records sends and optionally fails them.
type fakeEmailService struct {
	mu        sync.Mutex
	fail      bool
	verified  []string
	faculty   []string
	rejected  map[string]string
	eventMail [][]string
}

var errSMTPDown = errors.New("smtp down")

func newFakeEmailService() *fakeEmailService {
	return &fakeEmailService{rejected: make(map[string]string)}
}

func (f *fakeEmailService) SendAccountVerifiedEmail(toEmail, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errSMTPDown
	}
	f.verified = append(f.verified, toEmail)
	return nil
}

func (f *fakeEmailService) SendFacultyCredentialsEmail(toEmail, _, _, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errSMTPDown
	}
	f.faculty = append(f.faculty, toEmail)
	return nil
}

func (f *fakeEmailService) SendAccountRejectedEmail(toEmail, _, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errSMTPDown
	}
	f.rejected[toEmail] = reason
	return nil
}

func (f *fakeEmailService) SendEventNotification(recipients []string, _ email.EventNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errSMTPDown
	}
	f.eventMail = append(f.eventMail, recipients)
	return nil
}

func testUser(id int64, username string, role models.Role) *models.User {
	return &models.User{
		ID:         id,
		Username:   username,
		Email:      username + "@alumni.test",
		FirstName:  username,
		Role:       role,
		IsActive:   true,
		IsVerified: true,
	}
}
