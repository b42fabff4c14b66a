package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/logger"
)

type fakeCommunityRepo struct {
	mu          sync.Mutex
	users       *fakeUserRepo
	groups      map[int64]*models.CommunityGroup
	memberships []*models.GroupMembership
	posts       []*models.GroupPost
}

func newFakeCommunityRepo(users *fakeUserRepo) *fakeCommunityRepo {
	return &fakeCommunityRepo{users: users, groups: make(map[int64]*models.CommunityGroup)}
}

func (r *fakeCommunityRepo) CreateGroup(_ context.Context, group *models.CommunityGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	group.ID = int64(len(r.groups) + 1)
	group.CreatedAt = time.Now()
	cp := *group
	r.groups[group.ID] = &cp
	r.memberships = append(r.memberships, &models.GroupMembership{
		GroupID: group.ID, UserID: group.CreatorID, Role: models.MembershipAdmin, IsActive: true, JoinedAt: group.CreatedAt,
	})
	return nil
}

func (r *fakeCommunityRepo) GetGroupByID(_ context.Context, id int64) (*models.CommunityGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, apperrors.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *fakeCommunityRepo) ListGroups(_ context.Context, _, _ uint64) ([]*models.CommunityGroup, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CommunityGroup
	for _, g := range r.groups {
		cp := *g
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeCommunityRepo) CountActiveMembers(_ context.Context, groupID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.memberships {
		if m.GroupID == groupID && m.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *fakeCommunityRepo) find(groupID, userID int64) *models.GroupMembership {
	for _, m := range r.memberships {
		if m.GroupID == groupID && m.UserID == userID {
			return m
		}
	}
	return nil
}

func (r *fakeCommunityRepo) withUser(m *models.GroupMembership) *models.GroupMembership {
	cp := *m
	cp.User, _ = r.users.GetByID(context.Background(), m.UserID)
	return &cp
}

func (r *fakeCommunityRepo) JoinGroup(_ context.Context, groupID, userID int64) (*models.GroupMembership, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m := r.find(groupID, userID); m != nil {
		return r.withUser(m), false, nil
	}
	m := &models.GroupMembership{GroupID: groupID, UserID: userID, Role: models.MembershipMember, IsActive: true, JoinedAt: time.Now()}
	r.memberships = append(r.memberships, m)
	return r.withUser(m), true, nil
}

func (r *fakeCommunityRepo) GetMembership(_ context.Context, groupID, userID int64) (*models.GroupMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.find(groupID, userID)
	if m == nil {
		return nil, apperrors.ErrNotGroupMember
	}
	return r.withUser(m), nil
}

func (r *fakeCommunityRepo) ListActiveMembers(_ context.Context, groupID int64) ([]*models.GroupMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.GroupMembership
	for _, m := range r.memberships {
		if m.GroupID == groupID && m.IsActive {
			out = append(out, r.withUser(m))
		}
	}
	return out, nil
}

func (r *fakeCommunityRepo) CreateGroupPost(_ context.Context, post *models.GroupPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = int64(len(r.posts) + 1)
	post.CreatedAt = time.Now()
	cp := *post
	r.posts = append(r.posts, &cp)
	return nil
}

func (r *fakeCommunityRepo) ListGroupPosts(_ context.Context, groupID int64, limit uint64) ([]*models.GroupPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.GroupPost
	for i := len(r.posts) - 1; i >= 0; i-- {
		if r.posts[i].GroupID == groupID {
			cp := *r.posts[i]
			out = append(out, &cp)
			if limit > 0 && uint64(len(out)) == limit {
				break
			}
		}
	}
	return out, nil
}

func newCommunityFixture() (CommunityService, *fakeCommunityRepo) {
	users := newFakeUserRepo(
		testUser(1, "founder", models.RoleAlumni),
		testUser(2, "joiner", models.RoleAlumni),
	)
	repo := newFakeCommunityRepo(users)
	return NewCommunityService(repo, logger.Nop()), repo
}

func TestCreateGroupMakesCreatorAdmin(t *testing.T) {
	svc, _ := newCommunityFixture()
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, 1, &dto.CreateGroupRequest{Name: "Class of 2015"})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if group.PrivacyType != models.PrivacyPublic {
		t.Errorf("privacy = %s, want PUBLIC default", group.PrivacyType)
	}
	if group.MembersCount != 1 {
		t.Errorf("members = %d, want 1", group.MembersCount)
	}

	members, err := svc.ListMembers(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 1 || members[0].Role != models.MembershipAdmin || members[0].UserInfo.ID != 1 {
		t.Errorf("members = %+v", members)
	}

	if _, err := svc.CreateGroup(ctx, 1, &dto.CreateGroupRequest{Name: "   "}); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("blank name: expected validation error, got %v", err)
	}
}

func TestJoinGroup(t *testing.T) {
	svc, _ := newCommunityFixture()
	ctx := context.Background()

	public, _ := svc.CreateGroup(ctx, 1, &dto.CreateGroupRequest{Name: "Open"})
	private, _ := svc.CreateGroup(ctx, 1, &dto.CreateGroupRequest{Name: "Closed", PrivacyType: models.PrivacyPrivate})

	resp, err := svc.JoinGroup(ctx, 2, public.ID)
	if err != nil {
		t.Fatalf("JoinGroup: %v", err)
	}
	if resp.Status != dto.JoinStatusJoined {
		t.Errorf("status = %q, want joined", resp.Status)
	}

	again, err := svc.JoinGroup(ctx, 2, public.ID)
	if err != nil {
		t.Fatalf("JoinGroup again: %v", err)
	}
	if again.Status != dto.JoinStatusAlreadyMember {
		t.Errorf("status = %q, want already member", again.Status)
	}

	if _, err := svc.JoinGroup(ctx, 2, private.ID); !errors.Is(err, apperrors.ErrGroupPrivate) {
		t.Errorf("private: expected ErrGroupPrivate, got %v", err)
	}
	if _, err := svc.JoinGroup(ctx, 2, 99); !errors.Is(err, apperrors.ErrGroupNotFound) {
		t.Errorf("missing: expected ErrGroupNotFound, got %v", err)
	}
}

func TestGroupPostsRequireActiveMembership(t *testing.T) {
	svc, repo := newCommunityFixture()
	ctx := context.Background()
	group, _ := svc.CreateGroup(ctx, 1, &dto.CreateGroupRequest{Name: "Open"})

	req := &dto.CreateGroupPostRequest{Content: "Welcome!"}
	if _, err := svc.CreateGroupPost(ctx, 2, group.ID, req); !errors.Is(err, apperrors.ErrNotGroupMember) {
		t.Fatalf("non-member: expected ErrNotGroupMember, got %v", err)
	}

	_, _ = svc.JoinGroup(ctx, 2, group.ID)
	repo.mu.Lock()
	repo.find(group.ID, 2).IsActive = false
	repo.mu.Unlock()
	if _, err := svc.CreateGroupPost(ctx, 2, group.ID, req); !errors.Is(err, apperrors.ErrNotGroupMember) {
		t.Fatalf("inactive member: expected ErrNotGroupMember, got %v", err)
	}

	post, err := svc.CreateGroupPost(ctx, 1, group.ID, req)
	if err != nil {
		t.Fatalf("CreateGroupPost: %v", err)
	}
	if post.Content != "Welcome!" {
		t.Errorf("content = %q", post.Content)
	}
}

func TestGetGroupEmbedsRecentPosts(t *testing.T) {
	svc, _ := newCommunityFixture()
	ctx := context.Background()
	group, _ := svc.CreateGroup(ctx, 1, &dto.CreateGroupRequest{Name: "Busy"})

	for i := 0; i < RecentGroupPosts+2; i++ {
		if _, err := svc.CreateGroupPost(ctx, 1, group.ID, &dto.CreateGroupPostRequest{Content: "post"}); err != nil {
			t.Fatalf("CreateGroupPost: %v", err)
		}
	}

	detail, err := svc.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if len(detail.RecentPosts) != RecentGroupPosts {
		t.Errorf("recent posts = %d, want %d", len(detail.RecentPosts), RecentGroupPosts)
	}

	all, err := svc.ListGroupPosts(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListGroupPosts: %v", err)
	}
	if len(all) != RecentGroupPosts+2 {
		t.Errorf("all posts = %d", len(all))
	}
}
