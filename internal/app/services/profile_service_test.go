package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/logger"
)

type fakeProfileRepo struct {
	mu      sync.Mutex
	nextID  int64
	byUser  map[int64]*models.UserProfile
	creates int
	updates []*models.UserProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{byUser: make(map[int64]*models.UserProfile)}
}

func (r *fakeProfileRepo) GetByID(_ context.Context, id int64) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byUser {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.ErrProfileNotFound
}

func (r *fakeProfileRepo) GetOrCreate(_ context.Context, userID int64) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byUser[userID]
	if !ok {
		r.nextID++
		r.creates++
		p = &models.UserProfile{ID: r.nextID, UserID: userID}
		r.byUser[userID] = p
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) List(_ context.Context, offset, limit uint64) ([]*models.UserProfile, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*models.UserProfile, 0, len(r.byUser))
	for _, p := range r.byUser {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= uint64(len(all)) {
		return nil, total, nil
	}
	end := offset + limit
	if end > uint64(len(all)) {
		end = uint64(len(all))
	}
	return all[offset:end], total, nil
}

func (r *fakeProfileRepo) Update(_ context.Context, p *models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.byUser[p.UserID] = &cp
	r.updates = append(r.updates, &cp)
	return nil
}

func TestGetMyProfileCreatesOnce(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(repo, logger.Nop())
	ctx := context.Background()

	first, err := svc.GetMyProfile(ctx, 5)
	if err != nil {
		t.Fatalf("GetMyProfile: %v", err)
	}
	second, err := svc.GetMyProfile(ctx, 5)
	if err != nil {
		t.Fatalf("GetMyProfile again: %v", err)
	}
	if first.ID != second.ID || repo.creates != 1 {
		t.Errorf("ids %d/%d, creates = %d", first.ID, second.ID, repo.creates)
	}
}

func TestUpdateMyProfilePatchesOnlyGivenFields(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(repo, logger.Nop())
	ctx := context.Background()

	year := 2019
	if _, err := svc.UpdateMyProfile(ctx, 5, &dto.UpdateProfileRequest{
		Bio:            strPtr("  Backend engineer  "),
		GraduationYear: &year,
		Company:        strPtr("Acme"),
	}); err != nil {
		t.Fatalf("UpdateMyProfile: %v", err)
	}

	resp, err := svc.UpdateMyProfile(ctx, 5, &dto.UpdateProfileRequest{Location: strPtr("Hanoi")})
	if err != nil {
		t.Fatalf("UpdateMyProfile: %v", err)
	}
	if resp.Bio != "Backend engineer" || resp.Company != "Acme" || resp.Location != "Hanoi" {
		t.Errorf("profile = %+v", resp)
	}
	if resp.GraduationYear == nil || *resp.GraduationYear != 2019 {
		t.Errorf("graduation year = %v", resp.GraduationYear)
	}
}

func TestProfileLookupAndListing(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(repo, logger.Nop())
	ctx := context.Background()

	for uid := int64(1); uid <= 3; uid++ {
		if _, err := svc.GetMyProfile(ctx, uid); err != nil {
			t.Fatalf("GetMyProfile(%d): %v", uid, err)
		}
	}

	page, err := svc.ListProfiles(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(page.Items) != 1 || page.Pagination.TotalItems != 3 || page.Pagination.TotalPages != 2 {
		t.Errorf("page = %+v", page)
	}

	if _, err := svc.GetProfile(ctx, 99); !errors.Is(err, apperrors.ErrProfileNotFound) {
		t.Errorf("GetProfile(99) err = %v", err)
	}
}
