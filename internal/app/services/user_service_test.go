package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"testing"
	"time"

	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/auth"
	"github.com/alumnisphere/api/internal/pkg/filestorage"
	"github.com/alumnisphere/api/internal/pkg/logger"
)

func newUserFixture(users ...*models.User) (*userServiceImpl, *fakeUserRepo, *fakeEmailService) {
	repo := newFakeUserRepo(users...)
	mail := newFakeEmailService()
	svc := NewUserService(repo, mail, nil, UserServiceConfig{
		FacultyDefaultPassword: "Faculty@2024",
		PasswordChangeWindow:   24 * time.Hour,
	}, logger.Nop()).(*userServiceImpl)
	return svc, repo, mail
}

func TestVerifyFacultyIssuesDefaultPassword(t *testing.T) {
	prof := testUser(2, "prof", models.RoleFaculty)
	prof.IsVerified = false
	svc, repo, mail := newUserFixture(prof)

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	resp, err := svc.VerifyUser(context.Background(), 2)
	if err != nil {
		t.Fatalf("VerifyUser: %v", err)
	}
	if resp.Status != "verified" {
		t.Errorf("status = %q", resp.Status)
	}

	stored, _ := repo.GetByID(context.Background(), 2)
	if !stored.IsVerified || !stored.PasswordChangeRequired {
		t.Errorf("verified=%v required=%v", stored.IsVerified, stored.PasswordChangeRequired)
	}
	if stored.PasswordChangeDeadline == nil || !stored.PasswordChangeDeadline.Equal(now.Add(24*time.Hour)) {
		t.Errorf("deadline = %v", stored.PasswordChangeDeadline)
	}
	if !auth.CheckPassword(stored.Password, "Faculty@2024") {
		t.Error("faculty password should be reset to the default")
	}
	if len(mail.verified) != 1 || len(mail.faculty) != 1 {
		t.Errorf("emails sent: verified=%v faculty=%v", mail.verified, mail.faculty)
	}
}

func TestVerifyAlumniKeepsPassword(t *testing.T) {
	grad := testUser(3, "grad", models.RoleAlumni)
	grad.IsVerified = false
	grad.Password = "existing-hash"
	svc, repo, mail := newUserFixture(grad)

	if _, err := svc.VerifyUser(context.Background(), 3); err != nil {
		t.Fatalf("VerifyUser: %v", err)
	}
	stored, _ := repo.GetByID(context.Background(), 3)
	if !stored.IsVerified || stored.PasswordChangeRequired || stored.Password != "existing-hash" {
		t.Errorf("unexpected alumni state: %+v", stored)
	}
	if len(mail.faculty) != 0 {
		t.Error("alumni must not receive faculty credentials")
	}
}

func TestVerifyUserRejectsAdminsAndUnknownUsers(t *testing.T) {
	svc, _, _ := newUserFixture(testUser(1, "root", models.RoleAdmin))

	if _, err := svc.VerifyUser(context.Background(), 1); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("admin: expected ErrBadRequest, got %v", err)
	}
	if _, err := svc.VerifyUser(context.Background(), 42); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Errorf("unknown: expected ErrUserNotFound, got %v", err)
	}
}

func TestVerifySucceedsWhenEmailFails(t *testing.T) {
	grad := testUser(3, "grad", models.RoleAlumni)
	grad.IsVerified = false
	svc, repo, mail := newUserFixture(grad)
	mail.fail = true

	if _, err := svc.VerifyUser(context.Background(), 3); err != nil {
		t.Fatalf("VerifyUser should ignore mail failures: %v", err)
	}
	stored, _ := repo.GetByID(context.Background(), 3)
	if !stored.IsVerified {
		t.Error("user should be verified")
	}
}

func TestRejectUser(t *testing.T) {
	svc, repo, mail := newUserFixture(testUser(3, "grad", models.RoleAlumni), testUser(4, "other", models.RoleAlumni))
	ctx := context.Background()

	resp, err := svc.RejectUser(ctx, 3, "  ")
	if err != nil {
		t.Fatalf("RejectUser: %v", err)
	}
	if resp.Status != "rejected" || resp.User.IsActive {
		t.Errorf("unexpected response: %+v", resp)
	}
	if got := mail.rejected["grad@alumni.test"]; got != DefaultRejectionReason {
		t.Errorf("reason = %q, want default", got)
	}
	stored, _ := repo.GetByID(ctx, 3)
	if stored.IsActive {
		t.Error("rejected user should be inactive")
	}

	if _, err := svc.RejectUser(ctx, 4, "Not a graduate"); err != nil {
		t.Fatalf("RejectUser: %v", err)
	}
	if got := mail.rejected["other@alumni.test"]; got != "Not a graduate" {
		t.Errorf("reason = %q", got)
	}
}

func TestListUsersFilters(t *testing.T) {
	pending := testUser(3, "pending", models.RoleAlumni)
	pending.IsVerified = false
	svc, _, _ := newUserFixture(
		testUser(1, "root", models.RoleAdmin),
		testUser(2, "prof", models.RoleFaculty),
		pending,
	)

	role := models.RoleAlumni
	unverified := false
	page, err := svc.ListUsers(context.Background(), dto.AdminUserFilter{Role: &role, Verified: &unverified})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Username != "pending" {
		t.Errorf("items = %+v", page.Items)
	}
	if page.Pagination.TotalItems != 1 {
		t.Errorf("total = %d", page.Pagination.TotalItems)
	}
}

type fakeStorage struct {
	saved   []string
	deleted []string
	err     error
}

func (f *fakeStorage) SaveFileWithPath(fh *multipart.FileHeader, dir string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	p := "uploads/" + dir + "/" + fh.Filename
	f.saved = append(f.saved, p)
	return p, nil
}

func (f *fakeStorage) DeleteFile(p string) error {
	f.deleted = append(f.deleted, p)
	return nil
}

func TestUploadAvatarReplacesPrevious(t *testing.T) {
	u := testUser(4, "ana", models.RoleAlumni)
	old := "uploads/avatars/old.png"
	u.AvatarURL = &old

	repo := newFakeUserRepo(u)
	store := &fakeStorage{}
	svc := NewUserService(repo, newFakeEmailService(), store, UserServiceConfig{}, logger.Nop())

	resp, err := svc.UploadAvatar(context.Background(), 4, &multipart.FileHeader{Filename: "new.png"})
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	if resp.AvatarURL != "uploads/avatars/new.png" {
		t.Errorf("AvatarURL = %q", resp.AvatarURL)
	}
	stored, _ := repo.GetByID(context.Background(), 4)
	if stored.AvatarURL == nil || *stored.AvatarURL != resp.AvatarURL {
		t.Errorf("stored avatar = %v", stored.AvatarURL)
	}
	if len(store.deleted) != 1 || store.deleted[0] != old {
		t.Errorf("deleted = %v, want [%s]", store.deleted, old)
	}
}

func TestUploadAvatarRejectsNonImage(t *testing.T) {
	repo := newFakeUserRepo(testUser(4, "ana", models.RoleAlumni))
	store := &fakeStorage{err: fmt.Errorf("%w: \".exe\"", filestorage.ErrUnsupportedFileType)}
	svc := NewUserService(repo, newFakeEmailService(), store, UserServiceConfig{}, logger.Nop())

	_, err := svc.UploadAvatar(context.Background(), 4, &multipart.FileHeader{Filename: "x.exe"})
	if !errors.Is(err, apperrors.ErrValidationFailed) || apperrors.FieldOf(err) != "avatar" {
		t.Errorf("err = %v, want avatar validation error", err)
	}
}
