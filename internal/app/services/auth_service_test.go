package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/auth"
	"github.com/alumnisphere/api/internal/pkg/logger"
	"github.com/rs/zerolog"
)

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*models.RefreshToken)}
}

func (r *fakeTokenRepo) CreateToken(_ context.Context, token string, userID int64, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = &models.RefreshToken{Token: token, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (r *fakeTokenRepo) GetToken(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, apperrors.ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTokenRepo) RevokeToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok || t.IsRevoked {
		return apperrors.ErrTokenRevoked
	}
	t.IsRevoked = true
	return nil
}

func (r *fakeTokenRepo) RevokeAllUserTokens(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.UserID == userID {
			t.IsRevoked = true
		}
	}
	return nil
}

const testPassword = "secret123"

func newAuthFixture(t *testing.T, users ...*models.User) (*AuthService, *fakeUserRepo, *fakeTokenRepo) {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	for _, u := range users {
		u.Password = hash
	}
	userRepo := newFakeUserRepo(users...)
	tokenRepo := newFakeTokenRepo()
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "alumnisphere-test",
	})
	return NewAuthService(userRepo, tokenRepo, jwtService, logger.Nop()), userRepo, tokenRepo
}

func TestRegisterCreatesUnverifiedAlumni(t *testing.T) {
	svc, users, _ := newAuthFixture(t)

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Username:  "newbie",
		Email:     "  Newbie@Alumni.Test ",
		Password:  "password1",
		FirstName: "New",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	stored, err := users.GetByID(context.Background(), resp.UserID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Role != models.RoleAlumni || stored.IsVerified || !stored.IsActive {
		t.Errorf("unexpected account state: role=%s verified=%v active=%v", stored.Role, stored.IsVerified, stored.IsActive)
	}
	if stored.Email != "newbie@alumni.test" {
		t.Errorf("email = %q, want normalized", stored.Email)
	}
	if stored.Password == "password1" || !auth.CheckPassword(stored.Password, "password1") {
		t.Error("password should be stored as a bcrypt hash")
	}

	_, err = svc.Register(context.Background(), &dto.RegisterRequest{Username: "newbie", Email: "other@alumni.test", Password: "password1"})
	if !errors.Is(err, apperrors.ErrUsernameExists) {
		t.Errorf("duplicate username: expected ErrUsernameExists, got %v", err)
	}
}

func TestLoginRules(t *testing.T) {
	unverifiedFaculty := testUser(2, "prof", models.RoleFaculty)
	unverifiedFaculty.IsVerified = false
	disabled := testUser(3, "gone", models.RoleAlumni)
	disabled.IsActive = false
	unverifiedAlumni := testUser(4, "fresh", models.RoleAlumni)
	unverifiedAlumni.IsVerified = false

	svc, _, _ := newAuthFixture(t,
		testUser(1, "alice", models.RoleAlumni),
		unverifiedFaculty,
		disabled,
		unverifiedAlumni,
	)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid credentials", "alice", testPassword, nil},
		{"wrong password", "alice", "nope", apperrors.ErrInvalidCredentials},
		{"unknown user", "nobody", testPassword, apperrors.ErrInvalidCredentials},
		{"unverified faculty", "prof", testPassword, apperrors.ErrAccountNotVerified},
		{"disabled account", "gone", testPassword, apperrors.ErrAccountDisabled},
		{"unverified alumni may sign in", "fresh", testPassword, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Login(context.Background(), &dto.LoginRequest{Username: tt.username, Password: tt.password})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if resp.Token.AccessToken == "" || resp.Token.RefreshToken == "" || resp.Token.TokenType != "Bearer" {
				t.Errorf("incomplete token response: %+v", resp.Token)
			}
			if resp.User == nil || resp.User.Username != tt.username {
				t.Errorf("user = %+v", resp.User)
			}
		})
	}
}

func TestLoginDeactivatesOverduePasswordChange(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	faculty := testUser(5, "late", models.RoleFaculty)
	faculty.PasswordChangeRequired = true
	faculty.PasswordChangeDeadline = &deadline

	svc, users, _ := newAuthFixture(t, faculty)
	svc.now = func() time.Time { return deadline.Add(time.Hour) }

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "late", Password: testPassword})
	if !errors.Is(err, apperrors.ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
	stored, _ := users.GetByID(context.Background(), 5)
	if stored.IsActive {
		t.Error("account should have been deactivated")
	}

	// Before the deadline the same account signs in normally.
	faculty2 := testUser(6, "ontime", models.RoleFaculty)
	faculty2.PasswordChangeRequired = true
	faculty2.PasswordChangeDeadline = &deadline
	svc2, _, _ := newAuthFixture(t, faculty2)
	svc2.now = func() time.Time { return deadline.Add(-time.Hour) }
	if _, err := svc2.Login(context.Background(), &dto.LoginRequest{Username: "ontime", Password: testPassword}); err != nil {
		t.Fatalf("login before deadline: %v", err)
	}
}

func TestRefreshDeactivatesOverduePasswordChange(t *testing.T) {
	deadline := time.Now().Add(2 * time.Hour)
	faculty := testUser(5, "late", models.RoleFaculty)
	faculty.PasswordChangeRequired = true
	faculty.PasswordChangeDeadline = &deadline

	svc, users, tokens := newAuthFixture(t, faculty)
	ctx := context.Background()

	svc.now = func() time.Time { return deadline.Add(-time.Hour) }
	login, err := svc.Login(ctx, &dto.LoginRequest{Username: "late", Password: testPassword})
	if err != nil {
		t.Fatalf("login before deadline: %v", err)
	}

	svc.now = func() time.Time { return deadline.Add(time.Hour) }
	_, err = svc.RefreshToken(ctx, login.Token.RefreshToken)
	if !errors.Is(err, apperrors.ErrAccountDisabled) {
		t.Fatalf("refresh after deadline: expected ErrAccountDisabled, got %v", err)
	}
	stored, _ := users.GetByID(ctx, 5)
	if stored.IsActive {
		t.Error("account should have been deactivated")
	}
	token, _ := tokens.GetToken(ctx, login.Token.RefreshToken)
	if !token.IsRevoked {
		t.Error("refresh tokens of the deactivated account should be revoked")
	}
}

func TestEnsureActive(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	overdue := testUser(2, "late", models.RoleFaculty)
	overdue.PasswordChangeRequired = true
	overdue.PasswordChangeDeadline = &deadline
	disabled := testUser(3, "gone", models.RoleAlumni)
	disabled.IsActive = false

	svc, users, _ := newAuthFixture(t, testUser(1, "alice", models.RoleAlumni), overdue, disabled)
	svc.now = func() time.Time { return deadline.Add(time.Minute) }
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  int64
		wantErr error
	}{
		{"active", 1, nil},
		{"overdue password change", 2, apperrors.ErrAccountDisabled},
		{"disabled", 3, apperrors.ErrAccountDisabled},
		{"deleted", 99, apperrors.ErrUnauthorized},
	}
	for _, tt := range tests {
		err := svc.EnsureActive(ctx, tt.userID)
		if tt.wantErr == nil && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
		}
	}

	if stored, _ := users.GetByID(ctx, 2); stored.IsActive {
		t.Error("overdue account should have been deactivated")
	}
}

type failingRevokeRepo struct {
	*fakeTokenRepo
}

func (r failingRevokeRepo) RevokeToken(context.Context, string) error {
	return errors.New("connection reset")
}

func TestRefreshWithExpiredToken(t *testing.T) {
	svc, _, tokens := newAuthFixture(t, testUser(1, "alice", models.RoleAlumni))
	ctx := context.Background()
	if err := tokens.CreateToken(ctx, "stale", 1, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	if _, err := svc.RefreshToken(ctx, "stale"); !errors.Is(err, apperrors.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if stored, _ := tokens.GetToken(ctx, "stale"); !stored.IsRevoked {
		t.Error("expired token should be revoked")
	}

	// A failed revoke is logged and the caller still sees the expiry.
	var logs bytes.Buffer
	failing := failingRevokeRepo{newFakeTokenRepo()}
	_ = failing.CreateToken(ctx, "stale", 1, time.Now().Add(-time.Minute))
	svc.tokenRepo = failing
	svc.logger = zerolog.New(&logs)

	if _, err := svc.RefreshToken(ctx, "stale"); !errors.Is(err, apperrors.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if !strings.Contains(logs.String(), "Failed to revoke expired refresh token") {
		t.Errorf("revoke failure not logged: %q", logs.String())
	}
}

func TestRefreshTokenRotates(t *testing.T) {
	svc, _, tokens := newAuthFixture(t, testUser(1, "alice", models.RoleAlumni))
	ctx := context.Background()

	login, err := svc.Login(ctx, &dto.LoginRequest{Username: "alice", Password: testPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	old := login.Token.RefreshToken

	refreshed, err := svc.RefreshToken(ctx, old)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if refreshed.Token.RefreshToken == old {
		t.Error("refresh token was not rotated")
	}
	if stored, _ := tokens.GetToken(ctx, old); !stored.IsRevoked {
		t.Error("old refresh token should be revoked")
	}
	if _, err := svc.RefreshToken(ctx, old); !errors.Is(err, apperrors.ErrTokenRevoked) {
		t.Errorf("reuse: expected ErrTokenRevoked, got %v", err)
	}
	if _, err := svc.RefreshToken(ctx, "unknown"); !errors.Is(err, apperrors.ErrTokenNotFound) {
		t.Errorf("unknown: expected ErrTokenNotFound, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	deadline := time.Now().Add(24 * time.Hour)
	pending := testUser(2, "prof", models.RoleFaculty)
	pending.PasswordChangeRequired = true
	pending.PasswordChangeDeadline = &deadline

	svc, users, tokens := newAuthFixture(t, testUser(1, "alice", models.RoleAlumni), pending)
	ctx := context.Background()
	_ = tokens.CreateToken(ctx, "alice-token", 1, time.Now().Add(time.Hour))

	err := svc.ChangePassword(ctx, 1, &dto.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpass123"})
	if !errors.Is(err, apperrors.ErrInvalidPassword) || apperrors.FieldOf(err) != "old_password" {
		t.Fatalf("wrong old password: got %v", err)
	}

	if err := svc.ChangePassword(ctx, 1, &dto.ChangePasswordRequest{OldPassword: testPassword, NewPassword: "newpass123"}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	stored, _ := users.GetByID(ctx, 1)
	if !auth.CheckPassword(stored.Password, "newpass123") {
		t.Error("password was not updated")
	}
	if tok, _ := tokens.GetToken(ctx, "alice-token"); !tok.IsRevoked {
		t.Error("refresh tokens should be revoked after a password change")
	}

	// A pending change does not need the old password and clears the flag.
	if err := svc.ChangePassword(ctx, 2, &dto.ChangePasswordRequest{NewPassword: "facpass123"}); err != nil {
		t.Fatalf("pending ChangePassword: %v", err)
	}
	prof, _ := users.GetByID(ctx, 2)
	if prof.PasswordChangeRequired || prof.PasswordChangeDeadline != nil {
		t.Error("password change requirement should be cleared")
	}
}
