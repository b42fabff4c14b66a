package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/alumnisphere/api/internal/app/models"
	"golang.org/x/crypto/bcrypt"
)

func newTestJWTService() *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "alumnisphere-test",
	})
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc := newTestJWTService()
	user := &models.User{ID: 42, Username: "linh", Role: models.RoleAlumni}

	pair, err := svc.GenerateTokenPair(user)
	if err != nil {
		t.Fatalf("GenerateTokenPair() error = %v", err)
	}
	if pair.RefreshToken == "" {
		t.Fatal("expected a refresh token")
	}
	if pair.ExpiresIn != 900 {
		t.Errorf("ExpiresIn = %d, want 900", pair.ExpiresIn)
	}

	claims, err := svc.ValidateAndExtractClaims(pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAndExtractClaims() error = %v", err)
	}
	if claims.UserID != 42 || claims.Username != "linh" || claims.Role != string(models.RoleAlumni) {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	svc := newTestJWTService()
	issued := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issued }

	pair, err := svc.GenerateTokenPair(&models.User{ID: 1, Username: "a", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("GenerateTokenPair() error = %v", err)
	}

	svc.now = time.Now
	if _, err := svc.ValidateToken(pair.AccessToken); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("ValidateToken() error = %v, want ErrExpiredToken", err)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	pair, err := newTestJWTService().GenerateTokenPair(&models.User{ID: 1, Username: "a", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("GenerateTokenPair() error = %v", err)
	}

	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Minute})
	if _, err := other.ValidateToken(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc.def", want: "abc.def"},
		{header: "abc.def", want: "abc.def"},
		{header: "", wantErr: true},
		{header: "Bearer ", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ExtractBearerToken(tt.header)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExtractBearerToken(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ExtractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := hashPasswordWithCost("s3cretpass", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash error = %v", err)
	}
	if !CheckPassword(hash, "s3cretpass") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "wrongpass1") {
		t.Error("expected wrong password to be rejected")
	}
}

func TestValidateTokenWrongIssuer(t *testing.T) {
	pair, err := newTestJWTService().GenerateTokenPair(&models.User{ID: 3, Username: "c", Role: models.RoleFaculty})
	if err != nil {
		t.Fatalf("GenerateTokenPair() error = %v", err)
	}

	other := NewJWTService(JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Minute, TokenIssuer: "someone-else"})
	if _, err := other.ValidateToken(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
}
