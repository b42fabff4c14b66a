package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/dberrors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ITokenRepository stores refresh tokens
type ITokenRepository interface {
	CreateToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	GetToken(ctx context.Context, token string) (*models.RefreshToken, error)
	// RevokeToken fails with ErrTokenRevoked unless it flipped a live token,
	// so a refresh token can be rotated at most once.
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
}

const refreshTokensTable = "refresh_tokens"

type TokenRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{db: db, sb: newStatementBuilder()}
}

func (r *TokenRepository) CreateToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	sql, args, err := r.sb.Insert(refreshTokensTable).
		SetMap(map[string]interface{}{
			"token":      token,
			"user_id":    userID,
			"expires_at": expiresAt,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create token query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	switch {
	case dberrors.IsUniqueViolation(err):
		return apperrors.ErrTokenInvalid
	case dberrors.IsForeignKeyViolation(err):
		return apperrors.ErrUserNotFound
	case err != nil:
		return fmt.Errorf("error creating token: %w", err)
	}
	return nil
}

func (r *TokenRepository) GetToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	sql, args, err := r.sb.Select("id", "token", "user_id", "expires_at", "is_revoked", "created_at").
		From(refreshTokensTable).
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get token query: %w", err)
	}

	rt := &models.RefreshToken{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&rt.ID, &rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.IsRevoked, &rt.CreatedAt); err != nil {
		return nil, mapNoRows(err, apperrors.ErrTokenNotFound, "error retrieving token")
	}
	return rt, nil
}

func (r *TokenRepository) revoke(where squirrel.Eq) squirrel.UpdateBuilder {
	where["is_revoked"] = false
	return r.sb.Update(refreshTokensTable).Set("is_revoked", true).Where(where)
}

func (r *TokenRepository) RevokeToken(ctx context.Context, token string) error {
	return execAffecting(ctx, r.db, r.revoke(squirrel.Eq{"token": token}), apperrors.ErrTokenRevoked, "revoke token")
}

// RevokeAllUserTokens is used after a password change; having nothing to
// revoke is fine.
func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	sql, args, err := r.revoke(squirrel.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build revoke tokens query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error revoking user tokens: %w", err)
	}
	return nil
}
