package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/dberrors"
	"github.com/alumnisphere/api/internal/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserFilter narrows user listings
type UserFilter struct {
	Role     *models.Role
	Verified *bool
	Offset   uint64
	Limit    uint64
}

// IUserRepository defines the interface for user-related database operations
type IUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)
	List(ctx context.Context, filter UserFilter) ([]*models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
	UpdateAvatar(ctx context.Context, userID int64, avatarURL *string) error
	SetActive(ctx context.Context, userID int64, active bool) error
	ListActiveEmails(ctx context.Context) ([]string, error)
}

var userColumns = []string{
	"id", "username", "email", "password_hash", "first_name", "last_name", "student_id",
	"role", "avatar_url", "is_verified", "is_active", "password_change_required",
	"password_change_deadline", "last_login_at", "created_at", "updated_at",
}

// UserRepository handles user database operations
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
		sb: newStatementBuilder(),
	}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.StudentID,
		&u.Role, &u.AvatarURL, &u.IsVerified, &u.IsActive, &u.PasswordChangeRequired,
		&u.PasswordChangeDeadline, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new user and fills in its generated fields
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Insert("users").
		Columns("username", "email", "password_hash", "first_name", "last_name", "student_id",
			"role", "is_verified", "is_active").
		Values(user.Username, user.Email, user.Password, user.FirstName, user.LastName, user.StudentID,
			user.Role, user.IsVerified, user.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, "users_username_key"):
			return apperrors.ErrUsernameExists
		case dberrors.IsDuplicateConstraintError(err, "users_email_key"):
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("username", user.Username).Msg("Error creating user")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapNoRows(err, apperrors.ErrUserNotFound, "error retrieving user")
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

// GetByIDs loads several users in one query, keyed by ID. Missing IDs are
// simply absent from the map.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	users := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	sql, args, err := r.sb.Select(userColumns...).From("users").Where(squirrel.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error retrieving users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users[u.ID] = u
	}
	return users, rows.Err()
}

func applyUserFilter(b squirrel.SelectBuilder, filter UserFilter) squirrel.SelectBuilder {
	if filter.Role != nil {
		b = b.Where(squirrel.Eq{"role": *filter.Role})
	}
	if filter.Verified != nil {
		b = b.Where(squirrel.Eq{"is_verified": *filter.Verified})
	}
	return b
}

// List returns a page of users matching filter, newest first, with the total count
func (r *UserRepository) List(ctx context.Context, filter UserFilter) ([]*models.User, int64, error) {
	total, err := count(ctx, r.db, applyUserFilter(r.sb.Select("COUNT(*)").From("users"), filter))
	if err != nil {
		return nil, 0, err
	}

	b := applyUserFilter(r.sb.Select(userColumns...).From("users"), filter).
		OrderBy("created_at DESC", "id DESC").
		Offset(filter.Offset)
	if filter.Limit > 0 {
		b = b.Limit(filter.Limit)
	}

	sql, args, err := b.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// Update persists the mutable account fields of user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Update("users").
		Set("email", user.Email).
		Set("password_hash", user.Password).
		Set("first_name", user.FirstName).
		Set("last_name", user.LastName).
		Set("student_id", user.StudentID).
		Set("role", user.Role).
		Set("is_verified", user.IsVerified).
		Set("is_active", user.IsActive).
		Set("password_change_required", user.PasswordChangeRequired).
		Set("password_change_deadline", user.PasswordChangeDeadline).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": user.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&user.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		return mapNoRows(err, apperrors.ErrUserNotFound, "error updating user")
	}
	return nil
}

// UpdateLastLogin updates the last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return execAffecting(ctx, r.db, r.sb.Update("users").Set("last_login_at", at).Set("updated_at", squirrel.Expr("NOW()")).Where(squirrel.Eq{"id": userID}), apperrors.ErrUserNotFound, "update last login")
}

// UpdateAvatar sets or clears the avatar URL
func (r *UserRepository) UpdateAvatar(ctx context.Context, userID int64, avatarURL *string) error {
	return execAffecting(ctx, r.db, r.sb.Update("users").Set("avatar_url", avatarURL).Set("updated_at", squirrel.Expr("NOW()")).Where(squirrel.Eq{"id": userID}), apperrors.ErrUserNotFound, "update avatar")
}

// SetActive enables or disables the account
func (r *UserRepository) SetActive(ctx context.Context, userID int64, active bool) error {
	return execAffecting(ctx, r.db, r.sb.Update("users").Set("is_active", active).Set("updated_at", squirrel.Expr("NOW()")).Where(squirrel.Eq{"id": userID}), apperrors.ErrUserNotFound, "update account status")
}

// ListActiveEmails returns the addresses of every active account
func (r *UserRepository) ListActiveEmails(ctx context.Context) ([]string, error) {
	sql, args, err := r.sb.Select("email").From("users").
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.NotEq{"email": ""}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list emails query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing emails: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("error scanning email: %w", err)
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}
