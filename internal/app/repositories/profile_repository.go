package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IProfileRepository defines profile persistence
type IProfileRepository interface {
	GetByID(ctx context.Context, id int64) (*models.UserProfile, error)
	GetOrCreate(ctx context.Context, userID int64) (*models.UserProfile, error)
	List(ctx context.Context, offset, limit uint64) ([]*models.UserProfile, int64, error)
	Update(ctx context.Context, profile *models.UserProfile) error
}

var profileColumns = []string{
	"p.id", "p.user_id", "p.bio", "p.graduation_year", "p.company", "p.position", "p.location",
	"p.created_at", "p.updated_at",
}

// ProfileRepository handles user profile database operations
type ProfileRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db, sb: newStatementBuilder()}
}

func (r *ProfileRepository) selectProfiles() squirrel.SelectBuilder {
	return r.sb.Select(append(append([]string{}, profileColumns...), authorColumns("u")...)...).
		From("user_profiles p").
		Join("users u ON u.id = p.user_id")
}

func scanProfile(row interface{ Scan(...any) error }) (*models.UserProfile, error) {
	p := &models.UserProfile{User: &models.User{}}
	targets := []any{
		&p.ID, &p.UserID, &p.Bio, &p.GraduationYear, &p.Company, &p.Position, &p.Location,
		&p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(targets, authorScanTargets(p.User)...)...); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProfileRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.UserProfile, error) {
	sql, args, err := r.selectProfiles().Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get profile query: %w", err)
	}
	p, err := scanProfile(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapNoRows(err, apperrors.ErrProfileNotFound, "error retrieving profile")
	}
	return p, nil
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id int64) (*models.UserProfile, error) {
	return r.getOne(ctx, squirrel.Eq{"p.id": id})
}

// GetOrCreate returns the user's profile, creating an empty one first when
// none exists
func (r *ProfileRepository) GetOrCreate(ctx context.Context, userID int64) (*models.UserProfile, error) {
	sql, args, err := r.sb.Insert("user_profiles").
		Columns("user_id").
		Values(userID).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build create profile query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return nil, fmt.Errorf("error creating profile: %w", err)
	}
	return r.getOne(ctx, squirrel.Eq{"p.user_id": userID})
}

// List returns a page of profiles ordered by ID
func (r *ProfileRepository) List(ctx context.Context, offset, limit uint64) ([]*models.UserProfile, int64, error) {
	total, err := count(ctx, r.db, r.sb.Select("COUNT(*)").From("user_profiles"))
	if err != nil {
		return nil, 0, err
	}

	sql, args, err := r.selectProfiles().OrderBy("p.id").Offset(offset).Limit(limit).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list profiles query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning profile row: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, total, rows.Err()
}

// Update persists the editable profile fields
func (r *ProfileRepository) Update(ctx context.Context, profile *models.UserProfile) error {
	sql, args, err := r.sb.Update("user_profiles").
		Set("bio", profile.Bio).
		Set("graduation_year", profile.GraduationYear).
		Set("company", profile.Company).
		Set("position", profile.Position).
		Set("location", profile.Location).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": profile.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update profile query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&profile.UpdatedAt); err != nil {
		return mapNoRows(err, apperrors.ErrProfileNotFound, "error updating profile")
	}
	return nil
}
