package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/db"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ICommunityRepository defines community group persistence
type ICommunityRepository interface {
	CreateGroup(ctx context.Context, group *models.CommunityGroup) error
	GetGroupByID(ctx context.Context, id int64) (*models.CommunityGroup, error)
	ListGroups(ctx context.Context, offset, limit uint64) ([]*models.CommunityGroup, int64, error)
	CountActiveMembers(ctx context.Context, groupID int64) (int64, error)

	// JoinGroup creates a MEMBER membership unless one exists; created
	// reports whether a row was inserted.
	JoinGroup(ctx context.Context, groupID, userID int64) (*models.GroupMembership, bool, error)
	GetMembership(ctx context.Context, groupID, userID int64) (*models.GroupMembership, error)
	ListActiveMembers(ctx context.Context, groupID int64) ([]*models.GroupMembership, error)

	CreateGroupPost(ctx context.Context, post *models.GroupPost) error
	ListGroupPosts(ctx context.Context, groupID int64, limit uint64) ([]*models.GroupPost, error)
}

var groupColumns = []string{
	"id", "name", "description", "privacy_type", "cover_image_url", "creator_id", "created_at", "updated_at",
}

var membershipColumns = []string{"gm.id", "gm.group_id", "gm.user_id", "gm.role", "gm.is_active", "gm.joined_at"}

// CommunityRepository handles community database operations
type CommunityRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCommunityRepository creates a new CommunityRepository
func NewCommunityRepository(db *pgxpool.Pool) *CommunityRepository {
	return &CommunityRepository{db: db, sb: newStatementBuilder()}
}

func scanGroup(row interface{ Scan(...any) error }) (*models.CommunityGroup, error) {
	g := &models.CommunityGroup{}
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.PrivacyType, &g.CoverImageURL, &g.CreatorID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// CreateGroup inserts the group and makes its creator an ADMIN member in one
// transaction
func (r *CommunityRepository) CreateGroup(ctx context.Context, group *models.CommunityGroup) error {
	return db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("community_groups").
			Columns("name", "description", "privacy_type", "cover_image_url", "creator_id").
			Values(group.Name, group.Description, group.PrivacyType, group.CoverImageURL, group.CreatorID).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create group query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&group.ID, &group.CreatedAt, &group.UpdatedAt); err != nil {
			logger.Error().Err(err).Str("name", group.Name).Msg("Error creating community group")
			return fmt.Errorf("error creating community group: %w", err)
		}

		sql, args, err = r.sb.Insert("group_memberships").
			Columns("group_id", "user_id", "role").
			Values(group.ID, group.CreatorID, models.MembershipAdmin).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create membership query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error adding group creator: %w", err)
		}
		return nil
	})
}

// GetGroupByID retrieves a group by ID
func (r *CommunityRepository) GetGroupByID(ctx context.Context, id int64) (*models.CommunityGroup, error) {
	sql, args, err := r.sb.Select(groupColumns...).From("community_groups").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get group query: %w", err)
	}
	g, err := scanGroup(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapNoRows(err, apperrors.ErrGroupNotFound, "error retrieving community group")
	}
	return g, nil
}

// ListGroups returns a page of groups, newest first
func (r *CommunityRepository) ListGroups(ctx context.Context, offset, limit uint64) ([]*models.CommunityGroup, int64, error) {
	total, err := count(ctx, r.db, r.sb.Select("COUNT(*)").From("community_groups"))
	if err != nil {
		return nil, 0, err
	}

	sql, args, err := r.sb.Select(groupColumns...).From("community_groups").
		OrderBy("created_at DESC", "id DESC").
		Offset(offset).Limit(limit).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list groups query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing community groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.CommunityGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning community group row: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, total, rows.Err()
}

// CountActiveMembers counts the group's active memberships
func (r *CommunityRepository) CountActiveMembers(ctx context.Context, groupID int64) (int64, error) {
	return count(ctx, r.db, r.sb.Select("COUNT(*)").From("group_memberships").
		Where(squirrel.Eq{"group_id": groupID, "is_active": true}))
}

func (r *CommunityRepository) selectMemberships() squirrel.SelectBuilder {
	return r.sb.Select(append(append([]string{}, membershipColumns...), authorColumns("u")...)...).
		From("group_memberships gm").
		Join("users u ON u.id = gm.user_id")
}

func scanMembership(row interface{ Scan(...any) error }) (*models.GroupMembership, error) {
	m := &models.GroupMembership{User: &models.User{}}
	targets := []any{&m.ID, &m.GroupID, &m.UserID, &m.Role, &m.IsActive, &m.JoinedAt}
	if err := row.Scan(append(targets, authorScanTargets(m.User)...)...); err != nil {
		return nil, err
	}
	return m, nil
}

// JoinGroup adds userID as a MEMBER of groupID if no membership exists yet
func (r *CommunityRepository) JoinGroup(ctx context.Context, groupID, userID int64) (*models.GroupMembership, bool, error) {
	sql, args, err := r.sb.Insert("group_memberships").
		Columns("group_id", "user_id", "role").
		Values(groupID, userID, models.MembershipMember).
		Suffix("ON CONFLICT ON CONSTRAINT group_memberships_group_user_key DO NOTHING").
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build join group query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("groupID", groupID).Int64("userID", userID).Msg("Error joining group")
		return nil, false, fmt.Errorf("error joining group: %w", err)
	}

	m, err := r.GetMembership(ctx, groupID, userID)
	if err != nil {
		return nil, false, err
	}
	return m, tag.RowsAffected() > 0, nil
}

// GetMembership retrieves a user's membership in a group, active or not
func (r *CommunityRepository) GetMembership(ctx context.Context, groupID, userID int64) (*models.GroupMembership, error) {
	sql, args, err := r.selectMemberships().Where(squirrel.Eq{"gm.group_id": groupID, "gm.user_id": userID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get membership query: %w", err)
	}
	m, err := scanMembership(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapNoRows(err, apperrors.ErrNotGroupMember, "error retrieving membership")
	}
	return m, nil
}

// ListActiveMembers returns active memberships in join order
func (r *CommunityRepository) ListActiveMembers(ctx context.Context, groupID int64) ([]*models.GroupMembership, error) {
	sql, args, err := r.selectMemberships().
		Where(squirrel.Eq{"gm.group_id": groupID, "gm.is_active": true}).
		OrderBy("gm.joined_at", "gm.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list members query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing group members: %w", err)
	}
	defer rows.Close()

	var members []*models.GroupMembership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning membership row: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// CreateGroupPost inserts a post into a group
func (r *CommunityRepository) CreateGroupPost(ctx context.Context, post *models.GroupPost) error {
	sql, args, err := r.sb.Insert("group_posts").
		Columns("group_id", "author_id", "content", "image_url").
		Values(post.GroupID, post.AuthorID, post.Content, post.ImageURL).
		Suffix("RETURNING id, is_pinned, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create group post query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&post.ID, &post.IsPinned, &post.CreatedAt); err != nil {
		return fmt.Errorf("error creating group post: %w", err)
	}
	return nil
}

// ListGroupPosts returns the group's posts newest first. A zero limit
// returns all of them.
func (r *CommunityRepository) ListGroupPosts(ctx context.Context, groupID int64, limit uint64) ([]*models.GroupPost, error) {
	cols := []string{"gp.id", "gp.group_id", "gp.author_id", "gp.content", "gp.image_url", "gp.is_pinned", "gp.created_at"}
	b := r.sb.Select(append(cols, authorColumns("u")...)...).
		From("group_posts gp").
		Join("users u ON u.id = gp.author_id").
		Where(squirrel.Eq{"gp.group_id": groupID}).
		OrderBy("gp.created_at DESC", "gp.id DESC")
	if limit > 0 {
		b = b.Limit(limit)
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list group posts query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing group posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.GroupPost
	for rows.Next() {
		p := &models.GroupPost{Author: &models.User{}}
		targets := []any{&p.ID, &p.GroupID, &p.AuthorID, &p.Content, &p.ImageURL, &p.IsPinned, &p.CreatedAt}
		if err := rows.Scan(append(targets, authorScanTargets(p.Author)...)...); err != nil {
			return nil, fmt.Errorf("error scanning group post row: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
