package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IPostRepository defines post, comment and reaction persistence
type IPostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	List(ctx context.Context, offset, limit uint64) ([]*models.Post, int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id int64) error
	SetCommentsLocked(ctx context.Context, id int64, locked bool) error

	UpsertReaction(ctx context.Context, reaction *models.Reaction) error
	DeleteReaction(ctx context.Context, postID, userID int64) (bool, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id int64) (*models.Comment, error)
	ListComments(ctx context.Context, postID *int64) ([]*models.Comment, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id int64) error
}

// PostRepository handles post database operations
type PostRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db, sb: newStatementBuilder()}
}

func (r *PostRepository) selectPosts() squirrel.SelectBuilder {
	cols := []string{
		"p.id", "p.author_id", "p.content", "p.image_url", "p.comments_locked", "p.created_at", "p.updated_at",
		"(SELECT COUNT(*) FROM reactions re WHERE re.post_id = p.id)",
		"(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id)",
	}
	return r.sb.Select(append(cols, authorColumns("u")...)...).
		From("posts p").
		Join("users u ON u.id = p.author_id")
}

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	p := &models.Post{Author: &models.User{}}
	targets := []any{
		&p.ID, &p.AuthorID, &p.Content, &p.ImageURL, &p.CommentsLocked, &p.CreatedAt, &p.UpdatedAt,
		&p.ReactionsCount, &p.CommentsCount,
	}
	if err := row.Scan(append(targets, authorScanTargets(p.Author)...)...); err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	sql, args, err := r.sb.Insert("posts").
		Columns("author_id", "content", "image_url").
		Values(post.AuthorID, post.Content, post.ImageURL).
		Suffix("RETURNING id, comments_locked, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create post query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&post.ID, &post.CommentsLocked, &post.CreatedAt, &post.UpdatedAt); err != nil {
		logger.Error().Err(err).Int64("authorID", post.AuthorID).Msg("Error creating post")
		return fmt.Errorf("error creating post: %w", err)
	}
	return nil
}

// GetByID retrieves a post with author and counts
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	sql, args, err := r.selectPosts().Where(squirrel.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get post query: %w", err)
	}
	p, err := scanPost(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapNoRows(err, apperrors.ErrPostNotFound, "error retrieving post")
	}
	return p, nil
}

// List returns a page of posts, newest first
func (r *PostRepository) List(ctx context.Context, offset, limit uint64) ([]*models.Post, int64, error) {
	total, err := count(ctx, r.db, r.sb.Select("COUNT(*)").From("posts"))
	if err != nil {
		return nil, 0, err
	}

	sql, args, err := r.selectPosts().OrderBy("p.created_at DESC", "p.id DESC").Offset(offset).Limit(limit).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list posts query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, total, rows.Err()
}

// Update persists post content
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	sql, args, err := r.sb.Update("posts").
		Set("content", post.Content).
		Set("image_url", post.ImageURL).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": post.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update post query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&post.UpdatedAt); err != nil {
		return mapNoRows(err, apperrors.ErrPostNotFound, "error updating post")
	}
	return nil
}

// Delete removes a post with its comments and reactions
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	return execAffecting(ctx, r.db, r.sb.Delete("posts").Where(squirrel.Eq{"id": id}), apperrors.ErrPostNotFound, "delete post")
}

// SetCommentsLocked toggles whether new comments are accepted
func (r *PostRepository) SetCommentsLocked(ctx context.Context, id int64, locked bool) error {
	return execAffecting(ctx, r.db,
		r.sb.Update("posts").Set("comments_locked", locked).Set("updated_at", squirrel.Expr("NOW()")).Where(squirrel.Eq{"id": id}),
		apperrors.ErrPostNotFound, "lock comments")
}

// UpsertReaction sets the user's single reaction on a post
func (r *PostRepository) UpsertReaction(ctx context.Context, reaction *models.Reaction) error {
	sql, args, err := r.sb.Insert("reactions").
		Columns("post_id", "user_id", "reaction_type").
		Values(reaction.PostID, reaction.UserID, reaction.ReactionType).
		Suffix("ON CONFLICT ON CONSTRAINT reactions_post_user_key DO UPDATE SET reaction_type = EXCLUDED.reaction_type RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert reaction query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&reaction.ID, &reaction.CreatedAt); err != nil {
		return fmt.Errorf("error saving reaction: %w", err)
	}
	return nil
}

// DeleteReaction removes the user's reaction; removed is false when there was none
func (r *PostRepository) DeleteReaction(ctx context.Context, postID, userID int64) (bool, error) {
	sql, args, err := r.sb.Delete("reactions").Where(squirrel.Eq{"post_id": postID, "user_id": userID}).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build delete reaction query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error deleting reaction: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostRepository) selectComments() squirrel.SelectBuilder {
	cols := []string{"c.id", "c.post_id", "c.author_id", "c.content", "c.created_at", "c.updated_at"}
	return r.sb.Select(append(cols, authorColumns("u")...)...).
		From("comments c").
		Join("users u ON u.id = c.author_id")
}

func scanComment(row interface{ Scan(...any) error }) (*models.Comment, error) {
	c := &models.Comment{Author: &models.User{}}
	targets := []any{&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt}
	if err := row.Scan(append(targets, authorScanTargets(c.Author)...)...); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateComment inserts a comment
func (r *PostRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	sql, args, err := r.sb.Insert("comments").
		Columns("post_id", "author_id", "content").
		Values(comment.PostID, comment.AuthorID, comment.Content).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create comment query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt); err != nil {
		return fmt.Errorf("error creating comment: %w", err)
	}
	return nil
}

// GetComment retrieves a comment with its author
func (r *PostRepository) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	sql, args, err := r.selectComments().Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get comment query: %w", err)
	}
	c, err := scanComment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapNoRows(err, apperrors.ErrCommentNotFound, "error retrieving comment")
	}
	return c, nil
}

// ListComments returns comments oldest first, optionally for a single post
func (r *PostRepository) ListComments(ctx context.Context, postID *int64) ([]*models.Comment, error) {
	b := r.selectComments().OrderBy("c.created_at", "c.id")
	if postID != nil {
		b = b.Where(squirrel.Eq{"c.post_id": *postID})
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list comments query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// UpdateComment persists comment content
func (r *PostRepository) UpdateComment(ctx context.Context, comment *models.Comment) error {
	sql, args, err := r.sb.Update("comments").
		Set("content", comment.Content).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": comment.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update comment query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&comment.UpdatedAt); err != nil {
		return mapNoRows(err, apperrors.ErrCommentNotFound, "error updating comment")
	}
	return nil
}

// DeleteComment removes a comment
func (r *PostRepository) DeleteComment(ctx context.Context, id int64) error {
	return execAffecting(ctx, r.db, r.sb.Delete("comments").Where(squirrel.Eq{"id": id}), apperrors.ErrCommentNotFound, "delete comment")
}
