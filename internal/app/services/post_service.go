package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/alumnisphere/api/internal/app/auth"
	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/app/repositories"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// PostService defines timeline operations
type PostService interface {
	ListPosts(ctx context.Context, page, size int) (*dto.PaginatedResponse[dto.PostResponse], error)
	GetPost(ctx context.Context, postID int64) (*dto.PostResponse, error)
	CreatePost(ctx context.Context, userID int64, req *dto.CreatePostRequest) (*dto.PostResponse, error)
	UpdatePost(ctx context.Context, userID, postID int64, req *dto.CreatePostRequest) (*dto.PostResponse, error)
	DeletePost(ctx context.Context, userID, postID int64) error
	LockComments(ctx context.Context, actor Actor, postID int64, locked bool) (*dto.PostResponse, error)

	React(ctx context.Context, userID, postID int64, reactionType models.ReactionType) (*dto.ReactionResponse, error)
	RemoveReaction(ctx context.Context, userID, postID int64) error

	AddComment(ctx context.Context, userID, postID int64, req *dto.CommentRequest) (*dto.CommentResponse, error)
	ListComments(ctx context.Context, postID *int64) ([]dto.CommentResponse, error)
	UpdateComment(ctx context.Context, userID, commentID int64, req *dto.CommentRequest) (*dto.CommentResponse, error)
	DeleteComment(ctx context.Context, userID, commentID int64) error
}

type postServiceImpl struct {
	postRepo   repositories.IPostRepository
	authorizer auth.Authorizer
	logger     zerolog.Logger
}

// NewPostService creates a new PostService
func NewPostService(postRepo repositories.IPostRepository, authorizer auth.Authorizer, logger zerolog.Logger) PostService {
	return &postServiceImpl{postRepo: postRepo, authorizer: authorizer, logger: logger}
}

func requireContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperrors.NewValidationError("content", "content may not be blank")
	}
	return nil
}

func (s *postServiceImpl) ListPosts(ctx context.Context, page, size int) (*dto.PaginatedResponse[dto.PostResponse], error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	posts, total, err := s.postRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}

	items := make([]dto.PostResponse, 0, len(posts))
	for _, p := range posts {
		items = append(items, dto.NewPostResponse(p))
	}
	resp := dto.NewPaginatedResponse(items, helpers.NewPaginationInfo(total, page, int(limit)))
	return &resp, nil
}

func (s *postServiceImpl) GetPost(ctx context.Context, postID int64) (*dto.PostResponse, error) {
	p, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewPostResponse(p)
	return &resp, nil
}

func (s *postServiceImpl) CreatePost(ctx context.Context, userID int64, req *dto.CreatePostRequest) (*dto.PostResponse, error) {
	if err := requireContent(req.Content); err != nil {
		return nil, err
	}

	post := &models.Post{AuthorID: userID, Content: req.Content, ImageURL: req.ImageURL}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	s.logger.Info().Int64("postID", post.ID).Int64("authorID", userID).Msg("Post created")
	return s.GetPost(ctx, post.ID)
}

// ownedPost loads a post and checks the caller wrote it
func (s *postServiceImpl) ownedPost(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, apperrors.NewForbiddenError("You can only modify your own posts")
	}
	return post, nil
}

func (s *postServiceImpl) UpdatePost(ctx context.Context, userID, postID int64, req *dto.CreatePostRequest) (*dto.PostResponse, error) {
	if err := requireContent(req.Content); err != nil {
		return nil, err
	}
	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	post.Content = req.Content
	post.ImageURL = req.ImageURL
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("error updating post: %w", err)
	}
	resp := dto.NewPostResponse(post)
	return &resp, nil
}

func (s *postServiceImpl) DeletePost(ctx context.Context, userID, postID int64) error {
	if _, err := s.ownedPost(ctx, userID, postID); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, postID)
}

// LockComments opens or closes a post for comments. Allowed for the author
// and for roles with the posts:moderate permission.
func (s *postServiceImpl) LockComments(ctx context.Context, actor Actor, postID int64, locked bool) (*dto.PostResponse, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actor.UserID && !s.authorizer.Can(actor.Role, auth.ResourcePosts, auth.ActionModerate) {
		return nil, apperrors.NewForbiddenError("Only the author or an admin can lock comments")
	}

	if err := s.postRepo.SetCommentsLocked(ctx, postID, locked); err != nil {
		return nil, err
	}
	post.CommentsLocked = locked
	resp := dto.NewPostResponse(post)
	return &resp, nil
}

// React sets the caller's reaction, replacing any earlier one
func (s *postServiceImpl) React(ctx context.Context, userID, postID int64, reactionType models.ReactionType) (*dto.ReactionResponse, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	reaction := &models.Reaction{PostID: postID, UserID: userID, ReactionType: reactionType}
	if err := s.postRepo.UpsertReaction(ctx, reaction); err != nil {
		return nil, fmt.Errorf("error saving reaction: %w", err)
	}
	return &dto.ReactionResponse{Status: "reaction added", ReactionType: reactionType}, nil
}

func (s *postServiceImpl) RemoveReaction(ctx context.Context, userID, postID int64) error {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return err
	}
	removed, err := s.postRepo.DeleteReaction(ctx, postID, userID)
	if err != nil {
		return fmt.Errorf("error removing reaction: %w", err)
	}
	if !removed {
		return apperrors.NewResourceNotFoundError("Reaction not found")
	}
	return nil
}

// AddComment comments on a post unless its comments are locked
func (s *postServiceImpl) AddComment(ctx context.Context, userID, postID int64, req *dto.CommentRequest) (*dto.CommentResponse, error) {
	if err := requireContent(req.Content); err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.CommentsLocked {
		return nil, apperrors.ErrCommentsLocked
	}

	comment := &models.Comment{PostID: postID, AuthorID: userID, Content: req.Content}
	if err := s.postRepo.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("error creating comment: %w", err)
	}
	created, err := s.postRepo.GetComment(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewCommentResponse(created)
	return &resp, nil
}

func (s *postServiceImpl) ListComments(ctx context.Context, postID *int64) ([]dto.CommentResponse, error) {
	comments, err := s.postRepo.ListComments(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error listing comments: %w", err)
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for _, c := range comments {
		items = append(items, dto.NewCommentResponse(c))
	}
	return items, nil
}

func (s *postServiceImpl) ownedComment(ctx context.Context, userID, commentID int64) (*models.Comment, error) {
	comment, err := s.postRepo.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != userID {
		return nil, apperrors.NewForbiddenError("You can only modify your own comments")
	}
	return comment, nil
}

func (s *postServiceImpl) UpdateComment(ctx context.Context, userID, commentID int64, req *dto.CommentRequest) (*dto.CommentResponse, error) {
	if err := requireContent(req.Content); err != nil {
		return nil, err
	}
	comment, err := s.ownedComment(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	comment.Content = req.Content
	if err := s.postRepo.UpdateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("error updating comment: %w", err)
	}
	resp := dto.NewCommentResponse(comment)
	return &resp, nil
}

func (s *postServiceImpl) DeleteComment(ctx context.Context, userID, commentID int64) error {
	if _, err := s.ownedComment(ctx, userID, commentID); err != nil {
		return err
	}
	return s.postRepo.DeleteComment(ctx, commentID)
}
