package controllers

import (
	"net/http"

	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/app/services"
	"github.com/alumnisphere/api/internal/middleware"
	"github.com/alumnisphere/api/internal/pkg/helpers"
	"github.com/gin-gonic/gin"
)

// PostController handles the feed: posts, reactions and comments
type PostController struct {
	postService services.PostService
}

// NewPostController creates a new PostController
func NewPostController(postService services.PostService) *PostController {
	return &PostController{postService: postService}
}

// ListPosts godoc
// @Summary List posts
// @Description Newest first, with author and reaction/comment counts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse[dto.PostResponse]}
// @Router /posts [get]
func (c *PostController) ListPosts(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx, helpers.PostPageSize)

	posts, err := c.postService.ListPosts(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(posts))
}

// GetPost godoc
// @Summary Get a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} dto.APIResponse{data=dto.PostResponse}
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/{id} [get]
func (c *PostController) GetPost(ctx *gin.Context) {
	postID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	post, err := c.postService.GetPost(ctx.Request.Context(), postID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(post))
}

// CreatePost godoc
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePostRequest true "Post"
// @Success 201 {object} dto.APIResponse{data=dto.PostResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Router /posts [post]
func (c *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.CreatePostRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	post, err := c.postService.CreatePost(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(post))
}

// UpdatePost godoc
// @Summary Update a post
// @Description Author only
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body dto.CreatePostRequest true "Post"
// @Success 200 {object} dto.APIResponse{data=dto.PostResponse}
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/{id} [put]
func (c *PostController) UpdatePost(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	postID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.CreatePostRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	post, err := c.postService.UpdatePost(ctx.Request.Context(), userID, postID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(post))
}

// DeletePost godoc
// @Summary Delete a post
// @Description Author only
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204 "No Content"
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/{id} [delete]
func (c *PostController) DeletePost(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	postID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.postService.DeletePost(ctx.Request.Context(), userID, postID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// LockComments godoc
// @Summary Lock or unlock comments
// @Description Author or ADMIN
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body dto.LockCommentsRequest true "Lock state"
// @Success 200 {object} dto.APIResponse{data=dto.PostResponse}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/{id}/lock_comments [post]
func (c *PostController) LockComments(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	postID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.LockCommentsRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	post, err := c.postService.LockComments(ctx.Request.Context(), actor, postID, *req.Locked)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(post))
}

// React godoc
// @Summary React to a post
// @Description One reaction per user per post; a new reaction replaces the old one
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body dto.ReactRequest true "Reaction"
// @Success 200 {object} dto.APIResponse{data=dto.ReactionResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid reaction type"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/{id}/react [post]
func (c *PostController) React(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	postID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.ReactRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	reaction, err := c.postService.React(ctx.Request.Context(), userID, postID, req.ReactionType)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(reaction))
}

// RemoveReaction godoc
// @Summary Remove my reaction
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse "No reaction"
// @Router /posts/{id}/react [delete]
func (c *PostController) RemoveReaction(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	postID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.postService.RemoveReaction(ctx.Request.Context(), userID, postID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// AddComment godoc
// @Summary Comment on a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body dto.CommentRequest true "Comment"
// @Success 201 {object} dto.APIResponse{data=dto.CommentResponse}
// @Failure 403 {object} dto.ErrorResponse "Comments locked"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/{id}/comment [post]
func (c *PostController) AddComment(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	postID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.CommentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	comment, err := c.postService.AddComment(ctx.Request.Context(), userID, postID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(comment))
}

// ListComments godoc
// @Summary List comments
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param post_id query int false "Post ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.CommentResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid post_id"
// @Router /comments [get]
func (c *PostController) ListComments(ctx *gin.Context) {
	postID, present, err := helpers.ParseIDQuery(ctx, "post_id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	var filter *int64
	if present {
		filter = &postID
	}

	comments, err := c.postService.ListComments(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(comments))
}

// UpdateComment godoc
// @Summary Update a comment
// @Description Author only
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body dto.CommentRequest true "Comment"
// @Success 200 {object} dto.APIResponse{data=dto.CommentResponse}
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Failure 404 {object} dto.ErrorResponse "Comment not found"
// @Router /comments/{id} [put]
func (c *PostController) UpdateComment(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	commentID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.CommentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	comment, err := c.postService.UpdateComment(ctx.Request.Context(), userID, commentID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(comment))
}

// DeleteComment godoc
// @Summary Delete a comment
// @Description Author only
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 204 "No Content"
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Failure 404 {object} dto.ErrorResponse "Comment not found"
// @Router /comments/{id} [delete]
func (c *PostController) DeleteComment(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	commentID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.postService.DeleteComment(ctx.Request.Context(), userID, commentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
