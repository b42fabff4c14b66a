package controllers

import (
	"net/http"

	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/app/services"
	"github.com/alumnisphere/api/internal/middleware"
	"github.com/alumnisphere/api/internal/pkg/helpers"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CommunityController handles community groups and their posts
type CommunityController struct {
	communityService services.CommunityService
	logger           zerolog.Logger
}

// NewCommunityController creates a new CommunityController
func NewCommunityController(communityService services.CommunityService, logger zerolog.Logger) *CommunityController {
	return &CommunityController{
		communityService: communityService,
		logger:           logger,
	}
}

// ListGroups godoc
// @Summary List community groups
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse[dto.GroupResponse]}
// @Router /communities [get]
func (c *CommunityController) ListGroups(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx, helpers.DefaultPageSize)

	groups, err := c.communityService.ListGroups(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(groups))
}

// GetGroup godoc
// @Summary Get a community group
// @Description Includes the active member count and the most recent posts
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {object} dto.APIResponse{data=dto.GroupResponse}
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Router /communities/{id} [get]
func (c *CommunityController) GetGroup(ctx *gin.Context) {
	groupID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	group, err := c.communityService.GetGroup(ctx.Request.Context(), groupID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(group))
}

// CreateGroup godoc
// @Summary Create a community group
// @Description The creator becomes the group's ADMIN member
// @Tags communities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateGroupRequest true "Group"
// @Success 201 {object} dto.APIResponse{data=dto.GroupResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Router /communities [post]
func (c *CommunityController) CreateGroup(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.CreateGroupRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	group, err := c.communityService.CreateGroup(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("groupID", group.ID).Int64("userID", userID).Msg("Community group created")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(group))
}

// JoinGroup godoc
// @Summary Join a community group
// @Description PRIVATE groups require approval and answer 403
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {object} dto.APIResponse{data=dto.JoinGroupResponse}
// @Failure 403 {object} dto.ErrorResponse "Group is private"
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Router /communities/{id}/join_group [post]
func (c *CommunityController) JoinGroup(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	groupID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.communityService.JoinGroup(ctx.Request.Context(), userID, groupID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// ListMembers godoc
// @Summary List active members
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.GroupMemberResponse}
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Router /communities/{id}/members [get]
func (c *CommunityController) ListMembers(ctx *gin.Context) {
	groupID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	members, err := c.communityService.ListMembers(ctx.Request.Context(), groupID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(members))
}

// CreateGroupPost godoc
// @Summary Post in a community group
// @Description Requires active membership
// @Tags communities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Param request body dto.CreateGroupPostRequest true "Post"
// @Success 201 {object} dto.APIResponse{data=dto.GroupPostResponse}
// @Failure 403 {object} dto.ErrorResponse "Not a member"
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Router /communities/{id}/create_post [post]
func (c *CommunityController) CreateGroupPost(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	groupID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.CreateGroupPostRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	post, err := c.communityService.CreateGroupPost(ctx.Request.Context(), userID, groupID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(post))
}

// ListGroupPosts godoc
// @Summary List group posts
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.GroupPostResponse}
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Router /communities/{id}/posts [get]
func (c *CommunityController) ListGroupPosts(ctx *gin.Context) {
	groupID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	posts, err := c.communityService.ListGroupPosts(ctx.Request.Context(), groupID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(posts))
}
