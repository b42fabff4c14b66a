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

// UserController handles account administration
type UserController struct {
	userService services.UserService
	logger      zerolog.Logger
}

// NewUserController creates a new UserController
func NewUserController(userService services.UserService, logger zerolog.Logger) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role filter" Enums(ADMIN, FACULTY, ALUMNI)
// @Param verified query bool false "Verification filter"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse[dto.UserResponse]}
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /admin/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	var filter dto.AdminUserFilter
	if !middleware.BindQuery(ctx, &filter) {
		return
	}
	filter.Page, filter.Size = helpers.ParsePaginationParams(ctx, helpers.DefaultPageSize)

	users, err := c.userService.ListUsers(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(users))
}

// VerifyUser godoc
// @Summary Verify an account
// @Description Verifies an ALUMNI or FACULTY account. FACULTY accounts get the default password and must change it within the configured window.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserActionResponse}
// @Failure 400 {object} dto.ErrorResponse "Role cannot be verified"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /admin/users/{id}/verify [post]
func (c *UserController) VerifyUser(ctx *gin.Context) {
	userID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.userService.VerifyUser(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	adminID, _ := middleware.GetUserID(ctx)
	c.logger.Info().Int64("userID", userID).Int64("adminID", adminID).Msg("User verified")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// RejectUser godoc
// @Summary Reject an account
// @Description Deactivates the account and emails the reason
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.RejectUserRequest false "Reason"
// @Success 200 {object} dto.APIResponse{data=dto.UserActionResponse}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /admin/users/{id}/reject [post]
func (c *UserController) RejectUser(ctx *gin.Context) {
	userID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.RejectUserRequest
	if ctx.Request.ContentLength > 0 && !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.userService.RejectUser(ctx.Request.Context(), userID, req.Reason)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	adminID, _ := middleware.GetUserID(ctx)
	c.logger.Info().Int64("userID", userID).Int64("adminID", adminID).Msg("User rejected")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
