// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/app/services"
	"github.com/alumnisphere/api/internal/middleware"
	"github.com/alumnisphere/api/internal/pkg/helpers"
	"github.com/gin-gonic/gin"
)

// currentUserID returns the authenticated user's ID, writing a 401 when the
// request carries none.
func currentUserID(ctx *gin.Context) (int64, bool) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "User not authenticated")))
		return 0, false
	}
	return userID, true
}

// currentActor is currentUserID plus the caller's role.
func currentActor(ctx *gin.Context) (services.Actor, bool) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return services.Actor{}, false
	}
	role, _ := middleware.GetRole(ctx)
	return services.Actor{UserID: userID, Role: role}, true
}

// pathID parses a positive path parameter, writing a 400 on failure.
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := helpers.ParseIDParam(ctx, name)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return 0, false
	}
	return id, true
}
