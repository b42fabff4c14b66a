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

// SurveyController handles surveys, responses and results
type SurveyController struct {
	surveyService services.SurveyService
	logger        zerolog.Logger
}

// NewSurveyController creates a new SurveyController
func NewSurveyController(surveyService services.SurveyService, logger zerolog.Logger) *SurveyController {
	return &SurveyController{
		surveyService: surveyService,
		logger:        logger,
	}
}

// ListSurveys godoc
// @Summary List surveys
// @Tags surveys
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(5)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse[dto.SurveyResponseDTO]}
// @Router /surveys [get]
func (c *SurveyController) ListSurveys(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx, helpers.SurveyPageSize)

	surveys, err := c.surveyService.ListSurveys(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(surveys))
}

// GetSurvey godoc
// @Summary Get a survey with its questions
// @Tags surveys
// @Produce json
// @Security BearerAuth
// @Param id path int true "Survey ID"
// @Success 200 {object} dto.APIResponse{data=dto.SurveyResponseDTO}
// @Failure 404 {object} dto.ErrorResponse "Survey not found"
// @Router /surveys/{id} [get]
func (c *SurveyController) GetSurvey(ctx *gin.Context) {
	surveyID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	survey, err := c.surveyService.GetSurvey(ctx.Request.Context(), surveyID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(survey))
}

// CreateSurvey godoc
// @Summary Create a survey
// @Description ADMIN only. Questions and choices are created with the survey.
// @Tags surveys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SurveyRequest true "Survey"
// @Success 201 {object} dto.APIResponse{data=dto.SurveyResponseDTO}
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /surveys [post]
func (c *SurveyController) CreateSurvey(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.SurveyRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	survey, err := c.surveyService.CreateSurvey(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("surveyID", survey.ID).Int64("userID", userID).Msg("Survey created")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(survey))
}

// UpdateSurvey godoc
// @Summary Replace a survey
// @Description ADMIN only. The question set is replaced.
// @Tags surveys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Survey ID"
// @Param request body dto.SurveyRequest true "Survey"
// @Success 200 {object} dto.APIResponse{data=dto.SurveyResponseDTO}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Survey not found"
// @Router /surveys/{id} [put]
func (c *SurveyController) UpdateSurvey(ctx *gin.Context) {
	surveyID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.SurveyRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	survey, err := c.surveyService.UpdateSurvey(ctx.Request.Context(), surveyID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(survey))
}

// DeleteSurvey godoc
// @Summary Delete a survey
// @Tags surveys
// @Security BearerAuth
// @Param id path int true "Survey ID"
// @Success 204 "No Content"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Survey not found"
// @Router /surveys/{id} [delete]
func (c *SurveyController) DeleteSurvey(ctx *gin.Context) {
	surveyID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.surveyService.DeleteSurvey(ctx.Request.Context(), surveyID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ListQuestions godoc
// @Summary List a survey's questions
// @Tags surveys
// @Produce json
// @Security BearerAuth
// @Param id path int true "Survey ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Question}
// @Failure 404 {object} dto.ErrorResponse "Survey not found"
// @Router /surveys/{id}/questions [get]
func (c *SurveyController) ListQuestions(ctx *gin.Context) {
	surveyID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	questions, err := c.surveyService.ListQuestions(ctx.Request.Context(), surveyID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(questions))
}

// SubmitResponse godoc
// @Summary Answer a survey
// @Description The survey must be active and inside its date window
// @Tags surveys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Survey ID"
// @Param request body dto.SubmitResponseRequest true "Answers"
// @Success 201 {object} dto.APIResponse{data=dto.SubmitResponseResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid answers or survey closed"
// @Failure 404 {object} dto.ErrorResponse "Survey not found"
// @Router /surveys/{id}/submit_response [post]
func (c *SurveyController) SubmitResponse(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	surveyID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.SubmitResponseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.surveyService.SubmitResponse(ctx.Request.Context(), userID, surveyID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// GetResults godoc
// @Summary Survey results
// @Description ADMIN only. Per-question counts, choice tallies, average ratings and text answers.
// @Tags surveys
// @Produce json
// @Security BearerAuth
// @Param id path int true "Survey ID"
// @Success 200 {object} dto.APIResponse{data=dto.SurveyResultsResponse}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Survey not found"
// @Router /surveys/{id}/results [get]
func (c *SurveyController) GetResults(ctx *gin.Context) {
	surveyID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	results, err := c.surveyService.GetResults(ctx.Request.Context(), surveyID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(results))
}
