package dto

import (
	"time"

	"github.com/alumnisphere/api/internal/app/models"
)

// ChoiceInput is a choice in a survey definition
type ChoiceInput struct {
	ChoiceText string `json:"choice_text" binding:"required,max=255"`
	Order      int    `json:"order"`
}

// QuestionInput is a question in a survey definition
type QuestionInput struct {
	QuestionText string              `json:"question_text" binding:"required"`
	QuestionType models.QuestionType `json:"question_type" binding:"required,oneof=TEXT CHOICE SCALE"`
	IsRequired   *bool               `json:"is_required,omitempty"`
	Order        int                 `json:"order"`
	Choices      []ChoiceInput       `json:"choices,omitempty" binding:"dive"`
}

// SurveyRequest creates or replaces a survey
type SurveyRequest struct {
	Title       string          `json:"title" binding:"required,max=255"`
	Description string          `json:"description"`
	StartDate   time.Time       `json:"start_date" binding:"required"`
	EndDate     time.Time       `json:"end_date" binding:"required,gtfield=StartDate"`
	IsActive    *bool           `json:"is_active,omitempty"`
	Questions   []QuestionInput `json:"questions" binding:"dive"`
}

// AnswerInput answers one question
type AnswerInput struct {
	QuestionID       int64   `json:"question_id" binding:"required,gt=0"`
	AnswerText       *string `json:"answer_text,omitempty"`
	SelectedChoiceID *int64  `json:"selected_choice_id,omitempty"`
	RatingValue      *int    `json:"rating_value,omitempty"`
}

// SubmitResponseRequest is the body of submit_response
type SubmitResponseRequest struct {
	Answers []AnswerInput `json:"answers" binding:"required,min=1,dive"`
}

// SubmitResponseResponse reports the stored response
type SubmitResponseResponse struct {
	Status     string `json:"status" example:"survey submitted"`
	ResponseID int64  `json:"response_id"`
}

// SurveyResponseDTO is a survey with its questions
type SurveyResponseDTO struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	CreatedBy   int64              `json:"created_by"`
	StartDate   time.Time          `json:"start_date"`
	EndDate     time.Time          `json:"end_date"`
	IsActive    bool               `json:"is_active"`
	CreatedAt   time.Time          `json:"created_at"`
	Questions   []*models.Question `json:"questions,omitempty"`
}

// NewSurveyResponseDTO maps a survey model
func NewSurveyResponseDTO(s *models.Survey) SurveyResponseDTO {
	return SurveyResponseDTO{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		CreatedBy:   s.CreatedBy,
		StartDate:   s.StartDate,
		EndDate:     s.EndDate,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		Questions:   s.Questions,
	}
}

// ChoiceResult counts the answers that picked a choice
type ChoiceResult struct {
	ChoiceID   int64  `json:"choice_id"`
	ChoiceText string `json:"choice_text"`
	Count      int64  `json:"count"`
}

// QuestionResult aggregates the answers to one question
type QuestionResult struct {
	QuestionID    int64               `json:"question_id"`
	QuestionText  string              `json:"question_text"`
	QuestionType  models.QuestionType `json:"question_type"`
	ResponseCount int64               `json:"response_count"`
	Choices       []ChoiceResult      `json:"choices,omitempty"`
	AverageRating *float64            `json:"average_rating,omitempty"`
	TextAnswers   []string            `json:"text_answers,omitempty"`
}

// SurveyResultsResponse aggregates every question of a survey
type SurveyResultsResponse struct {
	SurveyID       int64            `json:"survey_id"`
	TotalResponses int64            `json:"total_responses"`
	Questions      []QuestionResult `json:"questions"`
}
