package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/app/repositories"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// SurveyService defines survey operations
type SurveyService interface {
	ListSurveys(ctx context.Context, page, size int) (*dto.PaginatedResponse[dto.SurveyResponseDTO], error)
	GetSurvey(ctx context.Context, surveyID int64) (*dto.SurveyResponseDTO, error)
	CreateSurvey(ctx context.Context, userID int64, req *dto.SurveyRequest) (*dto.SurveyResponseDTO, error)
	UpdateSurvey(ctx context.Context, surveyID int64, req *dto.SurveyRequest) (*dto.SurveyResponseDTO, error)
	DeleteSurvey(ctx context.Context, surveyID int64) error
	ListQuestions(ctx context.Context, surveyID int64) ([]*models.Question, error)
	SubmitResponse(ctx context.Context, userID, surveyID int64, req *dto.SubmitResponseRequest) (*dto.SubmitResponseResponse, error)
	GetResults(ctx context.Context, surveyID int64) (*dto.SurveyResultsResponse, error)
}

type surveyServiceImpl struct {
	surveyRepo repositories.ISurveyRepository
	logger     zerolog.Logger
	now        func() time.Time
}

// NewSurveyService creates a new SurveyService
func NewSurveyService(surveyRepo repositories.ISurveyRepository, logger zerolog.Logger) SurveyService {
	return &surveyServiceImpl{surveyRepo: surveyRepo, logger: logger, now: time.Now}
}

func (s *surveyServiceImpl) ListSurveys(ctx context.Context, page, size int) (*dto.PaginatedResponse[dto.SurveyResponseDTO], error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	surveys, total, err := s.surveyRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing surveys: %w", err)
	}
	items := make([]dto.SurveyResponseDTO, 0, len(surveys))
	for _, sv := range surveys {
		items = append(items, dto.NewSurveyResponseDTO(sv))
	}
	resp := dto.NewPaginatedResponse(items, helpers.NewPaginationInfo(total, page, int(limit)))
	return &resp, nil
}

func (s *surveyServiceImpl) loadSurvey(ctx context.Context, surveyID int64) (*models.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	survey.Questions, err = s.surveyRepo.ListQuestions(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("error loading survey questions: %w", err)
	}
	return survey, nil
}

func (s *surveyServiceImpl) GetSurvey(ctx context.Context, surveyID int64) (*dto.SurveyResponseDTO, error) {
	survey, err := s.loadSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewSurveyResponseDTO(survey)
	return &resp, nil
}

// buildQuestions validates question inputs and converts them to models.
func buildQuestions(inputs []dto.QuestionInput) ([]*models.Question, error) {
	questions := make([]*models.Question, 0, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("questions[%d]", i)
		if strings.TrimSpace(in.QuestionText) == "" {
			return nil, apperrors.NewValidationError(field+".question_text", "question text may not be blank")
		}
		switch in.QuestionType {
		case models.QuestionChoice:
			if len(in.Choices) == 0 {
				return nil, apperrors.NewValidationError(field+".choices", "choice questions need at least one choice")
			}
		case models.QuestionText, models.QuestionScale:
			if len(in.Choices) > 0 {
				return nil, apperrors.NewValidationError(field+".choices", "only choice questions may have choices")
			}
		default:
			return nil, apperrors.NewValidationError(field+".question_type", "question type must be TEXT, CHOICE or SCALE")
		}

		q := &models.Question{
			QuestionText: strings.TrimSpace(in.QuestionText),
			QuestionType: in.QuestionType,
			IsRequired:   in.IsRequired == nil || *in.IsRequired,
			Order:        in.Order,
		}
		for _, c := range in.Choices {
			q.Choices = append(q.Choices, &models.Choice{ChoiceText: c.ChoiceText, Order: c.Order})
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// CreateSurvey stores a survey with its questions and choices
func (s *surveyServiceImpl) CreateSurvey(ctx context.Context, userID int64, req *dto.SurveyRequest) (*dto.SurveyResponseDTO, error) {
	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	survey := &models.Survey{
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   userID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsActive:    req.IsActive == nil || *req.IsActive,
		Questions:   questions,
	}
	if err := s.surveyRepo.Create(ctx, survey); err != nil {
		return nil, fmt.Errorf("error creating survey: %w", err)
	}
	s.logger.Info().Int64("surveyID", survey.ID).Int("questions", len(questions)).Msg("Survey created")

	resp := dto.NewSurveyResponseDTO(survey)
	return &resp, nil
}

// UpdateSurvey replaces the survey fields. Questions are replaced only when
// the request carries them, and only while nobody has answered the survey.
func (s *surveyServiceImpl) UpdateSurvey(ctx context.Context, surveyID int64, req *dto.SurveyRequest) (*dto.SurveyResponseDTO, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	survey.Title = req.Title
	survey.Description = req.Description
	survey.StartDate = req.StartDate
	survey.EndDate = req.EndDate
	if req.IsActive != nil {
		survey.IsActive = *req.IsActive
	}
	if req.Questions != nil {
		responses, err := s.surveyRepo.CountResponses(ctx, surveyID)
		if err != nil {
			return nil, fmt.Errorf("error counting survey responses: %w", err)
		}
		if responses > 0 {
			return nil, apperrors.ErrSurveyAnswered
		}
		if survey.Questions, err = buildQuestions(req.Questions); err != nil {
			return nil, err
		}
	}

	if err := s.surveyRepo.Update(ctx, survey); err != nil {
		return nil, err
	}
	return s.GetSurvey(ctx, surveyID)
}

func (s *surveyServiceImpl) DeleteSurvey(ctx context.Context, surveyID int64) error {
	return s.surveyRepo.Delete(ctx, surveyID)
}

// ListQuestions returns the survey's questions ordered by display order
func (s *surveyServiceImpl) ListQuestions(ctx context.Context, surveyID int64) ([]*models.Question, error) {
	if _, err := s.surveyRepo.GetByID(ctx, surveyID); err != nil {
		return nil, err
	}
	questions, err := s.surveyRepo.ListQuestions(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("error listing survey questions: %w", err)
	}
	if questions == nil {
		questions = []*models.Question{}
	}
	return questions, nil
}

// buildAnswer checks that in fits question q and keeps only the field the
// question type uses.
func buildAnswer(q *models.Question, in dto.AnswerInput) (*models.Answer, error) {
	field := fmt.Sprintf("answers[question_id=%d]", q.ID)
	answer := &models.Answer{QuestionID: q.ID}

	switch q.QuestionType {
	case models.QuestionText:
		if in.AnswerText == nil || strings.TrimSpace(*in.AnswerText) == "" {
			return nil, apperrors.NewValidationError(field, "answer_text is required for text questions")
		}
		text := strings.TrimSpace(*in.AnswerText)
		answer.AnswerText = &text
	case models.QuestionChoice:
		if in.SelectedChoiceID == nil || !q.HasChoice(*in.SelectedChoiceID) {
			return nil, apperrors.NewValidationError(field, "selected_choice_id must be one of the question's choices")
		}
		answer.SelectedChoiceID = in.SelectedChoiceID
	case models.QuestionScale:
		if in.RatingValue == nil || *in.RatingValue < models.MinRating || *in.RatingValue > models.MaxRating {
			return nil, apperrors.NewValidationError(field, fmt.Sprintf("rating_value must be between %d and %d", models.MinRating, models.MaxRating))
		}
		answer.RatingValue = in.RatingValue
	}
	return answer, nil
}

// SubmitResponse validates the answers against the survey and stores them
// as one response
func (s *surveyServiceImpl) SubmitResponse(ctx context.Context, userID, surveyID int64, req *dto.SubmitResponseRequest) (*dto.SubmitResponseResponse, error) {
	survey, err := s.loadSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if !survey.AcceptsResponses(s.now()) {
		return nil, apperrors.ErrSurveyClosed
	}

	questions := make(map[int64]*models.Question, len(survey.Questions))
	for _, q := range survey.Questions {
		questions[q.ID] = q
	}

	answered := make(map[int64]bool, len(req.Answers))
	answers := make([]*models.Answer, 0, len(req.Answers))
	for _, in := range req.Answers {
		q, ok := questions[in.QuestionID]
		if !ok {
			return nil, apperrors.NewValidationError("answers", fmt.Sprintf("question %d does not belong to this survey", in.QuestionID))
		}
		if answered[q.ID] {
			return nil, apperrors.NewValidationError("answers", fmt.Sprintf("question %d is answered more than once", q.ID))
		}
		answer, err := buildAnswer(q, in)
		if err != nil {
			return nil, err
		}
		answered[q.ID] = true
		answers = append(answers, answer)
	}

	for _, q := range survey.Questions {
		if q.IsRequired && !answered[q.ID] {
			return nil, apperrors.NewValidationError("answers", fmt.Sprintf("question %d is required", q.ID))
		}
	}

	response := &models.SurveyResponse{SurveyID: surveyID, RespondentID: userID, Answers: answers}
	if err := s.surveyRepo.SubmitResponse(ctx, response); err != nil {
		return nil, fmt.Errorf("error submitting survey response: %w", err)
	}
	s.logger.Info().Int64("surveyID", surveyID).Int64("respondentID", userID).Msg("Survey response submitted")

	return &dto.SubmitResponseResponse{Status: "survey submitted", ResponseID: response.ID}, nil
}

// GetResults aggregates the answers of every question
func (s *surveyServiceImpl) GetResults(ctx context.Context, surveyID int64) (*dto.SurveyResultsResponse, error) {
	survey, err := s.loadSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	total, err := s.surveyRepo.CountResponses(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("error counting survey responses: %w", err)
	}
	stats, err := s.surveyRepo.QuestionStats(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("error aggregating survey answers: %w", err)
	}

	results := make([]dto.QuestionResult, 0, len(survey.Questions))
	for _, q := range survey.Questions {
		result := dto.QuestionResult{
			QuestionID:   q.ID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
		}
		st := stats[q.ID]
		if st != nil {
			result.ResponseCount = st.AnswerCount
		}

		switch q.QuestionType {
		case models.QuestionChoice:
			result.Choices = make([]dto.ChoiceResult, 0, len(q.Choices))
			for _, c := range q.Choices {
				cr := dto.ChoiceResult{ChoiceID: c.ID, ChoiceText: c.ChoiceText}
				if st != nil {
					cr.Count = st.ChoiceCounts[c.ID]
				}
				result.Choices = append(result.Choices, cr)
			}
		case models.QuestionScale:
			if st != nil {
				result.AverageRating = st.AverageRating
			}
		case models.QuestionText:
			result.TextAnswers = []string{}
			if st != nil && st.TextAnswers != nil {
				result.TextAnswers = st.TextAnswers
			}
		}
		results = append(results, result)
	}

	return &dto.SurveyResultsResponse{
		SurveyID:       surveyID,
		TotalResponses: total,
		Questions:      results,
	}, nil
}
