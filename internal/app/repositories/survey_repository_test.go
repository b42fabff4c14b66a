package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
)

func TestSurveyUpdateKeepsAnsweredQuestions(t *testing.T) {
	repos := openRepos(t)
	users := createUsers(t, repos, "admin", "alice")
	ctx := context.Background()
	now := time.Now()

	survey := &models.Survey{
		Title:     "Alumni satisfaction",
		CreatedBy: users[0].ID,
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
		IsActive:  true,
		Questions: []*models.Question{{QuestionText: "Rate us", QuestionType: models.QuestionScale, IsRequired: true, Order: 1}},
	}
	if err := repos.SurveyRepository.Create(ctx, survey); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Unanswered: questions may still be swapped.
	survey.Questions = []*models.Question{{QuestionText: "Rate the network", QuestionType: models.QuestionScale, IsRequired: true, Order: 1}}
	if err := repos.SurveyRepository.Update(ctx, survey); err != nil {
		t.Fatalf("Update before responses: %v", err)
	}
	question := survey.Questions[0]

	rating := 4
	response := &models.SurveyResponse{
		SurveyID:     survey.ID,
		RespondentID: users[1].ID,
		Answers:      []*models.Answer{{QuestionID: question.ID, RatingValue: &rating}},
	}
	if err := repos.SurveyRepository.SubmitResponse(ctx, response); err != nil {
		t.Fatalf("SubmitResponse: %v", err)
	}

	survey.Questions = []*models.Question{{QuestionText: "Anything else?", QuestionType: models.QuestionText, Order: 1}}
	if err := repos.SurveyRepository.Update(ctx, survey); !errors.Is(err, apperrors.ErrSurveyAnswered) {
		t.Fatalf("expected ErrSurveyAnswered, got %v", err)
	}

	survey.Title = "Alumni satisfaction 2026"
	survey.Questions = nil
	if err := repos.SurveyRepository.Update(ctx, survey); err != nil {
		t.Fatalf("Update without questions: %v", err)
	}

	stats, err := repos.SurveyRepository.QuestionStats(ctx, survey.ID)
	if err != nil {
		t.Fatalf("QuestionStats: %v", err)
	}
	st, ok := stats[question.ID]
	if !ok || st.AnswerCount != 1 {
		t.Errorf("answers for question %d = %+v, want 1", question.ID, st)
	}
	stored, err := repos.SurveyRepository.GetByID(ctx, survey.ID)
	if err != nil || stored.Title != "Alumni satisfaction 2026" {
		t.Errorf("GetByID = %+v, %v", stored, err)
	}
}
