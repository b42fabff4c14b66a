package models

import "time"

// QuestionType determines which answer field a question expects
type QuestionType string

const (
	QuestionText   QuestionType = "TEXT"
	QuestionChoice QuestionType = "CHOICE"
	QuestionScale  QuestionType = "SCALE"
)

// Rating bounds for SCALE questions.
const (
	MinRating = 1
	MaxRating = 5
)

// Survey is a questionnaire open between StartDate and EndDate
type Survey struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	CreatedBy   int64     `json:"created_by" db:"created_by"`
	StartDate   time.Time `json:"start_date" db:"start_date"`
	EndDate     time.Time `json:"end_date" db:"end_date"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	Questions []*Question `json:"questions,omitempty"`
}

// AcceptsResponses reports whether the survey is active and inside its window.
func (s *Survey) AcceptsResponses(now time.Time) bool {
	return s.IsActive && !now.Before(s.StartDate) && !now.After(s.EndDate)
}

// Question belongs to a survey
type Question struct {
	ID           int64        `json:"id" db:"id"`
	SurveyID     int64        `json:"survey_id" db:"survey_id"`
	QuestionText string       `json:"question_text" db:"question_text"`
	QuestionType QuestionType `json:"question_type" db:"question_type"`
	IsRequired   bool         `json:"is_required" db:"is_required"`
	Order        int          `json:"order" db:"display_order"`

	Choices []*Choice `json:"choices,omitempty"`
}

// HasChoice reports whether choiceID is one of the question's choices.
func (q *Question) HasChoice(choiceID int64) bool {
	for _, c := range q.Choices {
		if c.ID == choiceID {
			return true
		}
	}
	return false
}

// Choice is an option of a CHOICE question
type Choice struct {
	ID         int64  `json:"id" db:"id"`
	QuestionID int64  `json:"question_id" db:"question_id"`
	ChoiceText string `json:"choice_text" db:"choice_text"`
	Order      int    `json:"order" db:"display_order"`
}

// SurveyResponse is one user's submission
type SurveyResponse struct {
	ID           int64     `json:"id" db:"id"`
	SurveyID     int64     `json:"survey_id" db:"survey_id"`
	RespondentID int64     `json:"respondent_id" db:"respondent_id"`
	SubmittedAt  time.Time `json:"submitted_at" db:"submitted_at"`

	Answers []*Answer `json:"answers,omitempty"`
}

// Answer to a single question
type Answer struct {
	ID               int64   `json:"id" db:"id"`
	ResponseID       int64   `json:"response_id" db:"response_id"`
	QuestionID       int64   `json:"question_id" db:"question_id"`
	AnswerText       *string `json:"answer_text,omitempty" db:"answer_text"`
	SelectedChoiceID *int64  `json:"selected_choice_id,omitempty" db:"selected_choice_id"`
	RatingValue      *int    `json:"rating_value,omitempty" db:"rating_value"`
}
