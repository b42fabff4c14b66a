package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/db"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/alumnisphere/api/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionStats aggregates the answers given to one question
type QuestionStats struct {
	QuestionID    int64
	AnswerCount   int64
	ChoiceCounts  map[int64]int64
	AverageRating *float64
	TextAnswers   []string
}

// ISurveyRepository defines survey persistence
type ISurveyRepository interface {
	Create(ctx context.Context, survey *models.Survey) error
	GetByID(ctx context.Context, id int64) (*models.Survey, error)
	List(ctx context.Context, offset, limit uint64) ([]*models.Survey, int64, error)
	Update(ctx context.Context, survey *models.Survey) error
	Delete(ctx context.Context, id int64) error
	ListQuestions(ctx context.Context, surveyID int64) ([]*models.Question, error)

	SubmitResponse(ctx context.Context, response *models.SurveyResponse) error
	CountResponses(ctx context.Context, surveyID int64) (int64, error)
	QuestionStats(ctx context.Context, surveyID int64) (map[int64]*QuestionStats, error)
}

var surveyColumns = []string{
	"id", "title", "description", "created_by", "start_date", "end_date", "is_active", "created_at", "updated_at",
}

// SurveyRepository handles survey database operations
type SurveyRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSurveyRepository creates a new SurveyRepository
func NewSurveyRepository(db *pgxpool.Pool) *SurveyRepository {
	return &SurveyRepository{db: db, sb: newStatementBuilder()}
}

func scanSurvey(row interface{ Scan(...any) error }) (*models.Survey, error) {
	s := &models.Survey{}
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.CreatedBy, &s.StartDate, &s.EndDate, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// insertQuestions writes questions and their choices, filling in IDs.
func (r *SurveyRepository) insertQuestions(ctx context.Context, tx pgx.Tx, surveyID int64, questions []*models.Question) error {
	for _, q := range questions {
		q.SurveyID = surveyID
		sql, args, err := r.sb.Insert("survey_questions").
			Columns("survey_id", "question_text", "question_type", "is_required", "display_order").
			Values(surveyID, q.QuestionText, q.QuestionType, q.IsRequired, q.Order).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create question query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&q.ID); err != nil {
			return fmt.Errorf("error creating survey question: %w", err)
		}

		for _, c := range q.Choices {
			c.QuestionID = q.ID
			sql, args, err := r.sb.Insert("survey_choices").
				Columns("question_id", "choice_text", "display_order").
				Values(q.ID, c.ChoiceText, c.Order).
				Suffix("RETURNING id").
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build create choice query: %w", err)
			}
			if err := tx.QueryRow(ctx, sql, args...).Scan(&c.ID); err != nil {
				return fmt.Errorf("error creating survey choice: %w", err)
			}
		}
	}
	return nil
}

// Create inserts a survey with its questions and choices in one transaction
func (r *SurveyRepository) Create(ctx context.Context, survey *models.Survey) error {
	return db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("surveys").
			Columns("title", "description", "created_by", "start_date", "end_date", "is_active").
			Values(survey.Title, survey.Description, survey.CreatedBy, survey.StartDate, survey.EndDate, survey.IsActive).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create survey query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&survey.ID, &survey.CreatedAt, &survey.UpdatedAt); err != nil {
			logger.Error().Err(err).Str("title", survey.Title).Msg("Error creating survey")
			return fmt.Errorf("error creating survey: %w", err)
		}
		return r.insertQuestions(ctx, tx, survey.ID, survey.Questions)
	})
}

// GetByID retrieves a survey without its questions
func (r *SurveyRepository) GetByID(ctx context.Context, id int64) (*models.Survey, error) {
	sql, args, err := r.sb.Select(surveyColumns...).From("surveys").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get survey query: %w", err)
	}
	s, err := scanSurvey(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapNoRows(err, apperrors.ErrSurveyNotFound, "error retrieving survey")
	}
	return s, nil
}

// List returns a page of surveys, newest first
func (r *SurveyRepository) List(ctx context.Context, offset, limit uint64) ([]*models.Survey, int64, error) {
	total, err := count(ctx, r.db, r.sb.Select("COUNT(*)").From("surveys"))
	if err != nil {
		return nil, 0, err
	}

	sql, args, err := r.sb.Select(surveyColumns...).From("surveys").
		OrderBy("created_at DESC", "id DESC").
		Offset(offset).Limit(limit).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list surveys query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing surveys: %w", err)
	}
	defer rows.Close()

	var surveys []*models.Survey
	for rows.Next() {
		s, err := scanSurvey(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning survey row: %w", err)
		}
		surveys = append(surveys, s)
	}
	return surveys, total, rows.Err()
}

// Update persists the survey fields. When Questions is non-nil the existing
// questions are replaced in the same transaction; that fails with
// ErrSurveyAnswered once a response exists, since answers cascade with their
// questions.
func (r *SurveyRepository) Update(ctx context.Context, survey *models.Survey) error {
	return db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if survey.Questions != nil {
			if err := r.lockUnanswered(ctx, tx, survey.ID); err != nil {
				return err
			}
		}

		sql, args, err := r.sb.Update("surveys").
			Set("title", survey.Title).
			Set("description", survey.Description).
			Set("start_date", survey.StartDate).
			Set("end_date", survey.EndDate).
			Set("is_active", survey.IsActive).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": survey.ID}).
			Suffix("RETURNING updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build update survey query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&survey.UpdatedAt); err != nil {
			return mapNoRows(err, apperrors.ErrSurveyNotFound, "error updating survey")
		}

		if survey.Questions == nil {
			return nil
		}
		sql, args, err = r.sb.Delete("survey_questions").Where(squirrel.Eq{"survey_id": survey.ID}).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build delete questions query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error replacing survey questions: %w", err)
		}
		return r.insertQuestions(ctx, tx, survey.ID, survey.Questions)
	})
}

// lockUnanswered locks the survey row, which blocks new submissions until the
// transaction ends, and checks that it has no responses yet.
func (r *SurveyRepository) lockUnanswered(ctx context.Context, tx pgx.Tx, surveyID int64) error {
	sql, args, err := r.sb.Select("EXISTS (SELECT 1 FROM survey_responses sr WHERE sr.survey_id = s.id)").
		From("surveys s").
		Where(squirrel.Eq{"s.id": surveyID}).
		Suffix("FOR UPDATE OF s").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build lock survey query: %w", err)
	}
	var answered bool
	if err := tx.QueryRow(ctx, sql, args...).Scan(&answered); err != nil {
		return mapNoRows(err, apperrors.ErrSurveyNotFound, "error locking survey")
	}
	if answered {
		return apperrors.ErrSurveyAnswered
	}
	return nil
}

// Delete removes a survey with its questions and responses
func (r *SurveyRepository) Delete(ctx context.Context, id int64) error {
	return execAffecting(ctx, r.db, r.sb.Delete("surveys").Where(squirrel.Eq{"id": id}), apperrors.ErrSurveyNotFound, "delete survey")
}

// ListQuestions returns the survey's questions in display order, each with
// its choices
func (r *SurveyRepository) ListQuestions(ctx context.Context, surveyID int64) ([]*models.Question, error) {
	sql, args, err := r.sb.Select("id", "survey_id", "question_text", "question_type", "is_required", "display_order").
		From("survey_questions").
		Where(squirrel.Eq{"survey_id": surveyID}).
		OrderBy("display_order", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list questions query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing survey questions: %w", err)
	}
	defer rows.Close()

	var questions []*models.Question
	byID := make(map[int64]*models.Question)
	for rows.Next() {
		q := &models.Question{}
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.QuestionText, &q.QuestionType, &q.IsRequired, &q.Order); err != nil {
			return nil, fmt.Errorf("error scanning survey question row: %w", err)
		}
		questions = append(questions, q)
		byID[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return questions, nil
	}

	sql, args, err = r.sb.Select("c.id", "c.question_id", "c.choice_text", "c.display_order").
		From("survey_choices c").
		Join("survey_questions q ON q.id = c.question_id").
		Where(squirrel.Eq{"q.survey_id": surveyID}).
		OrderBy("c.display_order", "c.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list choices query: %w", err)
	}
	choiceRows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing survey choices: %w", err)
	}
	defer choiceRows.Close()

	for choiceRows.Next() {
		c := &models.Choice{}
		if err := choiceRows.Scan(&c.ID, &c.QuestionID, &c.ChoiceText, &c.Order); err != nil {
			return nil, fmt.Errorf("error scanning survey choice row: %w", err)
		}
		if q, ok := byID[c.QuestionID]; ok {
			q.Choices = append(q.Choices, c)
		}
	}
	return questions, choiceRows.Err()
}

// SubmitResponse stores a response and all of its answers atomically
func (r *SurveyRepository) SubmitResponse(ctx context.Context, response *models.SurveyResponse) error {
	return db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("survey_responses").
			Columns("survey_id", "respondent_id").
			Values(response.SurveyID, response.RespondentID).
			Suffix("RETURNING id, submitted_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create response query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&response.ID, &response.SubmittedAt); err != nil {
			logger.Error().Err(err).Int64("surveyID", response.SurveyID).Msg("Error creating survey response")
			return fmt.Errorf("error creating survey response: %w", err)
		}

		for _, a := range response.Answers {
			a.ResponseID = response.ID
			sql, args, err := r.sb.Insert("survey_answers").
				Columns("response_id", "question_id", "answer_text", "selected_choice_id", "rating_value").
				Values(response.ID, a.QuestionID, a.AnswerText, a.SelectedChoiceID, a.RatingValue).
				Suffix("RETURNING id").
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build create answer query: %w", err)
			}
			if err := tx.QueryRow(ctx, sql, args...).Scan(&a.ID); err != nil {
				return fmt.Errorf("error creating survey answer: %w", err)
			}
		}
		return nil
	})
}

// CountResponses counts submissions for a survey
func (r *SurveyRepository) CountResponses(ctx context.Context, surveyID int64) (int64, error) {
	return count(ctx, r.db, r.sb.Select("COUNT(*)").From("survey_responses").Where(squirrel.Eq{"survey_id": surveyID}))
}

// QuestionStats aggregates answers per question of a survey
func (r *SurveyRepository) QuestionStats(ctx context.Context, surveyID int64) (map[int64]*QuestionStats, error) {
	stats := make(map[int64]*QuestionStats)
	get := func(questionID int64) *QuestionStats {
		s, ok := stats[questionID]
		if !ok {
			s = &QuestionStats{QuestionID: questionID, ChoiceCounts: make(map[int64]int64)}
			stats[questionID] = s
		}
		return s
	}

	base := r.sb.Select().
		From("survey_answers a").
		Join("survey_questions q ON q.id = a.question_id").
		Where(squirrel.Eq{"q.survey_id": surveyID})

	sql, args, err := base.Columns("a.question_id", "COUNT(*)", "AVG(a.rating_value)::float8").
		GroupBy("a.question_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build answer totals query: %w", err)
	}
	err = r.scanEach(ctx, sql, args, func(rows pgx.Rows) error {
		var questionID, total int64
		var avg *float64
		if err := rows.Scan(&questionID, &total, &avg); err != nil {
			return err
		}
		s := get(questionID)
		s.AnswerCount = total
		s.AverageRating = avg
		return nil
	})
	if err != nil {
		return nil, err
	}

	sql, args, err = base.Columns("a.question_id", "a.selected_choice_id", "COUNT(*)").
		Where(squirrel.NotEq{"a.selected_choice_id": nil}).
		GroupBy("a.question_id", "a.selected_choice_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build choice counts query: %w", err)
	}
	err = r.scanEach(ctx, sql, args, func(rows pgx.Rows) error {
		var questionID, choiceID, total int64
		if err := rows.Scan(&questionID, &choiceID, &total); err != nil {
			return err
		}
		get(questionID).ChoiceCounts[choiceID] = total
		return nil
	})
	if err != nil {
		return nil, err
	}

	sql, args, err = base.Columns("a.question_id", "a.answer_text").
		Where(squirrel.Eq{"q.question_type": models.QuestionText}).
		Where(squirrel.NotEq{"a.answer_text": nil}).
		OrderBy("a.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build text answers query: %w", err)
	}
	err = r.scanEach(ctx, sql, args, func(rows pgx.Rows) error {
		var questionID int64
		var text string
		if err := rows.Scan(&questionID, &text); err != nil {
			return err
		}
		s := get(questionID)
		s.TextAnswers = append(s.TextAnswers, text)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *SurveyRepository) scanEach(ctx context.Context, sql string, args []any, fn func(pgx.Rows) error) error {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error querying survey answers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return fmt.Errorf("error scanning survey answer row: %w", err)
		}
	}
	return rows.Err()
}
