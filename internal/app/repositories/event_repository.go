package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IEventRepository defines event persistence
type IEventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context, offset, limit uint64) ([]*models.Event, int64, error)
	MarkNotificationSent(ctx context.Context, id int64) error
}

// EventRepository handles event database operations
type EventRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db, sb: newStatementBuilder()}
}

func (r *EventRepository) selectEvents() squirrel.SelectBuilder {
	cols := []string{
		"e.id", "e.title", "e.description", "e.event_date", "e.location", "e.created_by",
		"e.notification_sent", "e.created_at",
	}
	return r.sb.Select(append(cols, authorColumns("u")...)...).
		From("events e").
		Join("users u ON u.id = e.created_by")
}

func scanEvent(row interface{ Scan(...any) error }) (*models.Event, error) {
	e := &models.Event{Creator: &models.User{}}
	targets := []any{&e.ID, &e.Title, &e.Description, &e.EventDate, &e.Location, &e.CreatedBy, &e.NotificationSent, &e.CreatedAt}
	if err := row.Scan(append(targets, authorScanTargets(e.Creator)...)...); err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts an event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	sql, args, err := r.sb.Insert("events").
		Columns("title", "description", "event_date", "location", "created_by").
		Values(event.Title, event.Description, event.EventDate, event.Location, event.CreatedBy).
		Suffix("RETURNING id, notification_sent, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create event query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&event.ID, &event.NotificationSent, &event.CreatedAt); err != nil {
		return fmt.Errorf("error creating event: %w", err)
	}
	return nil
}

// GetByID retrieves an event with its creator
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	sql, args, err := r.selectEvents().Where(squirrel.Eq{"e.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get event query: %w", err)
	}
	e, err := scanEvent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapNoRows(err, apperrors.ErrEventNotFound, "error retrieving event")
	}
	return e, nil
}

// List returns a page of events, latest event date first
func (r *EventRepository) List(ctx context.Context, offset, limit uint64) ([]*models.Event, int64, error) {
	total, err := count(ctx, r.db, r.sb.Select("COUNT(*)").From("events"))
	if err != nil {
		return nil, 0, err
	}

	sql, args, err := r.selectEvents().OrderBy("e.event_date DESC", "e.id DESC").Offset(offset).Limit(limit).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list events query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning event row: %w", err)
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

// MarkNotificationSent records that the announcement email went out
func (r *EventRepository) MarkNotificationSent(ctx context.Context, id int64) error {
	return execAffecting(ctx, r.db,
		r.sb.Update("events").Set("notification_sent", true).Where(squirrel.Eq{"id": id}),
		apperrors.ErrEventNotFound, "mark event notification sent")
}
