package services

import (
	"context"
	"fmt"

	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/alumnisphere/api/internal/app/repositories"
	"github.com/alumnisphere/api/internal/pkg/email"
	"github.com/alumnisphere/api/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// EventService defines event operations
type EventService interface {
	ListEvents(ctx context.Context, page, size int) (*dto.PaginatedResponse[dto.EventResponse], error)
	GetEvent(ctx context.Context, eventID int64) (*dto.EventResponse, error)
	CreateEvent(ctx context.Context, userID int64, req *dto.CreateEventRequest) (*dto.EventResponse, error)
}

type eventServiceImpl struct {
	eventRepo    repositories.IEventRepository
	userRepo     repositories.IUserRepository
	emailService email.EmailService
	logger       zerolog.Logger
}

// NewEventService creates a new EventService
func NewEventService(
	eventRepo repositories.IEventRepository,
	userRepo repositories.IUserRepository,
	emailService email.EmailService,
	logger zerolog.Logger,
) EventService {
	return &eventServiceImpl{
		eventRepo:    eventRepo,
		userRepo:     userRepo,
		emailService: emailService,
		logger:       logger,
	}
}

func (s *eventServiceImpl) ListEvents(ctx context.Context, page, size int) (*dto.PaginatedResponse[dto.EventResponse], error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	events, total, err := s.eventRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing events: %w", err)
	}
	items := make([]dto.EventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, dto.NewEventResponse(e))
	}
	resp := dto.NewPaginatedResponse(items, helpers.NewPaginationInfo(total, page, int(limit)))
	return &resp, nil
}

func (s *eventServiceImpl) GetEvent(ctx context.Context, eventID int64) (*dto.EventResponse, error) {
	e, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewEventResponse(e)
	return &resp, nil
}

// CreateEvent stores the event and announces it to every active user. A
// failed announcement is logged and leaves notification_sent false.
func (s *eventServiceImpl) CreateEvent(ctx context.Context, userID int64, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		EventDate:   req.EventDate,
		Location:    req.Location,
		CreatedBy:   userID,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("error creating event: %w", err)
	}
	s.logger.Info().Int64("eventID", event.ID).Int64("createdBy", userID).Msg("Event created")

	s.notify(ctx, event)

	if creator, err := s.userRepo.GetByID(ctx, userID); err == nil {
		event.Creator = creator
	}
	resp := dto.NewEventResponse(event)
	return &resp, nil
}

func (s *eventServiceImpl) notify(ctx context.Context, event *models.Event) {
	recipients, err := s.userRepo.ListActiveEmails(ctx)
	if err != nil {
		s.logger.Error().Err(err).Int64("eventID", event.ID).Msg("Failed to load event notification recipients")
		return
	}

	err = s.emailService.SendEventNotification(recipients, email.EventNotice{
		Title:       event.Title,
		Description: event.Description,
		Location:    event.Location,
		EventDate:   event.EventDate,
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("eventID", event.ID).Msg("Failed to send event notification")
		return
	}

	if err := s.eventRepo.MarkNotificationSent(ctx, event.ID); err != nil {
		s.logger.Error().Err(err).Int64("eventID", event.ID).Msg("Failed to record event notification")
		return
	}
	event.NotificationSent = true
}
