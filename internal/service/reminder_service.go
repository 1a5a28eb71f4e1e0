package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medibuddy-be/internal/dto"
	"medibuddy-be/internal/repository/specification"
	"medibuddy-be/internal/repository/unitofwork"
	"medibuddy-be/pkg/calendar"
	"medibuddy-be/pkg/events"
	pktNats "medibuddy-be/pkg/nats"

	"github.com/google/uuid"
)

const defaultReminderMinutes = 30

type IReminderService interface {
	AuthURL(state string) (*dto.CalendarAuthURLResponse, error)
	HandleCallback(ctx context.Context, code string) error
	CreateReminder(ctx context.Context, userId uuid.UUID, req *dto.CreateReminderRequest) (*dto.CreateReminderResponse, error)
}

type reminderService struct {
	uowFactory     unitofwork.RepositoryFactory
	calendar       *calendar.Manager
	eventPublisher *pktNats.Publisher
}

func NewReminderService(
	uowFactory unitofwork.RepositoryFactory,
	calendarManager *calendar.Manager,
	eventPublisher *pktNats.Publisher,
) IReminderService {
	return &reminderService{
		uowFactory:     uowFactory,
		calendar:       calendarManager,
		eventPublisher: eventPublisher,
	}
}

func (s *reminderService) AuthURL(state string) (*dto.CalendarAuthURLResponse, error) {
	url, err := s.calendar.AuthURL(state)
	if err != nil {
		return nil, err
	}
	return &dto.CalendarAuthURLResponse{AuthURL: url}, nil
}

func (s *reminderService) HandleCallback(ctx context.Context, code string) error {
	return s.calendar.Exchange(ctx, code)
}

// CreateReminder creates a calendar event that reminds the user to take the
// medicines of one prescription. Without an explicit start time the event is
// placed tomorrow at 09:00 UTC.
func (s *reminderService) CreateReminder(ctx context.Context, userId uuid.UUID, req *dto.CreateReminderRequest) (*dto.CreateReminderResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	prescription, err := uow.PrescriptionRepository().FindOne(ctx,
		specification.ByID{ID: req.PrescriptionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if prescription == nil {
		return nil, errors.New("prescription not found")
	}

	start := tomorrowMorning(time.Now().UTC())
	if req.StartTime != "" {
		start, err = time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			return nil, fmt.Errorf("invalid start_time: %w", err)
		}
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = defaultReminderMinutes
	}

	summary := fmt.Sprintf("Take Medicines: %s", prescription.Title)
	link, err := s.calendar.CreateEvent(ctx, summary, prescription.Details, start, duration)
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		evt := events.NewReminderCreated(userId.String(), prescription.Id.String(), link)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish REMINDER_CREATED event: %v\n", err)
		}
	}

	return &dto.CreateReminderResponse{EventLink: link}, nil
}

func tomorrowMorning(now time.Time) time.Time {
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 9, 0, 0, 0, time.UTC)
}
