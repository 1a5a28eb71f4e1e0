package dto

import "github.com/google/uuid"

type CreateReminderRequest struct {
	PrescriptionId uuid.UUID `json:"prescription_id" validate:"required"`
	// RFC3339 start time; defaults to tomorrow 09:00 UTC when empty.
	StartTime       string `json:"start_time" validate:"omitempty"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=5,max=240"`
}

type CreateReminderResponse struct {
	EventLink string `json:"event_link"`
}

type CalendarAuthURLResponse struct {
	AuthURL string `json:"auth_url"`
}
