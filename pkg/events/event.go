package events

import "time"

// Event is the contract for everything that travels over the event bus.
type Event interface {
	// EventType returns the unique code for the event (e.g. "PRESCRIPTION_INDEXED").
	EventType() string

	// Payload returns the data carried by the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation used by publishers and by the
// subscriber when it reconstructs events off the wire.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event codes emitted by the backend.
const (
	TypePrescriptionIndexed = "PRESCRIPTION_INDEXED"
	TypeReminderCreated     = "REMINDER_CREATED"
	TypeUserRegistered      = "USER_REGISTERED"
)

// NewPrescriptionIndexed is published by the embedding worker once a
// prescription's chunks are searchable.
func NewPrescriptionIndexed(userID, prescriptionID, title string, chunkCount int) BaseEvent {
	return BaseEvent{
		Type: TypePrescriptionIndexed,
		Data: map[string]interface{}{
			"user_id":         userID,
			"prescription_id": prescriptionID,
			"title":           title,
			"chunk_count":     chunkCount,
		},
		OccurredAt: time.Now(),
	}
}

// NewReminderCreated is published after a calendar reminder has been created.
func NewReminderCreated(userID, prescriptionID, eventLink string) BaseEvent {
	return BaseEvent{
		Type: TypeReminderCreated,
		Data: map[string]interface{}{
			"user_id":         userID,
			"prescription_id": prescriptionID,
			"event_link":      eventLink,
		},
		OccurredAt: time.Now(),
	}
}

// NewUserRegistered is published when a new account is created.
func NewUserRegistered(userID, email, fullName string) BaseEvent {
	return BaseEvent{
		Type: TypeUserRegistered,
		Data: map[string]interface{}{
			"user_id":   userID,
			"email":     email,
			"full_name": fullName,
		},
		OccurredAt: time.Now(),
	}
}
