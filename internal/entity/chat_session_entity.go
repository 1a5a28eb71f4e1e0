package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	PrescriptionId *uuid.UUID // nil = global session
	Title          string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}

// IsGlobal reports whether the session spans all of the user's prescriptions.
func (s *ChatSession) IsGlobal() bool {
	return s.PrescriptionId == nil
}
