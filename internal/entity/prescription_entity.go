package entity

import (
	"time"

	"github.com/google/uuid"
)

type Prescription struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	SourceFilename string
	Title          string
	Details        string
	Extracted      []byte // raw extraction JSON
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
