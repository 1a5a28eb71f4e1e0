package entity

import (
	"time"

	"github.com/google/uuid"
)

type PrescriptionEmbedding struct {
	Id             uuid.UUID
	Document       string
	EmbeddingValue []float32
	PrescriptionId uuid.UUID
	UserId         uuid.UUID
	ChunkIndex     int
	SourceFilename string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
