package mapper

import (
	"time"

	"medibuddy-be/internal/entity"
	"medibuddy-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PrescriptionEmbeddingMapper struct{}

func NewPrescriptionEmbeddingMapper() *PrescriptionEmbeddingMapper {
	return &PrescriptionEmbeddingMapper{}
}

func (m *PrescriptionEmbeddingMapper) ToEntity(e *model.PrescriptionEmbedding) *entity.PrescriptionEmbedding {
	if e == nil {
		return nil
	}

	var deletedAt *time.Time
	if e.DeletedAt.Valid {
		t := e.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.PrescriptionEmbedding{
		Id:             e.Id,
		Document:       e.Document,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		PrescriptionId: e.PrescriptionId,
		UserId:         e.UserId,
		ChunkIndex:     e.ChunkIndex,
		SourceFilename: e.SourceFilename,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      e.DeletedAt.Valid,
	}
}

func (m *PrescriptionEmbeddingMapper) ToModel(e *entity.PrescriptionEmbedding) *model.PrescriptionEmbedding {
	if e == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if e.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.PrescriptionEmbedding{
		Id:             e.Id,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		PrescriptionId: e.PrescriptionId,
		UserId:         e.UserId,
		ChunkIndex:     e.ChunkIndex,
		SourceFilename: e.SourceFilename,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}

func (m *PrescriptionEmbeddingMapper) ToEntities(embeddings []*model.PrescriptionEmbedding) []*entity.PrescriptionEmbedding {
	entities := make([]*entity.PrescriptionEmbedding, len(embeddings))
	for i, e := range embeddings {
		entities[i] = m.ToEntity(e)
	}
	return entities
}

func (m *PrescriptionEmbeddingMapper) ToModels(embeddings []*entity.PrescriptionEmbedding) []*model.PrescriptionEmbedding {
	models := make([]*model.PrescriptionEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = m.ToModel(e)
	}
	return models
}
