package mapper

import (
	"time"

	"medibuddy-be/internal/entity"
	"medibuddy-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PrescriptionMapper struct{}

func NewPrescriptionMapper() *PrescriptionMapper {
	return &PrescriptionMapper{}
}

func (m *PrescriptionMapper) ToEntity(p *model.Prescription) *entity.Prescription {
	if p == nil {
		return nil
	}

	var deletedAt *time.Time
	if p.DeletedAt.Valid {
		t := p.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	return &entity.Prescription{
		Id:             p.Id,
		UserId:         p.UserId,
		SourceFilename: p.SourceFilename,
		Title:          p.Title,
		Details:        p.Details,
		Extracted:      []byte(p.Extracted),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      p.DeletedAt.Valid,
	}
}

func (m *PrescriptionMapper) ToModel(p *entity.Prescription) *model.Prescription {
	if p == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if p.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *p.DeletedAt, Valid: true}
	} else if p.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	return &model.Prescription{
		Id:             p.Id,
		UserId:         p.UserId,
		SourceFilename: p.SourceFilename,
		Title:          p.Title,
		Details:        p.Details,
		Extracted:      datatypes.JSON(p.Extracted),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}

func (m *PrescriptionMapper) ToEntities(prescriptions []*model.Prescription) []*entity.Prescription {
	entities := make([]*entity.Prescription, len(prescriptions))
	for i, p := range prescriptions {
		entities[i] = m.ToEntity(p)
	}
	return entities
}
