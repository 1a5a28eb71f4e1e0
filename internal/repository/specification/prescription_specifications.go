package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByPrescriptionID struct {
	PrescriptionID uuid.UUID
}

func (s ByPrescriptionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("prescription_id = ?", s.PrescriptionID)
}

type BySourceFilename struct {
	Filename string
}

func (s BySourceFilename) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_filename = ?", s.Filename)
}
