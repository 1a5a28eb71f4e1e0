package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Prescription struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId         uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_prescriptions_user_filename"`
	SourceFilename string         `gorm:"type:varchar(512);not null;uniqueIndex:idx_prescriptions_user_filename"`
	Title          string         `gorm:"type:text;not null"`
	Details        string         `gorm:"type:text"`
	Extracted      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (Prescription) TableName() string {
	return "prescriptions"
}
