package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

// GlobalSessionOnly matches the user's cross-prescription session
// (prescription_id IS NULL).
type GlobalSessionOnly struct{}

func (s GlobalSessionOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("prescription_id IS NULL")
}
