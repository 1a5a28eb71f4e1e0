package dto

import (
	"time"

	"github.com/google/uuid"
)

type GetAllSessionsResponse struct {
	Id             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	PrescriptionId *uuid.UUID `json:"prescription_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

type SessionDetailResponse struct {
	Id             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	PrescriptionId *uuid.UUID `json:"prescription_id,omitempty"`
	Details        string     `json:"details,omitempty"` // medicine summary for scoped sessions
	CreatedAt      time.Time  `json:"created_at"`
}

type GetChatHistoryResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sequence  int       `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
}

type SendChatRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Question      string    `json:"question" validate:"required"`
	// Unknown values fall back to English during normalization.
	Language      string    `json:"language"`
}

type SendChatResponseChat struct {
	Id        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	Role      string    `json:"role"`
	Sequence  int       `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
}

type SendChatResponse struct {
	ChatSessionId    uuid.UUID             `json:"chat_session_id"`
	ChatSessionTitle string                `json:"title"`
	Sent             *SendChatResponseChat `json:"sent"`
	Reply            *SendChatResponseChat `json:"reply"`
}
