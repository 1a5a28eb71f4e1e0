package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadPrescriptionRequest struct {
	Filename string `json:"filename" validate:"required"`
	// Raw text content of the uploaded document. PDFs/images are converted
	// to text client-side or by the upload middleware.
	Content string `json:"content" validate:"required"`
}

type UploadPrescriptionResponse struct {
	PrescriptionId uuid.UUID `json:"prescription_id"`
	ChatSessionId  uuid.UUID `json:"chat_session_id"`
	Title          string    `json:"title"`
	Duplicate      bool      `json:"duplicate"`
}

type PrescriptionResponse struct {
	Id             uuid.UUID `json:"id"`
	SourceFilename string    `json:"source_filename"`
	Title          string    `json:"title"`
	Details        string    `json:"details"`
	CreatedAt      time.Time `json:"created_at"`
}

type PrescriptionDetailResponse struct {
	PrescriptionResponse
	Extracted any `json:"extracted,omitempty"`
}

// PublishEmbedPrescriptionMessage is the internal queue payload that asks the
// consumer worker to (re)index one prescription.
type PublishEmbedPrescriptionMessage struct {
	PrescriptionId uuid.UUID `json:"prescription_id"`
}
