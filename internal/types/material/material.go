package material

import (
	"time"

	"github.com/google/uuid"
)

type MaterialType string

const (
	TypePDF     MaterialType = "pdf"
	TypeYoutube MaterialType = "youtube"
	TypeText    MaterialType = "text"
	TypeImage   MaterialType = "image"
)

type MaterialStatus string

const (
	StatusPending    MaterialStatus = "pending"
	StatusProcessing MaterialStatus = "processing"
	StatusReady      MaterialStatus = "ready"
	StatusError      MaterialStatus = "error"
)

type Material struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	SubjectID        uuid.UUID      `json:"subject_id" db:"subject_id"`
	UserID           uuid.UUID      `json:"user_id" db:"user_id"`
	Type             MaterialType   `json:"type" db:"type"`
	Title            string         `json:"title" db:"title"`
	SourceURL        *string        `json:"source_url" db:"source_url"`
	RawContent       *string        `json:"raw_content" db:"raw_content"`
	ProcessedContent *string        `json:"processed_content" db:"processed_content"`
	Status           MaterialStatus `json:"status" db:"status"`
	ErrorMessage     *string        `json:"error_message" db:"error_message"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

type CreateMaterialRequest struct {
	SubjectID  string       `json:"subject_id" validate:"required"`
	Type       MaterialType `json:"type" validate:"required,oneof=pdf youtube text image"`
	Title      string       `json:"title" validate:"required,min=1,max=200"`
	SourceURL  *string      `json:"source_url,omitempty"`
	RawContent *string      `json:"raw_content,omitempty"`
}
