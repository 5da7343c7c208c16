package subject

import (
	"time"

	"github.com/google/uuid"
)

type Subject struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	Color       string    `json:"color" db:"color"`
	ExamDate    time.Time `json:"exam_date" db:"exam_date"`
	HoursPerDay float64   `json:"hours_per_day" db:"hours_per_day"`
	IsArchived  bool      `json:"is_archived" db:"is_archived"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type CreateSubjectRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description,omitempty"`
	Color       string  `json:"color,omitempty"`
	ExamDate    string  `json:"exam_date" validate:"required"` // YYYY-MM-DD
	HoursPerDay float64 `json:"hours_per_day" validate:"required,gt=0,lte=12"`
}

type UpdateSubjectRequest struct {
	Name        string   `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Color       string   `json:"color,omitempty"`
	ExamDate    string   `json:"exam_date,omitempty"`
	HoursPerDay *float64 `json:"hours_per_day,omitempty"`
	IsArchived  *bool    `json:"is_archived,omitempty"`
}
