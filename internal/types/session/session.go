package session

import (
	"time"

	"github.com/google/uuid"

	"estudyAPI/internal/streak"
)

type StudySession struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	PlanID        uuid.UUID  `json:"plan_id" db:"plan_id"`
	SubjectID     uuid.UUID  `json:"subject_id" db:"subject_id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	ScheduledDate time.Time  `json:"scheduled_date" db:"scheduled_date"`
	DurationHours float64    `json:"duration_hours" db:"duration_hours"`
	Title         string     `json:"title" db:"title"`
	Description   *string    `json:"description" db:"description"`
	Topics        []string   `json:"topics" db:"topics"`
	IsCompleted   bool       `json:"is_completed" db:"is_completed"`
	CompletedAt   *time.Time `json:"completed_at" db:"completed_at"`
	Notes         *string    `json:"notes" db:"notes"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

type CompleteSessionRequest struct {
	Completed *bool   `json:"completed,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// CompleteSessionResponse mirrors what the UI needs for the toast and the
// milestone banner. Streak is nil when no streak update happened (the
// un-complete path, or a best-effort streak failure).
type CompleteSessionResponse struct {
	Success bool           `json:"success"`
	Streak  *streak.Result `json:"streak,omitempty"`
}
