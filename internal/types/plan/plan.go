package plan

import (
	"time"

	"github.com/google/uuid"

	"estudyAPI/internal/types/session"
)

type StudyPlan struct {
	ID          uuid.UUID `json:"id" db:"id"`
	SubjectID   uuid.UUID `json:"subject_id" db:"subject_id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	TotalDays   int       `json:"total_days" db:"total_days"`
	TotalHours  float64   `json:"total_hours" db:"total_hours"`
	GeneratedAt time.Time `json:"generated_at" db:"generated_at"`
}

type PlanWithSessions struct {
	Plan     *StudyPlan              `json:"plan"`
	Sessions []*session.StudySession `json:"sessions"`
}

type GeneratePlanRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
}

type GeneratePlanResponse struct {
	Plan          *StudyPlan `json:"plan"`
	SessionsCount int        `json:"sessions_count"`
}

// AIStudySession is one day of the plan as returned by the model.
type AIStudySession struct {
	Date          string   `json:"date"`
	DurationHours float64  `json:"duration_hours"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Topics        []string `json:"topics"`
}

// AIStudyPlan is the strict-JSON payload the model is prompted to return.
type AIStudyPlan struct {
	Sessions []AIStudySession `json:"sessions"`
}
