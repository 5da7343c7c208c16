package notification

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	TypeStreakMilestone NotificationType = "streak_milestone"
	TypeStreakRisk      NotificationType = "streak_risk"
	TypePlanReady       NotificationType = "plan_ready"
	TypeMaterialReady   NotificationType = "material_ready"
	TypeExamSoon        NotificationType = "exam_soon"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

type Notification struct {
	ID        uuid.UUID            `json:"id" db:"id"`
	UserID    uuid.UUID            `json:"user_id" db:"user_id"`
	Type      NotificationType     `json:"type" db:"type"`
	Priority  NotificationPriority `json:"priority" db:"priority"`
	Title     string               `json:"title" db:"title"`
	Body      string               `json:"body" db:"body"`
	Data      map[string]any       `json:"data" db:"data"`
	IsRead    bool                 `json:"is_read" db:"is_read"`
	CreatedAt time.Time            `json:"created_at" db:"created_at"`
	ExpiresAt *time.Time           `json:"expires_at" db:"expires_at"`
}

type DeviceToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	Platform  string    `json:"platform" db:"platform"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateNotificationRequest struct {
	UserID   uuid.UUID            `json:"user_id" validate:"required"`
	Type     NotificationType     `json:"type" validate:"required"`
	Priority NotificationPriority `json:"priority"`
	Title    string               `json:"title" validate:"required"`
	Body     string               `json:"body" validate:"required"`
	Data     map[string]any       `json:"data"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
}

type NotificationListResponse struct {
	Notifications []*Notification `json:"notifications"`
	UnreadCount   int             `json:"unread_count"`
}
