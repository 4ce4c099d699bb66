package models

import "time"

// NotificationType categorises stored notifications.
type NotificationType string

const (
	NotificationGrade        NotificationType = "grade"
	NotificationAssignment   NotificationType = "assignment"
	NotificationAttendance   NotificationType = "attendance"
	NotificationAnnouncement NotificationType = "announcement"
)

// Notification is a persisted per-user message, also fanned out live to
// subscribed connections when the realtime hub is enabled.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	Type      NotificationType `db:"type" json:"type"`
	IsRead    bool             `db:"is_read" json:"is_read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	ReadAt    *time.Time       `db:"read_at" json:"read_at,omitempty"`
}
