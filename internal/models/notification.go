package models

import "time"

type NotificationEvent string

const (
	NotificationEventOwnerJoined   NotificationEvent = "owner.joined"
	NotificationEventOwnerRemoved  NotificationEvent = "owner.removed"
	NotificationEventInviteCreated NotificationEvent = "invite.created"
	NotificationEventReportUpdated NotificationEvent = "report.updated"
)

// Notification is an in-app message delivered to a single user.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Event     NotificationEvent `json:"event"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
