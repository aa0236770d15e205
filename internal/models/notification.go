package models

type NotificationType string

const (
	NotificationTypeDiscussionReply NotificationType = "discussion_reply"
	NotificationTypeDiscussionLike  NotificationType = "discussion_like"
)

// Notification is one inbox entry under users/{uid}/notifications. Entries
// are append-only; the only mutation is marking them read.
type Notification struct {
	ID        string           `json:"id,omitempty"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Data      map[string]any   `json:"data,omitempty"` // back-reference payload
	Timestamp int64            `json:"timestamp"`      // epoch ms
	Read      bool             `json:"read"`
}
