package services

import (
	"log"
	"time"

	"cinetalk/internal/models"
	"cinetalk/internal/store"
)

const inboxLimit = 50

// NotificationService writes and reads per-user inboxes. Writes are
// best-effort fan-out: they run after the primary action, and a failure is
// logged and swallowed, never surfaced to the acting user and never retried.
// Suppressing self-notifications is the caller's job, checked before Notify
// is ever invoked.
type NotificationService struct {
	store store.Store
}

func NewNotificationService(st store.Store) *NotificationService {
	return &NotificationService{store: st}
}

// Notify appends an inbox entry for the recipient.
func (s *NotificationService) Notify(recipientUID string, n models.Notification) {
	n.ID = ""
	n.Timestamp = time.Now().UnixMilli()
	n.Read = false
	if _, err := s.store.Push(InboxPath(recipientUID), n); err != nil {
		log.Printf("notification fan-out to %s failed: %v", recipientUID, err)
	}
}

// List returns the newest inbox entries, newest first, capped at 50.
func (s *NotificationService) List(uid string) ([]models.Notification, error) {
	kids, err := s.store.Query(InboxPath(uid), store.Query{OrderBy: "timestamp", LimitToLast: inboxLimit})
	if err != nil {
		return nil, err
	}
	out := make([]models.Notification, 0, len(kids))
	for i := len(kids) - 1; i >= 0; i-- {
		var n models.Notification
		if err := store.Decode(kids[i].Value, &n); err != nil {
			return nil, err
		}
		n.ID = kids[i].Key
		out = append(out, n)
	}
	return out, nil
}

// MarkRead flags one entry as read. Entries are never deleted.
func (s *NotificationService) MarkRead(uid, id string) error {
	path := InboxPath(uid) + "/" + id
	current, err := s.store.Get(path)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrNotFound
	}
	return s.store.Set(path+"/read", true)
}

// MarkAllRead flags every unread entry in one batched update.
func (s *NotificationService) MarkAllRead(uid string) error {
	kids, err := s.store.Query(InboxPath(uid), store.Query{})
	if err != nil {
		return err
	}
	updates := make(map[string]any)
	for _, kid := range kids {
		var n models.Notification
		if err := store.Decode(kid.Value, &n); err != nil {
			continue
		}
		if !n.Read {
			updates[InboxPath(uid)+"/"+kid.Key+"/read"] = true
		}
	}
	if len(updates) == 0 {
		return nil
	}
	return s.store.Update(updates)
}

// UnreadCount counts unread inbox entries (shown as the badge count).
func (s *NotificationService) UnreadCount(uid string) (int, error) {
	kids, err := s.store.Query(InboxPath(uid), store.Query{})
	if err != nil {
		return 0, err
	}
	count := 0
	for _, kid := range kids {
		var n models.Notification
		if err := store.Decode(kid.Value, &n); err != nil {
			continue
		}
		if !n.Read {
			count++
		}
	}
	return count, nil
}
