package stores

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const (
	MaxNotifications     = 50
	NotificationThrottle = 5 * time.Second
	DuplicateWindow      = time.Minute
	dueSoonWindow        = 48 * time.Hour
)

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

type Notification struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	CreatedAt time.Time        `json:"created_at"`
	Read      bool             `json:"read"`
	Link      string           `json:"link,omitempty"`
	DueDate   string           `json:"due_date,omitempty"`
}

type NotificationInput struct {
	Title   string           `json:"title"`
	Message string           `json:"message"`
	Type    NotificationType `json:"type"`
	Link    string           `json:"link,omitempty"`
	DueDate string           `json:"due_date,omitempty"`
}

// NotificationStore is the append-only, capped notification log. Newest
// entries come first.
type NotificationStore struct {
	observable

	mu            sync.RWMutex
	notifications []Notification
	unread        int
	lastAccepted  time.Time

	now Clock
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{now: time.Now}
}

// AddNotification appends in unless it arrives within the throttle gap of the
// previously accepted notification or repeats a title and message seen in the
// last minute. It reports whether the notification was kept.
func (s *NotificationStore) AddNotification(in NotificationInput) bool {
	now := s.now()

	s.mu.Lock()
	if !s.lastAccepted.IsZero() && now.Sub(s.lastAccepted) < NotificationThrottle {
		s.mu.Unlock()
		return false
	}
	for _, n := range s.notifications {
		if n.Title == in.Title && n.Message == in.Message && now.Sub(n.CreatedAt) < DuplicateWindow {
			s.mu.Unlock()
			return false
		}
	}

	n := Notification{
		ID:        newID(),
		Title:     in.Title,
		Message:   in.Message,
		Type:      in.Type,
		CreatedAt: now,
		Link:      in.Link,
		DueDate:   in.DueDate,
	}
	list := make([]Notification, 0, min(len(s.notifications)+1, MaxNotifications))
	list = append(list, n)
	list = append(list, s.notifications...)
	if len(list) > MaxNotifications {
		list = list[:MaxNotifications]
	}
	s.notifications = list
	s.lastAccepted = now
	s.recount()
	s.mu.Unlock()

	s.emit("notifications", "created", n.ID)
	return true
}

func (s *NotificationStore) MarkAsRead(id string) {
	s.mu.Lock()
	found := false
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			found = true
			break
		}
	}
	s.recount()
	s.mu.Unlock()

	if found {
		s.emit("notifications", "read", id)
	}
}

func (s *NotificationStore) MarkAllAsRead() {
	s.mu.Lock()
	for i := range s.notifications {
		s.notifications[i].Read = true
	}
	s.recount()
	s.mu.Unlock()

	s.emit("notifications", "read_all", "")
}

func (s *NotificationStore) RemoveNotification(id string) {
	s.mu.Lock()
	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	removed := len(kept) != len(s.notifications)
	s.notifications = kept
	s.recount()
	s.mu.Unlock()

	if removed {
		s.emit("notifications", "deleted", id)
	}
}

func (s *NotificationStore) ClearAll() {
	s.mu.Lock()
	s.notifications = nil
	s.unread = 0
	s.mu.Unlock()

	s.emit("notifications", "cleared", "")
}

// recount derives the unread counter from the read flags. Callers hold mu.
func (s *NotificationStore) recount() {
	n := 0
	for _, item := range s.notifications {
		if !item.Read {
			n++
		}
	}
	s.unread = n
}

func (s *NotificationStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

func (s *NotificationStore) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Notification(nil), s.notifications...)
}

// CheckDueDates warns about incomplete tasks and missions that are overdue or
// due within the next 48 hours. Task due dates are read in loc.
func (s *NotificationStore) CheckDueDates(tasks []Task, missions []Mission, loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	now := s.now()
	soon := now.Add(dueSoonWindow)

	for _, t := range tasks {
		if t.Completed {
			continue
		}
		due, err := time.ParseInLocation(dateLayout, t.DueDate, loc)
		if err != nil {
			continue
		}
		switch {
		case due.Before(now):
			s.AddNotification(NotificationInput{
				Title:   "Task Overdue",
				Message: fmt.Sprintf("Task %q is past due!", t.Title),
				Type:    NotificationError,
				Link:    "/tasks",
				DueDate: t.DueDate,
			})
		case due.Before(soon):
			s.AddNotification(NotificationInput{
				Title:   "Task Due Soon",
				Message: fmt.Sprintf("Task %q is due within 48 hours", t.Title),
				Type:    NotificationWarning,
				Link:    "/tasks",
				DueDate: t.DueDate,
			})
		}
	}

	for _, m := range missions {
		if m.Completed || m.Deadline == nil {
			continue
		}
		deadline := m.Deadline.Format(time.RFC3339)
		switch {
		case m.Deadline.Before(now):
			s.AddNotification(NotificationInput{
				Title:   "Mission Overdue",
				Message: fmt.Sprintf("Mission %q has passed its deadline!", m.Title),
				Type:    NotificationError,
				Link:    "/missions",
				DueDate: deadline,
			})
		case m.Deadline.Before(soon):
			s.AddNotification(NotificationInput{
				Title:   "Mission Due Soon",
				Message: fmt.Sprintf("Mission %q deadline is approaching", m.Title),
				Type:    NotificationWarning,
				Link:    "/missions",
				DueDate: deadline,
			})
		}
	}
}

type notificationSnapshot struct {
	Notifications []Notification `json:"notifications"`
	LastAccepted  time.Time      `json:"last_notification_time"`
}

func (s *NotificationStore) snapshotKey() string  { return "onboard-buddy-notifications" }
func (s *NotificationStore) snapshotVersion() int { return 1 }

func (s *NotificationStore) snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(notificationSnapshot{Notifications: s.notifications, LastAccepted: s.lastAccepted})
}

// restore drops version 0 logs entirely. The unread counter is never read
// from storage.
func (s *NotificationStore) restore(data []byte, version int) error {
	var snap notificationSnapshot
	if version > 0 {
		if err := decodeSnapshot(data, &snap); err != nil {
			return err
		}
	}
	if len(snap.Notifications) > MaxNotifications {
		snap.Notifications = snap.Notifications[:MaxNotifications]
	}
	s.mu.Lock()
	s.notifications = snap.Notifications
	s.lastAccepted = snap.LastAccepted
	s.recount()
	s.mu.Unlock()
	return nil
}
