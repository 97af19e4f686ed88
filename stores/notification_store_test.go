package stores

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	t time.Time
}

func (c *manualClock) now() time.Time          { return c.t }
func (c *manualClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestNotificationStore() (*NotificationStore, *manualClock) {
	clock := &manualClock{t: fixedNow}
	s := NewNotificationStore()
	s.now = clock.now
	return s, clock
}

func TestNotificationThrottle(t *testing.T) {
	s, clock := newTestNotificationStore()

	assert.True(t, s.AddNotification(NotificationInput{Title: "one", Message: "m"}))
	clock.advance(4 * time.Second)
	assert.False(t, s.AddNotification(NotificationInput{Title: "two", Message: "m"}))
	clock.advance(time.Second)
	assert.True(t, s.AddNotification(NotificationInput{Title: "three", Message: "m"}))

	assert.Len(t, s.Notifications(), 2)
}

func TestNotificationDuplicateWindow(t *testing.T) {
	s, clock := newTestNotificationStore()
	in := NotificationInput{Title: "Mission Completed!", Message: "done"}

	require.True(t, s.AddNotification(in))
	clock.advance(30 * time.Second)
	assert.False(t, s.AddNotification(in))
	clock.advance(30 * time.Second)
	assert.True(t, s.AddNotification(in), "the duplicate window is 60 seconds")
}

func TestNotificationCapKeepsNewestFirst(t *testing.T) {
	s, clock := newTestNotificationStore()
	for i := 0; i < MaxNotifications+5; i++ {
		require.True(t, s.AddNotification(NotificationInput{Title: fmt.Sprintf("n%d", i)}))
		clock.advance(NotificationThrottle)
	}

	list := s.Notifications()
	require.Len(t, list, MaxNotifications)
	assert.Equal(t, fmt.Sprintf("n%d", MaxNotifications+4), list[0].Title)
	assert.Equal(t, "n5", list[len(list)-1].Title)
	assert.Equal(t, MaxNotifications, s.UnreadCount())
}

func TestUnreadCountFollowsReadFlags(t *testing.T) {
	s, clock := newTestNotificationStore()
	for i := 0; i < 3; i++ {
		s.AddNotification(NotificationInput{Title: fmt.Sprintf("n%d", i)})
		clock.advance(NotificationThrottle)
	}
	list := s.Notifications()
	require.Equal(t, 3, s.UnreadCount())

	s.MarkAsRead(list[0].ID)
	s.MarkAsRead(list[0].ID)
	assert.Equal(t, 2, s.UnreadCount(), "marking twice must not drift")

	s.RemoveNotification(list[0].ID)
	assert.Equal(t, 2, s.UnreadCount())
	s.RemoveNotification(list[1].ID)
	assert.Equal(t, 1, s.UnreadCount())

	s.MarkAllAsRead()
	assert.Equal(t, 0, s.UnreadCount())

	s.ClearAll()
	assert.Empty(t, s.Notifications())
}

func TestCheckDueDates(t *testing.T) {
	s, clock := newTestNotificationStore()
	clock.t = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	tasks := []Task{
		{Title: "late", DueDate: "2025-01-09"},
		{Title: "done", DueDate: "2025-01-01", Completed: true},
		{Title: "far", DueDate: "2025-02-01"},
	}
	s.CheckDueDates(tasks, nil, time.UTC)

	list := s.Notifications()
	require.Len(t, list, 1)
	assert.Equal(t, "Task Overdue", list[0].Title)
	assert.Equal(t, NotificationError, list[0].Type)
	assert.Equal(t, "2025-01-09", list[0].DueDate)

	clock.advance(NotificationThrottle)
	soon := clock.t.Add(24 * time.Hour)
	s.CheckDueDates(nil, []Mission{{Title: "m", Deadline: &soon}}, time.UTC)

	list = s.Notifications()
	require.Len(t, list, 2)
	assert.Equal(t, "Mission Due Soon", list[0].Title)
	assert.Equal(t, NotificationWarning, list[0].Type)
}

func TestNotificationRestoreResetsVersionZero(t *testing.T) {
	s, _ := newTestNotificationStore()
	require.NoError(t, s.restore([]byte(`{"notifications":[{"id":"x","title":"old"}]}`), 0))
	assert.Empty(t, s.Notifications())

	require.NoError(t, s.restore([]byte(`{"notifications":[{"id":"x","title":"old","read":false},{"id":"y","read":true}]}`), 1))
	assert.Len(t, s.Notifications(), 2)
	assert.Equal(t, 1, s.UnreadCount())
}
