package worker

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"onboardbuddy/stores"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStorage struct {
	mu      sync.Mutex
	deleted []string
	done    chan string
}

func (r *recordingStorage) Delete(_ context.Context, path string) error {
	r.mu.Lock()
	r.deleted = append(r.deleted, path)
	r.mu.Unlock()
	if r.done != nil {
		r.done <- path
	}
	if path == "broken" {
		return errors.New("storage unavailable")
	}
	return nil
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestEnqueueDropsWhenFull(t *testing.T) {
	w := NewImageCleanupWorker(&recordingStorage{}, quietLogger())
	w.queue = make(chan string, 1)

	w.Enqueue("a")
	w.Enqueue("b")
	w.Enqueue("")

	require.Len(t, w.queue, 1)
	assert.Equal(t, "a", <-w.queue)
}

func TestCleanupWorkerDeletesQueuedPaths(t *testing.T) {
	storage := &recordingStorage{done: make(chan string, 2)}
	w := NewImageCleanupWorker(storage, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	w.Enqueue("broken")
	w.Enqueue("u1/a.jpg")

	for _, want := range []string{"broken", "u1/a.jpg"} {
		select {
		case got := <-storage.done:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestDueDateWorkerRaisesOverdueNotifications(t *testing.T) {
	ctx := context.Background()
	registry := stores.NewRegistry(stores.NewMemoryBackend(), stores.WorkspaceOptions{Location: time.UTC})
	ws, err := registry.Workspace(ctx, 1)
	require.NoError(t, err)

	_, err = ws.Tasks.AddTask(stores.TaskInput{
		Title:      "late",
		Department: stores.DepartmentIT,
		Priority:   stores.PriorityLow,
		StartDate:  time.Now().AddDate(0, -2, 0).Format("2006-01-02"),
	})
	require.NoError(t, err)

	NewDueDateWorker(registry, quietLogger()).RunOnce(ctx)

	list := ws.Notifications.Notifications()
	require.NotEmpty(t, list)
	assert.Equal(t, "Task Overdue", list[0].Title)
}
