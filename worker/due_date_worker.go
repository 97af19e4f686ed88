package worker

import (
	"context"
	"log"
	"time"

	"onboardbuddy/stores"
	"onboardbuddy/utils"
)

// DueDateWorker periodically raises overdue and due-soon notifications for
// every loaded workspace.
type DueDateWorker struct {
	Registry *stores.Registry
	Interval time.Duration
	Logger   *log.Logger
}

func NewDueDateWorker(registry *stores.Registry, logger *log.Logger) *DueDateWorker {
	return &DueDateWorker{
		Registry: registry,
		Interval: 5 * time.Minute,
		Logger:   logger,
	}
}

func (dw *DueDateWorker) Start(ctx context.Context) {
	dw.Logger.Println("Due date worker started")

	ticker := time.NewTicker(dw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			dw.Logger.Println("Due date worker shutting down...")
			return
		case <-ticker.C:
			dw.RunOnce(ctx)
		}
	}
}

func (dw *DueDateWorker) RunOnce(ctx context.Context) {
	dw.Registry.Each(func(w *stores.Workspace) {
		before := newestNotification(w)
		w.CheckDueDates()
		if newestNotification(w) == before {
			return
		}
		if err := dw.Registry.Save(ctx, w.AccountID); err != nil {
			dw.Logger.Printf("Error saving workspace %d: %v", w.AccountID, err)
			utils.LogError("due_date_save", err, map[string]interface{}{"account_id": w.AccountID})
		}
	})
}

func newestNotification(w *stores.Workspace) string {
	list := w.Notifications.Notifications()
	if len(list) == 0 {
		return ""
	}
	return list[0].ID
}
