package worker

import (
	"context"
	"log"
	"time"

	"onboardbuddy/stores"
	"onboardbuddy/utils"
)

const (
	cleanupQueueSize   = 256
	orphanSweepEvery   = 24 * time.Hour
	cleanupDeleteLimit = 30 * time.Second
)

// ObjectDeleter removes stored objects by path.
type ObjectDeleter interface {
	Delete(ctx context.Context, path string) error
}

// ImageCleanupWorker deletes replaced images off the request path and sweeps
// uploads that were never attached to anything.
type ImageCleanupWorker struct {
	Storage  ObjectDeleter
	Registry *stores.Registry
	Logger   *log.Logger

	queue chan string
}

func NewImageCleanupWorker(storage ObjectDeleter, logger *log.Logger) *ImageCleanupWorker {
	return &ImageCleanupWorker{
		Storage: storage,
		Logger:  logger,
		queue:   make(chan string, cleanupQueueSize),
	}
}

// Enqueue never blocks; a full queue drops the path and the orphan sweep
// does not pick it up again.
func (iw *ImageCleanupWorker) Enqueue(path string) {
	if path == "" {
		return
	}
	select {
	case iw.queue <- path:
	default:
		iw.Logger.Printf("Cleanup queue full, dropping %s", path)
		utils.LogEvent("image_cleanup_dropped", map[string]interface{}{"path": path})
	}
}

func (iw *ImageCleanupWorker) Start(ctx context.Context) {
	iw.Logger.Println("Image cleanup worker started")

	ticker := time.NewTicker(orphanSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			iw.Logger.Println("Image cleanup worker shutting down...")
			return
		case path := <-iw.queue:
			iw.delete(ctx, path)
		case <-ticker.C:
			iw.sweepOrphans(ctx)
		}
	}
}

func (iw *ImageCleanupWorker) delete(ctx context.Context, path string) {
	ctx, cancel := context.WithTimeout(ctx, cleanupDeleteLimit)
	defer cancel()

	if err := iw.Storage.Delete(ctx, path); err != nil {
		iw.Logger.Printf("Failed to delete %s: %v", path, err)
		utils.LogError("image_cleanup", err, map[string]interface{}{"path": path})
	}
}

func (iw *ImageCleanupWorker) sweepOrphans(ctx context.Context) {
	if iw.Registry == nil {
		return
	}
	iw.Registry.Each(func(w *stores.Workspace) {
		removed := w.CleanupOrphanedImages(ctx, iw.Storage, func(path string, err error) {
			iw.Logger.Printf("Failed to delete orphan %s for workspace %d: %v", path, w.AccountID, err)
		})
		if removed == 0 {
			return
		}
		iw.Logger.Printf("Removed %d orphaned images for workspace %d", removed, w.AccountID)
		if err := iw.Registry.Save(ctx, w.AccountID); err != nil {
			iw.Logger.Printf("Failed to save workspace %d after sweep: %v", w.AccountID, err)
		}
	})
}
