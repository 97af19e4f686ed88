package stores

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// WorkspaceOptions configures the stores of a new workspace.
type WorkspaceOptions struct {
	Cleaner  ImageCleaner
	Location *time.Location
	Clock    Clock
}

// Workspace is the full onboarding state of one account.
type Workspace struct {
	AccountID uint

	Tags          *TagStore
	Gallery       *GalleryStore
	Missions      *MissionStore
	Tasks         *TaskStore
	Notifications *NotificationStore
	Employees     *EmployeeStore
	Images        *ImageStore
	Settings      *SettingsStore

	// tagMu serializes global tag renames and deletes.
	tagMu sync.Mutex
}

func NewWorkspace(accountID uint, opts WorkspaceOptions) *Workspace {
	w := &Workspace{
		AccountID:     accountID,
		Tags:          NewTagStore(),
		Gallery:       NewGalleryStore(opts.Cleaner),
		Notifications: NewNotificationStore(),
		Tasks:         NewTaskStore(opts.Location),
		Employees:     NewEmployeeStore(opts.Location),
		Images:        NewImageStore(opts.Cleaner),
		Settings:      NewSettingsStore(),
	}
	w.Missions = NewMissionStore(w.Gallery, w.Notifications)
	if opts.Clock != nil {
		w.setClock(opts.Clock)
	}
	w.Gallery.OnTagsChanged(w.Missions.RecomputeAll)
	return w
}

func (w *Workspace) setClock(now Clock) {
	w.Tags.now = now
	w.Gallery.now = now
	w.Missions.now = now
	w.Tasks.now = now
	w.Notifications.now = now
	w.Employees.now = now
	w.Images.now = now
}

// RenameTag renames a tag everywhere it is referenced: gallery items, the
// gallery vocabulary, the tag catalog and mission requirements. Missions are
// recomputed once all references agree.
func (w *Workspace) RenameTag(old, name string) error {
	old, name = strings.TrimSpace(old), strings.TrimSpace(name)
	if old == "" || name == "" {
		return validationError([]string{"Tag name is required"})
	}
	if old == name {
		return nil
	}

	w.tagMu.Lock()
	defer w.tagMu.Unlock()
	w.Gallery.renameTag(old, name)
	w.Tags.renameByName(old, name)
	w.Missions.renameRequirementTag(old, name)
	w.Missions.RecomputeAll()
	return nil
}

// DeleteTag removes a tag from every item, the vocabulary, the catalog and all
// mission requirements.
func (w *Workspace) DeleteTag(tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return validationError([]string{"Tag name is required"})
	}

	w.tagMu.Lock()
	defer w.tagMu.Unlock()
	w.Gallery.deleteTag(tag)
	w.Tags.deleteByName(tag)
	w.Missions.dropRequirementTag(tag)
	w.Missions.RecomputeAll()
	return nil
}

// CheckDueDates raises due-soon and overdue notifications.
func (w *Workspace) CheckDueDates() {
	w.Notifications.CheckDueDates(w.Tasks.Tasks(), w.Missions.Missions(), w.Tasks.Location())
}

// CleanupOrphanedImages sweeps old uploads, keeping any the gallery still uses.
func (w *Workspace) CleanupOrphanedImages(ctx context.Context, storage ObjectDeleter, onError func(path string, err error)) int {
	return w.Images.CleanupOrphanedImages(ctx, storage, w.Gallery.ActiveImagePaths(), onError)
}

// Subscribe registers fn with every store and returns a function removing it
// from all of them.
func (w *Workspace) Subscribe(fn Listener) func() {
	unsubs := []func(){
		w.Tags.Subscribe(fn),
		w.Gallery.Subscribe(fn),
		w.Missions.Subscribe(fn),
		w.Tasks.Subscribe(fn),
		w.Notifications.Subscribe(fn),
		w.Employees.Subscribe(fn),
		w.Images.Subscribe(fn),
		w.Settings.Subscribe(fn),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (w *Workspace) persistables() []persistable {
	return []persistable{w.Tags, w.Gallery, w.Missions, w.Tasks, w.Notifications, w.Employees, w.Images, w.Settings}
}

// Load restores every store from backend and reconciles missions with the
// restored gallery.
func (w *Workspace) Load(ctx context.Context, backend SnapshotBackend) error {
	for _, p := range w.persistables() {
		if err := restoreFrom(ctx, backend, w.AccountID, p); err != nil {
			return err
		}
	}
	w.Missions.RecomputeAll()
	return nil
}

// Save writes every store. It keeps going after a failure and returns all
// errors together.
func (w *Workspace) Save(ctx context.Context, backend SnapshotBackend) error {
	var errs []error
	for _, p := range w.persistables() {
		if err := saveTo(ctx, backend, w.AccountID, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Registry hands out one lazily loaded workspace per account.
type Registry struct {
	backend SnapshotBackend
	opts    WorkspaceOptions

	mu         sync.Mutex
	workspaces map[uint]*Workspace
}

func NewRegistry(backend SnapshotBackend, opts WorkspaceOptions) *Registry {
	return &Registry{
		backend:    backend,
		opts:       opts,
		workspaces: make(map[uint]*Workspace),
	}
}

// Workspace returns the account's workspace, loading it on first use.
func (r *Registry) Workspace(ctx context.Context, accountID uint) (*Workspace, error) {
	r.mu.Lock()
	w, ok := r.workspaces[accountID]
	r.mu.Unlock()
	if ok {
		return w, nil
	}

	w = NewWorkspace(accountID, r.opts)
	if err := w.Load(ctx, r.backend); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.workspaces[accountID]; ok {
		return existing, nil
	}
	r.workspaces[accountID] = w
	return w, nil
}

// Save persists the account's workspace if it is loaded.
func (r *Registry) Save(ctx context.Context, accountID uint) error {
	r.mu.Lock()
	w, ok := r.workspaces[accountID]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return w.Save(ctx, r.backend)
}

// Each calls fn for every loaded workspace.
func (r *Registry) Each(fn func(*Workspace)) {
	r.mu.Lock()
	ws := make([]*Workspace, 0, len(r.workspaces))
	for _, w := range r.workspaces {
		ws = append(ws, w)
	}
	r.mu.Unlock()

	for _, w := range ws {
		fn(w)
	}
}

func (r *Registry) Evict(accountID uint) {
	r.mu.Lock()
	delete(r.workspaces, accountID)
	r.mu.Unlock()
}
