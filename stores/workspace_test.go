package stores

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	clock := &manualClock{t: fixedNow}
	return NewWorkspace(1, WorkspaceOptions{Location: time.UTC, Clock: clock.now})
}

func TestWorkspaceGalleryDrivesMissions(t *testing.T) {
	w := newTestWorkspace(t)

	addTagged(w.Gallery, "setup")
	addTagged(w.Gallery, "setup")
	addTagged(w.Gallery, "equipment")

	m, ok := w.Missions.Mission("workspace-setup")
	require.True(t, ok)
	assert.True(t, m.Completed)
	assert.Equal(t, 100.0, m.Progress)

	titles := []string{}
	for _, n := range w.Notifications.Notifications() {
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"Mission Completed!"}, titles)
}

func TestWorkspaceRenameTagFollowsRequirements(t *testing.T) {
	w := newTestWorkspace(t)
	w.Tags.AddTag(TagInput{Name: "meetings"})
	addTagged(w.Gallery, "meetings")

	require.NoError(t, w.RenameTag("meetings", "1on1"))

	m, _ := w.Missions.Mission("team-connect")
	assert.Equal(t, "1on1", m.Requirements[1].Tag)
	assert.Equal(t, 1, m.Requirements[1].Current, "renamed requirement still counts the renamed items")
	assert.Equal(t, 1, w.Gallery.CountTag("1on1"))
	assert.True(t, w.Tags.HasName("1on1"))
	assert.False(t, w.Tags.HasName("meetings"))

	require.Error(t, w.RenameTag("meetings", " "))
}

func TestWorkspaceDeleteTagDropsRequirements(t *testing.T) {
	w := newTestWorkspace(t)
	addTagged(w.Gallery, "setup")
	addTagged(w.Gallery, "setup")

	require.NoError(t, w.DeleteTag("equipment"))

	m, _ := w.Missions.Mission("workspace-setup")
	require.Len(t, m.Requirements, 1)
	assert.True(t, m.Completed)
	assert.NotContains(t, w.Gallery.Vocabulary(), "equipment")
}

func TestWorkspaceSubscribeFansOut(t *testing.T) {
	w := newTestWorkspace(t)
	var stores []string
	unsubscribe := w.Subscribe(func(e Event) { stores = append(stores, e.Store) })

	w.Settings.UpdateCustomText("welcome", "hi")
	w.Tasks.ToggleTaskCompletion(1)
	assert.Equal(t, []string{"settings", "tasks"}, stores)

	unsubscribe()
	w.Settings.ResetToDefault()
	assert.Len(t, stores, 2)
}

func TestWorkspaceSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	w := newTestWorkspace(t)
	addTagged(w.Gallery, "admin")
	_, err := w.Missions.AddMission(MissionDraft{
		Title:        "Read docs",
		Description:  "Two notes tagged docs",
		Requirements: []MissionRequirement{{Tag: "docs", Count: 2}},
		Reward:       Reward{Type: RewardAchievement, Value: "Reader"},
	})
	require.NoError(t, err)
	_, err = w.Tasks.AddTask(TaskInput{Title: "extra", Department: DepartmentIT, Priority: PriorityLow, StartDate: "2025-01-06"})
	require.NoError(t, err)
	w.Settings.UpdateCustomText("welcome", "Hello")
	require.NoError(t, w.Save(ctx, backend))

	loaded := newTestWorkspace(t)
	require.NoError(t, loaded.Load(ctx, backend))

	assert.Len(t, loaded.Gallery.Items(), 1)
	assert.Len(t, loaded.Missions.Missions(), 4)
	assert.Len(t, loaded.Tasks.Tasks(), 5)
	assert.Equal(t, "Hello", loaded.Settings.Settings().CustomTexts["welcome"])
	m, _ := loaded.Missions.Mission("onboarding-basics")
	assert.Equal(t, 1, m.Requirements[0].Current)
}

func TestLoadRejectsNewerSnapshot(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Save(ctx, 1, "onboard-buddy-tags", Snapshot{Version: 9, Data: []byte(`{}`)}))

	err := newTestWorkspace(t).Load(ctx, backend)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer")
}

func TestGalleryMigratesVersionOne(t *testing.T) {
	g := NewGalleryStore(nil)
	data := []byte(`{"items":[{"id":"x","type":"photo","tags":["a","a"],"image_path":"legacy"}]}`)

	require.NoError(t, g.restore(data, 1))

	item, ok := g.Item("x")
	require.True(t, ok)
	assert.Empty(t, item.ImagePath)
	assert.Equal(t, []string{"a"}, item.Tags)
	assert.Equal(t, initialGalleryTags, g.Vocabulary())
}

func TestMissionsRestoreVersionZeroKeepsStarterSet(t *testing.T) {
	s := NewMissionStore(countingGallery{}, nil)
	require.NoError(t, s.restore(nil, 0))
	assert.Len(t, s.Missions(), 3)
}

type failingBackend struct {
	*MemoryBackend
}

func (f failingBackend) Save(ctx context.Context, accountID uint, key string, snap Snapshot) error {
	if key == "onboard-buddy-tasks" {
		return errors.New("disk full")
	}
	return f.MemoryBackend.Save(ctx, accountID, key, snap)
}

func TestSaveContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	backend := failingBackend{NewMemoryBackend()}

	err := newTestWorkspace(t).Save(ctx, backend)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "onboard-buddy-tasks")

	snap, err := backend.Load(ctx, 1, "onboard-buddy-settings")
	require.NoError(t, err)
	assert.NotNil(t, snap)
}

func TestRegistryLoadsOncePerAccount(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(NewMemoryBackend(), WorkspaceOptions{Location: time.UTC})

	a, err := r.Workspace(ctx, 7)
	require.NoError(t, err)
	b, err := r.Workspace(ctx, 7)
	require.NoError(t, err)
	assert.Same(t, a, b)

	a.Settings.UpdateCustomText("k", "v")
	require.NoError(t, r.Save(ctx, 7))
	r.Evict(7)

	c, err := r.Workspace(ctx, 7)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.Equal(t, "v", c.Settings.Settings().CustomTexts["k"])

	count := 0
	r.Each(func(*Workspace) { count++ })
	assert.Equal(t, 1, count)
}

func TestExportText(t *testing.T) {
	w := newTestWorkspace(t)
	w.Gallery.AddItem(GalleryItemInput{Type: ItemNote, Title: "Acronyms", Date: "2025-01-06", Tags: []string{"acronym"}})
	w.Gallery.AddItem(GalleryItemInput{Type: ItemPhoto, Title: "Desk photo"})

	out := w.ExportText(ExportOptions{Missions: true, Notes: true})

	assert.True(t, strings.HasPrefix(out, "Onboarding Journey Summary\n"))
	assert.NotContains(t, out, "Tasks\n-----")
	assert.Contains(t, out, "• Workspace Setup\n")
	assert.Contains(t, out, "  Reward: 100\n")
	assert.Contains(t, out, "• Acronyms\n  Type: note\n  Date: 2025-01-06\n  Tags: acronym\n")
	assert.NotContains(t, out, "Desk photo")
}

func TestWorkspaceCleanupSparesGalleryImages(t *testing.T) {
	clock := &manualClock{t: fixedNow}
	w := NewWorkspace(1, WorkspaceOptions{Location: time.UTC, Clock: clock.now})

	w.Images.AddUploadedImage("photo", "https://cdn/photo.jpg", "u1/photo.jpg")
	w.Images.AddUploadedImage("loose", "https://cdn/loose.jpg", "u1/loose.jpg")
	w.Gallery.AddItem(GalleryItemInput{Type: ItemPhoto, Title: "Desk", ImageURL: "https://cdn/photo.jpg", ImagePath: "u1/photo.jpg"})
	clock.advance(8 * 24 * time.Hour)

	storage := &fakeDeleter{}
	require.Equal(t, 1, w.CleanupOrphanedImages(context.Background(), storage, nil))

	assert.Equal(t, []string{"u1/loose.jpg"}, storage.deleted)
	require.Len(t, w.Images.Preferences().UploadedImages, 1)
	assert.Equal(t, "photo", w.Images.Preferences().UploadedImages[0].ID)
}
