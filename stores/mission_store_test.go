package stores

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	titles []string
}

func (r *recordingNotifier) AddNotification(in NotificationInput) bool {
	r.titles = append(r.titles, in.Title)
	return true
}

func (r *recordingNotifier) count(title string) int {
	n := 0
	for _, t := range r.titles {
		if t == title {
			n++
		}
	}
	return n
}

type countingGallery map[string]int

func (g countingGallery) CountTag(tag string) int { return g[tag] }

var fixedNow = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

func newTestMissionStore(counter TagCounter) (*MissionStore, *recordingNotifier) {
	n := &recordingNotifier{}
	s := NewMissionStore(counter, n)
	s.now = func() time.Time { return fixedNow }
	s.missions = nil
	return s, n
}

func abDraft() MissionDraft {
	return MissionDraft{
		Title:       "Tag things",
		Description: "Collect a and b",
		Requirements: []MissionRequirement{
			{Tag: "a", Count: 2},
			{Tag: "b", Count: 1},
		},
		Reward: Reward{Type: RewardPoints, Value: 50},
	}
}

func addTagged(g *GalleryStore, tags ...string) GalleryItem {
	return g.AddItem(GalleryItemInput{Type: ItemNote, Title: "note", Tags: tags})
}

func TestMissionProgressWorkedExamples(t *testing.T) {
	gallery := NewGalleryStore(nil)
	missions, notes := newTestMissionStore(gallery)
	gallery.OnTagsChanged(missions.RecomputeAll)

	addTagged(gallery, "a")
	addTagged(gallery, "a")
	addTagged(gallery, "a")

	m, err := missions.AddMission(abDraft())
	require.NoError(t, err)
	assert.Equal(t, 3, m.Requirements[0].Current)
	assert.Equal(t, 0, m.Requirements[1].Current)
	assert.InDelta(t, 200.0/3.0, m.Progress, 0.001)
	assert.False(t, m.Completed)
	assert.Equal(t, 1, notes.count("New Mission Available"))
	assert.Equal(t, 0, notes.count("Mission Completed!"))

	// Saturation: the third "a" item does not make up for the missing "b".
	b := addTagged(gallery, "b")
	m, _ = missions.Mission(m.ID)
	assert.Equal(t, []int{3, 1}, []int{m.Requirements[0].Current, m.Requirements[1].Current})
	assert.Equal(t, 100.0, m.Progress)
	assert.True(t, m.Completed)
	assert.Equal(t, 1, notes.count("Mission Completed!"))

	missions.RecomputeAll()
	missions.RecomputeAll()
	assert.Equal(t, 1, notes.count("Mission Completed!"))

	require.True(t, gallery.DeleteItem(b.ID))
	m, _ = missions.Mission(m.ID)
	assert.False(t, m.Completed)
	assert.InDelta(t, 66.67, m.Progress, 0.01)
	assert.Equal(t, 1, notes.count("Mission Completed!"), "true to false must be silent")
}

func TestMissionRecomputeIsIdempotent(t *testing.T) {
	counter := countingGallery{"a": 1, "b": 4}
	missions, _ := newTestMissionStore(counter)

	m, err := missions.AddMission(abDraft())
	require.NoError(t, err)

	first, ok := missions.UpdateMissionProgress(m.ID)
	require.True(t, ok)
	second, ok := missions.UpdateMissionProgress(m.ID)
	require.True(t, ok)

	assert.Equal(t, first.Requirements, second.Requirements)
	assert.Equal(t, first.Progress, second.Progress)
	assert.Equal(t, first.Completed, second.Completed)
	assert.InDelta(t, 200.0/3.0, second.Progress, 0.001)
}

func TestMissionCompletionNotifiesOncePerTransition(t *testing.T) {
	counter := countingGallery{}
	missions, notes := newTestMissionStore(counter)
	m, err := missions.AddMission(abDraft())
	require.NoError(t, err)

	counter["a"], counter["b"] = 2, 1
	for i := 0; i < 5; i++ {
		missions.UpdateMissionProgress(m.ID)
	}
	assert.Equal(t, 1, notes.count("Mission Completed!"))

	counter["b"] = 0
	missions.UpdateMissionProgress(m.ID)
	counter["b"] = 1
	missions.UpdateMissionProgress(m.ID)
	assert.Equal(t, 2, notes.count("Mission Completed!"), "a fresh false to true transition notifies again")
}

func TestMissionWithoutRequirementsHasZeroProgress(t *testing.T) {
	missions, notes := newTestMissionStore(countingGallery{"a": 10})
	m, err := missions.AddMission(abDraft())
	require.NoError(t, err)

	missions.dropRequirementTag("a")
	missions.dropRequirementTag("b")

	got, ok := missions.UpdateMissionProgress(m.ID)
	require.True(t, ok)
	assert.Empty(t, got.Requirements)
	assert.Equal(t, 0.0, got.Progress)
	assert.False(t, got.Completed)
	assert.Equal(t, 0, notes.count("Mission Completed!"))
}

func TestProgressPercentGuards(t *testing.T) {
	assert.Equal(t, 0.0, progressPercent(0, 0))
	assert.Equal(t, 0.0, progressPercent(5, 0))
	assert.Equal(t, 100.0, progressPercent(7, 3))
	assert.Equal(t, 50.0, progressPercent(1, 2))
}

func TestAddMissionCollectsAllProblems(t *testing.T) {
	missions, notes := newTestMissionStore(countingGallery{})
	past := fixedNow.Add(-time.Hour)

	_, err := missions.AddMission(MissionDraft{
		Title:        "  ",
		Requirements: []MissionRequirement{{Tag: "", Count: 0}},
		Deadline:     &past,
		Link:         "not a url",
	})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{
		"Title is required",
		"Description is required",
		"Tag is required for requirement #1",
		"Count must be at least 1 for requirement #1",
		"Deadline cannot be in the past",
		"Link must be a valid URL",
	}, verr.Problems)
	assert.Equal(t, strings.Join(verr.Problems, ", "), err.Error())
	assert.Empty(t, missions.Missions())
	assert.Empty(t, notes.titles)
}

func TestAddMissionDeadlineWindow(t *testing.T) {
	missions, _ := newTestMissionStore(countingGallery{})

	d := abDraft()
	far := fixedNow.Add(91 * 24 * time.Hour)
	d.Deadline = &far
	_, err := missions.AddMission(d)
	require.EqualError(t, err, "Deadline cannot be more than 90 days in the future")

	ok := fixedNow.Add(30 * 24 * time.Hour)
	d.Deadline = &ok
	d.Link = "https://example.com/onboarding"
	_, err = missions.AddMission(d)
	require.NoError(t, err)

	_, err = missions.AddMission(MissionDraft{Title: "t", Description: "d"})
	require.EqualError(t, err, "At least one tag requirement is required")
}

func TestAddMissionIgnoresSuppliedCurrent(t *testing.T) {
	missions, _ := newTestMissionStore(countingGallery{"a": 1})
	d := abDraft()
	d.Requirements[0].Current = 99

	m, err := missions.AddMission(d)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Requirements[0].Current)
}

func TestUpdateMission(t *testing.T) {
	counter := countingGallery{"a": 2, "c": 1}
	missions, notes := newTestMissionStore(counter)
	m, err := missions.AddMission(abDraft())
	require.NoError(t, err)
	require.False(t, m.Completed)

	empty := ""
	_, found, err := missions.UpdateMission(m.ID, MissionPatch{Title: &empty})
	require.True(t, found)
	require.EqualError(t, err, "Title is required")
	unchanged, _ := missions.Mission(m.ID)
	assert.Equal(t, "Tag things", unchanged.Title)

	reqs := []MissionRequirement{{Tag: "a", Count: 2}, {Tag: "c", Count: 1}}
	updated, found, err := missions.UpdateMission(m.ID, MissionPatch{Requirements: &reqs})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, m.ID, updated.ID)
	assert.True(t, updated.Completed)
	assert.Equal(t, 1, notes.count("Mission Completed!"))

	_, found, err = missions.UpdateMission("missing", MissionPatch{Title: &empty})
	assert.False(t, found)
	assert.NoError(t, err)
}

func TestDeleteMission(t *testing.T) {
	missions, _ := newTestMissionStore(countingGallery{})
	m, err := missions.AddMission(abDraft())
	require.NoError(t, err)

	assert.True(t, missions.DeleteMission(m.ID))
	assert.False(t, missions.DeleteMission(m.ID))
	_, ok := missions.UpdateMissionProgress(m.ID)
	assert.False(t, ok)
}

func TestInitialMissionsAreSeeded(t *testing.T) {
	s := NewMissionStore(countingGallery{}, nil)
	ids := []string{}
	for _, m := range s.Missions() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"onboarding-basics", "team-connect", "workspace-setup"}, ids)
}

func TestRenameRequirementTag(t *testing.T) {
	missions, _ := newTestMissionStore(countingGallery{})
	m, err := missions.AddMission(abDraft())
	require.NoError(t, err)

	var events []Event
	missions.Subscribe(func(e Event) { events = append(events, e) })
	missions.renameRequirementTag("b", "beta")

	got, _ := missions.Mission(m.ID)
	assert.Equal(t, "beta", got.Requirements[1].Tag)
	require.Len(t, events, 1)
	assert.Equal(t, Event{Store: "missions", Action: "updated", ID: m.ID}, events[0])
}
