package stores

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

const MaxMissionDeadline = 90 * 24 * time.Hour

type RewardType string

const (
	RewardPoints      RewardType = "points"
	RewardBadge       RewardType = "badge"
	RewardAchievement RewardType = "achievement"
)

// Reward.Value is a number for points and a name for badges and achievements.
type Reward struct {
	Type  RewardType  `json:"type"`
	Value interface{} `json:"value"`
}

// MissionRequirement asks for Count gallery items carrying Tag. Current is
// derived on every recomputation and never trusted from input.
type MissionRequirement struct {
	Tag     string `json:"tag"`
	Count   int    `json:"count"`
	Current int    `json:"current"`
}

type Mission struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Requirements []MissionRequirement `json:"requirements"`
	Deadline     *time.Time           `json:"deadline,omitempty"`
	Link         string               `json:"link,omitempty"`
	Progress     float64              `json:"progress"`
	Completed    bool                 `json:"completed"`
	Reward       Reward               `json:"reward"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

func (m Mission) clone() Mission {
	m.Requirements = append([]MissionRequirement(nil), m.Requirements...)
	return m
}

type MissionDraft struct {
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Requirements []MissionRequirement `json:"requirements"`
	Deadline     *time.Time           `json:"deadline"`
	Link         string               `json:"link"`
	Reward       Reward               `json:"reward"`
}

// MissionPatch changes a mission's definition. Identity and derived fields
// cannot be patched.
type MissionPatch struct {
	Title         *string               `json:"title"`
	Description   *string               `json:"description"`
	Requirements  *[]MissionRequirement `json:"requirements"`
	Deadline      *time.Time            `json:"deadline"`
	ClearDeadline bool                  `json:"clear_deadline"`
	Link          *string               `json:"link"`
	Reward        *Reward               `json:"reward"`
}

// Notifier is where the engine reports mission events.
type Notifier interface {
	AddNotification(in NotificationInput) bool
}

var validate = validator.New()

func initialMissions(now time.Time) []Mission {
	return []Mission{
		{
			ID:          "onboarding-basics",
			Title:       "Complete Onboarding Basics",
			Description: "Complete the essential onboarding tasks and documentation",
			Requirements: []MissionRequirement{
				{Tag: "admin", Count: 2},
				{Tag: "hr", Count: 2},
			},
			Reward:    Reward{Type: RewardBadge, Value: "Onboarding Pro"},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "team-connect",
			Title:       "Team Connection",
			Description: "Meet key team members and establish connections",
			Requirements: []MissionRequirement{
				{Tag: "team", Count: 3},
				{Tag: "meetings", Count: 2},
			},
			Reward:    Reward{Type: RewardBadge, Value: "Team Player"},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "workspace-setup",
			Title:       "Workspace Setup",
			Description: "Set up and customize your work environment",
			Requirements: []MissionRequirement{
				{Tag: "setup", Count: 2},
				{Tag: "equipment", Count: 1},
			},
			Reward:    Reward{Type: RewardPoints, Value: 100},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// MissionStore owns mission definitions and derives their progress from the
// gallery's tag counts.
type MissionStore struct {
	observable

	mu       sync.RWMutex
	missions []Mission

	gallery  TagCounter
	notifier Notifier
	now      Clock
}

func NewMissionStore(gallery TagCounter, notifier Notifier) *MissionStore {
	return &MissionStore{
		missions: initialMissions(time.Now()),
		gallery:  gallery,
		notifier: notifier,
		now:      time.Now,
	}
}

// ValidateMission returns every rule m breaks; an empty result means valid.
func (s *MissionStore) ValidateMission(m Mission) []string {
	return validateMission(m, s.now())
}

func validateMission(m Mission, now time.Time) []string {
	var problems []string

	if strings.TrimSpace(m.Title) == "" {
		problems = append(problems, "Title is required")
	}
	if strings.TrimSpace(m.Description) == "" {
		problems = append(problems, "Description is required")
	}

	if len(m.Requirements) == 0 {
		problems = append(problems, "At least one tag requirement is required")
	}
	for i, req := range m.Requirements {
		if strings.TrimSpace(req.Tag) == "" {
			problems = append(problems, fmt.Sprintf("Tag is required for requirement #%d", i+1))
		}
		if req.Count < 1 {
			problems = append(problems, fmt.Sprintf("Count must be at least 1 for requirement #%d", i+1))
		}
	}

	if m.Deadline != nil {
		if m.Deadline.Before(now) {
			problems = append(problems, "Deadline cannot be in the past")
		}
		if m.Deadline.After(now.Add(MaxMissionDeadline)) {
			problems = append(problems, "Deadline cannot be more than 90 days in the future")
		}
	}

	if m.Link != "" {
		if err := validate.Var(m.Link, "url"); err != nil {
			problems = append(problems, "Link must be a valid URL")
		}
	}

	return problems
}

// AddMission validates the draft, stores it with zeroed progress, announces it,
// and immediately reconciles it against existing gallery content.
func (s *MissionStore) AddMission(d MissionDraft) (Mission, error) {
	now := s.now()
	m := Mission{
		ID:           newID(),
		Title:        d.Title,
		Description:  d.Description,
		Requirements: make([]MissionRequirement, len(d.Requirements)),
		Deadline:     d.Deadline,
		Link:         d.Link,
		Reward:       d.Reward,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for i, req := range d.Requirements {
		m.Requirements[i] = MissionRequirement{Tag: req.Tag, Count: req.Count}
	}
	if err := validationError(validateMission(m, now)); err != nil {
		return Mission{}, err
	}

	s.mu.Lock()
	s.missions = append(s.missions, m)
	s.mu.Unlock()

	s.emit("missions", "created", m.ID)
	s.notify(NotificationInput{
		Title:   "New Mission Available",
		Message: fmt.Sprintf("Mission %q has been added to your journey.", m.Title),
		Type:    NotificationInfo,
		Link:    "/missions",
	})

	if updated, ok := s.UpdateMissionProgress(m.ID); ok {
		return updated, nil
	}
	return m, nil
}

// UpdateMission validates the merged mission before touching state. Unknown
// ids are ignored.
func (s *MissionStore) UpdateMission(id string, p MissionPatch) (Mission, bool, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Mission{}, false, nil
	}
	m := s.missions[i].clone()
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Requirements != nil {
		m.Requirements = make([]MissionRequirement, len(*p.Requirements))
		for j, req := range *p.Requirements {
			m.Requirements[j] = MissionRequirement{Tag: req.Tag, Count: req.Count}
		}
	}
	if p.ClearDeadline {
		m.Deadline = nil
	} else if p.Deadline != nil {
		m.Deadline = p.Deadline
	}
	if p.Link != nil {
		m.Link = *p.Link
	}
	if p.Reward != nil {
		m.Reward = *p.Reward
	}

	now := s.now()
	if err := validationError(validateMission(m, now)); err != nil {
		s.mu.Unlock()
		return Mission{}, true, err
	}
	m.UpdatedAt = now
	s.missions[i] = m
	s.mu.Unlock()

	s.emit("missions", "updated", id)
	updated, _ := s.UpdateMissionProgress(id)
	return updated, true, nil
}

func (s *MissionStore) DeleteMission(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.missions = append(s.missions[:i], s.missions[i+1:]...)
	s.mu.Unlock()

	s.emit("missions", "deleted", id)
	return true
}

// UpdateMissionProgress re-derives requirement counts, progress and completion
// for one mission from the gallery. The new state replaces the old one in a
// single write; a completion notification follows only when this call moved
// the mission from incomplete to complete.
func (s *MissionStore) UpdateMissionProgress(id string) (Mission, bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Mission{}, false
	}
	prev := s.missions[i]
	next := prev.clone()

	totalRequired, totalCurrent := 0, 0
	completed := len(next.Requirements) > 0
	for j := range next.Requirements {
		req := &next.Requirements[j]
		req.Current = s.gallery.CountTag(req.Tag)
		totalRequired += req.Count
		totalCurrent += min(req.Current, req.Count)
		if req.Current < req.Count {
			completed = false
		}
	}
	next.Progress = progressPercent(totalCurrent, totalRequired)
	next.Completed = completed
	next.UpdatedAt = s.now()

	newlyCompleted := completed && !prev.Completed
	s.missions[i] = next
	s.mu.Unlock()

	s.emit("missions", "progress", id)
	if newlyCompleted {
		s.notify(NotificationInput{
			Title:   "Mission Completed!",
			Message: fmt.Sprintf("Congratulations! You've completed the mission %q", next.Title),
			Type:    NotificationSuccess,
			Link:    "/missions",
		})
	}
	return next.clone(), true
}

// progressPercent is 0 when nothing is required.
func progressPercent(current, required int) float64 {
	if required <= 0 {
		return 0
	}
	p := float64(current) * 100 / float64(required)
	if p > 100 {
		return 100
	}
	return p
}

// RecomputeAll reconciles every mission against the gallery.
func (s *MissionStore) RecomputeAll() {
	s.mu.RLock()
	ids := make([]string, len(s.missions))
	for i, m := range s.missions {
		ids[i] = m.ID
	}
	s.mu.RUnlock()

	for _, id := range ids {
		s.UpdateMissionProgress(id)
	}
}

// renameRequirementTag points requirements at a renamed tag. The caller
// recomputes afterwards.
func (s *MissionStore) renameRequirementTag(old, name string) {
	s.mu.Lock()
	var touched []string
	for i := range s.missions {
		changed := false
		for j := range s.missions[i].Requirements {
			if s.missions[i].Requirements[j].Tag == old {
				s.missions[i].Requirements[j].Tag = name
				changed = true
			}
		}
		if changed {
			touched = append(touched, s.missions[i].ID)
		}
	}
	s.mu.Unlock()

	for _, id := range touched {
		s.emit("missions", "updated", id)
	}
}

// dropRequirementTag removes requirements on a deleted tag. A mission left
// with no requirements can no longer complete.
func (s *MissionStore) dropRequirementTag(tag string) {
	s.mu.Lock()
	var touched []string
	for i := range s.missions {
		reqs := s.missions[i].Requirements[:0:0]
		for _, req := range s.missions[i].Requirements {
			if req.Tag != tag {
				reqs = append(reqs, req)
			}
		}
		if len(reqs) != len(s.missions[i].Requirements) {
			s.missions[i].Requirements = reqs
			touched = append(touched, s.missions[i].ID)
		}
	}
	s.mu.Unlock()

	for _, id := range touched {
		s.emit("missions", "updated", id)
	}
}

func (s *MissionStore) notify(in NotificationInput) {
	if s.notifier != nil {
		s.notifier.AddNotification(in)
	}
}

func (s *MissionStore) Missions() []Mission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Mission, len(s.missions))
	for i, m := range s.missions {
		out[i] = m.clone()
	}
	return out
}

func (s *MissionStore) Mission(id string) (Mission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.missions[i].clone(), true
	}
	return Mission{}, false
}

func (s *MissionStore) indexOf(id string) int {
	for i := range s.missions {
		if s.missions[i].ID == id {
			return i
		}
	}
	return -1
}

type missionSnapshot struct {
	Missions []Mission `json:"missions"`
}

func (s *MissionStore) snapshotKey() string  { return "onboard-buddy-missions" }
func (s *MissionStore) snapshotVersion() int { return 1 }

func (s *MissionStore) snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(missionSnapshot{Missions: s.missions})
}

// restore falls back to the starter missions when a version 0 snapshot holds none.
func (s *MissionStore) restore(data []byte, version int) error {
	var snap missionSnapshot
	if err := decodeSnapshot(data, &snap); err != nil {
		return err
	}
	if snap.Missions == nil {
		if version == 0 {
			return nil
		}
		snap.Missions = []Mission{}
	}
	s.mu.Lock()
	s.missions = snap.Missions
	s.mu.Unlock()
	return nil
}
