package stores

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
)

// Tag is a reusable label. UsageCount is advisory; mission requirements are
// counted from gallery contents instead.
type Tag struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	UsageCount  int       `json:"usage_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// TagInput is the caller-supplied part of a new tag.
type TagInput struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

// TagPatch holds the fields UpdateTag may change; nil fields are left alone.
type TagPatch struct {
	Name        *string `json:"name"`
	Color       *string `json:"color"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
}

var defaultTags = []TagInput{
	{Name: "IT", Color: "#3B82F6", Category: "department", Description: "IT related tasks"},
	{Name: "Admin", Color: "#F59E0B", Category: "department", Description: "Administrative tasks"},
	{Name: "Training", Color: "#10B981", Category: "type", Description: "Training activities"},
	{Name: "Equipment", Color: "#8B5CF6", Category: "type", Description: "Equipment setup and configuration"},
	{Name: "HR", Color: "#EC4899", Category: "department", Description: "Human Resources tasks"},
}

// TagStore owns the tag catalog.
type TagStore struct {
	observable

	mu   sync.RWMutex
	tags []Tag
	now  Clock
}

func NewTagStore() *TagStore {
	s := &TagStore{now: time.Now}
	for _, in := range defaultTags {
		s.tags = append(s.tags, s.newTag(in))
	}
	return s
}

func (s *TagStore) newTag(in TagInput) Tag {
	return Tag{
		ID:          newID(),
		Name:        in.Name,
		Color:       in.Color,
		Category:    in.Category,
		Description: in.Description,
		CreatedAt:   s.now(),
	}
}

// AddTag inserts a tag and returns its id. Names are not de-duplicated here.
func (s *TagStore) AddTag(in TagInput) string {
	s.mu.Lock()
	tag := s.newTag(in)
	s.tags = append(s.tags, tag)
	s.mu.Unlock()

	s.emit("tags", "created", tag.ID)
	return tag.ID
}

func (s *TagStore) UpdateTag(id string, patch TagPatch) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	t := s.tags[i]
	if patch.Name != nil {
		t.Name = *patch.Name
	}
	if patch.Color != nil {
		t.Color = *patch.Color
	}
	if patch.Category != nil {
		t.Category = *patch.Category
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	s.tags[i] = t
	s.mu.Unlock()

	s.emit("tags", "updated", id)
}

func (s *TagStore) DeleteTag(id string) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.tags = append(s.tags[:i], s.tags[i+1:]...)
	s.mu.Unlock()

	s.emit("tags", "deleted", id)
}

func (s *TagStore) IncrementUsage(id string) {
	s.adjustUsage(id, 1)
}

// DecrementUsage never takes the counter below zero.
func (s *TagStore) DecrementUsage(id string) {
	s.adjustUsage(id, -1)
}

func (s *TagStore) adjustUsage(id string, delta int) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.tags[i].UsageCount += delta
	if s.tags[i].UsageCount < 0 {
		s.tags[i].UsageCount = 0
	}
	s.mu.Unlock()

	s.emit("tags", "usage", id)
}

// renameByName rewrites every catalog entry called old. The workspace calls it
// as part of a global tag rename.
func (s *TagStore) renameByName(old, name string) {
	s.mu.Lock()
	changed := false
	for i := range s.tags {
		if s.tags[i].Name == old {
			s.tags[i].Name = name
			changed = true
		}
	}
	s.mu.Unlock()
	if changed {
		s.emit("tags", "renamed", "")
	}
}

func (s *TagStore) deleteByName(name string) {
	s.mu.Lock()
	kept := s.tags[:0]
	for _, t := range s.tags {
		if t.Name != name {
			kept = append(kept, t)
		}
	}
	changed := len(kept) != len(s.tags)
	s.tags = kept
	s.mu.Unlock()
	if changed {
		s.emit("tags", "deleted", "")
	}
}

func (s *TagStore) Tags() []Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Tag(nil), s.tags...)
}

func (s *TagStore) Tag(id string) (Tag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.tags[i], true
	}
	return Tag{}, false
}

// HasName reports whether a tag with this name exists, ignoring case.
func (s *TagStore) HasName(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tags {
		if strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

func (s *TagStore) TagsByCategory(category string) []Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Tag
	for _, t := range s.tags {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// MostUsed returns up to limit tags ordered by usage, highest first.
func (s *TagStore) MostUsed(limit int) []Tag {
	tags := s.Tags()
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].UsageCount > tags[j].UsageCount
	})
	if limit >= 0 && len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}

// Search matches query against name, description and category.
func (s *TagStore) Search(query string) []Tag {
	q := strings.ToLower(query)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Tag
	for _, t := range s.tags {
		if strings.Contains(strings.ToLower(t.Name), q) ||
			strings.Contains(strings.ToLower(t.Description), q) ||
			strings.Contains(strings.ToLower(t.Category), q) {
			out = append(out, t)
		}
	}
	return out
}

func (s *TagStore) indexOf(id string) int {
	for i := range s.tags {
		if s.tags[i].ID == id {
			return i
		}
	}
	return -1
}

type tagSnapshot struct {
	Tags []Tag `json:"tags"`
}

func (s *TagStore) snapshotKey() string  { return "onboard-buddy-tags" }
func (s *TagStore) snapshotVersion() int { return 1 }

func (s *TagStore) snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(tagSnapshot{Tags: s.tags})
}

// restore has no layout changes to migrate; version 0 and 1 share a shape.
func (s *TagStore) restore(data []byte, version int) error {
	var snap tagSnapshot
	if err := decodeSnapshot(data, &snap); err != nil {
		return err
	}
	if snap.Tags == nil {
		return nil
	}
	s.mu.Lock()
	s.tags = snap.Tags
	s.mu.Unlock()
	return nil
}
