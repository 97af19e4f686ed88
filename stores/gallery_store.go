package stores

import (
	"encoding/json"
	"sync"
	"time"
)

type ItemType string

const (
	ItemPhoto ItemType = "photo"
	ItemNote  ItemType = "note"
)

type Permissions struct {
	Public        bool `json:"public"`
	Editable      bool `json:"editable"`
	AllowComments bool `json:"allow_comments"`
}

// PermissionsInput overrides individual default permissions.
type PermissionsInput struct {
	Public        *bool `json:"public"`
	Editable      *bool `json:"editable"`
	AllowComments *bool `json:"allow_comments"`
}

func (p *PermissionsInput) apply(base Permissions) Permissions {
	if p == nil {
		return base
	}
	if p.Public != nil {
		base.Public = *p.Public
	}
	if p.Editable != nil {
		base.Editable = *p.Editable
	}
	if p.AllowComments != nil {
		base.AllowComments = *p.AllowComments
	}
	return base
}

var defaultPermissions = Permissions{Public: false, Editable: true, AllowComments: true}

type ItemMetadata struct {
	Camera       string `json:"camera,omitempty"`
	Settings     string `json:"settings,omitempty"`
	Photographer string `json:"photographer,omitempty"`
}

// GalleryItem is a photo or note. Tags holds tag names, not tag ids.
type GalleryItem struct {
	ID          string        `json:"id"`
	Type        ItemType      `json:"type"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Content     string        `json:"content"`
	Location    string        `json:"location,omitempty"`
	Date        string        `json:"date"`
	Tags        []string      `json:"tags"`
	ImageURL    string        `json:"image_url,omitempty"`
	ImagePath   string        `json:"image_path,omitempty"`
	AltText     string        `json:"alt_text,omitempty"`
	Metadata    *ItemMetadata `json:"metadata,omitempty"`
	Permissions Permissions   `json:"permissions"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (it GalleryItem) hasTag(tag string) bool {
	for _, t := range it.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type GalleryItemInput struct {
	Type        ItemType          `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Content     string            `json:"content"`
	Location    string            `json:"location"`
	Date        string            `json:"date"`
	Tags        []string          `json:"tags"`
	ImageURL    string            `json:"image_url"`
	ImagePath   string            `json:"image_path"`
	AltText     string            `json:"alt_text"`
	Metadata    *ItemMetadata     `json:"metadata"`
	Permissions *PermissionsInput `json:"permissions"`
}

type GalleryItemPatch struct {
	Type        *ItemType         `json:"type"`
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Content     *string           `json:"content"`
	Location    *string           `json:"location"`
	Date        *string           `json:"date"`
	Tags        *[]string         `json:"tags"`
	ImageURL    *string           `json:"image_url"`
	ImagePath   *string           `json:"image_path"`
	AltText     *string           `json:"alt_text"`
	Metadata    *ItemMetadata     `json:"metadata"`
	Permissions *PermissionsInput `json:"permissions"`
}

// ImageCleaner accepts storage paths for best-effort background deletion.
type ImageCleaner interface {
	Enqueue(path string)
}

// TagCounter is the read-only view of the gallery the mission engine uses.
type TagCounter interface {
	CountTag(tag string) int
}

var initialGalleryTags = []string{"acronym", "important", "follow-up", "question", "team"}

// GalleryStore is the source of truth for which tags are attached to which content.
type GalleryStore struct {
	observable

	mu    sync.RWMutex
	items []GalleryItem
	tags  []string

	cleaner   ImageCleaner
	recompute func()
	now       Clock
}

func NewGalleryStore(cleaner ImageCleaner) *GalleryStore {
	return &GalleryStore{
		tags:    append([]string(nil), initialGalleryTags...),
		cleaner: cleaner,
		now:     time.Now,
	}
}

// OnTagsChanged registers the hook run after every mutation that can change
// tag counts. The hook runs without the gallery lock held.
func (s *GalleryStore) OnTagsChanged(fn func()) {
	s.mu.Lock()
	s.recompute = fn
	s.mu.Unlock()
}

func (s *GalleryStore) tagsChanged() {
	s.mu.RLock()
	fn := s.recompute
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (s *GalleryStore) AddItem(in GalleryItemInput) GalleryItem {
	now := s.now()
	item := GalleryItem{
		ID:          newID(),
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		Location:    in.Location,
		Date:        in.Date,
		Tags:        uniqueTags(in.Tags),
		ImageURL:    in.ImageURL,
		ImagePath:   in.ImagePath,
		AltText:     in.AltText,
		Metadata:    in.Metadata,
		Permissions: in.Permissions.apply(defaultPermissions),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()

	s.emit("gallery", "created", item.ID)
	s.tagsChanged()
	return item
}

// UpdateItem merges patch into the item. Unknown ids are ignored. Replacing the
// image queues the superseded object for deletion.
func (s *GalleryStore) UpdateItem(id string, patch GalleryItemPatch) (GalleryItem, bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return GalleryItem{}, false
	}
	item := s.items[i]
	var stale string
	if patch.ImageURL != nil && *patch.ImageURL != item.ImageURL && item.ImagePath != "" {
		stale = item.ImagePath
		item.ImagePath = ""
	}
	applyGalleryPatch(&item, patch)
	item.UpdatedAt = s.now()
	s.items[i] = item
	s.mu.Unlock()

	if stale != "" && s.cleaner != nil {
		s.cleaner.Enqueue(stale)
	}
	s.emit("gallery", "updated", id)
	s.tagsChanged()
	return item, true
}

func applyGalleryPatch(item *GalleryItem, p GalleryItemPatch) {
	if p.Type != nil {
		item.Type = *p.Type
	}
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Content != nil {
		item.Content = *p.Content
	}
	if p.Location != nil {
		item.Location = *p.Location
	}
	if p.Date != nil {
		item.Date = *p.Date
	}
	if p.Tags != nil {
		item.Tags = uniqueTags(*p.Tags)
	}
	if p.ImageURL != nil {
		item.ImageURL = *p.ImageURL
	}
	if p.ImagePath != nil {
		item.ImagePath = *p.ImagePath
	}
	if p.AltText != nil {
		item.AltText = *p.AltText
	}
	if p.Metadata != nil {
		item.Metadata = p.Metadata
	}
	if p.Permissions != nil {
		item.Permissions = p.Permissions.apply(item.Permissions)
	}
}

// DeleteItem removes the item and queues its image for deletion. Unknown ids are ignored.
func (s *GalleryStore) DeleteItem(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	path := s.items[i].ImagePath
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.mu.Unlock()

	if path != "" && s.cleaner != nil {
		s.cleaner.Enqueue(path)
	}
	s.emit("gallery", "deleted", id)
	s.tagsChanged()
	return true
}

// ReorderItems puts the listed ids first, in the given order; the rest keep
// their relative order after them.
func (s *GalleryStore) ReorderItems(ids []string) {
	s.mu.Lock()
	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := pos[id]; !dup {
			pos[id] = i
		}
	}
	ordered := make([]GalleryItem, len(ids))
	placed := make([]bool, len(ids))
	var rest []GalleryItem
	for _, it := range s.items {
		if p, ok := pos[it.ID]; ok {
			ordered[p] = it
			placed[p] = true
			continue
		}
		rest = append(rest, it)
	}
	out := make([]GalleryItem, 0, len(s.items))
	for i, it := range ordered {
		if placed[i] {
			out = append(out, it)
		}
	}
	s.items = append(out, rest...)
	s.mu.Unlock()

	s.emit("gallery", "reordered", "")
}

// AddTag extends the gallery's tag vocabulary.
func (s *GalleryStore) AddTag(tag string) {
	s.mu.Lock()
	for _, t := range s.tags {
		if t == tag {
			s.mu.Unlock()
			return
		}
	}
	s.tags = append(s.tags, tag)
	s.mu.Unlock()

	s.emit("gallery", "tag_added", tag)
}

// RenameTag rewrites the tag on every item and in the vocabulary.
func (s *GalleryStore) RenameTag(old, name string) {
	s.renameTag(old, name)
	s.tagsChanged()
}

// DeleteTag strips the tag from every item and from the vocabulary.
func (s *GalleryStore) DeleteTag(tag string) {
	s.deleteTag(tag)
	s.tagsChanged()
}

func (s *GalleryStore) renameTag(old, name string) {
	s.mu.Lock()
	for i, t := range s.tags {
		if t == old {
			s.tags[i] = name
		}
	}
	s.tags = uniqueTags(s.tags)
	for i := range s.items {
		if !s.items[i].hasTag(old) {
			continue
		}
		tags := make([]string, len(s.items[i].Tags))
		for j, t := range s.items[i].Tags {
			if t == old {
				t = name
			}
			tags[j] = t
		}
		s.items[i].Tags = uniqueTags(tags)
	}
	s.mu.Unlock()

	s.emit("gallery", "tag_renamed", name)
}

func (s *GalleryStore) deleteTag(tag string) {
	s.mu.Lock()
	s.tags = without(s.tags, tag)
	for i := range s.items {
		if s.items[i].hasTag(tag) {
			s.items[i].Tags = without(s.items[i].Tags, tag)
		}
	}
	s.mu.Unlock()

	s.emit("gallery", "tag_deleted", tag)
}

// CountTag returns how many items carry tag. Each item counts at most once.
func (s *GalleryStore) CountTag(tag string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, it := range s.items {
		if it.hasTag(tag) {
			n++
		}
	}
	return n
}

func (s *GalleryStore) Items() []GalleryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]GalleryItem, len(s.items))
	for i, it := range s.items {
		it.Tags = append([]string{}, it.Tags...)
		out[i] = it
	}
	return out
}

func (s *GalleryStore) Item(id string) (GalleryItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		it := s.items[i]
		it.Tags = append([]string{}, it.Tags...)
		return it, true
	}
	return GalleryItem{}, false
}

// Vocabulary returns the gallery's known tag names.
func (s *GalleryStore) Vocabulary() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.tags...)
}

// ActiveImagePaths lists the storage paths still referenced by items.
func (s *GalleryStore) ActiveImagePaths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var paths []string
	for _, it := range s.items {
		if it.ImagePath != "" {
			paths = append(paths, it.ImagePath)
		}
	}
	return paths
}

func (s *GalleryStore) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func uniqueTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func without(tags []string, tag string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

type gallerySnapshot struct {
	Items []GalleryItem `json:"items"`
	Tags  []string      `json:"tags"`
}

func (s *GalleryStore) snapshotKey() string  { return "onboard-buddy-gallery" }
func (s *GalleryStore) snapshotVersion() int { return 2 }

func (s *GalleryStore) snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(gallerySnapshot{Items: s.items, Tags: s.tags})
}

// restore migrates version 0/1 snapshots, which predate storage paths: any
// path field present is dropped because it never referred to managed storage.
func (s *GalleryStore) restore(data []byte, version int) error {
	var snap gallerySnapshot
	if err := decodeSnapshot(data, &snap); err != nil {
		return err
	}
	if version < 2 {
		for i := range snap.Items {
			snap.Items[i].ImagePath = ""
		}
		if snap.Tags == nil {
			snap.Tags = append([]string(nil), initialGalleryTags...)
		}
	}
	for i := range snap.Items {
		snap.Items[i].Tags = uniqueTags(snap.Items[i].Tags)
	}

	s.mu.Lock()
	s.items = snap.Items
	if snap.Tags != nil {
		s.tags = snap.Tags
	}
	s.mu.Unlock()
	return nil
}
