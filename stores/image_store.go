package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultWelcomeBackground = "https://cameronstewart.click/onboardingbuddy/onboarding-buddy-cover-image.jpg"
	OrphanImageAge           = 7 * 24 * time.Hour
)

// ObjectDeleter removes a stored object and waits for the outcome.
type ObjectDeleter interface {
	Delete(ctx context.Context, path string) error
}

type UploadedImage struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// ImagePreferences is the image state of one account.
type ImagePreferences struct {
	ProfilePhoto          string          `json:"profile_photo,omitempty"`
	ProfilePhotoPath      string          `json:"profile_photo_path,omitempty"`
	WelcomeBackground     string          `json:"welcome_background"`
	WelcomeBackgroundPath string          `json:"welcome_background_path,omitempty"`
	UploadedImages        []UploadedImage `json:"uploaded_images"`
}

type ImageStore struct {
	observable

	mu    sync.RWMutex
	prefs ImagePreferences

	cleaner ImageCleaner
	now     Clock
}

func NewImageStore(cleaner ImageCleaner) *ImageStore {
	return &ImageStore{
		prefs:   ImagePreferences{WelcomeBackground: DefaultWelcomeBackground, UploadedImages: []UploadedImage{}},
		cleaner: cleaner,
		now:     time.Now,
	}
}

// SetProfilePhoto replaces the profile photo. The superseded object is handed
// to the cleanup queue.
func (s *ImageStore) SetProfilePhoto(url, path string) {
	s.mu.Lock()
	old := s.prefs.ProfilePhotoPath
	if old != "" && url != s.prefs.ProfilePhoto {
		s.enqueue(old)
	}
	s.prefs.ProfilePhoto = url
	s.prefs.ProfilePhotoPath = path
	s.mu.Unlock()

	s.emit("images", "profile_photo", "")
}

// SetWelcomeBackground replaces the welcome background; an empty url restores
// the default.
func (s *ImageStore) SetWelcomeBackground(url, path string) {
	s.mu.Lock()
	old := s.prefs.WelcomeBackgroundPath
	if old != "" && url != s.prefs.WelcomeBackground {
		s.enqueue(old)
	}
	if url == "" {
		url = DefaultWelcomeBackground
	}
	s.prefs.WelcomeBackground = url
	s.prefs.WelcomeBackgroundPath = path
	s.mu.Unlock()

	s.emit("images", "welcome_background", "")
}

func (s *ImageStore) enqueue(path string) {
	if s.cleaner != nil {
		s.cleaner.Enqueue(path)
	}
}

func (s *ImageStore) AddUploadedImage(id, url, path string) UploadedImage {
	img := UploadedImage{ID: id, URL: url, Path: path, CreatedAt: s.now()}
	s.mu.Lock()
	s.prefs.UploadedImages = append(s.prefs.UploadedImages, img)
	s.mu.Unlock()

	s.emit("images", "uploaded", id)
	return img
}

// RemoveUploadedImage deletes the object from storage first and only forgets
// the image once that succeeded. Unknown ids are ignored.
func (s *ImageStore) RemoveUploadedImage(ctx context.Context, storage ObjectDeleter, id string) error {
	s.mu.RLock()
	var img *UploadedImage
	for i := range s.prefs.UploadedImages {
		if s.prefs.UploadedImages[i].ID == id {
			found := s.prefs.UploadedImages[i]
			img = &found
			break
		}
	}
	s.mu.RUnlock()
	if img == nil {
		return nil
	}

	if err := storage.Delete(ctx, img.Path); err != nil {
		return fmt.Errorf("delete image %s: %w", img.Path, err)
	}

	s.mu.Lock()
	s.prefs.UploadedImages = withoutImages(s.prefs.UploadedImages, func(u UploadedImage) bool { return u.ID == id })
	s.mu.Unlock()

	s.emit("images", "removed", id)
	return nil
}

// CleanupOrphanedImages deletes uploads older than a week that nothing
// references. inUse lists paths held elsewhere (gallery items); the profile
// photo and welcome background always count as referenced. Failed deletes are
// reported to onError and skipped; every orphan is dropped from the registry
// either way. It returns the number of objects deleted.
func (s *ImageStore) CleanupOrphanedImages(ctx context.Context, storage ObjectDeleter, inUse []string, onError func(path string, err error)) int {
	cutoff := s.now().Add(-OrphanImageAge)

	s.mu.RLock()
	referenced := make(map[string]bool, len(inUse)+2)
	for _, p := range inUse {
		referenced[p] = true
	}
	for _, p := range []string{s.prefs.ProfilePhotoPath, s.prefs.WelcomeBackgroundPath} {
		if p != "" {
			referenced[p] = true
		}
	}
	orphan := func(img UploadedImage) bool {
		return img.CreatedAt.Before(cutoff) && !referenced[img.Path]
	}
	var old []UploadedImage
	for _, img := range s.prefs.UploadedImages {
		if orphan(img) {
			old = append(old, img)
		}
	}
	s.mu.RUnlock()
	if len(old) == 0 {
		return 0
	}

	deleted := 0
	for _, img := range old {
		if err := storage.Delete(ctx, img.Path); err != nil {
			if onError != nil {
				onError(img.Path, err)
			}
			continue
		}
		deleted++
	}

	s.mu.Lock()
	s.prefs.UploadedImages = withoutImages(s.prefs.UploadedImages, orphan)
	s.mu.Unlock()

	s.emit("images", "cleanup", "")
	return deleted
}

func withoutImages(images []UploadedImage, drop func(UploadedImage) bool) []UploadedImage {
	out := make([]UploadedImage, 0, len(images))
	for _, img := range images {
		if !drop(img) {
			out = append(out, img)
		}
	}
	return out
}

func (s *ImageStore) Preferences() ImagePreferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.prefs
	p.UploadedImages = append([]UploadedImage(nil), s.prefs.UploadedImages...)
	return p
}

func (s *ImageStore) snapshotKey() string  { return "onboard-buddy-images" }
func (s *ImageStore) snapshotVersion() int { return 2 }

func (s *ImageStore) snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.prefs)
}

// restore forgets storage paths written before version 2, since those were
// never tracked reliably.
func (s *ImageStore) restore(data []byte, version int) error {
	var p ImagePreferences
	if err := decodeSnapshot(data, &p); err != nil {
		return err
	}
	if version < 2 {
		p.ProfilePhotoPath = ""
		p.WelcomeBackgroundPath = ""
	}
	if p.WelcomeBackground == "" {
		p.WelcomeBackground = DefaultWelcomeBackground
	}
	if p.UploadedImages == nil {
		p.UploadedImages = []UploadedImage{}
	}
	s.mu.Lock()
	s.prefs = p
	s.mu.Unlock()
	return nil
}
