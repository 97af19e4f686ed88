package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeleter struct {
	deleted []string
	fail    map[string]bool
}

func (f *fakeDeleter) Delete(_ context.Context, path string) error {
	if f.fail[path] {
		return errors.New("storage unavailable")
	}
	f.deleted = append(f.deleted, path)
	return nil
}

func TestProfilePhotoReplacementQueuesOldPath(t *testing.T) {
	q := &queueRecorder{}
	s := NewImageStore(q)

	s.SetProfilePhoto("https://cdn/a.jpg", "u1/a.jpg")
	assert.Empty(t, q.paths)
	s.SetProfilePhoto("https://cdn/b.jpg", "u1/b.jpg")
	assert.Equal(t, []string{"u1/a.jpg"}, q.paths)

	s.SetWelcomeBackground("https://cdn/bg.jpg", "u1/bg.jpg")
	s.SetWelcomeBackground("", "")
	assert.Equal(t, []string{"u1/a.jpg", "u1/bg.jpg"}, q.paths)
	assert.Equal(t, DefaultWelcomeBackground, s.Preferences().WelcomeBackground)
}

func TestRemoveUploadedImageWaitsForStorage(t *testing.T) {
	s := NewImageStore(nil)
	s.AddUploadedImage("img1", "https://cdn/1.jpg", "u1/1.jpg")
	storage := &fakeDeleter{fail: map[string]bool{"u1/1.jpg": true}}

	err := s.RemoveUploadedImage(context.Background(), storage, "img1")
	require.Error(t, err)
	assert.Len(t, s.Preferences().UploadedImages, 1, "a failed delete keeps the image")

	storage.fail = nil
	require.NoError(t, s.RemoveUploadedImage(context.Background(), storage, "img1"))
	assert.Empty(t, s.Preferences().UploadedImages)
	assert.NoError(t, s.RemoveUploadedImage(context.Background(), storage, "unknown"))
}

func TestCleanupOrphanedImages(t *testing.T) {
	clock := &manualClock{t: fixedNow}
	s := NewImageStore(nil)
	s.now = clock.now

	s.AddUploadedImage("old1", "u", "u1/old1.jpg")
	s.AddUploadedImage("old2", "u", "u1/old2.jpg")
	clock.advance(6 * 24 * time.Hour)
	s.AddUploadedImage("fresh", "u", "u1/fresh.jpg")
	clock.advance(2 * 24 * time.Hour)

	storage := &fakeDeleter{fail: map[string]bool{"u1/old2.jpg": true}}
	var failed []string
	n := s.CleanupOrphanedImages(context.Background(), storage, nil, func(path string, _ error) { failed = append(failed, path) })

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"u1/old1.jpg"}, storage.deleted)
	assert.Equal(t, []string{"u1/old2.jpg"}, failed)
	remaining := s.Preferences().UploadedImages
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].ID)
}

func TestImageRestoreDropsLegacyPaths(t *testing.T) {
	s := NewImageStore(nil)
	require.NoError(t, s.restore([]byte(`{"profile_photo":"p","profile_photo_path":"x"}`), 1))

	prefs := s.Preferences()
	assert.Equal(t, "p", prefs.ProfilePhoto)
	assert.Empty(t, prefs.ProfilePhotoPath)
	assert.Equal(t, DefaultWelcomeBackground, prefs.WelcomeBackground)
}

func TestCleanupKeepsReferencedUploads(t *testing.T) {
	clock := &manualClock{t: fixedNow}
	s := NewImageStore(nil)
	s.now = clock.now

	s.AddUploadedImage("avatar", "https://cdn/avatar.jpg", "u1/avatar.jpg")
	s.AddUploadedImage("item", "https://cdn/item.jpg", "u1/item.jpg")
	s.AddUploadedImage("stale", "https://cdn/stale.jpg", "u1/stale.jpg")
	s.SetProfilePhoto("https://cdn/avatar.jpg", "u1/avatar.jpg")
	clock.advance(8 * 24 * time.Hour)

	storage := &fakeDeleter{}
	n := s.CleanupOrphanedImages(context.Background(), storage, []string{"u1/item.jpg"}, nil)

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"u1/stale.jpg"}, storage.deleted)
	var kept []string
	for _, img := range s.Preferences().UploadedImages {
		kept = append(kept, img.ID)
	}
	assert.Equal(t, []string{"avatar", "item"}, kept)
}
