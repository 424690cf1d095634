package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobbycast/internal/models"
	"lobbycast/internal/player"
)

func newTestSlideshowService(t *testing.T) (*SlideshowService, *UploadStore, *Converter) {
	t.Helper()
	database := newTestDB(t)
	uploads, err := NewUploadStore(database, t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	converter, err := NewConverter(filepath.Join(uploads.UploadDir(), "slideshow", "slides"), "", "", 110)
	require.NoError(t, err)
	return NewSlideshowService(NewConfigStore(database), uploads, converter), uploads, converter
}

func TestSlideshowDefaults(t *testing.T) {
	ss, _, _ := newTestSlideshowService(t)

	state := ss.State()
	assert.False(t, state.IsActive)
	assert.Equal(t, models.SlideshowTypeFile, state.Type)
	assert.Equal(t, player.DefaultIntervalSeconds, state.IntervalSeconds)
	assert.Nil(t, state.StartedAt)
}

func TestSetEmbedURLValidation(t *testing.T) {
	ss, _, _ := newTestSlideshowService(t)

	assert.Error(t, ss.SetEmbedURL("", "admin"))
	assert.Error(t, ss.SetEmbedURL("   ", "admin"))
	assert.Error(t, ss.SetEmbedURL("ftp://example.com/deck", "admin"))
	assert.Error(t, ss.SetEmbedURL("not a url", "admin"))

	require.NoError(t, ss.SetEmbedURL("https://docs.example.com/embed?id=1", "admin"))
	state := ss.State()
	assert.Equal(t, models.SlideshowTypeURL, state.Type)
	assert.Equal(t, "https://docs.example.com/embed?id=1", state.Source)
	assert.Empty(t, state.FileURL)
}

func TestStartRequiresPresentation(t *testing.T) {
	ss, _, _ := newTestSlideshowService(t)

	_, err := ss.Start(nil)
	assert.ErrorContains(t, err, "no presentation set")
}

func TestStartClampsInterval(t *testing.T) {
	ss, _, _ := newTestSlideshowService(t)
	require.NoError(t, ss.SetEmbedURL("https://example.com/deck", "admin"))

	tests := []struct {
		interval any
		want     int
	}{
		{nil, player.DefaultIntervalSeconds},
		{float64(10), 10},
		{float64(0), 1},
		{float64(-3), 1},
		{float64(1000), 300},
		{"15", 15},
		{"garbage", player.DefaultIntervalSeconds},
	}
	for _, tt := range tests {
		state, err := ss.Start(tt.interval)
		require.NoError(t, err)
		assert.Equal(t, tt.want, state.IntervalSeconds, "interval %v", tt.interval)
		assert.True(t, state.IsActive)
		assert.NotNil(t, state.StartedAt)
	}
}

func TestStopKeepsPresentation(t *testing.T) {
	ss, _, _ := newTestSlideshowService(t)
	require.NoError(t, ss.SetEmbedURL("https://example.com/deck", "admin"))

	_, err := ss.Start(float64(10))
	require.NoError(t, err)

	state := ss.Stop()
	assert.False(t, state.IsActive)
	assert.Nil(t, state.StartedAt)
	assert.Equal(t, "https://example.com/deck", state.Source)
	assert.Equal(t, 10, state.IntervalSeconds)
}

func TestSetFilePersistsAcrossRestart(t *testing.T) {
	database := newTestDB(t)
	uploads, err := NewUploadStore(database, t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	converter, err := NewConverter(filepath.Join(uploads.UploadDir(), "slideshow", "slides"), "", "", 110)
	require.NoError(t, err)
	configs := NewConfigStore(database)

	ss := NewSlideshowService(configs, uploads, converter)
	record, err := uploads.Save(strings.NewReader("deck"), "town-hall.pdf", "slideshow", models.FileTypeSlideshow, "admin")
	require.NoError(t, err)
	require.NoError(t, ss.SetFile(record))

	// A fresh service over the same stores sees the persisted presentation
	restarted := NewSlideshowService(configs, uploads, converter)
	state := restarted.State()
	assert.Equal(t, models.SlideshowTypeFile, state.Type)
	assert.Equal(t, record.StorageURL, state.FileURL)
	assert.Equal(t, "town-hall.pdf", state.FileName)
}

func TestLoadFallsBackToLatestUpload(t *testing.T) {
	database := newTestDB(t)
	uploads, err := NewUploadStore(database, t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	converter, err := NewConverter(filepath.Join(uploads.UploadDir(), "slideshow", "slides"), "", "", 110)
	require.NoError(t, err)

	record, err := uploads.Save(strings.NewReader("deck"), "recovered.pdf", "slideshow", models.FileTypeSlideshow, "admin")
	require.NoError(t, err)

	// No config rows at all; the upload table is the only trace
	ss := NewSlideshowService(NewConfigStore(database), uploads, converter)
	state := ss.State()
	assert.Equal(t, record.StorageURL, state.FileURL)
	assert.Equal(t, "recovered.pdf", state.FileName)
}

func TestDeleteFileIsIdempotent(t *testing.T) {
	ss, uploads, _ := newTestSlideshowService(t)

	record, err := uploads.Save(strings.NewReader("deck"), "gone.pdf", "slideshow", models.FileTypeSlideshow, "admin")
	require.NoError(t, err)
	require.NoError(t, ss.SetFile(record))

	require.NoError(t, ss.DeleteFile())
	state := ss.State()
	assert.Empty(t, state.FileURL)
	assert.Empty(t, state.FileName)
	assert.Empty(t, state.Source)

	require.NoError(t, ss.DeleteFile())
}

func TestSlidesWithoutFile(t *testing.T) {
	ss, _, _ := newTestSlideshowService(t)

	_, err := ss.Slides(context.Background())
	assert.ErrorContains(t, err, "no presentation file uploaded")
}

func TestFetchSlidesWrapsProviderError(t *testing.T) {
	ss, _, _ := newTestSlideshowService(t)

	_, err := ss.FetchSlides(context.Background(), "")
	require.Error(t, err)

	var provErr *player.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Contains(t, provErr.Detail, "no presentation file uploaded")
}
