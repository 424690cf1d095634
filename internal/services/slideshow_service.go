package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"lobbycast/internal/models"
	"lobbycast/internal/player"
)

// Config keys the slideshow persists so a restart resumes the same presentation
const (
	configKeySlideshowFileURL    = "slideshow_file_url"
	configKeySlideshowFileName   = "slideshow_file_name"
	configKeySlideshowStoredPath = "slideshow_stored_path"
	configKeySlideshowType       = "slideshow_type"
	configKeySlideshowEmbedURL   = "slideshow_embed_url"
)

var slideshowConfigKeys = []string{
	configKeySlideshowFileURL,
	configKeySlideshowFileName,
	configKeySlideshowStoredPath,
	configKeySlideshowType,
	configKeySlideshowEmbedURL,
}

// SlideshowService manages the slideshow configuration and runtime state.
// is_active and started_at are in-memory only; the presentation source is
// persisted through the config store and survives restarts.
type SlideshowService struct {
	mu        sync.Mutex
	state     models.SlideshowState
	loaded    bool
	configs   *ConfigStore
	uploads   *UploadStore
	converter *Converter
}

// NewSlideshowService creates a new slideshow service
func NewSlideshowService(configs *ConfigStore, uploads *UploadStore, converter *Converter) *SlideshowService {
	return &SlideshowService{
		state: models.SlideshowState{
			Type:            models.SlideshowTypeFile,
			IntervalSeconds: player.DefaultIntervalSeconds,
		},
		configs:   configs,
		uploads:   uploads,
		converter: converter,
	}
}

// loadLocked restores the persisted presentation source: config keys first,
// then the most recent slideshow upload as a fallback
func (ss *SlideshowService) loadLocked() {
	if ss.loaded {
		return
	}
	ss.loaded = true

	fileURL := ss.configs.Get(configKeySlideshowFileURL)
	fileName := ss.configs.Get(configKeySlideshowFileName)
	storedPath := ss.configs.Get(configKeySlideshowStoredPath)
	typ := ss.configs.Get(configKeySlideshowType)
	embed := ss.configs.Get(configKeySlideshowEmbedURL)

	switch {
	case fileURL != "" && fileName != "":
		ss.state.Type = models.SlideshowTypeFile
		ss.state.Source = fileURL
		ss.state.FileURL = fileURL
		ss.state.FileName = fileName
		ss.state.StoredPath = storedPath
	case typ == string(models.SlideshowTypeURL) && embed != "":
		ss.state.Type = models.SlideshowTypeURL
		ss.state.Source = embed
		ss.state.FileURL = ""
		ss.state.FileName = ""
		ss.state.StoredPath = ""
	default:
		last, err := ss.uploads.LatestByType(models.FileTypeSlideshow)
		if err != nil {
			log.Printf("Failed to load last slideshow upload: %v", err)
			return
		}
		if last != nil {
			ss.state.Type = models.SlideshowTypeFile
			ss.state.Source = last.StorageURL
			ss.state.FileURL = last.StorageURL
			ss.state.FileName = last.OriginalFilename
			ss.state.StoredPath = last.StoredPath
		}
	}
}

// SetFile makes an uploaded document the current presentation and persists it.
// The slideshow is not activated; Start does that.
func (ss *SlideshowService) SetFile(record *models.FileUpload) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.loadLocked()

	ss.state.Type = models.SlideshowTypeFile
	ss.state.Source = record.StorageURL
	ss.state.FileURL = record.StorageURL
	ss.state.FileName = record.OriginalFilename
	ss.state.StoredPath = record.StoredPath

	return ss.configs.SetAll(map[string]string{
		configKeySlideshowFileURL:    record.StorageURL,
		configKeySlideshowFileName:   record.OriginalFilename,
		configKeySlideshowStoredPath: record.StoredPath,
		configKeySlideshowType:       string(models.SlideshowTypeFile),
		configKeySlideshowEmbedURL:   "",
	}, record.UploadedBy)
}

// SetEmbedURL makes an external embed page the current presentation
func (ss *SlideshowService) SetEmbedURL(embedURL, updatedBy string) error {
	embedURL = strings.TrimSpace(embedURL)
	if embedURL == "" {
		return fmt.Errorf("embed_url is required")
	}
	if !isHTTPURL(embedURL) {
		return fmt.Errorf("invalid URL: must be a valid http or https URL")
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.loadLocked()

	ss.state.Type = models.SlideshowTypeURL
	ss.state.Source = embedURL
	ss.state.FileURL = ""
	ss.state.FileName = ""
	ss.state.StoredPath = ""

	return ss.configs.SetAll(map[string]string{
		configKeySlideshowFileURL:    "",
		configKeySlideshowFileName:   "",
		configKeySlideshowStoredPath: "",
		configKeySlideshowType:       string(models.SlideshowTypeURL),
		configKeySlideshowEmbedURL:   embedURL,
	}, updatedBy)
}

// Start activates the slideshow. The interval accepts whatever the admin
// console sent and is clamped to [1,300] seconds, defaulting to 5.
func (ss *SlideshowService) Start(intervalSeconds any) (models.SlideshowState, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.loadLocked()

	source := ss.state.Source
	if source == "" {
		source = ss.state.FileURL
	}
	if source == "" {
		return models.SlideshowState{}, fmt.Errorf("no presentation set: upload a file or set an embed URL first")
	}

	if intervalSeconds != nil {
		ss.state.IntervalSeconds = int(player.NormalizeInterval(intervalSeconds) / time.Second)
	}
	now := time.Now()
	ss.state.IsActive = true
	ss.state.StartedAt = &now
	ss.state.Source = source

	log.Printf("Slideshow started: type=%s, interval=%ds", ss.state.Type, ss.state.IntervalSeconds)
	return ss.state, nil
}

// Stop deactivates the slideshow; the configured presentation is kept
func (ss *SlideshowService) Stop() models.SlideshowState {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.loadLocked()

	ss.state.IsActive = false
	ss.state.StartedAt = nil

	log.Println("Slideshow stopped")
	return ss.state
}

// State returns the current slideshow state, loading the persisted
// presentation source on first use
func (ss *SlideshowService) State() models.SlideshowState {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.loadLocked()
	return ss.state
}

// DeleteFile removes the current presentation file from disk and all
// persisted slideshow config. Idempotent.
func (ss *SlideshowService) DeleteFile() error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.loadLocked()

	relPath := ss.state.StoredPath
	if relPath == "" {
		relPath = RelativePathFromURL(ss.configs.Get(configKeySlideshowFileURL))
	}
	if relPath != "" {
		if err := ss.uploads.DeletePath(relPath); err != nil {
			return err
		}
	} else {
		// File may have been restored from the upload table fallback
		last, err := ss.uploads.LatestByType(models.FileTypeSlideshow)
		if err == nil && last != nil {
			if err := ss.uploads.Delete(last); err != nil {
				return err
			}
		}
	}

	ss.state.Type = models.SlideshowTypeFile
	ss.state.Source = ""
	ss.state.FileURL = ""
	ss.state.FileName = ""
	ss.state.StoredPath = ""

	cleared := make(map[string]string, len(slideshowConfigKeys))
	for _, key := range slideshowConfigKeys {
		cleared[key] = ""
	}
	return ss.configs.SetAll(cleared, "")
}

// Slides converts the current presentation file and returns the ordered
// public URLs of its slide images
func (ss *SlideshowService) Slides(ctx context.Context) ([]string, error) {
	ss.mu.Lock()
	ss.loadLocked()
	state := ss.state
	ss.mu.Unlock()

	if state.FileURL == "" {
		return nil, fmt.Errorf("no presentation file uploaded")
	}

	relPath := state.StoredPath
	if relPath == "" {
		relPath = RelativePathFromURL(state.FileURL)
	}
	if relPath == "" {
		return nil, fmt.Errorf("presentation file not found")
	}

	names, err := ss.converter.Convert(ctx, ss.uploads.LocalPath(relPath))
	if err != nil {
		return nil, err
	}

	urls := make([]string, len(names))
	for i, name := range names {
		urls[i] = ss.uploads.PublicURL(path.Join("slideshow", "slides", name))
	}
	return urls, nil
}

// FetchSlides satisfies the player's slide fetcher so the kiosk engine can run
// in-process against this provider. The source argument is unused; the
// service always plays the current presentation.
func (ss *SlideshowService) FetchSlides(ctx context.Context, _ string) ([]string, error) {
	slides, err := ss.Slides(ctx)
	if err != nil {
		return nil, &player.ProviderError{Detail: err.Error(), Err: err}
	}
	return slides, nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
