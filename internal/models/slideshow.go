package models

import "time"

// SlideshowType distinguishes file-backed presentations from embedded pages
type SlideshowType string

const (
	SlideshowTypeFile SlideshowType = "file"
	SlideshowTypeURL  SlideshowType = "url"
)

// SlideshowState represents the current slideshow configuration and runtime state
type SlideshowState struct {
	IsActive        bool          `json:"is_active"`
	Type            SlideshowType `json:"type"`
	Source          string        `json:"source,omitempty"`
	FileURL         string        `json:"file_url,omitempty"`
	FileName        string        `json:"file_name,omitempty"`
	StoredPath      string        `json:"-"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	IntervalSeconds int           `json:"interval_seconds"`
}

// SlideList is the response shape of the slides endpoint consumed by displays
type SlideList struct {
	Slides []string `json:"slides"`
}
