package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"lobbycast/internal/auth"
	"lobbycast/internal/models"
	"lobbycast/internal/services"
)

// SlideshowHandler handles HTTP requests for the slideshow
type SlideshowHandler struct {
	slideshow   *services.SlideshowService
	uploads     *services.UploadStore
	kiosk       *services.KioskService
	authService *auth.Service
	maxUploadMB int64
}

// NewSlideshowHandler creates a new slideshow handler
func NewSlideshowHandler(slideshow *services.SlideshowService, uploads *services.UploadStore, kiosk *services.KioskService, authService *auth.Service, maxUploadMB int64) *SlideshowHandler {
	return &SlideshowHandler{
		slideshow:   slideshow,
		uploads:     uploads,
		kiosk:       kiosk,
		authService: authService,
		maxUploadMB: maxUploadMB,
	}
}

// UploadResponse represents the response to a presentation upload
type UploadResponse struct {
	Message  string `json:"message"`
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
}

// Upload stores a PowerPoint or PDF file as the current presentation
// POST /api/admin/slideshow/upload
func (h *SlideshowHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB<<20)
	if err := r.ParseMultipartForm(h.maxUploadMB << 20); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pptx" && ext != ".ppt" && ext != ".pdf" {
		http.Error(w, "File must be PowerPoint (.pptx, .ppt) or PDF (.pdf)", http.StatusBadRequest)
		return
	}

	uploadedBy := h.authService.SessionEmail(r)
	if uploadedBy == "" {
		uploadedBy = "dev_user"
	}

	record, err := h.uploads.Save(file, header.Filename, "slideshow", models.FileTypeSlideshow, uploadedBy)
	if err != nil {
		log.Printf("Failed to store presentation upload: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.slideshow.SetFile(record); err != nil {
		log.Printf("Failed to persist slideshow file: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Message:  "File uploaded successfully",
		FileURL:  record.StorageURL,
		FileName: record.OriginalFilename,
		FilePath: record.StoredPath,
	})
}

// SetURLRequest represents a request to use an embed URL as the presentation
type SetURLRequest struct {
	EmbedURL string `json:"embed_url"`
}

// SetURL makes an external embed page the current presentation
// POST /api/admin/slideshow/url
func (h *SlideshowHandler) SetURL(w http.ResponseWriter, r *http.Request) {
	var req SetURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.slideshow.SetEmbedURL(req.EmbedURL, h.authService.SessionEmail(r)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Embed URL set successfully",
		"source":  strings.TrimSpace(req.EmbedURL),
		"type":    string(models.SlideshowTypeURL),
	})
}

// StartRequest represents a request to start the slideshow
type StartRequest struct {
	// Decoded loosely so out-of-range or non-numeric intervals can be
	// silently corrected instead of rejected
	IntervalSeconds any `json:"interval_seconds"`
}

// Start activates the slideshow on all displays
// POST /api/admin/slideshow/start
func (h *SlideshowHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if r.Body != nil {
		// An empty body means "use the previous interval"; malformed JSON is rejected
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}

	state, err := h.slideshow.Start(req.IntervalSeconds)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.kiosk.Play(state)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":          "Slideshow started",
		"is_active":        true,
		"type":             state.Type,
		"source":           state.Source,
		"file_url":         state.FileURL,
		"file_name":        state.FileName,
		"interval_seconds": state.IntervalSeconds,
	})
}

// Stop deactivates the slideshow
// POST /api/admin/slideshow/stop
func (h *SlideshowHandler) Stop(w http.ResponseWriter, r *http.Request) {
	state := h.slideshow.Stop()
	h.kiosk.Stop(state)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Slideshow stopped",
		"is_active": false,
	})
}

// DeleteFile removes the persisted presentation file. Always returns 200 so
// the admin console's remove button stays idempotent.
// DELETE /api/admin/slideshow/file
func (h *SlideshowHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.slideshow.DeleteFile(); err != nil {
		log.Printf("Failed to delete slideshow file: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Slideshow file removed. Upload a new file to replace.",
	})
}

// GetState returns the current slideshow state
// GET /api/dashboard/slideshow
func (h *SlideshowHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.slideshow.State())
}

// GetSlides converts the current presentation to slide images
// GET /api/dashboard/slideshow/slides
func (h *SlideshowHandler) GetSlides(w http.ResponseWriter, r *http.Request) {
	slides, err := h.slideshow.Slides(r.Context())
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.SlideList{Slides: slides})
}

// RenderFailureRequest reports a slide that failed to load on a display
type RenderFailureRequest struct {
	Slide string `json:"slide"`
}

// ReportRenderFailure fail-stops the running presentation
// POST /api/dashboard/slideshow/render-failure
func (h *SlideshowHandler) ReportRenderFailure(w http.ResponseWriter, r *http.Request) {
	var req RenderFailureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	h.kiosk.ReportRenderFailure(req.Slide)
	w.WriteHeader(http.StatusNoContent)
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError writes the {"detail": "..."} error shape dashboard clients parse
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
