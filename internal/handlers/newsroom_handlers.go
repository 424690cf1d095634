package handlers

import (
	"log"
	"net/http"

	"lobbycast/internal/services"
)

// NewsroomHandler refreshes dashboard news from the public newsroom
type NewsroomHandler struct {
	newsroom *services.NewsroomService
	content  *services.ContentService
}

// NewNewsroomHandler creates a new newsroom handler
func NewNewsroomHandler(newsroom *services.NewsroomService, content *services.ContentService) *NewsroomHandler {
	return &NewsroomHandler{
		newsroom: newsroom,
		content:  content,
	}
}

// Refresh scrapes the newsroom and replaces the stored news items
// POST /api/admin/news/refresh
func (h *NewsroomHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	items, err := h.newsroom.FetchLatest(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := h.content.ReplaceNewsItems(items); err != nil {
		log.Printf("Failed to store scraped news: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "News refreshed",
		"count":   len(items),
	})
}
