package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"lobbycast/internal/models"
	"lobbycast/internal/services"
)

// ContentHandler handles CRUD requests for dashboard content
type ContentHandler struct {
	content *services.ContentService
}

// NewContentHandler creates a new content handler
func NewContentHandler(content *services.ContentService) *ContentHandler {
	return &ContentHandler{
		content: content,
	}
}

// MilestoneRequest represents a milestone create/update payload
type MilestoneRequest struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	AvatarPath      string     `json:"avatar_path"`
	BorderColor     string     `json:"border_color"`
	BackgroundColor string     `json:"background_color"`
	MilestoneType   string     `json:"milestone_type"`
	Department      string     `json:"department"`
	MilestoneDate   *time.Time `json:"milestone_date"`
}

func (req *MilestoneRequest) toModel() *models.EmployeeMilestone {
	return &models.EmployeeMilestone{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		AvatarPath:      req.AvatarPath,
		BorderColor:     req.BorderColor,
		BackgroundColor: req.BackgroundColor,
		MilestoneType:   req.MilestoneType,
		Department:      req.Department,
		MilestoneDate:   req.MilestoneDate,
	}
}

// ListMilestones returns all employee milestones
// GET /api/dashboard/employees
func (h *ContentHandler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	milestones, err := h.content.ListMilestones()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if milestones == nil {
		milestones = []*models.EmployeeMilestone{}
	}
	writeJSON(w, http.StatusOK, milestones)
}

// CreateMilestone creates an employee milestone
// POST /api/admin/employees
func (h *ContentHandler) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	var req MilestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	milestone, err := h.content.CreateMilestone(req.toModel())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, milestone)
}

// UpdateMilestone updates an employee milestone
// PUT /api/admin/employees/{id}
func (h *ContentHandler) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req MilestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	milestone := req.toModel()
	milestone.ID = id
	if err := h.content.UpdateMilestone(milestone); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, milestone)
}

// DeleteMilestone deletes an employee milestone
// DELETE /api/admin/employees/{id}
func (h *ContentHandler) DeleteMilestone(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.content.DeleteMilestone(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SocialPostRequest represents a social post create/update payload
type SocialPostRequest struct {
	Author    string     `json:"author"`
	Content   string     `json:"content"`
	ImagePath string     `json:"image_path"`
	PostURL   string     `json:"post_url"`
	Source    string     `json:"source"`
	PostedAt  *time.Time `json:"posted_at"`
}

func (req *SocialPostRequest) toModel() *models.SocialPost {
	return &models.SocialPost{
		Author:    strings.TrimSpace(req.Author),
		Content:   req.Content,
		ImagePath: req.ImagePath,
		PostURL:   req.PostURL,
		Source:    req.Source,
		PostedAt:  req.PostedAt,
	}
}

// ListSocialPosts returns all social posts
// GET /api/dashboard/social-posts
func (h *ContentHandler) ListSocialPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.content.ListSocialPosts()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if posts == nil {
		posts = []*models.SocialPost{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// CreateSocialPost creates a social post
// POST /api/admin/social-posts
func (h *ContentHandler) CreateSocialPost(w http.ResponseWriter, r *http.Request) {
	var req SocialPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	post, err := h.content.CreateSocialPost(req.toModel())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// UpdateSocialPost updates a social post
// PUT /api/admin/social-posts/{id}
func (h *ContentHandler) UpdateSocialPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req SocialPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	post := req.toModel()
	post.ID = id
	if post.Source == "" {
		post.Source = "api"
	}
	if err := h.content.UpdateSocialPost(post); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// DeleteSocialPost deletes a social post
// DELETE /api/admin/social-posts/{id}
func (h *ContentHandler) DeleteSocialPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.content.DeleteSocialPost(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NewsItemRequest represents a news item create/update payload
type NewsItemRequest struct {
	Title         string `json:"title"`
	Summary       string `json:"summary"`
	URL           string `json:"url"`
	ImagePath     string `json:"image_path"`
	PublishedDate string `json:"published_date"`
}

func (req *NewsItemRequest) toModel() *models.NewsItem {
	return &models.NewsItem{
		Title:         strings.TrimSpace(req.Title),
		Summary:       req.Summary,
		URL:           req.URL,
		ImagePath:     req.ImagePath,
		PublishedDate: req.PublishedDate,
	}
}

// ListNews returns all news items
// GET /api/dashboard/news
func (h *ContentHandler) ListNews(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.ListNewsItems()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*models.NewsItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateNews creates a news item
// POST /api/admin/news
func (h *ContentHandler) CreateNews(w http.ResponseWriter, r *http.Request) {
	var req NewsItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	item, err := h.content.CreateNewsItem(req.toModel())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// UpdateNews updates a news item
// PUT /api/admin/news/{id}
func (h *ContentHandler) UpdateNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req NewsItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	item := req.toModel()
	item.ID = id
	if err := h.content.UpdateNewsItem(item); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteNews deletes a news item
// DELETE /api/admin/news/{id}
func (h *ContentHandler) DeleteNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.content.DeleteNewsItem(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parses the {id} path variable, writing a 400 on failure
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
