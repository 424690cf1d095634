package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"lobbycast/internal/auth"
	"lobbycast/internal/models"
	"lobbycast/internal/services"
)

// Config keys tracking the workbook the current trend data came from
const (
	revenueFileIDKey   = "revenue_file_id"
	revenueFileNameKey = "revenue_file_name"
	revenueFilePathKey = "revenue_file_path"
)

// RevenueHandler handles revenue figures, trends and proportions
type RevenueHandler struct {
	revenue     *services.RevenueService
	sharePrice  *services.SharePriceService
	uploads     *services.UploadStore
	configs     *services.ConfigStore
	authService *auth.Service
	maxUploadMB int64
}

// NewRevenueHandler creates a new revenue handler
func NewRevenueHandler(revenue *services.RevenueService, sharePrice *services.SharePriceService, uploads *services.UploadStore, configs *services.ConfigStore, authService *auth.Service, maxUploadMB int64) *RevenueHandler {
	return &RevenueHandler{
		revenue:     revenue,
		sharePrice:  sharePrice,
		uploads:     uploads,
		configs:     configs,
		authService: authService,
		maxUploadMB: maxUploadMB,
	}
}

// GetRevenue returns the headline revenue figure
// GET /api/dashboard/revenue
func (h *RevenueHandler) GetRevenue(w http.ResponseWriter, r *http.Request) {
	revenue, err := h.revenue.GetRevenue()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if revenue == nil {
		writeError(w, http.StatusNotFound, "No revenue data available")
		return
	}
	writeJSON(w, http.StatusOK, revenue)
}

// SetRevenueRequest represents a headline revenue update
type SetRevenueRequest struct {
	TotalAmount      float64 `json:"total_amount"`
	PercentageChange float64 `json:"percentage_change"`
}

// SetRevenue updates the headline revenue figure
// PUT /api/admin/revenue
func (h *RevenueHandler) SetRevenue(w http.ResponseWriter, r *http.Request) {
	var req SetRevenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	revenue, err := h.revenue.SetRevenue(req.TotalAmount, req.PercentageChange)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, revenue)
}

// ListTrends returns trend rows, defaulting to the current year
// GET /api/dashboard/revenue/trends?year=2026
func (h *RevenueHandler) ListTrends(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if q := r.URL.Query().Get("year"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil {
			http.Error(w, "Invalid year", http.StatusBadRequest)
			return
		}
		year = parsed
	}

	trends, err := h.revenue.ListTrends(year)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if trends == nil {
		trends = []*models.RevenueTrend{}
	}
	writeJSON(w, http.StatusOK, trends)
}

// TrendsRequest represents a full-year replacement of trend rows
type TrendsRequest struct {
	Year   int                    `json:"year"`
	Trends []*models.RevenueTrend `json:"trends"`
}

// ReplaceTrends rewrites the trend rows for one year
// PUT /api/admin/revenue/trends
func (h *RevenueHandler) ReplaceTrends(w http.ResponseWriter, r *http.Request) {
	var req TrendsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Year == 0 {
		req.Year = time.Now().Year()
	}

	if err := h.revenue.ReplaceTrendsForYear(req.Year, req.Trends); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Trends updated", "year": req.Year})
}

// ListProportions returns the revenue segment breakdown
// GET /api/dashboard/revenue/proportions
func (h *RevenueHandler) ListProportions(w http.ResponseWriter, r *http.Request) {
	proportions, err := h.revenue.ListProportions()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if proportions == nil {
		proportions = []*models.RevenueProportion{}
	}
	writeJSON(w, http.StatusOK, proportions)
}

// UpsertProportion creates or updates one revenue segment
// PUT /api/admin/revenue/proportions
func (h *RevenueHandler) UpsertProportion(w http.ResponseWriter, r *http.Request) {
	var req models.RevenueProportion
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.revenue.UpsertProportion(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// DeleteProportion removes one revenue segment
// DELETE /api/admin/revenue/proportions/{segment}
func (h *RevenueHandler) DeleteProportion(w http.ResponseWriter, r *http.Request) {
	segment := mux.Vars(r)["segment"]
	if segment == "" {
		http.Error(w, "segment is required", http.StatusBadRequest)
		return
	}
	if err := h.revenue.DeleteProportion(segment); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadWorkbook ingests a revenue Excel workbook: the headline figure, the
// current year's trend rows and the segment proportions, in one upload
// POST /api/admin/revenue/upload
func (h *RevenueHandler) UploadWorkbook(w http.ResponseWriter, r *http.Request) {
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
	if ext != ".xlsx" && ext != ".xls" {
		http.Error(w, "File must be Excel format (.xlsx or .xls)", http.StatusBadRequest)
		return
	}

	uploadedBy := h.authService.SessionEmail(r)
	if uploadedBy == "" {
		uploadedBy = "dev_user"
	}

	record, err := h.uploads.Save(file, header.Filename, "revenue", models.FileTypeRevenue, uploadedBy)
	if err != nil {
		log.Printf("Failed to store revenue upload: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	wb, err := services.ParseRevenueWorkbook(h.uploads.LocalPath(record.StoredPath))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Error processing file: "+err.Error())
		return
	}
	if err := h.revenue.ImportWorkbook(time.Now().Year(), wb); err != nil {
		log.Printf("Failed to import revenue workbook: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Remember which workbook the trend data came from so it survives restarts
	if err := h.configs.SetAll(map[string]string{
		revenueFileIDKey:   strconv.FormatInt(record.ID, 10),
		revenueFileNameKey: record.OriginalFilename,
		revenueFilePathKey: record.StoredPath,
	}, uploadedBy); err != nil {
		log.Printf("Failed to persist revenue file reference: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "File processed successfully",
		"file_id": record.ID,
	})
}

// GetCurrentFile returns the workbook the trend data came from
// GET /api/admin/revenue/file
func (h *RevenueHandler) GetCurrentFile(w http.ResponseWriter, r *http.Request) {
	name := h.configs.Get(revenueFileNameKey)
	if id := h.configs.Get(revenueFileIDKey); id != "" || name != "" {
		fileID, _ := strconv.ParseInt(id, 10, 64)
		writeJSON(w, http.StatusOK, map[string]any{
			"file_id":   fileID,
			"file_name": name,
			"file_path": h.configs.Get(revenueFilePathKey),
		})
		return
	}

	// Fall back to the newest revenue upload on record
	record, err := h.uploads.LatestByType(models.FileTypeRevenue)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "No revenue file uploaded yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file_id":   record.ID,
		"file_name": record.OriginalFilename,
		"file_path": record.StoredPath,
	})
}

// DeleteCurrentFile clears the stored workbook so a new upload can replace it.
// The imported figures stay; only the file reference is dropped.
// DELETE /api/admin/revenue/file
func (h *RevenueHandler) DeleteCurrentFile(w http.ResponseWriter, r *http.Request) {
	if path := h.configs.Get(revenueFilePathKey); path != "" {
		if err := h.uploads.DeletePath(path); err != nil {
			log.Printf("Failed to delete revenue file: %v", err)
		}
	}

	updatedBy := h.authService.SessionEmail(r)
	if updatedBy == "" {
		updatedBy = "dev_user"
	}
	if err := h.configs.SetAll(map[string]string{
		revenueFileIDKey:   "",
		revenueFileNameKey: "",
		revenueFilePathKey: "",
	}, updatedBy); err != nil {
		log.Printf("Failed to clear revenue file reference: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Current revenue file cleared. Upload a new Excel to set trend data.",
	})
}

// SetSharePriceRequest represents a manual share price entry
type SetSharePriceRequest struct {
	Price            float64 `json:"price"`
	ChangePercentage float64 `json:"change_percentage"`
}

// SetSharePrice overrides the scraped share price with a manual value
// POST /api/admin/revenue/share-price
func (h *RevenueHandler) SetSharePrice(w http.ResponseWriter, r *http.Request) {
	var req SetSharePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.sharePrice.SetManual(req.Price, req.ChangePercentage))
}

// GetSharePrice returns the scraped share price
// GET /api/dashboard/share-price
func (h *RevenueHandler) GetSharePrice(w http.ResponseWriter, r *http.Request) {
	price, err := h.sharePrice.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, price)
}
