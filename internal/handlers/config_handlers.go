package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"lobbycast/internal/auth"
	"lobbycast/internal/services"
)

// ConfigHandler exposes the api_configs key/value store to the admin console
type ConfigHandler struct {
	configs     *services.ConfigStore
	authService *auth.Service
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(configs *services.ConfigStore, authService *auth.Service) *ConfigHandler {
	return &ConfigHandler{
		configs:     configs,
		authService: authService,
	}
}

// Get returns one config value
// GET /api/admin/config/{key}
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	writeJSON(w, http.StatusOK, map[string]string{
		"key":   key,
		"value": h.configs.Get(key),
	})
}

// SetConfigRequest represents a config value update
type SetConfigRequest struct {
	Value string `json:"value"`
}

// Set upserts one config value
// PUT /api/admin/config/{key}
func (h *ConfigHandler) Set(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var req SetConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	updatedBy := h.authService.SessionEmail(r)
	if updatedBy == "" {
		updatedBy = "dev_user"
	}
	if err := h.configs.Set(key, req.Value, updatedBy); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"key":   key,
		"value": req.Value,
	})
}
