package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobbycast/internal/auth"
	"lobbycast/internal/db"
	"lobbycast/internal/services"
)

// newTestRouter wires the full route table over a throwaway database, with
// the development endpoints enabled so slideshow controls need no token
func newTestRouter(t *testing.T) (*mux.Router, *auth.Service) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, db.InitDatabase(dbPath))
	t.Cleanup(func() { db.Close() })

	uploads, err := services.NewUploadStore(db.DB, t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	converter, err := services.NewConverter(filepath.Join(uploads.UploadDir(), "slideshow", "slides"), "", "", 110)
	require.NoError(t, err)

	configs := services.NewConfigStore(db.DB)
	slideshow := services.NewSlideshowService(configs, uploads, converter)
	content := services.NewContentService(db.DB)
	revenue := services.NewRevenueService(db.DB)
	hub := services.NewWebSocketService()
	go hub.Run()
	kiosk := services.NewKioskService(slideshow, hub)

	authService := auth.NewService(db.DB, time.Hour)
	require.NoError(t, authService.EnsureAdmin("admin@example.com", "sw0rdfish"))

	router := SetupRoutes(RouterDeps{
		Auth:        authService,
		AuthH:       NewAuthHandler(authService),
		Slideshow:   NewSlideshowHandler(slideshow, uploads, kiosk, authService, 50),
		Content:     NewContentHandler(content),
		Revenue:     NewRevenueHandler(revenue, services.NewSharePriceService(http.DefaultClient, "http://127.0.0.1:0"), uploads, configs, authService, 50),
		Newsroom:    NewNewsroomHandler(services.NewNewsroomService(http.DefaultClient, "http://127.0.0.1:0"), content),
		Config:      NewConfigHandler(configs, authService),
		Display:     NewDisplayHandler(hub),
		UploadDir:   uploads.UploadDir(),
		Environment: "development",
	})
	return router, authService
}

func doJSON(t *testing.T, router *mux.Router, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/admin/slideshow/start", "{}", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/admin/employees", "{}", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginAndAuthorizedStart(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/login",
		`{"email":"admin@example.com","password":"sw0rdfish"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var login LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)
	headers := map[string]string{"Authorization": "Bearer " + login.Token}

	rec = doJSON(t, router, http.MethodPost, "/api/admin/slideshow/url",
		`{"embed_url":"https://docs.example.com/embed?id=1"}`, headers)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/admin/slideshow/start",
		`{"interval_seconds":900}`, headers)
	require.Equal(t, http.StatusOK, rec.Code)

	var started map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	assert.Equal(t, true, started["is_active"])
	assert.Equal(t, "url", started["type"])
	assert.Equal(t, float64(300), started["interval_seconds"])
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/login",
		`{"email":"admin@example.com","password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Invalid email or password", body["detail"])
}

func TestDevRoutesSkipAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/dev/slideshow/url",
		`{"embed_url":"https://docs.example.com/embed"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/dev/slideshow/start", "{}", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/dev/slideshow/stop", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStartRejectsMalformedBody(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/dev/slideshow/url",
		`{"embed_url":"https://docs.example.com/embed"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// An empty body falls back to the previous interval, truncated JSON does not
	rec = doJSON(t, router, http.MethodPost, "/api/dev/slideshow/start", `{"interval_seconds":`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid JSON")

	rec = doJSON(t, router, http.MethodPost, "/api/dev/slideshow/start", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStartWithoutPresentation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/dev/slideshow/start", "{}", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no presentation set")
}

func TestSetURLValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/dev/slideshow/url",
		`{"embed_url":"ftp://example.com/deck"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStateDefaults(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/dashboard/slideshow", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var state map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, false, state["is_active"])
	assert.Equal(t, "file", state["type"])
	assert.Equal(t, float64(5), state["interval_seconds"])
}

func TestGetSlidesErrorShape(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/dashboard/slideshow/slides", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["detail"], "no presentation file uploaded")
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	router, _ := newTestRouter(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	part.Write([]byte("plain text"))
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/dev/slideshow/upload", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "PowerPoint")
}

func TestUploadAndDeleteFile(t *testing.T) {
	router, _ := newTestRouter(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "town-hall.pdf")
	require.NoError(t, err)
	part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/dev/slideshow/upload", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var uploaded UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	assert.Equal(t, "town-hall.pdf", uploaded.FileName)
	assert.Contains(t, uploaded.FileURL, "/uploads/slideshow/")

	// State now reflects the upload
	rec = doJSON(t, router, http.MethodGet, "/api/dashboard/slideshow", "", nil)
	var state map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "town-hall.pdf", state["file_name"])

	// Delete is always 200, even twice
	rec = doJSON(t, router, http.MethodDelete, "/api/dev/slideshow/file", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodDelete, "/api/dev/slideshow/file", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRenderFailureStopsPlayer(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/dev/slideshow/url",
		`{"embed_url":"https://docs.example.com/embed"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodPost, "/api/dev/slideshow/start", "{}", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/dashboard/slideshow/render-failure",
		`{"slide":"https://docs.example.com/embed"}`, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestConfigRoundTrip(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/login",
		`{"email":"admin@example.com","password":"sw0rdfish"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var login LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	headers := map[string]string{"Authorization": "Bearer " + login.Token}

	rec = doJSON(t, router, http.MethodPut, "/api/admin/config/display_motd",
		`{"value":"Welcome to HQ"}`, headers)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/admin/config/display_motd", "", headers)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "display_motd", body["key"])
	assert.Equal(t, "Welcome to HQ", body["value"])

	// Unknown keys read back as empty rather than erroring
	rec = doJSON(t, router, http.MethodGet, "/api/admin/config/missing", "", headers)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "", body["value"])
}
