package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"lobbycast/internal/auth"
)

// RouterDeps collects everything the route table needs
type RouterDeps struct {
	Auth      *auth.Service
	AuthH     *AuthHandler
	Slideshow *SlideshowHandler
	Content   *ContentHandler
	Revenue   *RevenueHandler
	Newsroom  *NewsroomHandler
	Config    *ConfigHandler
	Display   *DisplayHandler

	UploadDir   string
	Environment string
}

// SetupRoutes configures all application routes
func SetupRoutes(deps RouterDeps) *mux.Router {
	router := mux.NewRouter()

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	// Kiosk websocket
	router.HandleFunc("/ws/display", deps.Display.Serve)

	// Uploaded files (slide images, avatars, revenue sheets)
	router.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadDir))))

	// Public dashboard API, read-only
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/dashboard/slideshow", deps.Slideshow.GetState).Methods("GET")
	api.HandleFunc("/dashboard/slideshow/slides", deps.Slideshow.GetSlides).Methods("GET")
	api.HandleFunc("/dashboard/slideshow/render-failure", deps.Slideshow.ReportRenderFailure).Methods("POST")
	api.HandleFunc("/dashboard/employees", deps.Content.ListMilestones).Methods("GET")
	api.HandleFunc("/dashboard/social-posts", deps.Content.ListSocialPosts).Methods("GET")
	api.HandleFunc("/dashboard/news", deps.Content.ListNews).Methods("GET")
	api.HandleFunc("/dashboard/revenue", deps.Revenue.GetRevenue).Methods("GET")
	api.HandleFunc("/dashboard/revenue/trends", deps.Revenue.ListTrends).Methods("GET")
	api.HandleFunc("/dashboard/revenue/proportions", deps.Revenue.ListProportions).Methods("GET")
	api.HandleFunc("/dashboard/share-price", deps.Revenue.GetSharePrice).Methods("GET")

	// Session endpoints
	api.HandleFunc("/auth/login", deps.AuthH.Login).Methods("POST")
	api.HandleFunc("/auth/logout", deps.AuthH.Logout).Methods("POST")
	api.HandleFunc("/auth/me", deps.AuthH.Me).Methods("GET")

	// Admin API, behind session auth
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(deps.Auth.Middleware)
	registerSlideshowRoutes(admin, deps.Slideshow)

	admin.HandleFunc("/employees", deps.Content.CreateMilestone).Methods("POST")
	admin.HandleFunc("/employees/{id}", deps.Content.UpdateMilestone).Methods("PUT")
	admin.HandleFunc("/employees/{id}", deps.Content.DeleteMilestone).Methods("DELETE")

	admin.HandleFunc("/social-posts", deps.Content.CreateSocialPost).Methods("POST")
	admin.HandleFunc("/social-posts/{id}", deps.Content.UpdateSocialPost).Methods("PUT")
	admin.HandleFunc("/social-posts/{id}", deps.Content.DeleteSocialPost).Methods("DELETE")

	admin.HandleFunc("/news", deps.Content.CreateNews).Methods("POST")
	admin.HandleFunc("/news/{id}", deps.Content.UpdateNews).Methods("PUT")
	admin.HandleFunc("/news/{id}", deps.Content.DeleteNews).Methods("DELETE")
	admin.HandleFunc("/news/refresh", deps.Newsroom.Refresh).Methods("POST")

	admin.HandleFunc("/revenue", deps.Revenue.SetRevenue).Methods("PUT")
	admin.HandleFunc("/revenue/upload", deps.Revenue.UploadWorkbook).Methods("POST")
	admin.HandleFunc("/revenue/file", deps.Revenue.GetCurrentFile).Methods("GET")
	admin.HandleFunc("/revenue/file", deps.Revenue.DeleteCurrentFile).Methods("DELETE")
	admin.HandleFunc("/revenue/trends", deps.Revenue.ReplaceTrends).Methods("PUT")
	admin.HandleFunc("/revenue/proportions", deps.Revenue.UpsertProportion).Methods("PUT")
	admin.HandleFunc("/revenue/proportions/{segment}", deps.Revenue.DeleteProportion).Methods("DELETE")
	admin.HandleFunc("/revenue/share-price", deps.Revenue.SetSharePrice).Methods("POST")

	admin.HandleFunc("/config/{key}", deps.Config.Get).Methods("GET")
	admin.HandleFunc("/config/{key}", deps.Config.Set).Methods("PUT")

	// Unauthenticated slideshow controls for local development only
	if deps.Environment == "development" {
		dev := api.PathPrefix("/dev").Subrouter()
		registerSlideshowRoutes(dev, deps.Slideshow)
	}

	return router
}

func registerSlideshowRoutes(r *mux.Router, h *SlideshowHandler) {
	r.HandleFunc("/slideshow/upload", h.Upload).Methods("POST")
	r.HandleFunc("/slideshow/url", h.SetURL).Methods("POST")
	r.HandleFunc("/slideshow/start", h.Start).Methods("POST")
	r.HandleFunc("/slideshow/stop", h.Stop).Methods("POST")
	r.HandleFunc("/slideshow/file", h.DeleteFile).Methods("DELETE")
}
