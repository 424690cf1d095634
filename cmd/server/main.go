package main

import (
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"lobbycast/internal/auth"
	"lobbycast/internal/config"
	"lobbycast/internal/db"
	"lobbycast/internal/handlers"
	"lobbycast/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = cfg.Storage.DatabasePath
	}
	if err := db.InitDatabase(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize services
	configStore := services.NewConfigStore(db.DB)
	uploadStore, err := services.NewUploadStore(db.DB, cfg.Storage.UploadDir, cfg.Server.PublicBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}
	converter, err := services.NewConverter(
		filepath.Join(cfg.Storage.UploadDir, "slideshow", "slides"),
		cfg.Converter.SofficePath, cfg.Converter.PdftoppmPath, cfg.Converter.DPI)
	if err != nil {
		log.Fatalf("Failed to initialize converter: %v", err)
	}

	slideshowService := services.NewSlideshowService(configStore, uploadStore, converter)
	contentService := services.NewContentService(db.DB)
	revenueService := services.NewRevenueService(db.DB)
	sharePriceService := services.NewSharePriceService(http.DefaultClient, cfg.Feeds.SharePriceURL)
	newsroomService := services.NewNewsroomService(http.DefaultClient, cfg.Feeds.NewsroomURL)

	wsService := services.NewWebSocketService()
	go wsService.Run()
	kioskService := services.NewKioskService(slideshowService, wsService)

	authService := auth.NewService(db.DB, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		if err := authService.EnsureAdmin(cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			log.Fatalf("Failed to provision admin account: %v", err)
		}
	}

	// Initialize handlers
	slideshowHandler := handlers.NewSlideshowHandler(slideshowService, uploadStore, kioskService, authService, cfg.Storage.MaxUploadMB)
	authHandler := handlers.NewAuthHandler(authService)
	contentHandler := handlers.NewContentHandler(contentService)
	revenueHandler := handlers.NewRevenueHandler(revenueService, sharePriceService, uploadStore, configStore, authService, cfg.Storage.MaxUploadMB)
	newsroomHandler := handlers.NewNewsroomHandler(newsroomService, contentService)
	configHandler := handlers.NewConfigHandler(configStore, authService)
	displayHandler := handlers.NewDisplayHandler(wsService)

	// Setup routes
	router := handlers.SetupRoutes(handlers.RouterDeps{
		Auth:        authService,
		AuthH:       authHandler,
		Slideshow:   slideshowHandler,
		Content:     contentHandler,
		Revenue:     revenueHandler,
		Newsroom:    newsroomHandler,
		Config:      configHandler,
		Display:     displayHandler,
		UploadDir:   uploadStore.UploadDir(),
		Environment: cfg.Environment,
	})

	// Configure server
	server := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: router,
	}

	// Configure TLS if enabled
	if cfg.TLS.Enabled {
		server.TLSConfig = &tls.Config{
			MinVersion: getTLSVersion(cfg.TLS.MinVersion),
		}

		log.Printf("Starting HTTPS server on %s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("TLS Certificate: %s", cfg.TLS.CertFile)
		log.Printf("TLS Key: %s", cfg.TLS.KeyFile)
		log.Printf("TLS Min Version: %s", cfg.TLS.MinVersion)

		log.Fatal(server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile))
	} else {
		log.Printf("Starting HTTP server on %s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Warning: HTTP mode is not recommended for production")

		log.Fatal(server.ListenAndServe())
	}
}

// getTLSVersion converts string version to tls.Version constant
func getTLSVersion(version string) uint16 {
	switch version {
	case "1.0":
		return tls.VersionTLS10
	case "1.1":
		return tls.VersionTLS11
	case "1.2":
		return tls.VersionTLS12
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}
