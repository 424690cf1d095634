package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all server configuration, loaded from config.toml.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	TLS       TLSConfig       `koanf:"tls"`
	Storage   StorageConfig   `koanf:"storage"`
	Auth      AuthConfig      `koanf:"auth"`
	Converter ConverterConfig `koanf:"converter"`
	Feeds     FeedsConfig     `koanf:"feeds"`

	// "development" registers the unauthenticated -dev admin endpoints
	Environment string `koanf:"environment"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port string `koanf:"port"`
	// Base URL used when building public links to stored uploads
	PublicBaseURL string `koanf:"public_base_url"`
}

// TLSConfig holds TLS settings for the HTTP server.
type TLSConfig struct {
	Enabled    bool   `koanf:"enabled"`
	CertFile   string `koanf:"cert_file"`
	KeyFile    string `koanf:"key_file"`
	MinVersion string `koanf:"min_version"` // "1.0" .. "1.3"
}

// StorageConfig holds data and upload directory settings.
type StorageConfig struct {
	DataDir      string `koanf:"data_dir"`
	UploadDir    string `koanf:"upload_dir"`
	MaxUploadMB  int64  `koanf:"max_upload_mb"`
	DatabasePath string `koanf:"database_path"`
}

// AuthConfig holds admin authentication settings.
type AuthConfig struct {
	AdminEmail    string `koanf:"admin_email"`
	AdminPassword string `koanf:"admin_password"` // bootstrap only, hashed on first run
	TokenTTLHours int    `koanf:"token_ttl_hours"`
}

// ConverterConfig holds document conversion settings.
type ConverterConfig struct {
	// Explicit binary paths; empty means probe the platform candidates
	SofficePath  string `koanf:"soffice_path"`
	PdftoppmPath string `koanf:"pdftoppm_path"`
	// Rendering resolution passed to pdftoppm -r
	DPI int `koanf:"dpi"`
}

// FeedsConfig holds external feed settings.
type FeedsConfig struct {
	SharePriceURL string `koanf:"share_price_url"`
	NewsroomURL   string `koanf:"newsroom_url"`
}

// LoadConfig loads configuration from config.toml next to the binary or under
// LOBBYCAST_CONFIG, falling back to defaults for anything unset.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	for _, path := range configPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Server.PublicBaseURL = strings.TrimSuffix(cfg.Server.PublicBaseURL, "/")
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = filepath.Join(cfg.Storage.DataDir, "lobbycast.db")
	}
	if cfg.Auth.TokenTTLHours <= 0 {
		cfg.Auth.TokenTTLHours = 24
	}
	if cfg.Converter.DPI <= 0 {
		cfg.Converter.DPI = 110
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          "8080",
			PublicBaseURL: "http://localhost:8080",
		},
		TLS: TLSConfig{
			MinVersion: "1.2",
		},
		Storage: StorageConfig{
			DataDir:     "./data",
			UploadDir:   "./uploads",
			MaxUploadMB: 50,
		},
		Auth: AuthConfig{
			TokenTTLHours: 24,
		},
		Converter: ConverterConfig{
			DPI: 110,
		},
		Feeds: FeedsConfig{
			SharePriceURL: "https://investor.corpay.com/stock-information",
			NewsroomURL:   "https://www.corpay.com/corporate-newsroom?limit=10&years=&categories=&search=",
		},
		Environment: "development",
	}
}

func configPaths() []string {
	paths := []string{"./config.toml"}
	if env := os.Getenv("LOBBYCAST_CONFIG"); env != "" {
		paths = append(paths, env)
	}
	return paths
}
