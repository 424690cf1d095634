package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var DB *sql.DB

// InitDatabase initializes SQLite database and creates tables
func InitDatabase(dbPath string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	var err error
	DB, err = sql.Open("sqlite3", dbPath+"?_foreign_keys=1")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Create tables
	if err := createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("Database initialized at: %s", dbPath)
	return nil
}

// createTables creates all necessary tables
func createTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			is_admin INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE TABLE IF NOT EXISTS api_configs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			config_key TEXT NOT NULL,
			config_value TEXT,
			description TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			updated_at DATETIME,
			updated_by TEXT
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ix_api_configs_config_key ON api_configs(config_key);`,

		`CREATE TABLE IF NOT EXISTS file_uploads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			original_filename TEXT NOT NULL,
			stored_path TEXT NOT NULL,
			storage_url TEXT,
			file_type TEXT NOT NULL,
			file_size INTEGER NOT NULL DEFAULT 0,
			uploaded_by TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_file_uploads_type ON file_uploads(file_type);`,

		`CREATE TABLE IF NOT EXISTS employee_milestones (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			avatar_path TEXT,
			border_color TEXT NOT NULL DEFAULT '#981239',
			background_color TEXT NOT NULL DEFAULT '#fef5f8',
			milestone_type TEXT NOT NULL DEFAULT 'achievement',
			department TEXT,
			milestone_date DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE TABLE IF NOT EXISTS social_posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			author TEXT NOT NULL,
			content TEXT NOT NULL,
			image_path TEXT,
			post_url TEXT,
			source TEXT NOT NULL DEFAULT 'api',
			posted_at DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE TABLE IF NOT EXISTS news_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			summary TEXT,
			url TEXT,
			image_path TEXT,
			published_date TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE TABLE IF NOT EXISTS revenue (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			total_amount REAL NOT NULL,
			percentage_change REAL NOT NULL DEFAULT 0,
			last_updated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE TABLE IF NOT EXISTS revenue_trends (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			month TEXT NOT NULL,
			value REAL NOT NULL,
			highlight INTEGER NOT NULL DEFAULT 0,
			year INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_revenue_trends_year ON revenue_trends(year);`,

		`CREATE TABLE IF NOT EXISTS revenue_proportions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			segment TEXT NOT NULL,
			percentage REAL NOT NULL,
			color TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ix_revenue_proportions_segment ON revenue_proportions(segment);`,
	}

	for _, stmt := range statements {
		if _, err := DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	log.Println("Database tables created successfully")
	return nil
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
