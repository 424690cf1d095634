package models

import "time"

// FileType categorizes uploaded files
type FileType string

const (
	FileTypeSlideshow FileType = "slideshow"
	FileTypeRevenue   FileType = "revenue"
	FileTypeAvatar    FileType = "avatar"
	FileTypeSocial    FileType = "social"
)

// FileUpload represents a stored upload record
type FileUpload struct {
	ID               int64     `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	StoredPath       string    `json:"stored_path"`
	StorageURL       string    `json:"storage_url,omitempty"`
	FileType         FileType  `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	UploadedBy       string    `json:"uploaded_by"`
	CreatedAt        time.Time `json:"created_at"`
}

// EmployeeMilestone represents an employee milestone card on the dashboard
type EmployeeMilestone struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	AvatarPath      string     `json:"avatar_path,omitempty"`
	BorderColor     string     `json:"border_color"`
	BackgroundColor string     `json:"background_color"`
	MilestoneType   string     `json:"milestone_type"` // achievement, anniversary, promotion, new_hire
	Department      string     `json:"department,omitempty"`
	MilestoneDate   *time.Time `json:"milestone_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// SocialPost represents a social media post card
type SocialPost struct {
	ID        int64      `json:"id"`
	Author    string     `json:"author"`
	Content   string     `json:"content"`
	ImagePath string     `json:"image_path,omitempty"`
	PostURL   string     `json:"post_url,omitempty"`
	Source    string     `json:"source"`
	PostedAt  *time.Time `json:"posted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewsItem represents a newsroom card
type NewsItem struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary,omitempty"`
	URL           string    `json:"url,omitempty"`
	ImagePath     string    `json:"image_path,omitempty"`
	PublishedDate string    `json:"published_date,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Revenue represents the headline revenue figure
type Revenue struct {
	ID               int64     `json:"id"`
	TotalAmount      float64   `json:"total_amount"`
	PercentageChange float64   `json:"percentage_change"`
	LastUpdated      time.Time `json:"last_updated"`
}

// RevenueTrend represents one month of the revenue trend chart
type RevenueTrend struct {
	ID        int64   `json:"id"`
	Month     string  `json:"month"`
	Value     float64 `json:"value"`
	Highlight bool    `json:"highlight"`
	Year      int     `json:"year"`
}

// RevenueProportion represents one segment of the revenue breakdown chart
type RevenueProportion struct {
	ID         int64   `json:"id"`
	Segment    string  `json:"segment"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color,omitempty"`
}

// SharePrice represents the scraped share price snapshot
type SharePrice struct {
	Price            float64   `json:"price"`
	ChangePercentage float64   `json:"change_percentage"`
	Source           string    `json:"source"`
	FetchedAt        time.Time `json:"fetched_at"`
}

// User represents an admin console user
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}
