package services

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"lobbycast/internal/models"
)

// ContentService manages dashboard content: employee milestones, social posts
// and news items
type ContentService struct {
	database *sql.DB
}

// NewContentService creates a new content service
func NewContentService(database *sql.DB) *ContentService {
	return &ContentService{
		database: database,
	}
}

// CreateMilestone inserts an employee milestone and returns it with its ID
func (cs *ContentService) CreateMilestone(m *models.EmployeeMilestone) (*models.EmployeeMilestone, error) {
	if m.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if m.BorderColor == "" {
		m.BorderColor = "#981239"
	}
	if m.BackgroundColor == "" {
		m.BackgroundColor = "#fef5f8"
	}
	if m.MilestoneType == "" {
		m.MilestoneType = "achievement"
	}
	m.CreatedAt = time.Now()

	result, err := cs.database.Exec(`
		INSERT INTO employee_milestones
			(name, description, avatar_path, border_color, background_color, milestone_type, department, milestone_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Name, m.Description, nullString(m.AvatarPath), m.BorderColor, m.BackgroundColor,
		m.MilestoneType, nullString(m.Department), m.MilestoneDate, m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert milestone: %w", err)
	}
	m.ID, _ = result.LastInsertId()

	log.Printf("Milestone created: id=%d, name=%s, type=%s", m.ID, m.Name, m.MilestoneType)
	return m, nil
}

// UpdateMilestone updates an existing milestone
func (cs *ContentService) UpdateMilestone(m *models.EmployeeMilestone) error {
	result, err := cs.database.Exec(`
		UPDATE employee_milestones
		SET name = ?, description = ?, avatar_path = ?, border_color = ?, background_color = ?,
			milestone_type = ?, department = ?, milestone_date = ?
		WHERE id = ?`,
		m.Name, m.Description, nullString(m.AvatarPath), m.BorderColor, m.BackgroundColor,
		m.MilestoneType, nullString(m.Department), m.MilestoneDate, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update milestone: %w", err)
	}
	return requireRow(result, "milestone", m.ID)
}

// DeleteMilestone removes a milestone
func (cs *ContentService) DeleteMilestone(id int64) error {
	result, err := cs.database.Exec(`DELETE FROM employee_milestones WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete milestone: %w", err)
	}
	return requireRow(result, "milestone", id)
}

// ListMilestones returns all milestones, most recent milestone date first
func (cs *ContentService) ListMilestones() ([]*models.EmployeeMilestone, error) {
	rows, err := cs.database.Query(`
		SELECT id, name, description, avatar_path, border_color, background_color,
			milestone_type, department, milestone_date, created_at
		FROM employee_milestones
		ORDER BY milestone_date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query milestones: %w", err)
	}
	defer rows.Close()

	var milestones []*models.EmployeeMilestone
	for rows.Next() {
		var m models.EmployeeMilestone
		var avatar, department sql.NullString
		var milestoneDate sql.NullTime

		err := rows.Scan(
			&m.ID,
			&m.Name,
			&m.Description,
			&avatar,
			&m.BorderColor,
			&m.BackgroundColor,
			&m.MilestoneType,
			&department,
			&milestoneDate,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}

		m.AvatarPath = avatar.String
		m.Department = department.String
		if milestoneDate.Valid {
			d := milestoneDate.Time
			m.MilestoneDate = &d
		}
		milestones = append(milestones, &m)
	}

	return milestones, rows.Err()
}

// CreateSocialPost inserts a social post and returns it with its ID
func (cs *ContentService) CreateSocialPost(p *models.SocialPost) (*models.SocialPost, error) {
	if p.Author == "" {
		return nil, fmt.Errorf("author is required")
	}
	if p.Content == "" {
		return nil, fmt.Errorf("content is required")
	}
	if p.Source == "" {
		p.Source = "api"
	}
	p.CreatedAt = time.Now()

	result, err := cs.database.Exec(`
		INSERT INTO social_posts (author, content, image_path, post_url, source, posted_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Author, p.Content, nullString(p.ImagePath), nullString(p.PostURL), p.Source, p.PostedAt, p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert social post: %w", err)
	}
	p.ID, _ = result.LastInsertId()

	log.Printf("Social post created: id=%d, author=%s", p.ID, p.Author)
	return p, nil
}

// UpdateSocialPost updates an existing social post
func (cs *ContentService) UpdateSocialPost(p *models.SocialPost) error {
	result, err := cs.database.Exec(`
		UPDATE social_posts
		SET author = ?, content = ?, image_path = ?, post_url = ?, source = ?, posted_at = ?
		WHERE id = ?`,
		p.Author, p.Content, nullString(p.ImagePath), nullString(p.PostURL), p.Source, p.PostedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update social post: %w", err)
	}
	return requireRow(result, "social post", p.ID)
}

// DeleteSocialPost removes a social post
func (cs *ContentService) DeleteSocialPost(id int64) error {
	result, err := cs.database.Exec(`DELETE FROM social_posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete social post: %w", err)
	}
	return requireRow(result, "social post", id)
}

// ListSocialPosts returns all social posts, newest first
func (cs *ContentService) ListSocialPosts() ([]*models.SocialPost, error) {
	rows, err := cs.database.Query(`
		SELECT id, author, content, image_path, post_url, source, posted_at, created_at
		FROM social_posts
		ORDER BY posted_at DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query social posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.SocialPost
	for rows.Next() {
		var p models.SocialPost
		var image, postURL sql.NullString
		var postedAt sql.NullTime

		err := rows.Scan(
			&p.ID,
			&p.Author,
			&p.Content,
			&image,
			&postURL,
			&p.Source,
			&postedAt,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan social post: %w", err)
		}

		p.ImagePath = image.String
		p.PostURL = postURL.String
		if postedAt.Valid {
			d := postedAt.Time
			p.PostedAt = &d
		}
		posts = append(posts, &p)
	}

	return posts, rows.Err()
}

// CreateNewsItem inserts a news item and returns it with its ID
func (cs *ContentService) CreateNewsItem(n *models.NewsItem) (*models.NewsItem, error) {
	if n.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	n.CreatedAt = time.Now()

	result, err := cs.database.Exec(`
		INSERT INTO news_items (title, summary, url, image_path, published_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.Title, nullString(n.Summary), nullString(n.URL), nullString(n.ImagePath),
		nullString(n.PublishedDate), n.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert news item: %w", err)
	}
	n.ID, _ = result.LastInsertId()

	log.Printf("News item created: id=%d, title=%s", n.ID, n.Title)
	return n, nil
}

// UpdateNewsItem updates an existing news item
func (cs *ContentService) UpdateNewsItem(n *models.NewsItem) error {
	result, err := cs.database.Exec(`
		UPDATE news_items
		SET title = ?, summary = ?, url = ?, image_path = ?, published_date = ?
		WHERE id = ?`,
		n.Title, nullString(n.Summary), nullString(n.URL), nullString(n.ImagePath),
		nullString(n.PublishedDate), n.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update news item: %w", err)
	}
	return requireRow(result, "news item", n.ID)
}

// DeleteNewsItem removes a news item
func (cs *ContentService) DeleteNewsItem(id int64) error {
	result, err := cs.database.Exec(`DELETE FROM news_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete news item: %w", err)
	}
	return requireRow(result, "news item", id)
}

// ListNewsItems returns all news items, newest first
func (cs *ContentService) ListNewsItems() ([]*models.NewsItem, error) {
	rows, err := cs.database.Query(`
		SELECT id, title, summary, url, image_path, published_date, created_at
		FROM news_items
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query news items: %w", err)
	}
	defer rows.Close()

	var items []*models.NewsItem
	for rows.Next() {
		var n models.NewsItem
		var summary, itemURL, image, published sql.NullString

		err := rows.Scan(
			&n.ID,
			&n.Title,
			&summary,
			&itemURL,
			&image,
			&published,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news item: %w", err)
		}

		n.Summary = summary.String
		n.URL = itemURL.String
		n.ImagePath = image.String
		n.PublishedDate = published.String
		items = append(items, &n)
	}

	return items, rows.Err()
}

// ReplaceNewsItems swaps the news table contents for freshly scraped items
func (cs *ContentService) ReplaceNewsItems(items []*models.NewsItem) error {
	tx, err := cs.database.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM news_items`); err != nil {
		return fmt.Errorf("failed to clear news items: %w", err)
	}
	now := time.Now()
	for _, n := range items {
		if _, err := tx.Exec(`
			INSERT INTO news_items (title, summary, url, image_path, published_date, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			n.Title, nullString(n.Summary), nullString(n.URL), nullString(n.ImagePath),
			nullString(n.PublishedDate), now,
		); err != nil {
			return fmt.Errorf("failed to insert news item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit news items: %w", err)
	}
	log.Printf("Replaced news items: count=%d", len(items))
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireRow(result sql.Result, kind string, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s not found: %d", kind, id)
	}
	return nil
}
