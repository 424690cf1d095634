package services

import (
	"context"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"lobbycast/internal/models"
)

// newsroomCacheTTL bounds how often the public newsroom page is re-scraped
const newsroomCacheTTL = 10 * time.Minute

// UI labels that must never be shown as a date
var dateJunk = map[string]struct{}{
	"is showing": {},
	"showing":    {},
	"show":       {},
	"view":       {},
	"read more":  {},
	"—":          {},
	"-":          {},
	"":           {},
}

var (
	// Only accept date strings with a real year plus month or numeric date
	validDateRe = regexp.MustCompile(`(?:19|20)\d{2}|(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+(?:19|20)\d{2}|\d{1,2}[\s/\-]\d{1,2}[\s/\-](?:19|20)\d{2}`)
	// Faded listing date: "January 27, 2026 at 9:00 AM"
	fadedDateRe = regexp.MustCompile(`(?i)(January|February|March|April|May|June|July|August|September|October|November|December|Jan\.?|Feb\.?|Mar\.?|Apr\.?|Jun\.?|Jul\.?|Aug\.?|Sep\.?|Oct\.?|Nov\.?|Dec\.?)\s+\d{1,2},?\s+\d{4}(\s+at\s+\d{1,2}:\d{2}\s*[AP]M)?`)
	// Date embedded in an article URL: /2025/01/15/ or -2025-01-15
	urlDateRe = regexp.MustCompile(`(20\d{2})[-/](\d{1,2})[-/](\d{1,2})(?:/|$|-|\s)`)

	anchorRe = regexp.MustCompile(`(?is)<a[^>]+href="([^"]+)"[^>]*>(.*?)</a>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// IsValidDateText reports whether s looks like a real article date rather
// than a stray UI label picked up from the listing page
func IsValidDateText(s string) bool {
	t := strings.ToLower(strings.TrimSpace(s))
	if _, junk := dateJunk[t]; junk || len(t) > 80 {
		return false
	}
	if fadedDateRe.MatchString(s) {
		return true
	}
	return validDateRe.MatchString(s)
}

// DateFromURL extracts a display date from an article URL path, or "" if the
// URL embeds no date
func DateFromURL(articleURL string) string {
	m := urlDateRe.FindStringSubmatch(articleURL)
	if m == nil {
		return ""
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return ""
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format("Jan 02, 2006")
}

// NewsroomService scrapes the public corporate newsroom listing for the
// latest article cards
type NewsroomService struct {
	client  *http.Client
	pageURL string

	mu        sync.Mutex
	cached    []*models.NewsItem
	fetchedAt time.Time
	now       func() time.Time
}

// NewNewsroomService creates a new newsroom service
func NewNewsroomService(client *http.Client, pageURL string) *NewsroomService {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &NewsroomService{
		client:  client,
		pageURL: pageURL,
		now:     time.Now,
	}
}

// FetchLatest returns the latest newsroom items, served from cache when fresh
func (ns *NewsroomService) FetchLatest(ctx context.Context) ([]*models.NewsItem, error) {
	ns.mu.Lock()
	if ns.cached != nil && ns.now().Sub(ns.fetchedAt) < newsroomCacheTTL {
		cached := ns.cached
		ns.mu.Unlock()
		return cached, nil
	}
	ns.mu.Unlock()

	items, err := ns.fetch(ctx)
	if err != nil {
		ns.mu.Lock()
		defer ns.mu.Unlock()
		if ns.cached != nil {
			log.Printf("Newsroom fetch failed, serving stale items: %v", err)
			return ns.cached, nil
		}
		return nil, err
	}

	ns.mu.Lock()
	ns.cached = items
	ns.fetchedAt = ns.now()
	ns.mu.Unlock()
	return items, nil
}

func (ns *NewsroomService) fetch(ctx context.Context) ([]*models.NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ns.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build newsroom request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := ns.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch newsroom page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsroom page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read newsroom page: %w", err)
	}

	items := ParseNewsroomListing(string(body), ns.pageURL)
	if len(items) == 0 {
		return nil, fmt.Errorf("no articles found on the newsroom page")
	}
	log.Printf("Newsroom scraped: %d items", len(items))
	return items, nil
}

// ParseNewsroomListing extracts article cards from newsroom listing markup.
// Anchors with short or empty link text (navigation, "Read more") are skipped,
// and each article's date comes from nearby text or the URL itself.
func ParseNewsroomListing(page, baseURL string) []*models.NewsItem {
	var items []*models.NewsItem
	seen := make(map[string]struct{})

	for _, m := range anchorRe.FindAllStringSubmatch(page, -1) {
		href := strings.TrimSpace(m[1])
		title := cleanText(m[2])

		if title == "" || len(title) < 20 {
			continue
		}
		if !strings.Contains(href, "newsroom") && !strings.Contains(href, "news") {
			continue
		}
		href = absoluteURL(href, baseURL)
		if _, dup := seen[href]; dup {
			continue
		}
		seen[href] = struct{}{}

		date := ""
		if m := fadedDateRe.FindString(title); m != "" && IsValidDateText(m) {
			date = m
			title = cleanText(strings.Replace(title, m, "", 1))
		}
		if date == "" {
			date = DateFromURL(href)
		}

		items = append(items, &models.NewsItem{
			Title:         title,
			URL:           href,
			PublishedDate: date,
		})
		if len(items) >= 10 {
			break
		}
	}
	return items
}

func cleanText(markup string) string {
	text := tagRe.ReplaceAllString(markup, " ")
	text = html.UnescapeString(text)
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

func absoluteURL(href, baseURL string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	idx := strings.Index(baseURL, "://")
	if idx < 0 {
		return href
	}
	hostEnd := strings.Index(baseURL[idx+3:], "/")
	if hostEnd < 0 {
		return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(href, "/")
	}
	return baseURL[:idx+3+hostEnd] + "/" + strings.TrimPrefix(href, "/")
}
