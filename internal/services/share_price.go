package services

import (
	"context"
	"fmt"
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

// sharePriceCacheTTL keeps the investor page from being hammered by polling
// displays; prices do not move faster than this anyway.
const sharePriceCacheTTL = 2 * time.Minute

var (
	priceRe      = regexp.MustCompile(`\$([\d,]+\.?\d*)`)
	percentageRe = regexp.MustCompile(`([+-]?\d+\.?\d*)\s*%`)
)

// SharePriceService fetches the current share price from the public investor
// page. The page has no API, so the price is extracted from the markup.
type SharePriceService struct {
	client  *http.Client
	pageURL string

	mu        sync.Mutex
	cached    *models.SharePrice
	fetchedAt time.Time
	manual    bool
	now       func() time.Time
}

// NewSharePriceService creates a new share price service
func NewSharePriceService(client *http.Client, pageURL string) *SharePriceService {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &SharePriceService{
		client:  client,
		pageURL: pageURL,
		now:     time.Now,
	}
}

// SetManual overrides the share price with an admin-entered value. The
// override does not expire; scraping resumes only after a restart.
func (sps *SharePriceService) SetManual(price, changePct float64) *models.SharePrice {
	sps.mu.Lock()
	defer sps.mu.Unlock()
	sps.cached = &models.SharePrice{
		Price:            price,
		ChangePercentage: changePct,
		Source:           "manual",
		FetchedAt:        sps.now(),
	}
	sps.fetchedAt = sps.now()
	sps.manual = true
	copied := *sps.cached
	return &copied
}

// Get returns the latest share price, served from cache when fresh
func (sps *SharePriceService) Get(ctx context.Context) (*models.SharePrice, error) {
	sps.mu.Lock()
	if sps.cached != nil && (sps.manual || sps.now().Sub(sps.fetchedAt) < sharePriceCacheTTL) {
		cached := *sps.cached
		sps.mu.Unlock()
		return &cached, nil
	}
	sps.mu.Unlock()

	price, err := sps.fetch(ctx)
	if err != nil {
		// Serve a stale price over an error when we have one
		sps.mu.Lock()
		defer sps.mu.Unlock()
		if sps.cached != nil {
			log.Printf("Share price fetch failed, serving stale value: %v", err)
			stale := *sps.cached
			return &stale, nil
		}
		return nil, err
	}

	sps.mu.Lock()
	sps.cached = price
	sps.fetchedAt = sps.now()
	sps.mu.Unlock()
	return price, nil
}

func (sps *SharePriceService) fetch(ctx context.Context) (*models.SharePrice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sps.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build share price request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := sps.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch share price page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("share price page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read share price page: %w", err)
	}

	price, change, ok := ExtractSharePrice(string(body))
	if !ok {
		return nil, fmt.Errorf("could not find a share price on the investor page")
	}

	return &models.SharePrice{
		Price:            price,
		ChangePercentage: change,
		Source:           sps.pageURL,
		FetchedAt:        sps.now(),
	}, nil
}

// ExtractSharePrice pulls the first dollar price out of page markup, along
// with a nearby percentage change when one appears in the same region.
func ExtractSharePrice(page string) (price, changePct float64, ok bool) {
	loc := priceRe.FindStringSubmatchIndex(page)
	if loc == nil {
		return 0, 0, false
	}

	raw := strings.ReplaceAll(page[loc[2]:loc[3]], ",", "")
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, 0, false
	}

	// Look for a percentage change in the text following the price
	end := loc[1] + 400
	if end > len(page) {
		end = len(page)
	}
	if m := percentageRe.FindStringSubmatch(page[loc[1]:end]); m != nil {
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
			changePct = pct
		}
	}
	return price, changePct, true
}
