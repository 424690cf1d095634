package player

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPFetcher fetches a slide list from a remote slide source endpoint
// returning {"slides": ["...", ...]}. Displays running against a separate
// backend use this; an in-process provider can implement SlideFetcher directly.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher using the given client. The client's
// timeout governs the request deadline; the player's slow-loading hint is
// independent of it.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client}
}

type slidesResponse struct {
	Slides []string `json:"slides"`
	Detail string   `json:"detail"`
}

// FetchSlides requests the slide list from the given endpoint. Non-2xx
// responses surface the server's detail message when one is present.
func (f *HTTPFetcher) FetchSlides(ctx context.Context, endpoint string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build slides request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read slides response: %w", err)
	}

	var parsed slidesResponse
	jsonErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("slide source returned status %d", resp.StatusCode)
		if jsonErr == nil && parsed.Detail != "" {
			return nil, &ProviderError{Detail: parsed.Detail, Err: err}
		}
		return nil, err
	}
	if jsonErr != nil {
		return nil, fmt.Errorf("malformed slides response: %w", jsonErr)
	}
	return parsed.Slides, nil
}
