package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// FirecrawlClient scrapes an arbitrary URL into clean markdown via the
// Firecrawl API.
type FirecrawlClient struct {
	http   *http.Client
	apiURL string
	apiKey string
}

// NewFirecrawlClient creates a Firecrawl client. An empty apiKey disables
// scraping; Scrape then returns ErrRequest.
func NewFirecrawlClient(apiURL, apiKey string, timeout time.Duration) *FirecrawlClient {
	return &FirecrawlClient{
		http:   &http.Client{Timeout: timeout},
		apiURL: apiURL,
		apiKey: apiKey,
	}
}

// ScrapeResult is the reduced Firecrawl response.
type ScrapeResult struct {
	Markdown    string
	Title       string
	Description string
	URL         string
}

type firecrawlRequest struct {
	URL             string   `json:"url"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	Formats         []string `json:"formats"`
}

type firecrawlResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			StatusCode  int    `json:"statusCode"`
		} `json:"metadata"`
	} `json:"data"`
}

// Scrape fetches url and returns its main content as markdown.
func (f *FirecrawlClient) Scrape(ctx context.Context, url string) (*ScrapeResult, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("%w: firecrawl api key not configured", ErrRequest)
	}
	body, err := json.Marshal(firecrawlRequest{
		URL:             url,
		OnlyMainContent: true,
		Formats:         []string{"markdown"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req.Header.Set("Authorization", "Bearer "+f.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: firecrawl status %d", ErrRequest, resp.StatusCode)
	}

	var out firecrawlResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode firecrawl response: %v", ErrRequest, err)
	}
	if !out.Success || out.Data == nil {
		return nil, fmt.Errorf("%w: firecrawl scrape unsuccessful", ErrRequest)
	}
	if out.Data.Metadata.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrArticleNotFound, url)
	}
	return &ScrapeResult{
		Markdown:    out.Data.Markdown,
		Title:       out.Data.Metadata.Title,
		Description: out.Data.Metadata.Description,
		URL:         url,
	}, nil
}
