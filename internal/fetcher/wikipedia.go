package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AppleLamps/grokiwiki/internal/models"
)

// WikipediaClient fetches article summaries and section headings through the
// official Wikipedia APIs (REST summary plus Action API sections).
type WikipediaClient struct {
	http      *http.Client
	base      string
	userAgent string
}

// NewWikipediaClient creates a client against base (e.g. "https://en.wikipedia.org").
func NewWikipediaClient(base, userAgent string, timeout time.Duration) *WikipediaClient {
	return &WikipediaClient{
		http:      &http.Client{Timeout: timeout},
		base:      strings.TrimRight(base, "/"),
		userAgent: userAgent,
	}
}

type wikiSummary struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

type wikiSections struct {
	Parse struct {
		Sections []struct {
			Line string `json:"line"`
		} `json:"sections"`
	} `json:"parse"`
}

// FetchArticle returns the article for the given page title (underscored or
// spaced). Missing pages are ErrArticleNotFound.
func (w *WikipediaClient) FetchArticle(ctx context.Context, title string) (*models.Article, error) {
	page := strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
	if page == "" {
		return nil, fmt.Errorf("%w: empty title", ErrArticleNotFound)
	}

	summaryURL := w.base + "/api/rest_v1/page/summary/" + url.PathEscape(page)
	var summary wikiSummary
	status, err := w.getJSON(ctx, summaryURL, &summary)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: wikipedia page %s", ErrArticleNotFound, page)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: wikipedia summary status %d", ErrRequest, status)
	}

	article := &models.Article{
		Source: "wikipedia",
		Title:  summary.Title,
		Intro:  strings.TrimSpace(summary.Extract),
		URL:    summary.ContentURLs.Desktop.Page,
	}
	if article.Title == "" {
		article.Title = strings.ReplaceAll(page, "_", " ")
	}
	if article.URL == "" {
		article.URL = w.base + "/wiki/" + page
	}

	// Section headings are best-effort: a failed sections call degrades the
	// article, it does not fail the fetch.
	sectionsURL := w.base + "/w/api.php?action=parse&prop=sections&format=json&page=" + url.QueryEscape(page)
	var sections wikiSections
	if status, err := w.getJSON(ctx, sectionsURL, &sections); err == nil && status == http.StatusOK {
		for i, s := range sections.Parse.Sections {
			if i >= 10 {
				break
			}
			if line := strings.TrimSpace(s.Line); line != "" {
				article.Sections = append(article.Sections, line)
			}
		}
	}
	return article, nil
}

func (w *WikipediaClient) getJSON(ctx context.Context, rawURL string, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req.Header.Set("User-Agent", w.userAgent)
	resp, err := w.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: decode %s: %v", ErrRequest, rawURL, err)
	}
	return resp.StatusCode, nil
}
