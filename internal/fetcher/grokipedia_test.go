package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const testMarkdown = `Albert Einstein was a theoretical physicist
born in Ulm.

## Early life

He was born in 1879.

## Career

Physics.
`

func firecrawlTestServer(t *testing.T, markdown string, pageStatus int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fc-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		fmt.Fprintf(w, `{
			"success": true,
			"data": {
				"markdown": %q,
				"metadata": {"title": "Albert Einstein", "description": "A physicist.", "statusCode": %d}
			}
		}`, markdown, pageStatus)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGrokipediaFetchArticle(t *testing.T) {
	srv := firecrawlTestServer(t, testMarkdown, http.StatusOK)
	scraper := NewFirecrawlClient(srv.URL, "fc-test", 5*time.Second)
	client := NewGrokipediaClient("https://grokipedia.com", scraper)

	article, err := client.FetchArticle(context.Background(), "Albert_Einstein")
	if err != nil {
		t.Fatalf("FetchArticle: %v", err)
	}
	if article.Source != "grokipedia" {
		t.Errorf("Source = %q", article.Source)
	}
	if article.URL != "https://grokipedia.com/page/Albert_Einstein" {
		t.Errorf("URL = %q", article.URL)
	}
	wantIntro := "Albert Einstein was a theoretical physicist\nborn in Ulm."
	if article.Intro != wantIntro {
		t.Errorf("Intro = %q, want %q", article.Intro, wantIntro)
	}
	if diff := cmp.Diff([]string{"Early life", "Career"}, article.Sections); diff != "" {
		t.Errorf("Sections mismatch (-want +got):\n%s", diff)
	}
	if article.FullText != testMarkdown {
		t.Errorf("FullText not preserved")
	}
}

func TestGrokipediaFetchArticleNotFound(t *testing.T) {
	srv := firecrawlTestServer(t, "", http.StatusNotFound)
	scraper := NewFirecrawlClient(srv.URL, "fc-test", 5*time.Second)
	client := NewGrokipediaClient("https://grokipedia.com", scraper)

	_, err := client.FetchArticle(context.Background(), "Missing_page")
	if !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("err = %v, want ErrArticleNotFound", err)
	}
}

func TestGrokipediaFetchArticleEmptySlug(t *testing.T) {
	client := NewGrokipediaClient("https://grokipedia.com", NewFirecrawlClient("", "", time.Second))
	_, err := client.FetchArticle(context.Background(), "  ")
	if !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("err = %v, want ErrArticleNotFound", err)
	}
}

func TestFirecrawlScrapeNoKey(t *testing.T) {
	scraper := NewFirecrawlClient("https://api.firecrawl.dev/v1/scrape", "", time.Second)
	_, err := scraper.Scrape(context.Background(), "https://example.com")
	if !errors.Is(err, ErrRequest) {
		t.Fatalf("err = %v, want ErrRequest", err)
	}
}

func TestSplitMarkdown(t *testing.T) {
	intro, sections := splitMarkdown("intro line\n\n# One\nbody\n### Two\n#\nmore")
	if intro != "intro line" {
		t.Errorf("intro = %q", intro)
	}
	if diff := cmp.Diff([]string{"One", "Two"}, sections); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}
}
