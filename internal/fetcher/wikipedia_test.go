package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func wikipediaTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rest_v1/page/summary/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("summary request missing User-Agent")
		}
		page := strings.TrimPrefix(r.URL.Path, "/api/rest_v1/page/summary/")
		if page == "Missing_page" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{
			"title": "Albert Einstein",
			"extract": "Albert Einstein was a theoretical physicist.",
			"content_urls": {"desktop": {"page": "https://en.wikipedia.org/wiki/Albert_Einstein"}}
		}`)
	})
	mux.HandleFunc("/w/api.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"parse": {"sections": [{"line": "Early life"}, {"line": "Career"}, {"line": ""}]}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestWikipediaFetchArticle(t *testing.T) {
	srv := wikipediaTestServer(t)
	client := NewWikipediaClient(srv.URL, "test-agent", 5*time.Second)

	article, err := client.FetchArticle(context.Background(), "Albert Einstein")
	if err != nil {
		t.Fatalf("FetchArticle: %v", err)
	}
	if article.Source != "wikipedia" {
		t.Errorf("Source = %q", article.Source)
	}
	if article.Title != "Albert Einstein" {
		t.Errorf("Title = %q", article.Title)
	}
	if article.Intro != "Albert Einstein was a theoretical physicist." {
		t.Errorf("Intro = %q", article.Intro)
	}
	if article.URL != "https://en.wikipedia.org/wiki/Albert_Einstein" {
		t.Errorf("URL = %q", article.URL)
	}
	if diff := cmp.Diff([]string{"Early life", "Career"}, article.Sections); diff != "" {
		t.Errorf("Sections mismatch (-want +got):\n%s", diff)
	}
}

func TestWikipediaFetchArticleNotFound(t *testing.T) {
	srv := wikipediaTestServer(t)
	client := NewWikipediaClient(srv.URL, "test-agent", 5*time.Second)

	_, err := client.FetchArticle(context.Background(), "Missing page")
	if !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("err = %v, want ErrArticleNotFound", err)
	}
}

func TestWikipediaFetchArticleEmptyTitle(t *testing.T) {
	client := NewWikipediaClient("https://example.invalid", "test-agent", time.Second)

	_, err := client.FetchArticle(context.Background(), "   ")
	if !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("err = %v, want ErrArticleNotFound", err)
	}
}

func TestWikipediaSectionsBestEffort(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rest_v1/page/summary/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title": "Zebra", "extract": "A zebra."}`)
	})
	mux.HandleFunc("/w/api.php", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewWikipediaClient(srv.URL, "test-agent", 5*time.Second)
	article, err := client.FetchArticle(context.Background(), "Zebra")
	if err != nil {
		t.Fatalf("FetchArticle: %v", err)
	}
	if len(article.Sections) != 0 {
		t.Errorf("Sections = %v, want none when sections call fails", article.Sections)
	}
	if article.URL != srv.URL+"/wiki/Zebra" {
		t.Errorf("fallback URL = %q", article.URL)
	}
}
