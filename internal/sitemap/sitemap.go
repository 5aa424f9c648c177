// Package sitemap downloads the encyclopedia's sitemap dump and writes the
// per-part link files (names.txt, urls.txt, dates.txt) the index builder
// consumes as its bulk slug source.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"go.uber.org/zap"
)

// Entry is one <url> element of a sitemap part.
type Entry struct {
	Loc     string
	LastMod string
}

type sitemapIndex struct {
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

type urlSet struct {
	URLs []struct {
		Loc     string `xml:"loc"`
		LastMod string `xml:"lastmod"`
	} `xml:"url"`
}

// Client fetches and parses sitemap XML.
type Client struct {
	http      *http.Client
	indexURL  string
	userAgent string
	logger    *zap.Logger
}

// NewClient creates a sitemap client for the given sitemap index URL.
func NewClient(indexURL, userAgent string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		indexURL:  indexURL,
		userAgent: userAgent,
		logger:    logger,
	}
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sitemap: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sitemap: fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// FetchIndex returns the part URLs listed in the sitemap index.
func (c *Client) FetchIndex(ctx context.Context) ([]string, error) {
	data, err := c.get(ctx, c.indexURL)
	if err != nil {
		return nil, err
	}
	var idx sitemapIndex
	if err := xml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("sitemap: parse index %s: %w", c.indexURL, err)
	}
	parts := make([]string, 0, len(idx.Sitemaps))
	for _, s := range idx.Sitemaps {
		if loc := strings.TrimSpace(s.Loc); loc != "" {
			parts = append(parts, loc)
		}
	}
	return parts, nil
}

// FetchPart returns all URL entries of one sitemap part.
func (c *Client) FetchPart(ctx context.Context, partURL string) ([]Entry, error) {
	data, err := c.get(ctx, partURL)
	if err != nil {
		return nil, err
	}
	var set urlSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("sitemap: parse part %s: %w", partURL, err)
	}
	entries := make([]Entry, 0, len(set.URLs))
	for _, u := range set.URLs {
		entries = append(entries, Entry{
			Loc:     strings.TrimSpace(u.Loc),
			LastMod: strings.TrimSpace(u.LastMod),
		})
	}
	return entries, nil
}

// PageSlug extracts the article slug from a page URL. The second return is
// false for non-article URLs.
func PageSlug(loc string) (string, bool) {
	_, after, found := strings.Cut(loc, "/page/")
	if !found || after == "" {
		return "", false
	}
	return after, true
}

// Download fetches every sitemap part and writes one directory per part under
// destDir containing urls.txt, names.txt, and dates.txt for its article
// pages. Parts are fetched concurrently. Returns the total number of article
// pages written.
func (c *Client) Download(ctx context.Context, destDir string) (int, error) {
	parts, err := c.FetchIndex(ctx)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return 0, fmt.Errorf("sitemap: create %s: %w", destDir, err)
	}

	var total atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, partURL := range parts {
		partURL := partURL
		g.Go(func() error {
			entries, err := c.FetchPart(ctx, partURL)
			if err != nil {
				return err
			}
			n, err := writePart(destDir, partURL, entries)
			if err != nil {
				return err
			}
			total.Add(int64(n))
			if c.logger != nil {
				c.logger.Info("sitemap part saved",
					zap.String("part", partURL),
					zap.Int("pages", n),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return int(total.Load()), nil
}

// writePart writes the article entries of one part into its own directory,
// named after the part file (e.g. sitemap-00001).
func writePart(destDir, partURL string, entries []Entry) (int, error) {
	partName := strings.TrimSuffix(filepath.Base(partURL), ".xml")
	dir := filepath.Join(destDir, partName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("sitemap: create %s: %w", dir, err)
	}

	var urls, names, dates []string
	for _, e := range entries {
		slug, ok := PageSlug(e.Loc)
		if !ok {
			continue
		}
		urls = append(urls, e.Loc)
		names = append(names, slug)
		dates = append(dates, e.LastMod)
	}

	files := map[string][]string{
		"urls.txt":  urls,
		"names.txt": names,
		"dates.txt": dates,
	}
	for name, lines := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
			return 0, fmt.Errorf("sitemap: write %s: %w", path, err)
		}
	}
	return len(names), nil
}
