package fetcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/AppleLamps/grokiwiki/internal/models"
	"github.com/AppleLamps/grokiwiki/pkg/utils"
)

// GrokipediaClient fetches Grokipedia articles by slug. Grokipedia exposes no
// public content API, so page content comes through the Firecrawl scraper.
type GrokipediaClient struct {
	scraper *FirecrawlClient
	base    string
}

// NewGrokipediaClient creates a client for base (e.g. "https://grokipedia.com").
func NewGrokipediaClient(base string, scraper *FirecrawlClient) *GrokipediaClient {
	return &GrokipediaClient{
		scraper: scraper,
		base:    strings.TrimRight(base, "/"),
	}
}

// PageURL returns the canonical page URL for slug.
func (g *GrokipediaClient) PageURL(slug string) string {
	return g.base + "/page/" + slug
}

// FetchArticle scrapes the page for slug and returns it as an article. The
// markdown becomes FullText; the intro is the text up to the first section
// heading.
func (g *GrokipediaClient) FetchArticle(ctx context.Context, slug string) (*models.Article, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, fmt.Errorf("%w: empty slug", ErrArticleNotFound)
	}
	pageURL := g.PageURL(slug)
	result, err := g.scraper.Scrape(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	article := &models.Article{
		Source:   "grokipedia",
		Title:    result.Title,
		FullText: result.Markdown,
		URL:      pageURL,
	}
	if article.Title == "" {
		article.Title = utils.Humanize(slug)
	}
	article.Intro, article.Sections = splitMarkdown(result.Markdown)
	if article.Intro == "" && result.Description != "" {
		article.Intro = result.Description
	}
	return article, nil
}

// splitMarkdown returns the text before the first heading and the heading
// lines themselves (up to 10), for the reduced Article shape.
func splitMarkdown(markdown string) (intro string, sections []string) {
	var introLines []string
	inIntro := true
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			inIntro = false
			if len(sections) < 10 {
				heading := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
				if heading != "" {
					sections = append(sections, heading)
				}
			}
			continue
		}
		if inIntro {
			introLines = append(introLines, line)
		}
	}
	return strings.TrimSpace(strings.Join(introLines, "\n")), sections
}
