// Package models defines core data structures for slug records, articles, and comparisons.
package models

// SlugRecord is one entry of the article corpus: a canonical slug, its display
// title, and the canonical page URL. Records are built offline from the sitemap
// dump and are immutable at query time.
type SlugRecord struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	LastMod string `json:"lastmod,omitempty"`
}

// SuggestResponse is the response for a suggest (autocomplete) request.
type SuggestResponse struct {
	Query       string       `json:"query"`
	Suggestions []SlugRecord `json:"suggestions"`
	Total       int          `json:"total"`
	QueryTime   int64        `json:"query_time_ms"`
}
