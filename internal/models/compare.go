package models

import (
	"time"

	"github.com/google/uuid"
)

// CompareRequest asks for a side-by-side comparison of the article identified
// by Query (a slug or a typed article name resolved against the slug index).
type CompareRequest struct {
	Query string `json:"query"`
	// WikipediaURL overrides the derived Wikipedia article URL when set.
	WikipediaURL string `json:"wikipedia_url,omitempty"`
	// IncludeEdits also asks for suggested edits to the Grokipedia article.
	IncludeEdits bool `json:"include_edits,omitempty"`
}

// CompareSession carries all state for one comparison flow. It is created per
// request and passed explicitly down the pipeline; nothing about a comparison
// lives in package-level state.
type CompareSession struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Slug           string    `json:"slug"`
	Wikipedia      *Article  `json:"wikipedia,omitempty"`
	Grokipedia     *Article  `json:"grokipedia,omitempty"`
	TLDR           string    `json:"tldr,omitempty"`
	Comparison     string    `json:"comparison,omitempty"`
	SuggestedEdits string    `json:"suggested_edits,omitempty"`
	FetchTime      int64     `json:"fetch_time_ms"`
	LLMTime        int64     `json:"llm_time_ms"`
}

// NewCompareSession creates a session with a fresh ID.
func NewCompareSession(slug string) *CompareSession {
	return &CompareSession{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Slug:      slug,
	}
}
