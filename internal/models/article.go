package models

// Article is a fetched encyclopedia article, reduced to the parts the
// comparison flow needs. Sections holds section headings only.
type Article struct {
	Source   string   `json:"source"` // "wikipedia" or "grokipedia"
	Title    string   `json:"title"`
	Intro    string   `json:"intro,omitempty"`
	Sections []string `json:"sections,omitempty"`
	FullText string   `json:"full_text,omitempty"`
	URL      string   `json:"url"`
}
