// Package llm calls the OpenRouter chat-completions API to summarize and
// compare fetched articles. The provider contract is opaque: prompt in,
// generated text out. Output quality is the model's concern, not ours.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AppleLamps/grokiwiki/internal/models"
)

// ErrNoAPIKey means the OpenRouter API key is not configured; comparison
// features are unavailable but the rest of the service still works.
var ErrNoAPIKey = errors.New("llm: OPENROUTER_API_KEY not configured")

// Client is an OpenRouter chat-completions client.
type Client struct {
	http     *http.Client
	apiURL   string
	apiKey   string
	model    string
	referer  string
	appTitle string
}

// NewClient creates an OpenRouter client.
func NewClient(apiURL, apiKey, model, referer, appTitle string, timeout time.Duration) *Client {
	return &Client{
		http:     &http.Client{Timeout: timeout},
		apiURL:   apiURL,
		apiKey:   apiKey,
		model:    model,
		referer:  referer,
		appTitle: appTitle,
	}
}

// Available reports whether the client has an API key.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.appTitle != "" {
		req.Header.Set("X-Title", c.appTitle)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: status %d", resp.StatusCode)
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("llm: empty response")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// articleBody flattens an article for prompting, preferring the full text.
func articleBody(a *models.Article) string {
	if a == nil {
		return ""
	}
	if a.FullText != "" {
		return a.FullText
	}
	return a.Intro + "\n\n" + strings.Join(a.Sections, "\n")
}

// GenerateTLDR produces a 2-3 sentence summary of the article.
func (c *Client) GenerateTLDR(ctx context.Context, article *models.Article) (string, error) {
	user := fmt.Sprintf(`
Create a concise TLDR summary of the following article about %s.

Your summary should:
- Be brief and to the point (2-3 sentences maximum)
- Capture the main points and key information
- Maintain a neutral, informative tone
- Focus on the essential content of the article

ARTICLE:
%s

Write the TLDR summary now:
`, article.Title, articleBody(article))
	return c.complete(ctx,
		"You are an expert at creating concise, informative TLDR summaries. Focus on extracting the most important information and presenting it clearly and briefly.",
		user, 0.3, 150)
}

// CompareArticles produces a prose comparison of the two articles' coverage
// and framing.
func (c *Client) CompareArticles(ctx context.Context, wikipedia, grokipedia *models.Article) (string, error) {
	user := fmt.Sprintf(`
Compare the following two encyclopedia articles about the same subject.

Discuss, in a few short paragraphs:
- Facts or topics covered by one article but not the other
- Differences in emphasis or framing
- Any claims where the articles disagree

WIKIPEDIA ARTICLE (%s):
%s

GROKIPEDIA ARTICLE (%s):
%s

Write the comparison now:
`, wikipedia.Title, articleBody(wikipedia), grokipedia.Title, articleBody(grokipedia))
	return c.complete(ctx,
		"You are a careful editor comparing encyclopedia articles. Be specific and cite which article each observation comes from. Keep a neutral tone.",
		user, 0.3, 800)
}

// SuggestEdits proposes concrete edits to the Grokipedia article based on
// material present in the Wikipedia one.
func (c *Client) SuggestEdits(ctx context.Context, wikipedia, grokipedia *models.Article) (string, error) {
	user := fmt.Sprintf(`
Review the Grokipedia article below against the Wikipedia article on the same
subject and suggest edits to the Grokipedia article.

For each suggestion:
- Quote or name the passage to change
- State the change and the supporting material from the Wikipedia article
- Keep suggestions factual; do not propose stylistic rewrites

WIKIPEDIA ARTICLE (%s):
%s

GROKIPEDIA ARTICLE (%s):
%s

List the suggested edits now:
`, wikipedia.Title, articleBody(wikipedia), grokipedia.Title, articleBody(grokipedia))
	return c.complete(ctx,
		"You are an encyclopedia editor. Suggest precise, verifiable edits only, each grounded in the reference article.",
		user, 0.3, 800)
}
