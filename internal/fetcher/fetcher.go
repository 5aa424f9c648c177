// Package fetcher retrieves article content from Wikipedia and Grokipedia.
// Both sources are external collaborators: the clients here are thin and
// return the reduced models.Article shape the comparison flow consumes.
package fetcher

import "errors"

var (
	// ErrArticleNotFound means the requested article does not exist at the source.
	ErrArticleNotFound = errors.New("fetcher: article not found")
	// ErrRequest wraps transport or upstream failures.
	ErrRequest = errors.New("fetcher: request failed")
)
