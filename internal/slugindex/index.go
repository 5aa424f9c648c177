package slugindex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/AppleLamps/grokiwiki/internal/models"
)

// DefaultLimit is the suggestion count used when a caller does not specify one.
const DefaultLimit = 8

var (
	// ErrInvalidLimit is returned for a non-positive result limit. The backing
	// store is not touched.
	ErrInvalidLimit = errors.New("slugindex: limit must be a positive integer")

	// ErrIndexUnavailable means the persisted index file is missing or corrupt.
	// It is a startup-time fatal condition; the service must not start without
	// a working index.
	ErrIndexUnavailable = errors.New("slugindex: persisted index unavailable")
)

// SlugIndex resolves user-typed, possibly partial, article names to slug
// records. Implementations are read-only after construction and safe for
// concurrent use. Searches on persisted variants may block on I/O.
type SlugIndex interface {
	// Search returns up to limit records matching query, best first. An empty
	// or all-separator query yields no results and no error.
	Search(ctx context.Context, query string, limit int) ([]models.SlugRecord, error)
	// Resolve returns the single best match for query, or nil when nothing
	// matches. An exact slug match always wins.
	Resolve(ctx context.Context, query string) (*models.SlugRecord, error)
	// Exists reports whether slug is in the corpus (case-insensitive).
	Exists(ctx context.Context, slug string) (bool, error)
	// ListByPrefix returns up to limit records whose slug starts with prefix,
	// case-insensitively, ordered by lowercased slug. Lowercased slugs are
	// unique (the builder dedupes case-insensitively), so the order is total.
	// An empty prefix lists from the beginning of the corpus.
	ListByPrefix(ctx context.Context, prefix string, limit int) ([]models.SlugRecord, error)
	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)
	Close() error
}

// candidate is a match with its classification for ranking.
type candidate struct {
	rec    models.SlugRecord
	prefix bool
}

// rankCandidates orders candidates by the index's ordering contract and
// truncates to limit: prefix matches first, then shorter titles, then
// lexicographic slug order. Slugs are unique, so the order is total and
// repeated searches are stable.
func rankCandidates(cands []candidate, limit int) []models.SlugRecord {
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.prefix != b.prefix {
			return a.prefix
		}
		// Character count, not bytes, so ordering agrees with the persisted
		// variant's LENGTH() on unicode titles.
		la, lb := utf8.RuneCountInString(a.rec.Title), utf8.RuneCountInString(b.rec.Title)
		if la != lb {
			return la < lb
		}
		return a.rec.Slug < b.rec.Slug
	})
	if len(cands) > limit {
		cands = cands[:limit]
	}
	out := make([]models.SlugRecord, len(cands))
	for i, c := range cands {
		out[i] = c.rec
	}
	return out
}

// DiskUsageBytes sums the on-disk size of the given files or directories.
// Missing paths contribute zero.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.Walk(p, func(_ string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() {
				total += fi.Size()
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
