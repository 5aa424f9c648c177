package slugindex

import (
	"context"
	"sort"
	"strings"

	"github.com/AppleLamps/grokiwiki/internal/models"
)

// MemoryIndex keeps the whole corpus resident in process memory, ordered by
// normalized key for sub-linear prefix lookup. It is built once at startup and
// never mutated, so concurrent searches need no locking.
type MemoryIndex struct {
	records []models.SlugRecord // sorted by (key, slug)
	keys    []string            // normalized key per record, same order

	bySlug map[string]int // lowercase slug -> position in records
	slugs  []string       // lowercase slugs in sorted order, for ListByPrefix
	slugAt []int          // position in records per entry of slugs
}

// NewMemoryIndex builds an in-memory index over records. Input order does not
// matter; duplicate slugs are expected to have been removed by the builder.
func NewMemoryIndex(records []models.SlugRecord) *MemoryIndex {
	m := &MemoryIndex{
		records: make([]models.SlugRecord, len(records)),
		bySlug:  make(map[string]int, len(records)),
	}
	copy(m.records, records)

	sort.Slice(m.records, func(i, j int) bool {
		ki, kj := Normalize(m.records[i].Slug), Normalize(m.records[j].Slug)
		if ki != kj {
			return ki < kj
		}
		return m.records[i].Slug < m.records[j].Slug
	})
	m.keys = make([]string, len(m.records))
	for i, r := range m.records {
		m.keys[i] = Normalize(r.Slug)
		m.bySlug[strings.ToLower(r.Slug)] = i
	}

	m.slugs = make([]string, 0, len(m.records))
	m.slugAt = make([]int, 0, len(m.records))
	order := make([]int, len(m.records))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return strings.ToLower(m.records[order[i]].Slug) < strings.ToLower(m.records[order[j]].Slug)
	})
	for _, idx := range order {
		m.slugs = append(m.slugs, strings.ToLower(m.records[idx].Slug))
		m.slugAt = append(m.slugAt, idx)
	}
	return m
}

// Search implements SlugIndex. Prefix matches are located with a binary
// search over the sorted key list; substring matches require a scan, which is
// acceptable for the development-sized corpora this variant serves.
func (m *MemoryIndex) Search(ctx context.Context, query string, limit int) ([]models.SlugRecord, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	q := Normalize(query)
	if q == "" {
		return nil, nil
	}

	lo := sort.SearchStrings(m.keys, q)
	hi := lo
	for hi < len(m.keys) && strings.HasPrefix(m.keys[hi], q) {
		hi++
	}

	cands := make([]candidate, 0, hi-lo)
	for i := lo; i < hi; i++ {
		cands = append(cands, candidate{rec: m.records[i], prefix: true})
	}
	for i, key := range m.keys {
		if i >= lo && i < hi {
			continue
		}
		if strings.Contains(key, q) {
			cands = append(cands, candidate{rec: m.records[i], prefix: false})
		}
	}
	return rankCandidates(cands, limit), nil
}

// Resolve implements SlugIndex.
func (m *MemoryIndex) Resolve(ctx context.Context, query string) (*models.SlugRecord, error) {
	if i, ok := m.bySlug[strings.ToLower(strings.TrimSpace(query))]; ok {
		rec := m.records[i]
		return &rec, nil
	}
	results, err := m.Search(ctx, query, 1)
	if err != nil || len(results) == 0 {
		return nil, err
	}
	return &results[0], nil
}

// Exists implements SlugIndex.
func (m *MemoryIndex) Exists(ctx context.Context, slug string) (bool, error) {
	_, ok := m.bySlug[strings.ToLower(slug)]
	return ok, nil
}

// ListByPrefix implements SlugIndex.
func (m *MemoryIndex) ListByPrefix(ctx context.Context, prefix string, limit int) ([]models.SlugRecord, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	p := strings.ToLower(prefix)
	lo := sort.SearchStrings(m.slugs, p)
	out := make([]models.SlugRecord, 0, limit)
	for i := lo; i < len(m.slugs) && len(out) < limit; i++ {
		if !strings.HasPrefix(m.slugs[i], p) {
			break
		}
		out = append(out, m.records[m.slugAt[i]])
	}
	return out, nil
}

// Count implements SlugIndex.
func (m *MemoryIndex) Count(ctx context.Context) (int64, error) {
	return int64(len(m.records)), nil
}

// Close implements SlugIndex. Nothing to release for the in-memory variant.
func (m *MemoryIndex) Close() error {
	return nil
}
