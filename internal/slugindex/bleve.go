package slugindex

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/AppleLamps/grokiwiki/internal/models"
)

// bleveSlugDoc is the stored shape of one record in the Bleve backend.
type bleveSlugDoc struct {
	Slug       string `json:"slug"`
	SlugLower  string `json:"slug_lower"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	LastMod    string `json:"lastmod"`
	Normalized string `json:"normalized"`
}

func bleveSlugMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Standard analyzer (lowercase + tokenize, no stemming) on the searchable
	// text so token prefixes match the literal terms.
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("normalized", textField)
	docMapping.AddFieldMappingsAt("title", textField)

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("slug", keywordField)
	docMapping.AddFieldMappingsAt("slug_lower", keywordField)
	docMapping.AddFieldMappingsAt("url", keywordField)
	docMapping.AddFieldMappingsAt("lastmod", keywordField)

	im.DefaultMapping = docMapping
	return im
}

// BuildBleve writes records into a fresh Bleve index at path, replacing any
// existing index. Functionally equivalent to BuildSQLite for a deployment
// that prefers a Bleve artifact.
func (b *Builder) BuildBleve(ctx context.Context, records []models.SlugRecord, path string) error {
	if len(records) == 0 {
		return fmt.Errorf("slugindex: refusing to build empty index")
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("slugindex: remove old index: %w", err)
	}
	idx, err := bleve.New(path, bleveSlugMapping())
	if err != nil {
		return fmt.Errorf("slugindex: create bleve index: %w", err)
	}
	defer idx.Close()

	batch := idx.NewBatch()
	flushed := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := bleveSlugDoc{
			Slug:       rec.Slug,
			SlugLower:  strings.ToLower(rec.Slug),
			Title:      rec.Title,
			URL:        rec.URL,
			LastMod:    rec.LastMod,
			Normalized: Normalize(rec.Slug),
		}
		if err := batch.Index(doc.SlugLower, doc); err != nil {
			return fmt.Errorf("slugindex: batch index %s: %w", rec.Slug, err)
		}
		if batch.Size() >= 1000 {
			if err := idx.Batch(batch); err != nil {
				return fmt.Errorf("slugindex: flush batch: %w", err)
			}
			flushed += batch.Size()
			if b.logger != nil && flushed%progressInterval < 1000 {
				b.logger.Info("slug records indexed", zap.Int("count", flushed))
			}
			batch.Reset()
		}
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return fmt.Errorf("slugindex: flush batch: %w", err)
		}
	}
	if b.logger != nil {
		b.logger.Info("bleve slug index built",
			zap.String("path", path),
			zap.Int("records", len(records)),
		)
	}
	return nil
}

// BleveSlugIndex is the persisted variant backed by a Bleve on-disk index.
// Candidates come back in FTS score order, so hits are re-ranked in Go against
// the ordering contract before returning.
type BleveSlugIndex struct {
	index bleve.Index
	path  string
}

// NewBleveSlugIndex opens an existing Bleve slug index at path. The index is
// never created at runtime; a missing or empty one is ErrIndexUnavailable.
func NewBleveSlugIndex(path string) (*BleveSlugIndex, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIndexUnavailable, path, err)
	}
	idx, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrIndexUnavailable, path, err)
	}
	count, err := idx.DocCount()
	if err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrIndexUnavailable, path, err)
	}
	if count == 0 {
		_ = idx.Close()
		return nil, fmt.Errorf("%w: %s holds no records", ErrIndexUnavailable, path)
	}
	return &BleveSlugIndex{index: idx, path: path}, nil
}

var slugHitFields = []string{"slug", "title", "url", "lastmod", "normalized"}

func recordFromHitFields(fields map[string]interface{}) models.SlugRecord {
	str := func(key string) string {
		if v, ok := fields[key].(string); ok {
			return v
		}
		return ""
	}
	return models.SlugRecord{
		Slug:    str("slug"),
		Title:   str("title"),
		URL:     str("url"),
		LastMod: str("lastmod"),
	}
}

// bleveSearchPage is the hit batch size used when paging through matches.
const bleveSearchPage = 1000

// Search implements SlugIndex. Per query token, a prefix query and a wildcard
// (substring) query on the normalized field are OR-ed; tokens are AND-ed
// together. All hits are paged in and classified against the stored
// normalized key, then ranked by the ordering contract; leftover slots are
// filled with remaining hits in score order, mirroring the SQLite variant's
// FTS stage.
func (b *BleveSlugIndex) Search(ctx context.Context, query string, limit int) ([]models.SlugRecord, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	q := Normalize(query)
	if q == "" {
		return nil, nil
	}

	tokens := Tokenize(q)
	perToken := make([]blevequery.Query, 0, len(tokens))
	for _, tok := range tokens {
		// The standard analyzer splits hyphenated words into separate terms,
		// so each hyphen part queries the index on its own.
		for _, part := range strings.FieldsFunc(tok, func(r rune) bool { return r == '-' }) {
			prefix := bleve.NewPrefixQuery(part)
			prefix.SetField("normalized")
			wildcard := bleve.NewWildcardQuery("*" + part + "*")
			wildcard.SetField("normalized")
			perToken = append(perToken, bleve.NewDisjunctionQuery(prefix, wildcard))
		}
	}
	if len(perToken) == 0 {
		return nil, nil
	}
	var full blevequery.Query
	if len(perToken) == 1 {
		full = perToken[0]
	} else {
		full = bleve.NewConjunctionQuery(perToken...)
	}

	// Score order is not the contract order, so ranking must see every hit;
	// a truncated pool would drop score-tied candidates arbitrarily.
	var cands []candidate
	var extras []models.SlugRecord
	req := bleve.NewSearchRequestOptions(full, bleveSearchPage, 0, false)
	req.Fields = slugHitFields
	for {
		res, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("slugindex: bleve search: %w", err)
		}
		for _, hit := range res.Hits {
			rec := recordFromHitFields(hit.Fields)
			normalized, _ := hit.Fields["normalized"].(string)
			switch {
			case strings.HasPrefix(normalized, q):
				cands = append(cands, candidate{rec: rec, prefix: true})
			case strings.Contains(normalized, q):
				cands = append(cands, candidate{rec: rec, prefix: false})
			default:
				extras = append(extras, rec)
			}
		}
		req.From += len(res.Hits)
		if len(res.Hits) == 0 || uint64(req.From) >= res.Total {
			break
		}
	}
	out := rankCandidates(cands, limit)
	for _, rec := range extras {
		if len(out) >= limit {
			break
		}
		out = append(out, rec)
	}
	return out, nil
}

// Resolve implements SlugIndex.
func (b *BleveSlugIndex) Resolve(ctx context.Context, query string) (*models.SlugRecord, error) {
	rec, err := b.lookup(ctx, strings.ToLower(strings.TrimSpace(query)))
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}
	results, err := b.Search(ctx, query, 1)
	if err != nil || len(results) == 0 {
		return nil, err
	}
	return &results[0], nil
}

func (b *BleveSlugIndex) lookup(ctx context.Context, slugLower string) (*models.SlugRecord, error) {
	tq := bleve.NewTermQuery(slugLower)
	tq.SetField("slug_lower")
	req := bleve.NewSearchRequestOptions(tq, 1, 0, false)
	req.Fields = slugHitFields
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("slugindex: bleve lookup: %w", err)
	}
	if len(res.Hits) == 0 {
		return nil, nil
	}
	rec := recordFromHitFields(res.Hits[0].Fields)
	return &rec, nil
}

// Exists implements SlugIndex.
func (b *BleveSlugIndex) Exists(ctx context.Context, slug string) (bool, error) {
	rec, err := b.lookup(ctx, strings.ToLower(slug))
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// ListByPrefix implements SlugIndex.
func (b *BleveSlugIndex) ListByPrefix(ctx context.Context, prefix string, limit int) ([]models.SlugRecord, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	var q blevequery.Query
	if prefix == "" {
		q = bleve.NewMatchAllQuery()
	} else {
		pq := bleve.NewPrefixQuery(strings.ToLower(prefix))
		pq.SetField("slug_lower")
		q = pq
	}
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = slugHitFields
	req.SortBy([]string{"slug_lower"})
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("slugindex: bleve list: %w", err)
	}
	out := make([]models.SlugRecord, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, recordFromHitFields(hit.Fields))
	}
	return out, nil
}

// Count implements SlugIndex.
func (b *BleveSlugIndex) Count(ctx context.Context) (int64, error) {
	count, err := b.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("slugindex: bleve count: %w", err)
	}
	return int64(count), nil
}

// Close implements SlugIndex.
func (b *BleveSlugIndex) Close() error {
	return b.index.Close()
}
