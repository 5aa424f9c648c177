package slugindex

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/AppleLamps/grokiwiki/internal/models"
	"github.com/AppleLamps/grokiwiki/pkg/utils"
	"go.uber.org/zap"
)

// BuildError reports a malformed record in the bulk slug source. The build
// aborts on the first one; silently skipping records would leave undetected
// gaps in user-facing search.
type BuildError struct {
	File   string
	Line   int
	Reason string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("slugindex: build %s:%d: %s", e.File, e.Line, e.Reason)
}

const (
	insertBatchSize  = 10000
	progressInterval = 100000
)

// Builder turns the bulk slug source (sitemap link directories with
// names.txt, urls.txt, dates.txt per part) into a queryable store. Building is
// idempotent: each run recreates the artifact from scratch.
type Builder struct {
	logger *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger enables build progress logging.
func WithLogger(logger *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder creates a builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ReadLinksDir parses every sitemap part directory under dir into slug
// records, in part order, deduplicated by slug (first occurrence wins). Parts
// are parsed concurrently; any malformed record aborts the whole read with a
// *BuildError.
func (b *Builder) ReadLinksDir(ctx context.Context, dir string) ([]models.SlugRecord, error) {
	parts, err := filepath.Glob(filepath.Join(dir, "sitemap-*"))
	if err != nil {
		return nil, fmt.Errorf("slugindex: glob %s: %w", dir, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("slugindex: no sitemap part directories under %s", dir)
	}
	sort.Strings(parts)

	perPart := make([][]models.SlugRecord, len(parts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, part := range parts {
		i, part := i, part
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			recs, err := parsePartDir(part)
			if err != nil {
				return err
			}
			perPart[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var records []models.SlugRecord
	seen := make(map[string]struct{})
	for _, recs := range perPart {
		for _, rec := range recs {
			key := strings.ToLower(rec.Slug)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			records = append(records, rec)
		}
	}
	if b.logger != nil {
		b.logger.Info("slug source read",
			zap.Int("parts", len(parts)),
			zap.Int("records", len(records)),
		)
	}
	return records, nil
}

// parsePartDir reads one sitemap part directory. names.txt is required;
// urls.txt and dates.txt are optional (URLs are derived from slugs when
// urls.txt is absent, lastmod stays empty when dates.txt is short).
func parsePartDir(dir string) ([]models.SlugRecord, error) {
	namesFile := filepath.Join(dir, "names.txt")
	names, err := readLines(namesFile)
	if err != nil {
		return nil, fmt.Errorf("slugindex: read %s: %w", namesFile, err)
	}

	urlsFile := filepath.Join(dir, "urls.txt")
	urls, err := readLines(urlsFile)
	haveURLs := err == nil
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("slugindex: read %s: %w", urlsFile, err)
	}
	dates, err := readLines(filepath.Join(dir, "dates.txt"))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("slugindex: read %s: %w", filepath.Join(dir, "dates.txt"), err)
	}

	records := make([]models.SlugRecord, 0, len(names))
	for i, slug := range names {
		if slug == "" {
			return nil, &BuildError{File: namesFile, Line: i + 1, Reason: "empty slug"}
		}
		rec := models.SlugRecord{
			Slug:  slug,
			Title: utils.Humanize(slug),
		}
		if haveURLs {
			if i >= len(urls) || urls[i] == "" {
				return nil, &BuildError{File: urlsFile, Line: i + 1, Reason: "missing url for slug " + slug}
			}
			rec.URL = urls[i]
		} else {
			rec.URL = PageURL(slug)
		}
		if i < len(dates) {
			rec.LastMod = dates[i]
		}
		records = append(records, rec)
	}
	return records, nil
}

// PageURL derives the canonical article URL for a slug.
func PageURL(slug string) string {
	return "https://grokipedia.com/page/" + slug
}

// readLines reads a whole line-per-record file, trimming each line and
// dropping trailing blank lines (a final newline is not a record).
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

const sqliteSchema = `
CREATE TABLE slugs (
	id INTEGER PRIMARY KEY,
	slug TEXT NOT NULL UNIQUE,
	slug_lower TEXT NOT NULL,
	title TEXT NOT NULL,
	url TEXT NOT NULL,
	normalized TEXT NOT NULL,
	lastmod TEXT
);

CREATE VIRTUAL TABLE slug_fts USING fts5(
	normalized,
	content='slugs',
	content_rowid='id',
	tokenize='porter unicode61'
);

CREATE INDEX idx_slug_lower ON slugs(slug_lower);
CREATE INDEX idx_normalized ON slugs(normalized);
`

// BuildSQLite writes records into a fresh SQLite database at dbPath,
// replacing any existing file, and builds the FTS index over the normalized
// text. The resulting file is the persisted-mode artifact shipped alongside
// the application.
func (b *Builder) BuildSQLite(ctx context.Context, records []models.SlugRecord, dbPath string) error {
	if len(records) == 0 {
		return fmt.Errorf("slugindex: refusing to build empty database")
	}
	// Stale WAL sidecars from an interrupted earlier build would otherwise be
	// replayed into the fresh database.
	for _, stale := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("slugindex: remove old database: %w", err)
		}
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("slugindex: create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("slugindex: open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("slugindex: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("slugindex: set synchronous: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("slugindex: create schema: %w", fts5Hint(err))
	}

	for start := 0; start < len(records); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := b.insertBatch(ctx, db, records[start:end]); err != nil {
			return err
		}
		if b.logger != nil && end%progressInterval < insertBatchSize {
			b.logger.Info("slug records loaded", zap.Int("count", end))
		}
	}

	if _, err := db.ExecContext(ctx, `INSERT INTO slug_fts(slug_fts) VALUES('rebuild')`); err != nil {
		return fmt.Errorf("slugindex: rebuild fts: %w", err)
	}
	if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("slugindex: vacuum: %w", err)
	}
	if _, err := db.ExecContext(ctx, "ANALYZE"); err != nil {
		return fmt.Errorf("slugindex: analyze: %w", err)
	}
	if b.logger != nil {
		b.logger.Info("slug database built",
			zap.String("path", dbPath),
			zap.Int("records", len(records)),
		)
	}
	return nil
}

func (b *Builder) insertBatch(ctx context.Context, db *sql.DB, batch []models.SlugRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("slugindex: begin batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO slugs (slug, slug_lower, title, url, normalized, lastmod)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("slugindex: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range batch {
		_, err := stmt.ExecContext(ctx,
			rec.Slug, strings.ToLower(rec.Slug), rec.Title, rec.URL,
			Normalize(rec.Slug), nullable(rec.LastMod))
		if err != nil {
			return fmt.Errorf("slugindex: insert %s: %w", rec.Slug, err)
		}
	}
	return tx.Commit()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
