package slugindex

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/AppleLamps/grokiwiki/internal/models"
)

// SQLiteIndex is the persisted variant: records live in a SQLite file with an
// FTS5 index, built once per deployment by the builder and opened read-only at
// runtime. Each query is an independent read against the store; the driver's
// connection pool makes the handle safe to share across requests.
type SQLiteIndex struct {
	db   *sql.DB
	path string
}

// NewSQLiteIndex opens the slug database at dbPath. A missing, unreadable, or
// empty database is reported as ErrIndexUnavailable so the caller can refuse
// to start instead of failing per query.
func NewSQLiteIndex(dbPath string) (*SQLiteIndex, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIndexUnavailable, dbPath, err)
	}
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrIndexUnavailable, dbPath, err)
	}

	var count int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM slugs`).Scan(&count); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrIndexUnavailable, dbPath, err)
	}
	if count == 0 {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s holds no records", ErrIndexUnavailable, dbPath)
	}
	// The FTS5 stage must be usable at startup, not fail on the first query
	// that reaches it.
	var ftsCount int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM slug_fts`).Scan(&ftsCount); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrIndexUnavailable, dbPath, fts5Hint(err))
	}
	return &SQLiteIndex{db: db, path: dbPath}, nil
}

// fts5Hint adds the remedy to SQLite's missing-FTS5 error: mattn/go-sqlite3
// compiles the module in only under the sqlite_fts5 build tag (see Makefile).
func fts5Hint(err error) error {
	if err != nil && strings.Contains(err.Error(), "no such module: fts5") {
		return fmt.Errorf("%v (binary built without -tags sqlite_fts5)", err)
	}
	return err
}

const slugColumns = `slug, title, url, COALESCE(lastmod, '')`

// Search implements SlugIndex. Matching runs in stages that together realize
// the ordering contract: prefix matches (LENGTH(title), slug order), then
// substring matches in the same order, then FTS5 token-prefix matches to fill
// any remaining slots for mid-word or multi-token queries.
func (s *SQLiteIndex) Search(ctx context.Context, query string, limit int) ([]models.SlugRecord, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	q := Normalize(query)
	if q == "" {
		return nil, nil
	}

	out := make([]models.SlugRecord, 0, limit)
	seen := make(map[string]struct{}, limit)

	appendRows := func(rows *sql.Rows) error {
		defer rows.Close()
		for rows.Next() {
			var rec models.SlugRecord
			if err := rows.Scan(&rec.Slug, &rec.Title, &rec.URL, &rec.LastMod); err != nil {
				return err
			}
			if _, dup := seen[rec.Slug]; dup {
				continue
			}
			seen[rec.Slug] = struct{}{}
			out = append(out, rec)
		}
		return rows.Err()
	}

	// Normalized text contains no LIKE metacharacters, so q binds directly.
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+slugColumns+` FROM slugs
		 WHERE normalized LIKE ? || '%'
		 ORDER BY LENGTH(title), slug LIMIT ?`, q, limit)
	if err != nil {
		return nil, fmt.Errorf("slugindex: prefix query: %w", err)
	}
	if err := appendRows(rows); err != nil {
		return nil, fmt.Errorf("slugindex: prefix query: %w", err)
	}
	if len(out) >= limit {
		return out[:limit], nil
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT `+slugColumns+` FROM slugs
		 WHERE normalized LIKE '%' || ? || '%' AND normalized NOT LIKE ? || '%'
		 ORDER BY LENGTH(title), slug LIMIT ?`, q, q, limit-len(out))
	if err != nil {
		return nil, fmt.Errorf("slugindex: substring query: %w", err)
	}
	if err := appendRows(rows); err != nil {
		return nil, fmt.Errorf("slugindex: substring query: %w", err)
	}
	if len(out) >= limit {
		return out[:limit], nil
	}

	if match := ftsMatchExpr(q); match != "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT s.slug, s.title, s.url, COALESCE(s.lastmod, '')
			 FROM slug_fts f JOIN slugs s ON f.rowid = s.id
			 WHERE slug_fts MATCH ? ORDER BY rank LIMIT ?`, match, limit-len(out))
		if err != nil {
			return nil, fmt.Errorf("slugindex: fts query: %w", err)
		}
		if err := appendRows(rows); err != nil {
			return nil, fmt.Errorf("slugindex: fts query: %w", err)
		}
	}
	return out, nil
}

// ftsMatchExpr builds an FTS5 match expression of quoted prefix terms, e.g.
// `"albert"* "einst"*`. Terms are quoted so apostrophes stay literal.
func ftsMatchExpr(normalized string) string {
	tokens := Tokenize(normalized)
	if len(tokens) == 0 {
		return ""
	}
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = `"` + strings.ReplaceAll(tok, `"`, ``) + `"*`
	}
	return strings.Join(parts, " ")
}

// Resolve implements SlugIndex.
func (s *SQLiteIndex) Resolve(ctx context.Context, query string) (*models.SlugRecord, error) {
	var rec models.SlugRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT `+slugColumns+` FROM slugs WHERE slug_lower = ? LIMIT 1`,
		strings.ToLower(strings.TrimSpace(query)),
	).Scan(&rec.Slug, &rec.Title, &rec.URL, &rec.LastMod)
	if err == nil {
		return &rec, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("slugindex: resolve: %w", err)
	}
	results, err := s.Search(ctx, query, 1)
	if err != nil || len(results) == 0 {
		return nil, err
	}
	return &results[0], nil
}

// Exists implements SlugIndex.
func (s *SQLiteIndex) Exists(ctx context.Context, slug string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM slugs WHERE slug_lower = ? LIMIT 1`, strings.ToLower(slug),
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("slugindex: exists: %w", err)
	}
	return true, nil
}

// ListByPrefix implements SlugIndex.
func (s *SQLiteIndex) ListByPrefix(ctx context.Context, prefix string, limit int) ([]models.SlugRecord, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+slugColumns+` FROM slugs
		 WHERE slug_lower LIKE ? || '%' ORDER BY slug_lower LIMIT ?`,
		strings.ToLower(prefix), limit)
	if err != nil {
		return nil, fmt.Errorf("slugindex: list: %w", err)
	}
	defer rows.Close()
	out := make([]models.SlugRecord, 0, limit)
	for rows.Next() {
		var rec models.SlugRecord
		if err := rows.Scan(&rec.Slug, &rec.Title, &rec.URL, &rec.LastMod); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count implements SlugIndex.
func (s *SQLiteIndex) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM slugs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("slugindex: count: %w", err)
	}
	return count, nil
}

// Close implements SlugIndex.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
