// Package integration exercises the full slug pipeline across index variants
// (requires real on-disk SQLite and Bleve artifacts).
package integration

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/AppleLamps/grokiwiki/internal/models"
	"github.com/AppleLamps/grokiwiki/internal/slugindex"
	"github.com/AppleLamps/grokiwiki/pkg/utils"
)

var corpusSlugs = []string{
	"ABBA",
	"Aardvark",
	"Albert_Einstein",
	"Alfred_Einstein",
	"Einstein",
	"Einstein_family",
	"Einstein_field_equations",
	"General_relativity",
	"Go_(programming_language)",
	"Mass-energy_equivalence",
	"O'Brien",
	"Quantum_mechanics",
	"Theory_of_relativity",
	"Zebra",
}

func corpusRecords() []models.SlugRecord {
	records := make([]models.SlugRecord, len(corpusSlugs))
	for i, s := range corpusSlugs {
		records[i] = models.SlugRecord{
			Slug:  s,
			Title: utils.Humanize(s),
			URL:   slugindex.PageURL(s),
		}
	}
	return records
}

// buildVariants builds all three index variants over the same corpus.
func buildVariants(t *testing.T) map[string]slugindex.SlugIndex {
	t.Helper()
	ctx := context.Background()
	records := corpusRecords()
	builder := slugindex.NewBuilder()
	dir := t.TempDir()

	dbPath := filepath.Join(dir, "slugs.db")
	if err := builder.BuildSQLite(ctx, records, dbPath); err != nil {
		t.Fatalf("BuildSQLite: %v", err)
	}
	sqliteIdx, err := slugindex.NewSQLiteIndex(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteIndex: %v", err)
	}
	t.Cleanup(func() { sqliteIdx.Close() })

	blevePath := filepath.Join(dir, "slugs.bleve")
	if err := builder.BuildBleve(ctx, records, blevePath); err != nil {
		t.Fatalf("BuildBleve: %v", err)
	}
	bleveIdx, err := slugindex.NewBleveSlugIndex(blevePath)
	if err != nil {
		t.Fatalf("NewBleveSlugIndex: %v", err)
	}
	t.Cleanup(func() { bleveIdx.Close() })

	return map[string]slugindex.SlugIndex{
		"memory": slugindex.NewMemoryIndex(records),
		"sqlite": sqliteIdx,
		"bleve":  bleveIdx,
	}
}

func resultSlugs(t *testing.T, idx slugindex.SlugIndex, query string, limit int) []string {
	t.Helper()
	results, err := idx.Search(context.Background(), query, limit)
	if err != nil {
		t.Fatalf("Search(%q): %v", query, err)
	}
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Slug
	}
	return out
}

// TestVariantsAgreeOnDirectMatches checks that all variants return the same
// ordered results for queries answered entirely by prefix and substring
// matching, where the ordering contract pins a single correct answer.
func TestVariantsAgreeOnDirectMatches(t *testing.T) {
	variants := buildVariants(t)
	queries := []string{"einstein", "EINSTEIN", "zebra", "o'brien", "relativity"}

	for _, query := range queries {
		var wantOrder []string
		for _, name := range []string{"memory", "sqlite", "bleve"} {
			got := resultSlugs(t, variants[name], query, len(corpusSlugs))
			if wantOrder == nil {
				wantOrder = got
				continue
			}
			if diff := cmp.Diff(wantOrder, got); diff != "" {
				t.Errorf("query %q: %s order differs from memory (-memory +%s):\n%s", query, name, name, diff)
			}
		}
	}
}

// TestVariantsAgreeOnMembership checks set-level agreement for queries where
// full-text stages may fill trailing slots in backend-specific score order.
func TestVariantsAgreeOnMembership(t *testing.T) {
	variants := buildVariants(t)
	queries := []string{"einstein", "einstein f", "quantum", "go", "mass-energy"}

	for _, query := range queries {
		var wantSet []string
		for _, name := range []string{"memory", "sqlite", "bleve"} {
			got := resultSlugs(t, variants[name], query, len(corpusSlugs))
			sort.Strings(got)
			if wantSet == nil {
				wantSet = got
				continue
			}
			for _, slug := range wantSet {
				if !contains(got, slug) {
					t.Errorf("query %q: %s missing %s returned by memory", query, name, slug)
				}
			}
		}
	}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// TestVariantsAgreeOnLookups checks Resolve, Exists, ListByPrefix, and Count
// across variants.
func TestVariantsAgreeOnLookups(t *testing.T) {
	variants := buildVariants(t)
	ctx := context.Background()

	for name, idx := range variants {
		count, err := idx.Count(ctx)
		if err != nil {
			t.Fatalf("%s: Count: %v", name, err)
		}
		if count != int64(len(corpusSlugs)) {
			t.Errorf("%s: Count = %d, want %d", name, count, len(corpusSlugs))
		}

		rec, err := idx.Resolve(ctx, "albert_einstein")
		if err != nil {
			t.Fatalf("%s: Resolve: %v", name, err)
		}
		if rec == nil || rec.Slug != "Albert_Einstein" {
			t.Errorf("%s: Resolve = %+v", name, rec)
		}

		ok, err := idx.Exists(ctx, "ZEBRA")
		if err != nil {
			t.Fatalf("%s: Exists: %v", name, err)
		}
		if !ok {
			t.Errorf("%s: Exists(ZEBRA) = false", name)
		}

		listed, err := idx.ListByPrefix(ctx, "Einstein", 10)
		if err != nil {
			t.Fatalf("%s: ListByPrefix: %v", name, err)
		}
		want := []string{"Einstein", "Einstein_family", "Einstein_field_equations"}
		got := make([]string, len(listed))
		for i, r := range listed {
			got[i] = r.Slug
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s: prefix listing mismatch (-want +got):\n%s", name, diff)
		}

		// Mixed-case slugs sort by lowercased slug, not raw bytes, in every
		// variant ("Aardvark" before "ABBA" even though 'B' < 'a' bytewise).
		mixed, err := idx.ListByPrefix(ctx, "a", 10)
		if err != nil {
			t.Fatalf("%s: ListByPrefix(a): %v", name, err)
		}
		wantMixed := []string{"Aardvark", "ABBA", "Albert_Einstein", "Alfred_Einstein"}
		gotMixed := make([]string, len(mixed))
		for i, r := range mixed {
			gotMixed[i] = r.Slug
		}
		if diff := cmp.Diff(wantMixed, gotMixed); diff != "" {
			t.Errorf("%s: mixed-case listing mismatch (-want +got):\n%s", name, diff)
		}
	}
}

// TestFullPipeline drives sitemap-shaped files through the builder into a
// queryable database, the way a deployment builds its artifact.
func TestFullPipeline(t *testing.T) {
	linksDir := t.TempDir()
	partDir := filepath.Join(linksDir, "sitemap-00001")
	if err := os.MkdirAll(partDir, 0755); err != nil {
		t.Fatal(err)
	}
	var names, urls []string
	for _, s := range corpusSlugs {
		names = append(names, s)
		urls = append(urls, slugindex.PageURL(s))
	}
	if err := os.WriteFile(filepath.Join(partDir, "names.txt"), []byte(strings.Join(names, "\n")), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(partDir, "urls.txt"), []byte(strings.Join(urls, "\n")), 0644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	builder := slugindex.NewBuilder()
	records, err := builder.ReadLinksDir(ctx, linksDir)
	if err != nil {
		t.Fatalf("ReadLinksDir: %v", err)
	}
	dbPath := filepath.Join(t.TempDir(), "slugs.db")
	if err := builder.BuildSQLite(ctx, records, dbPath); err != nil {
		t.Fatalf("BuildSQLite: %v", err)
	}

	idx, err := slugindex.NewSQLiteIndex(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteIndex: %v", err)
	}
	defer idx.Close()

	results, err := idx.Search(ctx, "theory of relativity", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 || results[0].Slug != "Theory_of_relativity" {
		t.Errorf("pipeline search = %v, want Theory_of_relativity first", results)
	}
}
