package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/AppleLamps/grokiwiki/internal/models"
)

func sampleResponse() *models.SuggestResponse {
	return &models.SuggestResponse{
		Query: "einstein",
		Suggestions: []models.SlugRecord{
			{Slug: "Albert_Einstein", Title: "Albert Einstein", URL: "https://grokipedia.com/page/Albert_Einstein", LastMod: "2025-11-01"},
			{Slug: "Einstein_family", Title: "Einstein family", URL: "https://grokipedia.com/page/Einstein_family"},
		},
		Total:     2,
		QueryTime: 3,
	}
}

func TestWriteSuggestionsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSuggestions(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatalf("WriteSuggestions: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Found 2 suggestions", "Albert Einstein", "slug: Einstein_family", "modified: 2025-11-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSuggestionsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSuggestions(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatalf("WriteSuggestions: %v", err)
	}
	var decoded models.SuggestResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Total != 2 || len(decoded.Suggestions) != 2 {
		t.Errorf("unexpected decoded response: %+v", decoded)
	}
}

func TestWriteSuggestionsCompact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSuggestions(&buf, sampleResponse(), OutputCompact); err != nil {
		t.Fatalf("WriteSuggestions: %v", err)
	}
	want := "Albert_Einstein\nEinstein_family\n"
	if buf.String() != want {
		t.Errorf("compact output = %q, want %q", buf.String(), want)
	}
}

func TestWriteStatus(t *testing.T) {
	var buf bytes.Buffer
	status := map[string]interface{}{"slugs": int64(42), "persisted": true, "backend": "sqlite"}
	if err := WriteStatus(&buf, status, OutputText); err != nil {
		t.Fatalf("WriteStatus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"slugs", "42", "sqlite"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}
