// Package cli provides CLI output utilities for grokiwiki.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/AppleLamps/grokiwiki/internal/models"
	"github.com/AppleLamps/grokiwiki/pkg/utils"
)

// OutputFormat is the format for suggestion output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
	// OutputCompact is one slug per line, suitable for piping.
	OutputCompact OutputFormat = "compact"
)

// WriteSuggestions writes a suggestion response to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSuggestions(w io.Writer, response *models.SuggestResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		for _, rec := range response.Suggestions {
			fmt.Fprintln(w, rec.Slug)
		}
		return nil
	default:
		writeSuggestionsText(w, response)
		return nil
	}
}

func writeSuggestionsText(w io.Writer, response *models.SuggestResponse) {
	fmt.Fprintf(w, "\nFound %d suggestions for %q in %dms\n\n",
		response.Total, response.Query, response.QueryTime)
	for i, rec := range response.Suggestions {
		fmt.Fprintf(w, "%2d. %s\n", i+1, rec.Title)
		fmt.Fprintf(w, "    slug: %s\n", rec.Slug)
		fmt.Fprintf(w, "    url:  %s\n", utils.Truncate(rec.URL, 100))
		if rec.LastMod != "" {
			fmt.Fprintf(w, "    modified: %s\n", rec.LastMod)
		}
		fmt.Fprintln(w)
	}
}

// WriteStatus writes index status information to w.
func WriteStatus(w io.Writer, status map[string]interface{}, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}
	fmt.Fprintln(w, "Index status:")
	for _, key := range []string{"slugs", "persisted", "backend", "disk_usage_bytes"} {
		if v, ok := status[key]; ok {
			fmt.Fprintf(w, "  %-16s %v\n", key, v)
		}
	}
	return nil
}
