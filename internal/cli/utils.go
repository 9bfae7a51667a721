// Package cli provides output helpers for the swaggerbot command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goel7054/swagger-bot/internal/keyword"
	"github.com/goel7054/swagger-bot/internal/models"
	"github.com/goel7054/swagger-bot/internal/respond"
	"github.com/goel7054/swagger-bot/internal/specdoc"
	"github.com/goel7054/swagger-bot/internal/storage"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a -format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteEnvelope writes a query reply. JSON output is the same envelope the
// HTTP API returns.
func WriteEnvelope(w io.Writer, env *respond.Envelope, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, env)
	}
	switch env.Kind {
	case respond.KindMatches:
		fmt.Fprintf(w, "\nFound %d matching operations\n\n", len(env.Matches))
		for i, m := range env.Matches {
			writeOneMatch(w, i+1, m)
		}
	case respond.KindError:
		fmt.Fprintf(w, "Error: %s\n", env.Text)
	default:
		fmt.Fprintln(w, env.Text)
	}
	return nil
}

func writeOneMatch(w io.Writer, rank int, m respond.Match) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %s | Source: %s\n", rank, m.Score, m.Source)
	fmt.Fprintf(w, "%s %s\n", m.Method, m.Path)
	if m.Summary != "" {
		fmt.Fprintf(w, "Summary: %s\n", m.Summary)
	}
	if m.OperationID != "" {
		fmt.Fprintf(w, "Operation: %s\n", m.OperationID)
	}
	if m.Tags != "" {
		fmt.Fprintf(w, "Tags: %s\n", m.Tags)
	}
	if m.Description != "" {
		fmt.Fprintf(w, "\n%s\n", Truncate(m.Description, 200))
	}
	fmt.Fprintln(w)
}

// WriteExplain writes per-field score breakdowns.
func WriteExplain(w io.Writer, breakdowns []*models.ScoreBreakdown, format OutputFormat) error {
	if format == OutputJSON {
		if breakdowns == nil {
			breakdowns = []*models.ScoreBreakdown{}
		}
		return writeJSON(w, breakdowns)
	}
	for _, b := range breakdowns {
		fmt.Fprintf(w, "%s  score=%.4f best=%s\n", b.Entry, b.Score, b.Best)
		for _, f := range b.Fields {
			fmt.Fprintf(w, "  %-12s raw=%.4f weight=%.2f weighted=%.4f\n", f.Field, f.Raw, f.Weight, f.Weighted)
		}
	}
	return nil
}

type operationHit struct {
	Method      string  `json:"method"`
	Path        string  `json:"path"`
	Summary     string  `json:"summary"`
	OperationID string  `json:"operationId"`
	Source      string  `json:"source"`
	Score       float64 `json:"score"`
}

// WriteOperations writes keyword search hits.
func WriteOperations(w io.Writer, query string, hits []*keyword.Hit, format OutputFormat) error {
	if format == OutputJSON {
		out := struct {
			Query   string         `json:"query"`
			Total   int            `json:"total"`
			Results []operationHit `json:"results"`
		}{Query: query, Total: len(hits), Results: make([]operationHit, 0, len(hits))}
		for _, h := range hits {
			out.Results = append(out.Results, operationHit{
				Method:      h.Entry.Method,
				Path:        h.Entry.Path,
				Summary:     h.Entry.Summary,
				OperationID: h.Entry.OperationID,
				Source:      h.Entry.SourceID,
				Score:       h.Score,
			})
		}
		return writeJSON(w, out)
	}
	fmt.Fprintf(w, "\nFound %d operations for %q\n\n", len(hits), query)
	for i, h := range hits {
		fmt.Fprintf(w, "%2d. %-7s %s  %s  [%s] %.4f\n",
			i+1, h.Entry.Method, h.Entry.Path, TruncateWords(h.Entry.Summary, 12), h.Entry.SourceID, h.Score)
	}
	return nil
}

// WriteSpecs writes spec catalog records.
func WriteSpecs(w io.Writer, records []*storage.SpecRecord, format OutputFormat) error {
	if format == OutputJSON {
		if records == nil {
			records = []*storage.SpecRecord{}
		}
		return writeJSON(w, map[string]interface{}{"specs": records})
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No specifications loaded.")
		return nil
	}
	for _, r := range records {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(w, "%-20s %-30s %-10s %4d ops  %s\n", r.SourceID, Truncate(title, 30), r.Version, r.Operations, r.Path)
	}
	return nil
}

// LoadSummary is the machine-readable outcome of a validate run.
type LoadSummary struct {
	Sources  int               `json:"sources"`
	Loaded   int               `json:"loaded"`
	Failed   int               `json:"failed"`
	Errors   []string          `json:"errors"`
	Warnings []specdoc.Warning `json:"warnings"`
	Specs    []LoadedSpec      `json:"specs"`
}

// LoadedSpec describes one document that loaded.
type LoadedSpec struct {
	Source  string `json:"source"`
	Path    string `json:"path"`
	Version string `json:"version"`
	Title   string `json:"title"`
}

// WriteLoadResult writes the outcome of loading spec files.
func WriteLoadResult(w io.Writer, res *specdoc.Result, format OutputFormat) error {
	summary := LoadSummary{
		Sources:  res.Report.Sources,
		Loaded:   res.Report.Loaded,
		Failed:   res.Report.Failed(),
		Errors:   res.Report.ErrorMessages(),
		Warnings: res.Report.Warnings,
		Specs:    make([]LoadedSpec, 0, len(res.Documents)),
	}
	if summary.Warnings == nil {
		summary.Warnings = []specdoc.Warning{}
	}
	for _, d := range res.Documents {
		summary.Specs = append(summary.Specs, LoadedSpec{Source: d.SourceID, Path: d.Path, Version: d.Version(), Title: d.Title()})
	}
	if format == OutputJSON {
		return writeJSON(w, summary)
	}

	for _, s := range summary.Specs {
		fmt.Fprintf(w, "ok    %-20s %s\n", s.Source, s.Path)
	}
	for _, e := range summary.Errors {
		fmt.Fprintf(w, "FAIL  %s\n", e)
	}
	for _, wn := range summary.Warnings {
		fmt.Fprintf(w, "warn  %-20s %s\n", wn.SourceID, wn.Message)
	}
	fmt.Fprintf(w, "\n%d sources, %d loaded, %d failed, %d warnings\n",
		summary.Sources, summary.Loaded, summary.Failed, len(summary.Warnings))
	return nil
}

// Truncate truncates s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
