// Package search implements the fuzzy matcher that ranks API operations
// against a free-text query.
package search

import (
	"sort"

	"github.com/goel7054/swagger-bot/internal/models"
)

// Field names used in score breakdowns.
const (
	FieldSummary     = "summary"
	FieldDescription = "description"
	FieldPath        = "path"
	FieldMethod      = "method"
	FieldOperationID = "operationId"
	FieldTags        = "tags"
	FieldParameters  = "parameters"
)

type field struct {
	name   string
	value  func(*models.OperationEntry) string
	weight func(FieldWeights) float64
}

// fields lists the searchable fields. On equal scores the earlier field is
// reported as the best one.
var fields = []field{
	{FieldSummary, func(e *models.OperationEntry) string { return e.Summary }, func(w FieldWeights) float64 { return w.Summary }},
	{FieldDescription, func(e *models.OperationEntry) string { return e.Description }, func(w FieldWeights) float64 { return w.Description }},
	{FieldPath, func(e *models.OperationEntry) string { return e.Path }, func(w FieldWeights) float64 { return w.Path }},
	{FieldMethod, func(e *models.OperationEntry) string { return e.Method }, func(w FieldWeights) float64 { return w.Method }},
	{FieldOperationID, func(e *models.OperationEntry) string { return e.OperationID }, func(w FieldWeights) float64 { return w.OperationID }},
	{FieldTags, func(e *models.OperationEntry) string { return e.Tags }, func(w FieldWeights) float64 { return w.Tags }},
	{FieldParameters, func(e *models.OperationEntry) string { return e.Parameters }, func(w FieldWeights) float64 { return w.Parameters }},
}

// Engine scores operation entries against a query. It holds no corpus state
// and is safe for concurrent use.
type Engine struct {
	opts Options
}

// NewEngine creates an engine with the given options.
func NewEngine(opts Options) *Engine {
	opts.ApplyDefaults()
	return &Engine{opts: opts}
}

// Options returns the engine's effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// WithThreshold returns a copy of the engine using a different threshold.
func (e *Engine) WithThreshold(threshold float64) *Engine {
	opts := e.opts
	opts.Threshold = threshold
	return &Engine{opts: opts}
}

// Search returns the entries whose score is within the threshold, best first,
// at most TopK of them. Entries with equal scores keep their corpus order.
// A query that is empty after trimming matches nothing.
func (e *Engine) Search(query string, entries []models.OperationEntry) []models.MatchResult {
	q := []rune(Prepare(query))
	if len(q) == 0 || len(entries) == 0 {
		return nil
	}

	var results []models.MatchResult
	for i := range entries {
		score, _ := e.score(q, &entries[i], nil)
		if score <= e.opts.Threshold {
			results = append(results, models.MatchResult{Entry: entries[i], Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	if len(results) > e.opts.TopK {
		results = results[:e.opts.TopK]
	}
	return results
}

// Score returns the entry's score for query: 0 is an exact match, 1 is no
// match at all.
func (e *Engine) Score(query string, entry models.OperationEntry) float64 {
	score, _ := e.score([]rune(Prepare(query)), &entry, nil)
	return score
}

// Explain returns the per-field scores that make up the entry's score.
func (e *Engine) Explain(query string, entry models.OperationEntry) *models.ScoreBreakdown {
	bd := &models.ScoreBreakdown{Query: query, Entry: entry.Method + " " + entry.Path}
	score, best := e.score([]rune(Prepare(query)), &entry, &bd.Fields)
	bd.Score = score
	bd.Best = best
	return bd
}

// score returns the entry score and the name of the field that produced it.
// When out is non-nil every searched field is appended to it.
func (e *Engine) score(q []rune, entry *models.OperationEntry, out *[]models.FieldScore) (float64, string) {
	best, bestField := 1.0, ""
	if len(q) == 0 {
		return best, bestField
	}
	for _, f := range fields {
		w := clampWeight(f.weight(e.opts.Weights))
		if w <= 0 {
			continue
		}
		text := Prepare(f.value(entry))
		if text == "" {
			continue
		}
		raw := fieldScore(q, []rune(text))
		weighted := 1 - (1-raw)*w
		if out != nil {
			*out = append(*out, models.FieldScore{Field: f.name, Raw: raw, Weight: w, Weighted: weighted})
		}
		if weighted < best || bestField == "" && weighted <= best {
			best, bestField = weighted, f.name
		}
	}
	return best, bestField
}

// fieldScore scores prepared query runes against prepared field runes.
//
//	equal text           0
//	text contains query  [0, 0.1), shorter surrounding text scores lower
//	approximate          [0.1, 1], by edit distance relative to query length
func fieldScore(q, text []rune) float64 {
	if len(q) == 0 || len(text) == 0 {
		return 1
	}
	d := substringDistance(q, text)
	if d == 0 {
		return containmentCeiling * (1 - float64(len(q))/float64(len(text)))
	}
	s := containmentCeiling + (1-containmentCeiling)*float64(d)/float64(len(q))
	if s > 1 {
		return 1
	}
	return s
}

// Search runs a one-off search with the default field weights.
func Search(query string, entries []models.OperationEntry, threshold float64, topK int) []models.MatchResult {
	return NewEngine(Options{Threshold: threshold, TopK: topK}).Search(query, entries)
}
