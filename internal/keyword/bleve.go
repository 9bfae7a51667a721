package keyword

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/index/upsidedown"
	"github.com/blevesearch/bleve/v2/index/upsidedown/store/gtreap"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/goel7054/swagger-bot/internal/models"
)

const (
	defaultFuzziness = 1
	docIDPrefix      = "op:"
)

// fieldBoosts weights each indexed text field. Summaries and identifiers say
// the most about what an operation does.
var fieldBoosts = []struct {
	name  string
	boost float64
}{
	{"summary", 3},
	{"operationId", 2},
	{"path", 2},
	{"tags", 1.5},
	{"description", 1},
	{"parameters", 1},
	{"method", 1},
}

// BleveIndex implements Index with an in-memory Bleve index. It is built once
// from a corpus and never mutated afterwards. The upside_down/gtreap backend
// runs no background goroutines, so an index replaced by a reload can simply
// be dropped while in-flight searches finish on it.
type BleveIndex struct {
	index   bleve.Index
	entries []models.OperationEntry
}

// NewBleveIndex indexes entries into a new in-memory index.
func NewBleveIndex(entries []models.OperationEntry) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so "accounts"
	// does not also match "account".
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	for _, f := range fieldBoosts {
		docMapping.AddFieldMappingsAt(f.name, textFieldMapping)
	}
	sourceFieldMapping := bleve.NewTextFieldMapping()
	sourceFieldMapping.Analyzer = keywordanalyzer.Name
	docMapping.AddFieldMappingsAt("source", sourceFieldMapping)
	im.AddDocumentMapping("operation", docMapping)
	im.DefaultType = "operation"
	im.DefaultMapping = docMapping

	index, err := bleve.NewUsing("", im, upsidedown.Name, gtreap.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}

	batch := index.NewBatch()
	for i, e := range entries {
		if err := batch.Index(docIDPrefix+strconv.Itoa(i), toDoc(e)); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index operation %s %s: %w", e.Method, e.Path, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to index operations: %w", err)
	}

	return &BleveIndex{
		index:   index,
		entries: append([]models.OperationEntry(nil), entries...),
	}, nil
}

func toDoc(e models.OperationEntry) map[string]interface{} {
	return map[string]interface{}{
		"summary":     e.Summary,
		"operationId": splitIdentifier(e.OperationID),
		"path":        e.Path,
		"tags":        e.Tags,
		"description": e.Description,
		"parameters":  e.Parameters,
		"method":      e.Method,
		"source":      e.SourceID,
	}
}

// Search runs query against every text field and returns up to limit hits,
// best first.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Hit, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil, nil
	}
	fuzzy := false
	fuzziness := defaultFuzziness
	source := ""
	if opts != nil {
		fuzzy = opts.FuzzyEnabled
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
		source = opts.SourceID
	}

	fieldQueries := make([]blevequery.Query, 0, len(fieldBoosts))
	for _, f := range fieldBoosts {
		fieldQueries = append(fieldQueries, buildFieldQuery(query, f.name, f.boost, fuzzy, fuzziness))
	}
	var q blevequery.Query = bleve.NewDisjunctionQuery(fieldQueries...)
	if source != "" {
		tq := bleve.NewTermQuery(source)
		tq.SetField("source")
		q = bleve.NewConjunctionQuery(q, tq)
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := make([]*Hit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		i, err := strconv.Atoi(strings.TrimPrefix(hit.ID, docIDPrefix))
		if err != nil || i < 0 || i >= len(b.entries) {
			continue
		}
		out = append(out, &Hit{Entry: b.entries[i], Score: hit.Score})
	}
	return out, nil
}

// buildFieldQuery matches query against one field. With fuzzy enabled each
// term becomes a FuzzyQuery and any term may match.
func buildFieldQuery(query, field string, boost float64, fuzzy bool, fuzziness int) blevequery.Query {
	terms := tokenizeQuery(query)
	if !fuzzy || len(terms) == 0 {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(field)
		mq.SetBoost(boost)
		return mq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(field)
		fq.SetBoost(boost)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// tokenizeQuery splits query into lowercase terms.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// splitIdentifier adds word breaks to camelCase and snake_case identifiers so
// "listAccounts" is searchable as "list accounts". The original form is kept.
func splitIdentifier(id string) string {
	if id == "" {
		return ""
	}
	var b strings.Builder
	prevLower := false
	for _, r := range id {
		switch {
		case r == '_' || r == '-' || r == '.':
			b.WriteByte(' ')
			prevLower = false
			continue
		case r >= 'A' && r <= 'Z' && prevLower:
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prevLower = r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
	}
	return id + " " + b.String()
}

// DocCount returns the number of indexed operations.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close releases the index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
