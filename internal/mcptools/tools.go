// Package mcptools exposes the query bot as Model Context Protocol tools.
package mcptools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/goel7054/swagger-bot/internal/corpus"
	"github.com/goel7054/swagger-bot/internal/keyword"
	"github.com/goel7054/swagger-bot/internal/respond"
	"github.com/goel7054/swagger-bot/internal/router"
	"github.com/goel7054/swagger-bot/internal/storage"
)

const (
	serverName         = "swaggerbot"
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// Tools holds the dependencies shared by the tool handlers.
type Tools struct {
	router  *router.Router
	store   *corpus.Store
	catalog storage.Catalog
	logger  *zap.Logger
}

// Option configures Tools.
type Option func(*Tools)

// WithLogger sets the tools logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tools) { t.logger = l }
}

// WithCatalog lists specs from the persistent catalog instead of the snapshot.
func WithCatalog(c storage.Catalog) Option {
	return func(t *Tools) { t.catalog = c }
}

// New creates the tool set.
func New(rt *router.Router, store *corpus.Store, opts ...Option) *Tools {
	t := &Tools{router: rt, store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	return t
}

// NewServer creates an MCP server with every tool registered.
func NewServer(version string, t *Tools) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)
	t.Register(server)
	return server
}

// Register adds the tools to server.
func (t *Tools) Register(server *mcp.Server) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "ask_api_docs",
			Description: "Ask a free-text question about the loaded API specifications. Returns an answer, a list of matching operations, or a no-match message.",
		},
		t.Ask,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_operations",
			Description: "Keyword search over API operations (path, method, summary, description, operationId, tags, parameters).",
		},
		t.SearchOperations,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_api_specs",
			Description: "List the loaded API specification documents with their titles, versions and operation counts.",
		},
		t.ListSpecs,
	)
}

// Run serves the tools over stdio until ctx is cancelled or the client disconnects.
func Run(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// AskInput defines input for ask_api_docs.
type AskInput struct {
	Question string `json:"question" jsonschema:"Question about the API, e.g. 'how do I create a pet?' or 'what is the base url of the api?'"`
}

// AskOutput defines output for ask_api_docs. Exactly one of Answer, Message
// or Matches is set.
type AskOutput struct {
	Tier    string          `json:"tier"`
	Answer  string          `json:"answer,omitempty"`
	Message string          `json:"message,omitempty"`
	Matches []respond.Match `json:"matches,omitempty"`
}

// Ask resolves a question through the intent router.
func (t *Tools) Ask(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	res, err := t.router.Resolve(input.Question)
	if err != nil {
		env, _ := respond.FromError(err)
		return nil, AskOutput{}, errors.New(env.Text)
	}
	env := respond.FromResult(res)
	out := AskOutput{Tier: res.Tier.String()}
	switch env.Kind {
	case respond.KindMatches:
		out.Matches = env.Matches
	case respond.KindMessage:
		out.Message = env.Text
	default:
		out.Answer = env.Text
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: renderAsk(out)}},
	}, out, nil
}

func renderAsk(out AskOutput) string {
	switch {
	case len(out.Matches) > 0:
		var b strings.Builder
		for i, m := range out.Matches {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "%s %s  %s  [%s, score %s]", m.Method, m.Path, m.Summary, m.Source, m.Score)
		}
		return b.String()
	case out.Message != "":
		return out.Message
	default:
		return out.Answer
	}
}

// SearchInput defines input for search_operations.
type SearchInput struct {
	Query  string `json:"query" jsonschema:"Search terms"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (optional, defaults to 10, max 50)"`
	Fuzzy  bool   `json:"fuzzy,omitempty" jsonschema:"Tolerate one typo per term (optional)"`
	Source string `json:"source,omitempty" jsonschema:"Only search the document with this source id (optional)"`
}

// OperationResult is one search_operations hit.
type OperationResult struct {
	Method      string  `json:"method"`
	Path        string  `json:"path"`
	Summary     string  `json:"summary"`
	OperationID string  `json:"operationId"`
	Source      string  `json:"source"`
	Score       float64 `json:"score"`
}

// SearchOutput defines output for search_operations.
type SearchOutput struct {
	Query     string            `json:"query"`
	TotalHits int               `json:"total_hits"`
	Results   []OperationResult `json:"results"`
}

// SearchOperations runs a keyword search over the current snapshot.
func (t *Tools) SearchOperations(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	q := strings.TrimSpace(input.Query)
	if q == "" {
		return nil, SearchOutput{}, errors.New("query is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	hits, err := t.store.Snapshot().Keyword.Search(ctx, q, limit, &keyword.SearchOptions{
		FuzzyEnabled: input.Fuzzy,
		SourceID:     input.Source,
	})
	if err != nil {
		t.logger.Error("mcp operation search failed", zap.Error(err))
		return nil, SearchOutput{}, fmt.Errorf("search failed: %w", err)
	}
	out := SearchOutput{Query: q, Results: make([]OperationResult, 0, len(hits))}
	for _, h := range hits {
		out.Results = append(out.Results, OperationResult{
			Method:      h.Entry.Method,
			Path:        h.Entry.Path,
			Summary:     h.Entry.Summary,
			OperationID: h.Entry.OperationID,
			Source:      h.Entry.SourceID,
			Score:       h.Score,
		})
	}
	out.TotalHits = len(out.Results)
	return nil, out, nil
}

// ListSpecsInput defines input for list_api_specs.
type ListSpecsInput struct{}

// SpecSummary describes one loaded specification.
type SpecSummary struct {
	Source      string   `json:"source"`
	Title       string   `json:"title"`
	Version     string   `json:"version"`
	SpecVersion string   `json:"spec_version"`
	Operations  int      `json:"operations"`
	Path        string   `json:"path"`
	Warnings    []string `json:"warnings,omitempty"`
	LoadedAt    string   `json:"loaded_at,omitempty"`
}

// ListSpecsOutput defines output for list_api_specs.
type ListSpecsOutput struct {
	Specs []SpecSummary `json:"specs"`
}

// ListSpecs lists loaded specifications in load order.
func (t *Tools) ListSpecs(ctx context.Context, req *mcp.CallToolRequest, _ ListSpecsInput) (*mcp.CallToolResult, ListSpecsOutput, error) {
	var (
		records []*storage.SpecRecord
		err     error
	)
	if t.catalog != nil {
		records, err = t.catalog.List(ctx)
		if err != nil {
			return nil, ListSpecsOutput{}, fmt.Errorf("list specs: %w", err)
		}
	} else {
		records = storage.RecordsFromSnapshot(t.store.Snapshot())
	}
	out := ListSpecsOutput{Specs: make([]SpecSummary, 0, len(records))}
	for _, r := range records {
		s := SpecSummary{
			Source:      r.SourceID,
			Title:       r.Title,
			Version:     r.Version,
			SpecVersion: r.SpecVersion,
			Operations:  r.Operations,
			Path:        r.Path,
			Warnings:    r.Warnings,
		}
		if !r.LoadedAt.IsZero() {
			s.LoadedAt = r.LoadedAt.Format(time.RFC3339)
		}
		out.Specs = append(out.Specs, s)
	}
	return nil, out, nil
}
