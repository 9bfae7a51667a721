// Package keyword provides term-based search over API operations.
package keyword

import (
	"context"

	"github.com/goel7054/swagger-bot/internal/models"
)

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// FuzzyEnabled matches terms within Fuzziness edits for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum edit distance per term (1 or 2). Default 1.
	Fuzziness int
	// SourceID limits results to one document when set.
	SourceID string
}

// Index defines keyword search over operations.
type Index interface {
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Hit, error)
	DocCount() (uint64, error)
	Close() error
}

// Hit is a single keyword search hit. Higher scores are better.
type Hit struct {
	Entry models.OperationEntry
	Score float64
}
