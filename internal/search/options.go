package search

// Default tuning values.
const (
	DefaultThreshold = 0.4
	DefaultTopK      = 5

	// containmentCeiling is the upper bound (exclusive) of scores given to a
	// field that contains the query verbatim. Approximate matches start here.
	containmentCeiling = 0.1
)

// FieldWeights sets how much each operation field counts. A weight of 1 keeps
// the raw field score, smaller weights push the score toward 1 (no match),
// and 0 or less leaves the field out of the search.
type FieldWeights struct {
	Summary     float64 `yaml:"summary" json:"summary"`
	Description float64 `yaml:"description" json:"description"`
	Path        float64 `yaml:"path" json:"path"`
	Method      float64 `yaml:"method" json:"method"`
	OperationID float64 `yaml:"operation_id" json:"operationId"`
	Tags        float64 `yaml:"tags" json:"tags"`
	Parameters  float64 `yaml:"parameters" json:"parameters"`
}

// DefaultFieldWeights returns the stock field weights.
func DefaultFieldWeights() FieldWeights {
	return FieldWeights{
		Summary:     1.0,
		Description: 0.8,
		Path:        1.0,
		Method:      0.7,
		OperationID: 0.9,
		Tags:        0.8,
		Parameters:  0.7,
	}
}

// IsZero reports whether no weight has been set.
func (w FieldWeights) IsZero() bool {
	return w == FieldWeights{}
}

// Options controls the fuzzy engine.
type Options struct {
	// Threshold is the largest score (inclusive) that still counts as a match.
	Threshold float64
	// TopK caps the number of results. Values <= 0 fall back to DefaultTopK.
	TopK    int
	Weights FieldWeights
}

// DefaultOptions returns threshold 0.4, top 5 and the stock weights.
func DefaultOptions() Options {
	return Options{
		Threshold: DefaultThreshold,
		TopK:      DefaultTopK,
		Weights:   DefaultFieldWeights(),
	}
}

// ApplyDefaults fills unset values. Threshold is left alone because 0 is a
// meaningful setting (exact and containment matches only).
func (o *Options) ApplyDefaults() {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.Weights.IsZero() {
		o.Weights = DefaultFieldWeights()
	}
}

func clampWeight(w float64) float64 {
	if w > 1 {
		return 1
	}
	return w
}
