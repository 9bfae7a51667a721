package models

// MatchResult is one fuzzy search hit. Score is in [0,1]; 0 is an exact match, 1 is unrelated.
type MatchResult struct {
	Entry OperationEntry `json:"entry"`
	Score float64        `json:"score"`
}

// FieldScore is the score of a single searchable field of an entry.
type FieldScore struct {
	Field    string  `json:"field"`
	Raw      float64 `json:"raw"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// ScoreBreakdown explains how an entry's score was derived for a query.
type ScoreBreakdown struct {
	Query  string       `json:"query"`
	Entry  string       `json:"entry"`
	Fields []FieldScore `json:"fields"`
	// Best is the field that produced Score.
	Best  string  `json:"best"`
	Score float64 `json:"score"`
}
