package models

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrQueryRequired is returned when a query is absent, not a string, or blank.
var ErrQueryRequired = errors.New("Query string is required.")

// QueryRequest is the body accepted by the query endpoint.
// Either "question" or "query" may carry the text; "question" wins when both are set.
// Fields are kept raw so a non-string value can be told apart from an absent one.
type QueryRequest struct {
	Question json.RawMessage `json:"question,omitempty"`
	Query    json.RawMessage `json:"query,omitempty"`
}

// Text returns the query text. It returns ErrQueryRequired when neither field holds a
// non-blank JSON string.
func (q *QueryRequest) Text() (string, error) {
	for _, raw := range []json.RawMessage{q.Question, q.Query} {
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", ErrQueryRequired
		}
		if strings.TrimSpace(s) == "" {
			return "", ErrQueryRequired
		}
		return s, nil
	}
	return "", ErrQueryRequired
}

// NewQueryRequest builds a request carrying question as the "question" field.
func NewQueryRequest(question string) *QueryRequest {
	raw, _ := json.Marshal(question)
	return &QueryRequest{Question: raw}
}
