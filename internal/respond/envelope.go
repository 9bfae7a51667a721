// Package respond turns router results into response envelopes.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goel7054/swagger-bot/internal/models"
	"github.com/goel7054/swagger-bot/internal/router"
)

// InternalErrorMessage is the only error text shown for unexpected failures.
const InternalErrorMessage = "Internal server error."

// Kind is the envelope shape.
type Kind int

const (
	KindAnswer Kind = iota
	KindMessage
	KindMatches
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindAnswer:
		return "answer"
	case KindMessage:
		return "message"
	case KindMatches:
		return "matches"
	case KindError:
		return "error"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Match is one search hit as sent to clients.
type Match struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	OperationID string `json:"operationId"`
	Tags        string `json:"tags"`
	Source      string `json:"source"`
	Score       string `json:"score"`
}

// Envelope is exactly one of {answer}, {message}, {matches} or {error}.
type Envelope struct {
	Kind    Kind
	Text    string
	Matches []Match
}

// Answer returns an {answer} envelope.
func Answer(text string) *Envelope {
	return &Envelope{Kind: KindAnswer, Text: text}
}

// Message returns a {message} envelope.
func Message(text string) *Envelope {
	return &Envelope{Kind: KindMessage, Text: text}
}

// Error returns an {error} envelope.
func Error(text string) *Envelope {
	return &Envelope{Kind: KindError, Text: text}
}

// Matches returns a {matches} envelope.
func Matches(results []models.MatchResult) *Envelope {
	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, NewMatch(r))
	}
	return &Envelope{Kind: KindMatches, Matches: matches}
}

// NewMatch converts a scored entry, formatting the score to two decimals.
func NewMatch(r models.MatchResult) Match {
	return Match{
		Path:        r.Entry.Path,
		Method:      r.Entry.Method,
		Summary:     r.Entry.Summary,
		Description: r.Entry.Description,
		OperationID: r.Entry.OperationID,
		Tags:        r.Entry.Tags,
		Source:      r.Entry.SourceID,
		Score:       FormatScore(r.Score),
	}
}

// FormatScore renders a score with two decimals.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.2f", score)
}

// FromResult maps a router result to its envelope. Only the generic
// no-match outcome uses the {message} shape.
func FromResult(res router.Result) *Envelope {
	switch res.Tier {
	case router.TierSearch:
		return Matches(res.Matches)
	case router.TierFallback:
		return Message(res.Answer)
	default:
		return Answer(res.Answer)
	}
}

// FromError maps a resolution error to an {error} envelope. It reports
// whether the error was the caller's fault.
func FromError(err error) (*Envelope, bool) {
	if errors.Is(err, models.ErrQueryRequired) {
		return Error(models.ErrQueryRequired.Error()), true
	}
	return Error(InternalErrorMessage), false
}

// MarshalJSON writes the single key of the envelope's kind.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindAnswer:
		return json.Marshal(struct {
			Answer string `json:"answer"`
		}{e.Text})
	case KindMessage:
		return json.Marshal(struct {
			Message string `json:"message"`
		}{e.Text})
	case KindMatches:
		matches := e.Matches
		if matches == nil {
			matches = []Match{}
		}
		return json.Marshal(struct {
			Matches []Match `json:"matches"`
		}{matches})
	case KindError:
		return json.Marshal(struct {
			Error string `json:"error"`
		}{e.Text})
	}
	return nil, fmt.Errorf("respond: unknown envelope kind %d", int(e.Kind))
}

// UnmarshalJSON reads any of the four shapes.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw struct {
		Answer  *string `json:"answer"`
		Message *string `json:"message"`
		Matches []Match `json:"matches"`
		Error   *string `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Error != nil:
		*e = Envelope{Kind: KindError, Text: *raw.Error}
	case raw.Matches != nil:
		*e = Envelope{Kind: KindMatches, Matches: raw.Matches}
	case raw.Message != nil:
		*e = Envelope{Kind: KindMessage, Text: *raw.Message}
	case raw.Answer != nil:
		*e = Envelope{Kind: KindAnswer, Text: *raw.Answer}
	default:
		return errors.New("respond: unrecognised envelope")
	}
	return nil
}
