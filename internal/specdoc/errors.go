package specdoc

import (
	"errors"
	"fmt"
)

var (
	// ErrNotMapping is returned when a document's root is not a mapping.
	ErrNotMapping = errors.New("document root is not a mapping")
	// ErrEmptyDocument is returned for files with no YAML/JSON content.
	ErrEmptyDocument = errors.New("document is empty")
	// ErrTooManyNodes is returned when alias expansion makes a document
	// larger than MaxValueNodes.
	ErrTooManyNodes = errors.New("document expands to too many nodes")
)

// LoadError records a source that could not be loaded. The source is skipped
// and the rest of the load continues.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Warning is a non-fatal finding about a loaded document, such as a failed
// shape check.
type Warning struct {
	SourceID string `json:"source"`
	Message  string `json:"message"`
}

// Report summarizes one load.
type Report struct {
	Sources  int          `json:"sources"`
	Loaded   int          `json:"loaded"`
	Errors   []*LoadError `json:"-"`
	Warnings []Warning    `json:"warnings,omitempty"`
}

// ErrorMessages returns the load errors as strings, in load order.
func (r *Report) ErrorMessages() []string {
	if r == nil {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return msgs
}

// Failed reports how many sources were skipped.
func (r *Report) Failed() int {
	if r == nil {
		return 0
	}
	return len(r.Errors)
}
