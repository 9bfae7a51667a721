// Package models defines core data structures for the operation corpus, queries, and answers.
package models

// OperationEntry is one (path, HTTP method) pair extracted from a specification document.
// Missing fields are empty strings. Entries are values and are never mutated after build.
type OperationEntry struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	OperationID string `json:"operationId"`
	// Tags holds every declared tag joined by single spaces.
	Tags string `json:"tags"`
	// Parameters holds "name description" for every declared parameter, joined by single spaces.
	Parameters string `json:"parameters"`
	SourceID   string `json:"source"`
}

// DocumentMetadata is the info/servers block of one loaded document.
type DocumentMetadata struct {
	SourceID    string   `json:"source"`
	Title       string   `json:"title"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Servers     []string `json:"servers"`
}

// Corpus is the aggregate of all loaded documents, in load order.
// A Corpus is built once and then only read.
type Corpus struct {
	Entries  []OperationEntry   `json:"entries"`
	Metadata []DocumentMetadata `json:"metadata"`
}

// ServerURLs returns every server URL across all metadata records,
// in document load order and then per-document declaration order.
func (c *Corpus) ServerURLs() []string {
	if c == nil {
		return nil
	}
	var urls []string
	for _, m := range c.Metadata {
		urls = append(urls, m.Servers...)
	}
	return urls
}

// SourceIDs returns the distinct source ids referenced by entries and metadata, in first-seen order.
func (c *Corpus) SourceIDs() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, m := range c.Metadata {
		add(m.SourceID)
	}
	for _, e := range c.Entries {
		add(e.SourceID)
	}
	return ids
}
