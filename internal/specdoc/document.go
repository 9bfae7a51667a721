// Package specdoc reads OpenAPI 3 and Swagger 2 documents from disk.
//
// Documents are parsed with a YAML parser (JSON is a subset) into node trees
// so mapping order is kept exactly as written: paths and methods come out in
// the order the author declared them.
package specdoc

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goel7054/swagger-bot/internal/fileid"
)

// Document is one parsed specification file.
type Document struct {
	SourceID string
	Path     string
	Hash     string
	Size     int64
	// Root is the top-level mapping node.
	Root *yaml.Node
	// Value is Root converted to plain Go values for JSON output and
	// schema validation.
	Value any
}

// Version returns the "openapi" or "swagger" version string, or "".
func (d *Document) Version() string {
	if v := LookupString(d.Root, "openapi"); v != "" {
		return v
	}
	return LookupString(d.Root, "swagger")
}

// Title returns info.title, or "".
func (d *Document) Title() string {
	return LookupString(Lookup(d.Root, "info"), "title")
}

// InfoVersion returns info.version, or "".
func (d *Document) InfoVersion() string {
	return LookupString(Lookup(d.Root, "info"), "version")
}

// Parse parses data as a single YAML or JSON document. Only the first
// document of a multi-document stream is used.
func Parse(sourceID, path string, data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	top := resolve(&root)
	if top == nil || top.Kind == 0 || top.Kind == yaml.ScalarNode && top.Tag == "!!null" {
		return nil, ErrEmptyDocument
	}
	if top.Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}
	value, err := ToValue(top)
	if err != nil {
		return nil, err
	}
	return &Document{
		SourceID: sourceID,
		Path:     path,
		Hash:     fileid.ContentHash(data),
		Size:     int64(len(data)),
		Root:     top,
		Value:    value,
	}, nil
}
