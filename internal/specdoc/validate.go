package specdoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const shapeSchemaURL = "swaggerbot://schemas/api-document.json"

// shapeSchema covers the parts of a document the bot reads. It is a shape
// check, not full OpenAPI validation.
const shapeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "anyOf": [
    {"required": ["openapi"]},
    {"required": ["swagger"]}
  ],
  "properties": {
    "openapi": {"type": "string"},
    "swagger": {"type": "string"},
    "info": {
      "type": "object",
      "properties": {
        "title": {"type": "string"},
        "version": {"type": "string"},
        "description": {"type": "string"}
      }
    },
    "servers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["url"],
        "properties": {"url": {"type": "string"}}
      }
    },
    "host": {"type": "string"},
    "basePath": {"type": "string"},
    "schemes": {"type": "array", "items": {"type": "string"}},
    "paths": {
      "type": "object",
      "additionalProperties": {"type": "object"}
    }
  }
}`

// Validator checks documents against the shape schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the shape schema.
func NewValidator() (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(shapeSchema))
	if err != nil {
		return nil, fmt.Errorf("parse shape schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(shapeSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add shape schema: %w", err)
	}
	schema, err := compiler.Compile(shapeSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile shape schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate returns one message per schema violation, sorted. A nil result
// means the document has the expected shape.
func (v *Validator) Validate(doc *Document) []string {
	raw, err := json.Marshal(doc.Value)
	if err != nil {
		return []string{fmt.Sprintf("encode document: %v", err)}
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return []string{fmt.Sprintf("decode document: %v", err)}
	}
	err = v.schema.Validate(inst)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}
	msgs := collectViolations(verr, nil)
	sort.Strings(msgs)
	return msgs
}

// collectViolations walks the cause tree and keeps the leaves, which carry
// the specific failures.
func collectViolations(verr *jsonschema.ValidationError, out []string) []string {
	if len(verr.Causes) > 0 {
		for _, cause := range verr.Causes {
			out = collectViolations(cause, out)
		}
		return out
	}
	path := "$"
	if len(verr.InstanceLocation) > 0 {
		path = "$." + strings.Join(verr.InstanceLocation, ".")
	}
	return append(out, path+": "+lastLine(verr.Error()))
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimPrefix(strings.TrimSpace(s), "- ")
}
