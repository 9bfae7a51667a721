package e2e

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SupportedFileExtensions are the spec file extensions used in E2E tests.
var SupportedFileExtensions = []string{".yaml", ".yml", ".json"}

// Document returns the spec as a generic OpenAPI 3 document tree.
func (s E2ESpec) Document() map[string]interface{} {
	paths := make(map[string]interface{})
	for _, op := range s.Operations {
		item, ok := paths[op.Path].(map[string]interface{})
		if !ok {
			item = make(map[string]interface{})
			paths[op.Path] = item
		}
		item[strings.ToLower(op.Method)] = map[string]interface{}{
			"summary":     op.Summary,
			"operationId": op.OperationID,
			"tags":        []string{op.Tag},
			"responses": map[string]interface{}{
				"200": map[string]interface{}{"description": "OK"},
			},
		}
	}
	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":   s.Title,
			"version": s.Version,
		},
		"servers": []interface{}{
			map[string]interface{}{"url": s.ServerURL},
		},
		"paths": paths,
	}
}

// MarshalSpec encodes the spec for the given file extension.
func MarshalSpec(s E2ESpec, ext string) ([]byte, error) {
	switch ext {
	case ".yaml", ".yml":
		return yaml.Marshal(s.Document())
	case ".json":
		return json.MarshalIndent(s.Document(), "", "  ")
	default:
		return nil, fmt.Errorf("unsupported extension %q", ext)
	}
}

// WriteSpecs writes every spec into dir, cycling through the supported
// extensions, and returns the written paths in corpus order.
func WriteSpecs(dir string, specs []E2ESpec) ([]string, error) {
	paths := make([]string, 0, len(specs))
	for i, s := range specs {
		ext := SupportedFileExtensions[i%len(SupportedFileExtensions)]
		data, err := MarshalSpec(s, ext)
		if err != nil {
			return nil, err
		}
		p := filepath.Join(dir, s.SourceID+ext)
		if err := os.WriteFile(p, data, 0644); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
