package specdoc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

func writeSpec(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func sourceIDs(docs []*Document) []string {
	var ids []string
	for _, d := range docs {
		ids = append(ids, d.SourceID)
	}
	return ids
}

func TestLoader_OrderAndSkips(t *testing.T) {
	dir := t.TempDir()
	specs := filepath.Join(dir, "specs")
	writeSpec(t, filepath.Join(specs, "c.yaml"), "openapi: 3.0.0\ninfo: {title: C}\n")
	writeSpec(t, filepath.Join(specs, "a.json"), `{"openapi": "3.0.0", "info": {"title": "A"}}`)
	writeSpec(t, filepath.Join(specs, "b.yml"), "- not\n- a mapping\n")
	writeSpec(t, filepath.Join(specs, "notes.txt"), "ignored")
	writeSpec(t, filepath.Join(specs, "nested", "d.yaml"), "openapi: 3.0.0\n")
	single := filepath.Join(dir, "z.yaml")
	writeSpec(t, single, "swagger: '2.0'\n")

	ld := NewLoader(WithLogger(zap.NewNop()), WithWorkers(2))
	res, err := ld.Load(context.Background(), []string{single, specs, filepath.Join(dir, "missing.yaml")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff([]string{"z", "a", "c"}, sourceIDs(res.Documents)); diff != "" {
		t.Errorf("load order (-want +got):\n%s", diff)
	}
	if res.Report.Sources != 4 {
		t.Errorf("Sources = %d, want 4", res.Report.Sources)
	}
	if res.Report.Loaded != 3 {
		t.Errorf("Loaded = %d, want 3", res.Report.Loaded)
	}
	if res.Report.Failed() != 2 {
		t.Fatalf("Failed = %d, want 2: %v", res.Report.Failed(), res.Report.ErrorMessages())
	}
	if !errors.Is(res.Report.Errors[0].Err, os.ErrNotExist) {
		t.Errorf("first error should be the missing path, got %v", res.Report.Errors[0])
	}
	if !errors.Is(res.Report.Errors[1], ErrNotMapping) {
		t.Errorf("second error should be ErrNotMapping, got %v", res.Report.Errors[1])
	}
}

func TestLoader_Recursive(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, filepath.Join(dir, "b.yaml"), "openapi: 3.0.0\n")
	writeSpec(t, filepath.Join(dir, "a", "x.yaml"), "openapi: 3.0.0\n")

	res, err := NewLoader(WithRecursive(true)).Load(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff([]string{"x", "b"}, sourceIDs(res.Documents)); diff != "" {
		t.Errorf("recursive order (-want +got):\n%s", diff)
	}
}

func TestLoader_DuplicateNamesGetSuffixes(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, filepath.Join(dir, "one", "api.yaml"), "openapi: 3.0.0\n")
	writeSpec(t, filepath.Join(dir, "two", "api.json"), `{"openapi": "3.0.0"}`)

	res, err := NewLoader().Load(context.Background(), []string{
		filepath.Join(dir, "one"),
		filepath.Join(dir, "two"),
		filepath.Join(dir, "one", "api.yaml"),
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff([]string{"api", "api-2"}, sourceIDs(res.Documents)); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
}

func TestLoader_ValidatorWarnings(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, filepath.Join(dir, "plain.yaml"), "info:\n  title: No version key\n")
	v, err := NewValidator()
	if err != nil {
		t.Fatal(err)
	}
	res, err := NewLoader(WithValidator(v)).Load(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Report.Loaded != 1 {
		t.Errorf("document with warnings should still load, Loaded = %d", res.Report.Loaded)
	}
	if len(res.Report.Warnings) == 0 || res.Report.Warnings[0].SourceID != "plain" {
		t.Errorf("expected warnings for plain, got %+v", res.Report.Warnings)
	}
}

func TestLoader_SkipsAliasBomb(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, filepath.Join(dir, "a.yaml"), "openapi: 3.0.0\ninfo:\n  title: A\n")
	writeSpec(t, filepath.Join(dir, "b.yaml"), aliasBomb(8))
	start := time.Now()
	res, err := NewLoader().Load(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Load took %v", elapsed)
	}
	if diff := cmp.Diff([]string{"a"}, sourceIDs(res.Documents)); diff != "" {
		t.Errorf("documents (-want +got):\n%s", diff)
	}
	if len(res.Report.Errors) != 1 || !errors.Is(res.Report.Errors[0], ErrTooManyNodes) {
		t.Errorf("errors = %v, want one ErrTooManyNodes", res.Report.Errors)
	}
}

func TestLoader_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, filepath.Join(dir, "a.yaml"), "openapi: 3.0.0\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLoader().Load(ctx, []string{dir}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLoader_Empty(t *testing.T) {
	res, err := NewLoader().Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Documents) != 0 || res.Report.Sources != 0 {
		t.Errorf("expected empty result, got %+v", res.Report)
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path string
		exts []string
		want bool
	}{
		{"a.yaml", []string{".yaml"}, true},
		{"a.YML", []string{"yml"}, true},
		{"a.json", []string{".yaml", ".yml"}, false},
		{"a.txt", nil, true},
		{"noext", []string{".yaml"}, false},
	}
	for _, tt := range tests {
		if got := MatchExtension(tt.path, tt.exts); got != tt.want {
			t.Errorf("MatchExtension(%q, %v) = %v, want %v", tt.path, tt.exts, got, tt.want)
		}
	}
}
