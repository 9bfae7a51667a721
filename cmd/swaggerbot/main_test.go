package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/goel7054/swagger-bot/internal/cli"
	"github.com/goel7054/swagger-bot/internal/config"
	"github.com/goel7054/swagger-bot/internal/respond"
)

const petstoreYAML = `
openapi: 3.0.0
info:
  title: Swagger Petstore
  version: 1.0.0
servers:
  - url: http://petstore.swagger.io/v1
paths:
  /pets:
    get:
      summary: List all pets
      operationId: listPets
      tags: [pets]
    post:
      summary: Create a pet
      operationId: createPets
      tags: [pets]
`

// writeFixture writes a spec dir and a config pointing at it, and returns the
// config path.
func writeFixture(t *testing.T, specs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	specDir := filepath.Join(dir, "specs")
	if err := os.MkdirAll(specDir, 0755); err != nil {
		t.Fatal(err)
	}
	for name, body := range specs {
		if err := os.WriteFile(filepath.Join(specDir, name), []byte(body), 0600); err != nil {
			t.Fatal(err)
		}
	}
	configPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
specs:
  paths: [%q]
storage:
  database_path: %q
metrics:
  enabled: false
`, specDir, filepath.Join(dir, "catalog.db"))
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return configPath
}

func mustComponents(t *testing.T, configPath string, opts componentOptions) (*Components, *config.Config) {
	t.Helper()
	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	c, err := initializeComponents(context.Background(), cfg, zap.NewNop(), opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	return c, cfg
}

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after question are moved first",
			args:     []string{"list all pets", "-format", "json"},
			expected: []string{"-format", "json", "list all pets"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-format", "json", "list all pets"},
			expected: []string{"-format", "json", "list all pets"},
		},
		{
			name:     "question only returns unchanged",
			args:     []string{"list all pets"},
			expected: []string{"list all pets"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"create", "pet", "-explain"},
			expected: []string{"-explain", "create", "pet"},
		},
		{
			name:     "flag between question words keeps word order",
			args:     []string{"what", "is", "-explain", "the", "base", "url", "of", "the", "api?"},
			expected: []string{"-explain", "what", "is", "the", "base", "url", "of", "the", "api?"},
		},
		{
			name:     "value flag in the middle takes its value",
			args:     []string{"list", "-format", "json", "all", "pets"},
			expected: []string{"-format", "json", "list", "all", "pets"},
		},
		{
			name:     "inline value and bool flag",
			args:     []string{"list", "-format=json", "all", "-explain", "pets"},
			expected: []string{"-format=json", "-explain", "list", "all", "pets"},
		},
		{
			name:     "double dash ends flags",
			args:     []string{"-explain", "--", "-format", "pets"},
			expected: []string{"-explain", "--", "-format", "pets"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("ask", flag.ContinueOnError)
			fs.String("format", "text", "")
			fs.Bool("explain", false, "")
			got := argsReorder(fs, tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"pets"}, "pets"},
		{"multiple words", []string{"list", "pets"}, "list pets"},
		{"single quoted phrase", []string{"list all pets"}, "list all pets"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildQuery(tt.args)
			if got != tt.expected {
				t.Errorf("buildQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestSpecPathsFlag(t *testing.T) {
	var s specPaths
	if err := s.Set("a.yaml"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("specs/"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("  "); err == nil {
		t.Error("blank spec path should be rejected")
	}
	if got := s.String(); got != "a.yaml,specs/" {
		t.Errorf("String() = %q", got)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_defaultsWhenNoFile(t *testing.T) {
	if _, err := os.Stat(defaultConfigPath); err == nil {
		t.Skip("a system config exists at the default path")
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved = %q, want built-in defaults", resolved)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.Server.Port)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func TestLoadConfig_explicitMissingFails(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestInitializeComponents_syncsCatalog(t *testing.T) {
	configPath := writeFixture(t, map[string]string{"petstore.yaml": petstoreYAML})
	c, _ := mustComponents(t, configPath, componentOptions{catalog: true})

	snap := c.Store.Snapshot()
	if len(snap.Documents) != 1 || len(snap.Corpus.Entries) != 2 {
		t.Fatalf("documents=%d operations=%d, want 1 and 2", len(snap.Documents), len(snap.Corpus.Entries))
	}
	if c.Catalog == nil {
		t.Fatal("catalog should be open")
	}
	rec, err := c.Catalog.Get(context.Background(), "petstore")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Operations != 2 || rec.BuildID != snap.BuildID {
		t.Errorf("record = %+v", rec)
	}
}

func TestAskQuestion(t *testing.T) {
	configPath := writeFixture(t, map[string]string{"petstore.yaml": petstoreYAML})
	c, _ := mustComponents(t, configPath, componentOptions{})

	tests := []struct {
		question string
		kind     respond.Kind
		contains string
	}{
		{"Hello", respond.KindAnswer, "Hello!"},
		{"list all pets", respond.KindMatches, ""},
		{"what is the base url of the api?", respond.KindAnswer, "http://petstore.swagger.io/v1"},
		{"zzzz qqqq xxxx", respond.KindMessage, "No matching endpoint or metadata found."},
		{"   ", respond.KindError, "Query string is required."},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			env := askQuestion(c, tt.question)
			if env.Kind != tt.kind {
				t.Fatalf("kind = %s, want %s (%+v)", env.Kind, tt.kind, env)
			}
			if tt.contains != "" && !strings.Contains(env.Text, tt.contains) {
				t.Errorf("text = %q, want it to contain %q", env.Text, tt.contains)
			}
		})
	}

	env := askQuestion(c, "list all pets")
	if env.Matches[0].OperationID != "listPets" || env.Matches[0].Score != "0.00" {
		t.Errorf("top match = %+v", env.Matches[0])
	}
}

func TestExplainQuestion_fallsBackToClosest(t *testing.T) {
	configPath := writeFixture(t, map[string]string{"petstore.yaml": petstoreYAML})
	c, _ := mustComponents(t, configPath, componentOptions{})

	got := explainQuestion(c, "list all pets")
	if len(got) == 0 || got[0].Score != 0 {
		t.Fatalf("explain = %+v", got)
	}
	if len(got[0].Fields) == 0 {
		t.Error("breakdown should list field scores")
	}

	far := explainQuestion(c, "zzzz qqqq xxxx")
	if len(far) != 2 {
		t.Errorf("fallback explain returned %d entries, want every operation", len(far))
	}
}

func TestRunAsk_jsonEnvelope(t *testing.T) {
	configPath := writeFixture(t, map[string]string{"petstore.yaml": petstoreYAML})
	var buf bytes.Buffer
	code := runAsk([]string{"create", "a", "pet", "-config", configPath, "-format", "json"}, &buf)
	if code != 0 {
		t.Fatalf("exit code = %d, output %s", code, buf.String())
	}
	var env respond.Envelope
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if env.Kind != respond.KindMatches || env.Matches[0].OperationID != "createPets" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestRunAsk_usageErrors(t *testing.T) {
	configPath := writeFixture(t, map[string]string{"petstore.yaml": petstoreYAML})
	tests := []struct {
		name string
		args []string
	}{
		{"no question", []string{"-config", configPath}},
		{"bad format", []string{"-config", configPath, "-format", "xml", "pets"}},
		{"threshold too high", []string{"-config", configPath, "-threshold", "2", "pets"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if code := runAsk(tt.args, &buf); code != 2 {
				t.Errorf("exit code = %d, want 2", code)
			}
		})
	}
}

func TestRunSearch(t *testing.T) {
	configPath := writeFixture(t, map[string]string{"petstore.yaml": petstoreYAML})
	var buf bytes.Buffer
	code := runSearch([]string{"pets", "-config", configPath, "-format", "json"}, &buf)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	var out struct {
		Query string `json:"query"`
		Total int    `json:"total"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Query != "pets" || out.Total == 0 {
		t.Errorf("search output = %+v", out)
	}
}

func TestSearchLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Search.DefaultLimit = 10
	cfg.Search.MaxLimit = 50
	tests := []struct {
		requested, want int
	}{
		{0, 10},
		{-3, 10},
		{5, 5},
		{500, 50},
	}
	for _, tt := range tests {
		if got := searchLimit(tt.requested, cfg); got != tt.want {
			t.Errorf("searchLimit(%d) = %d, want %d", tt.requested, got, tt.want)
		}
	}
}

func TestValidateSpecs(t *testing.T) {
	tests := []struct {
		name   string
		specs  map[string]string
		strict bool
		want   int
		output string
	}{
		{
			name:   "all good",
			specs:  map[string]string{"petstore.yaml": petstoreYAML},
			want:   0,
			output: "1 loaded, 0 failed",
		},
		{
			name:   "broken file fails",
			specs:  map[string]string{"petstore.yaml": petstoreYAML, "broken.yaml": "paths: [\n"},
			want:   1,
			output: "FAIL",
		},
		{
			name:   "scalar root fails",
			specs:  map[string]string{"scalar.json": `"just a string"`},
			want:   1,
			output: "0 loaded, 1 failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load(writeFixture(t, tt.specs))
			if err != nil {
				t.Fatal(err)
			}
			var buf bytes.Buffer
			code, err := validateSpecs(context.Background(), cfg, zap.NewNop(), &buf, cli.OutputText, tt.strict)
			if err != nil {
				t.Fatal(err)
			}
			if code != tt.want {
				t.Errorf("exit code = %d, want %d\n%s", code, tt.want, buf.String())
			}
			if !strings.Contains(buf.String(), tt.output) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.output)
			}
		})
	}
}

func TestLocalStatus(t *testing.T) {
	configPath := writeFixture(t, map[string]string{"petstore.yaml": petstoreYAML})
	c, cfg := mustComponents(t, configPath, componentOptions{catalog: true})

	status := localStatus(context.Background(), c, cfg)
	if status.Documents != 1 || status.Operations != 2 || status.Metadata != 1 {
		t.Errorf("status = %+v", status)
	}
	if status.KeywordIndexSize != 2 {
		t.Errorf("keyword_index_size = %d, want 2", status.KeywordIndexSize)
	}
	if status.CatalogSpecs == nil || *status.CatalogSpecs != 1 {
		t.Errorf("catalog_specs = %v, want 1", status.CatalogSpecs)
	}

	var buf bytes.Buffer
	if err := writeStatus(&buf, status, cli.OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "operations:          2") {
		t.Errorf("text status:\n%s", buf.String())
	}
}

func TestStatusViaHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/status" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"build_id":"b1","documents":3,"operations":12,"catalog_specs":3}`))
	}))
	defer ts.Close()

	s, err := statusViaHTTP(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	if s.BuildID != "b1" || s.Documents != 3 || s.Operations != 12 {
		t.Errorf("status = %+v", s)
	}
	if s.CatalogSpecs == nil || *s.CatalogSpecs != 3 {
		t.Errorf("catalog_specs = %v", s.CatalogSpecs)
	}
}

func TestStatusViaHTTP_errorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	if _, err := statusViaHTTP(ts.URL); err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("err = %v, want server returned 500", err)
	}
}
