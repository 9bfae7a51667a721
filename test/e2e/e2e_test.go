package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/goel7054/swagger-bot/internal/config"
	"github.com/goel7054/swagger-bot/internal/corpus"
	"github.com/goel7054/swagger-bot/internal/respond"
	"github.com/goel7054/swagger-bot/internal/router"
	"github.com/goel7054/swagger-bot/internal/server"
	"github.com/goel7054/swagger-bot/internal/specdoc"
	"github.com/goel7054/swagger-bot/internal/storage"
)

type e2eEnv struct {
	dir     string
	store   *corpus.Store
	ts      *httptest.Server
	catalog *storage.SQLiteCatalog
}

// startServer writes the corpus to a temp dir, loads it through the real
// loader and serves it over HTTP.
func startServer(t *testing.T, c *Corpus) *e2eEnv {
	t.Helper()
	dir := t.TempDir()
	specDir := filepath.Join(dir, "specs")
	if err := os.MkdirAll(specDir, 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := WriteSpecs(specDir, c.Specs); err != nil {
		t.Fatal(err)
	}

	validator, err := specdoc.NewValidator()
	if err != nil {
		t.Fatal(err)
	}
	loader := specdoc.NewLoader(specdoc.WithValidator(validator), specdoc.WithWorkers(4))

	cfg := config.Default()
	cfg.Specs.Paths = []string{specDir}
	cfg.Storage.DatabasePath = filepath.Join(dir, "catalog.db")
	disabled := false
	cfg.Metrics.Enabled = &disabled

	catalog, err := storage.NewSQLiteCatalog(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = catalog.Close() })

	store, err := corpus.NewStore(loader, cfg.Specs.Paths, corpus.WithOnSwap(func(snap *corpus.Snapshot) {
		if _, err := catalog.Sync(context.Background(), storage.RecordsFromSnapshot(snap)); err != nil {
			t.Errorf("catalog sync: %v", err)
		}
	}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	srv := server.NewServer(store, router.New(store, nil, nil), catalog, cfg, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &e2eEnv{dir: specDir, store: store, ts: ts, catalog: catalog}
}

func (e *e2eEnv) ask(t *testing.T, question string) (int, respond.Envelope) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"question": question})
	resp, err := http.Post(e.ts.URL+"/query", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var env respond.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, env
}

func (e *e2eEnv) getJSON(t *testing.T, target string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(e.ts.URL + target)
	if err != nil {
		t.Fatalf("get %s: %v", target, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", target, err)
	}
	return resp.StatusCode
}

func TestE2E_QueriesReturnCorrectOperations(t *testing.T) {
	c := BuildCorpus()
	env := startServer(t, c)

	snap := env.store.Snapshot()
	if len(snap.Documents) != c.TotalSpecs || len(snap.Corpus.Entries) != c.TotalOperation {
		t.Fatalf("loaded %d specs / %d operations, want %d / %d",
			len(snap.Documents), len(snap.Corpus.Entries), c.TotalSpecs, c.TotalOperation)
	}
	if snap.Report.Failed() != 0 || len(snap.Report.Warnings) != 0 {
		t.Fatalf("load report: errors %v warnings %v", snap.Report.ErrorMessages(), snap.Report.Warnings)
	}
	t.Logf("loaded %d specs; running %d query test cases", c.TotalSpecs, c.TotalQueries)

	for _, tc := range c.TestCases {
		t.Run(tc.Description, func(t *testing.T) {
			code, got := env.ask(t, tc.Query)
			if code != http.StatusOK {
				t.Fatalf("status %d", code)
			}
			if got.Kind != respond.KindMatches {
				t.Fatalf("kind = %s (%+v)", got.Kind, got)
			}
			if tc.Exact {
				top := got.Matches[0]
				if top.Source != tc.Source || top.Method != tc.Method || top.Path != tc.Path || top.Score != "0.00" {
					t.Errorf("top match = %+v, want %s %s from %s at 0.00", top, tc.Method, tc.Path, tc.Source)
				}
				return
			}
			if !containsMatch(got.Matches, tc) {
				t.Errorf("query %q: %s %s from %s not among %d matches", tc.Query, tc.Method, tc.Path, tc.Source, len(got.Matches))
			}
		})
	}
}

func containsMatch(matches []respond.Match, tc QueryTestCase) bool {
	for _, m := range matches {
		if m.Source == tc.Source && m.Method == tc.Method && m.Path == tc.Path {
			return true
		}
	}
	return false
}

func TestE2E_RouterTiers(t *testing.T) {
	c := BuildCorpus()
	env := startServer(t, c)

	code, got := env.ask(t, "  Good Morning ")
	if code != http.StatusOK || got.Kind != respond.KindAnswer || !strings.HasPrefix(got.Text, "Hello") {
		t.Errorf("greeting: %d %+v", code, got)
	}

	_, got = env.ask(t, "how to get started?")
	if got.Kind != respond.KindAnswer || !strings.Contains(got.Text, "1.") {
		t.Errorf("menu: %+v", got)
	}

	_, got = env.ask(t, "what is the base url of the api?")
	if got.Kind != respond.KindAnswer {
		t.Fatalf("base url: %+v", got)
	}
	last := -1
	for _, s := range c.Specs {
		i := strings.Index(got.Text, s.ServerURL)
		if i < 0 {
			t.Errorf("base url answer is missing %s", s.ServerURL)
			continue
		}
		if i < last {
			t.Errorf("%s is out of load order", s.ServerURL)
		}
		last = i
	}

	code, got = env.ask(t, "   ")
	if code != http.StatusBadRequest || got.Kind != respond.KindError || got.Text != "Query string is required." {
		t.Errorf("blank: %d %+v", code, got)
	}

	_, got = env.ask(t, "qqqq zzzz wwww xxxx")
	if got.Kind != respond.KindMessage || got.Text != "No matching endpoint or metadata found." {
		t.Errorf("fallback: %+v", got)
	}
}

func TestE2E_MetadataInLoadOrder(t *testing.T) {
	c := BuildCorpus()
	env := startServer(t, c)

	var docs []struct {
		Source string `json:"source"`
	}
	if code := env.getJSON(t, "/metadata", &docs); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(docs) != len(c.Specs) {
		t.Fatalf("got %d documents, want %d", len(docs), len(c.Specs))
	}
	// Source ids are zero-padded, so lexical file order is corpus order.
	for i, s := range c.Specs {
		if docs[i].Source != s.SourceID {
			t.Errorf("document %d = %s, want %s", i, docs[i].Source, s.SourceID)
		}
	}
}

func TestE2E_KeywordSearchAndCatalog(t *testing.T) {
	c := BuildCorpus()
	env := startServer(t, c)

	var ops struct {
		Total   int `json:"total"`
		Results []struct {
			Source string `json:"source"`
			Path   string `json:"path"`
		} `json:"results"`
	}
	target := fmt.Sprintf("/api/v1/operations?q=%s&source=%s", "shipments", c.Specs[2].SourceID)
	if code := env.getJSON(t, target, &ops); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if ops.Total == 0 {
		t.Fatal("expected keyword hits for shipments")
	}
	for _, r := range ops.Results {
		if r.Source != c.Specs[2].SourceID {
			t.Errorf("hit from %s leaked past the source filter", r.Source)
		}
	}

	n, err := env.catalog.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(c.TotalSpecs) {
		t.Errorf("catalog has %d specs, want %d", n, c.TotalSpecs)
	}
	var rec struct {
		Source     string `json:"source"`
		Operations int    `json:"operations"`
	}
	if code := env.getJSON(t, "/api/v1/specs/"+c.Specs[0].SourceID, &rec); code != http.StatusOK {
		t.Fatalf("spec status %d", code)
	}
	if rec.Operations != 5 {
		t.Errorf("spec record = %+v", rec)
	}
}

func TestE2E_ReloadPicksUpNewSpec(t *testing.T) {
	c := BuildCorpus()
	first := &Corpus{Specs: c.Specs[:3]}
	env := startServer(t, first)

	if _, got := env.ask(t, c.Specs[5].Operations[0].Summary); got.Kind == respond.KindMatches && got.Matches[0].Score == "0.00" {
		t.Fatalf("unexpected exact match before reload: %+v", got.Matches[0])
	}

	if _, err := WriteSpecs(env.dir, c.Specs[5:6]); err != nil {
		t.Fatal(err)
	}
	// A broken file is reported and skipped; the rest of the reload succeeds.
	if err := os.WriteFile(filepath.Join(env.dir, "zz-broken.yaml"), []byte("paths: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(env.ts.URL+"/api/v1/reload", "application/json", http.NoBody)
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Documents int      `json:"documents"`
		Errors    []string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || out.Documents != 4 || len(out.Errors) != 1 {
		t.Fatalf("reload: %d %+v", resp.StatusCode, out)
	}

	want := c.Specs[5].Operations[0]
	_, got := env.ask(t, want.Summary)
	if got.Kind != respond.KindMatches || got.Matches[0].Path != want.Path || got.Matches[0].Score != "0.00" {
		t.Errorf("after reload: %+v", got)
	}
	if n, _ := env.catalog.Count(context.Background()); n != 4 {
		t.Errorf("catalog has %d specs after reload, want 4", n)
	}
}
