package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/goel7054/swagger-bot/internal/cli"
	"github.com/goel7054/swagger-bot/internal/config"
	"github.com/goel7054/swagger-bot/internal/storage"
)

// statusResponse mirrors GET /api/v1/status.
type statusResponse struct {
	BuildID          string                `json:"build_id"`
	BuiltAt          string                `json:"built_at"`
	Documents        int                   `json:"documents"`
	Operations       int                   `json:"operations"`
	Metadata         int                   `json:"metadata"`
	Sources          int                   `json:"sources"`
	Failed           int                   `json:"failed"`
	Errors           []string              `json:"errors"`
	Warnings         int                   `json:"warnings"`
	KeywordIndexSize uint64                `json:"keyword_index_size"`
	CatalogSpecs     *int64                `json:"catalog_specs,omitempty"`
	DiskUsageBytes   *int64                `json:"disk_usage_bytes,omitempty"`
	Config           *statusConfigResponse `json:"config,omitempty"`
}

type statusConfigResponse struct {
	SpecPaths    []string `json:"spec_paths"`
	Threshold    float64  `json:"threshold"`
	TopK         int      `json:"top_k"`
	Watch        bool     `json:"watch"`
	DatabasePath string   `json:"database_path"`
}

func runStatus(args []string, w io.Writer) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = load specs locally)")
	format := fs.String("format", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	outFmt, err := cli.ParseOutputFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	var status *statusResponse
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			return 1
		}
	} else {
		cfg, _, err := common.load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			return 1
		}
		logger := cliLogger(cfg.Debug)
		defer logger.Sync()
		components, err := initializeComponents(context.Background(), cfg, logger, componentOptions{catalog: true})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			return 1
		}
		defer components.Close()
		status = localStatus(context.Background(), components, cfg)
	}

	if err := writeStatus(w, status, outFmt); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		return 1
	}
	return 0
}

// localStatus builds the same report the server's status endpoint returns.
func localStatus(ctx context.Context, c *Components, cfg *config.Config) *statusResponse {
	snap := c.Store.Snapshot()
	status := &statusResponse{
		BuildID:    snap.BuildID,
		BuiltAt:    snap.BuiltAt.Format(time.RFC3339),
		Documents:  len(snap.Documents),
		Operations: len(snap.Corpus.Entries),
		Metadata:   len(snap.Corpus.Metadata),
		Sources:    snap.Report.Sources,
		Failed:     snap.Report.Failed(),
		Errors:     snap.Report.ErrorMessages(),
		Warnings:   len(snap.Report.Warnings),
		Config: &statusConfigResponse{
			SpecPaths:    c.Store.Paths(),
			Threshold:    cfg.Search.ThresholdOrDefault(),
			TopK:         cfg.Search.TopK,
			Watch:        cfg.Specs.Watch,
			DatabasePath: cfg.Storage.DatabasePath,
		},
	}
	if n, err := snap.Keyword.DocCount(); err == nil {
		status.KeywordIndexSize = n
	}
	if c.Catalog != nil {
		if n, err := c.Catalog.Count(ctx); err == nil {
			status.CatalogSpecs = &n
		}
		if size, err := storage.CatalogDiskUsage(cfg.Storage.DatabasePath); err == nil {
			status.DiskUsageBytes = &size
		}
	}
	return status
}

func writeStatus(w io.Writer, status *statusResponse, format cli.OutputFormat) error {
	if format == cli.OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}
	fmt.Fprintf(w, "build_id:            %s\n", status.BuildID)
	fmt.Fprintf(w, "built_at:            %s\n", status.BuiltAt)
	fmt.Fprintf(w, "documents:           %d   # specs loaded\n", status.Documents)
	fmt.Fprintf(w, "operations:          %d   # path + method pairs\n", status.Operations)
	fmt.Fprintf(w, "metadata:            %d   # specs with info or servers\n", status.Metadata)
	fmt.Fprintf(w, "keyword_index_size:  %d\n", status.KeywordIndexSize)
	fmt.Fprintf(w, "failed:              %d of %d sources\n", status.Failed, status.Sources)
	fmt.Fprintf(w, "warnings:            %d\n", status.Warnings)
	if status.CatalogSpecs != nil {
		fmt.Fprintf(w, "catalog_specs:       %d\n", *status.CatalogSpecs)
	}
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:    %d   # catalog on disk\n", *status.DiskUsageBytes)
	}
	for _, e := range status.Errors {
		fmt.Fprintf(w, "error: %s\n", e)
	}
	if status.Config != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		for _, p := range status.Config.SpecPaths {
			fmt.Fprintf(w, "spec_path:           %s\n", p)
		}
		fmt.Fprintf(w, "threshold:           %.2f\n", status.Config.Threshold)
		fmt.Fprintf(w, "top_k:               %d\n", status.Config.TopK)
		fmt.Fprintf(w, "watch:               %t\n", status.Config.Watch)
		if status.Config.DatabasePath != "" {
			fmt.Fprintf(w, "database_path:       %s\n", status.Config.DatabasePath)
		}
	}
	return nil
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}
