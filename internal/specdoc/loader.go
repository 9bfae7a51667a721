package specdoc

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goel7054/swagger-bot/internal/fileid"
)

// DefaultExtensions are the file extensions scanned in spec directories.
var DefaultExtensions = []string{".yaml", ".yml", ".json"}

// DefaultWorkers bounds concurrent parsing.
const DefaultWorkers = 4

// Source is one file selected for loading.
type Source struct {
	SourceID string
	Path     string
}

// Result is the outcome of a load: the documents that parsed, in load order,
// and a report of what was skipped.
type Result struct {
	Documents []*Document
	Report    *Report
}

// Loader resolves configured spec paths to files and parses them.
type Loader struct {
	extensions []string
	recursive  bool
	workers    int
	validator  *Validator
	logger     *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used for load errors and warnings.
func WithLogger(l *zap.Logger) LoaderOption {
	return func(ld *Loader) { ld.logger = l }
}

// WithExtensions sets the extensions scanned in directories.
func WithExtensions(exts []string) LoaderOption {
	return func(ld *Loader) {
		if len(exts) > 0 {
			ld.extensions = exts
		}
	}
}

// WithRecursive makes directory scans descend into subdirectories.
func WithRecursive(recursive bool) LoaderOption {
	return func(ld *Loader) { ld.recursive = recursive }
}

// WithWorkers bounds how many files are parsed at once.
func WithWorkers(n int) LoaderOption {
	return func(ld *Loader) {
		if n > 0 {
			ld.workers = n
		}
	}
}

// WithValidator enables shape validation. Violations are reported as
// warnings; the document is still loaded.
func WithValidator(v *Validator) LoaderOption {
	return func(ld *Loader) { ld.validator = v }
}

// NewLoader creates a loader.
func NewLoader(opts ...LoaderOption) *Loader {
	ld := &Loader{
		extensions: DefaultExtensions,
		workers:    DefaultWorkers,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ld)
	}
	if ld.logger == nil {
		ld.logger = zap.NewNop()
	}
	return ld
}

// Resolve expands paths into sources. Files are taken as given; directories
// contribute their matching files in lexical order. Paths keep the order
// they were passed in and a file reached twice is loaded once. Paths that
// cannot be read become load errors.
func (ld *Loader) Resolve(paths []string) ([]Source, []*LoadError) {
	var (
		sources []Source
		errs    []*LoadError
		seen    = make(map[string]bool)
		ids     = fileid.NewAllocator()
	)
	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = filepath.Clean(path)
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		sources = append(sources, Source{SourceID: ids.Next(abs), Path: abs})
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			errs = append(errs, &LoadError{Path: p, Err: err})
			continue
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		files, err := ld.scanDir(p)
		if err != nil {
			errs = append(errs, &LoadError{Path: p, Err: err})
		}
		for _, f := range files {
			add(f)
		}
	}
	return sources, errs
}

func (ld *Loader) scanDir(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && !ld.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if MatchExtension(path, ld.extensions) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// Load resolves paths and parses every source. Sources that cannot be read or
// parsed are skipped and listed in the report. The only error returned is
// the context's.
func (ld *Loader) Load(ctx context.Context, paths []string) (*Result, error) {
	sources, resolveErrs := ld.Resolve(paths)
	docs, loadErrs, warnings, err := ld.parseAll(ctx, sources)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Sources:  len(sources),
		Errors:   append(resolveErrs, loadErrs...),
		Warnings: warnings,
	}
	var loaded []*Document
	for _, d := range docs {
		if d != nil {
			loaded = append(loaded, d)
		}
	}
	report.Loaded = len(loaded)

	for _, e := range report.Errors {
		ld.logger.Warn("skipping spec", zap.String("path", e.Path), zap.Error(e.Err))
	}
	for _, w := range report.Warnings {
		ld.logger.Warn("spec shape warning", zap.String("source", w.SourceID), zap.String("message", w.Message))
	}
	ld.logger.Debug("specs loaded",
		zap.Int("sources", report.Sources),
		zap.Int("loaded", report.Loaded),
		zap.Int("failed", report.Failed()))

	return &Result{Documents: loaded, Report: report}, nil
}

// parseAll parses sources concurrently. Each result lands in the slot of its
// source so load order is kept regardless of completion order.
func (ld *Loader) parseAll(ctx context.Context, sources []Source) ([]*Document, []*LoadError, []Warning, error) {
	docs := make([]*Document, len(sources))
	errs := make([]*LoadError, len(sources))
	warns := make([][]string, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ld.workers)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := LoadFile(src)
			if err != nil {
				errs[i] = &LoadError{Path: src.Path, Err: err}
				return nil
			}
			docs[i] = doc
			if ld.validator != nil {
				warns[i] = ld.validator.Validate(doc)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, fmt.Errorf("load specs: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("load specs: %w", err)
	}

	var (
		loadErrs []*LoadError
		warnings []Warning
	)
	for i := range sources {
		if errs[i] != nil {
			loadErrs = append(loadErrs, errs[i])
		}
		for _, msg := range warns[i] {
			warnings = append(warnings, Warning{SourceID: sources[i].SourceID, Message: msg})
		}
	}
	return docs, loadErrs, warnings, nil
}

// LoadFile reads and parses one source.
func LoadFile(src Source) (*Document, error) {
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Parse(src.SourceID, src.Path, data)
}

// MatchExtension reports whether path ends in one of extensions. Matching
// ignores case and a leading dot. An empty list matches everything.
func MatchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
