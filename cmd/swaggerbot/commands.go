package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/goel7054/swagger-bot/internal/cli"
	"github.com/goel7054/swagger-bot/internal/config"
	"github.com/goel7054/swagger-bot/internal/keyword"
	"github.com/goel7054/swagger-bot/internal/mcptools"
	"github.com/goel7054/swagger-bot/internal/metrics"
	"github.com/goel7054/swagger-bot/internal/models"
	"github.com/goel7054/swagger-bot/internal/respond"
	"github.com/goel7054/swagger-bot/internal/server"
	"github.com/goel7054/swagger-bot/internal/tui"
	"github.com/goel7054/swagger-bot/internal/watcher"
	"github.com/goel7054/swagger-bot/pkg/utils"
)

func runServer(args []string) {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	port := fs.Int("port", 0, "listen port (overrides server.port)")
	_ = fs.Parse(args)

	cfg, resolvedConfigPath, err := common.load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Strings("spec_paths", cfg.Specs.Paths),
		zap.Bool("debug", cfg.Debug),
	)

	metricsOn := cfg.Metrics.EnabledOrDefault()
	if metricsOn {
		metrics.Register()
	}
	components, err := initializeComponents(context.Background(), cfg, logger, componentOptions{
		catalog: true,
		metrics: metricsOn,
	})
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Specs.Watch {
		store := components.Store
		watchSvc := watcher.NewWatcher(
			store.Paths(),
			func(changed []string) {
				logger.Info("spec files changed, reloading", zap.Strings("paths", changed))
				_, err := store.Reload(watchCtx)
				if metricsOn {
					metrics.ObserveReload(err)
				}
				if err != nil {
					logger.Warn("reload failed, keeping previous corpus", zap.Error(err))
				}
			},
			watcher.WithLogger(logger),
			watcher.WithExtensions(cfg.Specs.Extensions),
			watcher.WithRecursive(cfg.Specs.RecursiveOrDefault()),
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(components.Store, components.Router, components.Catalog, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runAsk(args []string, w io.Writer) int {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	format := fs.String("format", "text", "output format: text or json")
	explain := fs.Bool("explain", false, "show per-field fuzzy scores")
	threshold := fs.Float64("threshold", -1, "fuzzy match threshold override (0..1)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: swaggerbot ask [flags] <question>\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(argsReorder(fs, args)); err != nil {
		return 2
	}
	question := buildQuery(fs.Args())
	if question == "" {
		fs.Usage()
		return 2
	}
	outFmt, err := cli.ParseOutputFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *threshold > 1 {
		fmt.Fprintf(os.Stderr, "threshold must be between 0 and 1, got %g\n", *threshold)
		return 2
	}

	cfg, _, err := common.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *threshold >= 0 {
		th := *threshold
		cfg.Search.Threshold = &th
	}
	logger := cliLogger(cfg.Debug)
	defer logger.Sync()

	components, err := initializeComponents(context.Background(), cfg, logger, componentOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		return 1
	}
	defer components.Close()

	if *explain {
		if err := cli.WriteExplain(w, explainQuestion(components, question), outFmt); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			return 1
		}
		return 0
	}

	env := askQuestion(components, question)
	if err := cli.WriteEnvelope(w, env, outFmt); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		return 1
	}
	if env.Kind == respond.KindError {
		return 1
	}
	return 0
}

// askQuestion resolves question to its reply envelope.
func askQuestion(c *Components, question string) *respond.Envelope {
	res, err := c.Router.Resolve(question)
	if err != nil {
		env, _ := respond.FromError(err)
		return env
	}
	return respond.FromResult(res)
}

// explainQuestion scores question against the corpus. When nothing passes the
// threshold, the closest entries are explained instead.
func explainQuestion(c *Components, question string) []*models.ScoreBreakdown {
	entries := c.Store.Corpus().Entries
	matches := c.Engine.Search(question, entries)
	engine := c.Engine
	if len(matches) == 0 {
		engine = c.Engine.WithThreshold(1)
		matches = engine.Search(question, entries)
	}
	out := make([]*models.ScoreBreakdown, 0, len(matches))
	for _, m := range matches {
		out = append(out, engine.Explain(question, m.Entry))
	}
	return out
}

func runSearch(args []string, w io.Writer) int {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	format := fs.String("format", "text", "output format: text or json")
	limit := fs.Int("limit", 0, "maximum results (default from config)")
	fuzzy := fs.Bool("fuzzy", false, "tolerate typos in terms")
	source := fs.String("source", "", "only search the spec with this source id")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: swaggerbot search [flags] <terms>\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(argsReorder(fs, args)); err != nil {
		return 2
	}
	query := buildQuery(fs.Args())
	if query == "" {
		fs.Usage()
		return 2
	}
	outFmt, err := cli.ParseOutputFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, _, err := common.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	logger := cliLogger(cfg.Debug)
	defer logger.Sync()

	components, err := initializeComponents(context.Background(), cfg, logger, componentOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		return 1
	}
	defer components.Close()

	n := searchLimit(*limit, cfg)
	hits, err := components.Store.Snapshot().Keyword.Search(context.Background(), query, n, &keyword.SearchOptions{
		FuzzyEnabled: *fuzzy,
		SourceID:     *source,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		return 1
	}
	if err := cli.WriteOperations(w, query, hits, outFmt); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		return 1
	}
	return 0
}

// searchLimit applies the configured default and maximum to a -limit value.
func searchLimit(requested int, cfg *config.Config) int {
	if requested <= 0 {
		return cfg.Search.DefaultLimit
	}
	if cfg.Search.MaxLimit > 0 && requested > cfg.Search.MaxLimit {
		return cfg.Search.MaxLimit
	}
	return requested
}

func runChat(args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	_ = fs.Parse(args)

	cfg, _, err := common.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := cliLogger(cfg.Debug)
	defer logger.Sync()

	components, err := initializeComponents(context.Background(), cfg, logger, componentOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	snap := components.Store.Snapshot()
	summary := fmt.Sprintf("%s, %s loaded",
		utils.Plural(len(snap.Documents), "spec"),
		utils.Plural(len(snap.Corpus.Entries), "operation"))
	p := tea.NewProgram(tui.New(components.Router, summary), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Chat failed: %v\n", err)
		os.Exit(1)
	}
}

func runMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	_ = fs.Parse(args)

	cfg, _, err := common.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	// stdout carries the protocol; logs go to stderr.
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger, componentOptions{catalog: true})
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	tools := mcptools.New(components.Router, components.Store,
		mcptools.WithLogger(logger),
		mcptools.WithCatalog(components.Catalog))
	if err := mcptools.Run(ctx, mcptools.NewServer(version, tools)); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("MCP server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func runValidate(args []string, w io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	format := fs.String("format", "text", "output format: text or json")
	strict := fs.Bool("strict", false, "treat shape warnings as failures")
	if err := fs.Parse(argsReorder(fs, args)); err != nil {
		return 2
	}
	// Positional args are spec paths, like -spec.
	for _, p := range fs.Args() {
		_ = common.specs.Set(p)
	}
	outFmt, err := cli.ParseOutputFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, _, err := common.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	logger := cliLogger(cfg.Debug)
	defer logger.Sync()

	code, err := validateSpecs(context.Background(), cfg, logger, w, outFmt, *strict)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validate failed: %v\n", err)
		return 1
	}
	return code
}

// validateSpecs loads the configured specs, writes the load report and returns
// the exit code: 1 when any source failed, or had warnings in strict mode.
func validateSpecs(ctx context.Context, cfg *config.Config, logger *zap.Logger, w io.Writer, format cli.OutputFormat, strict bool) (int, error) {
	loader, err := newLoader(cfg, logger)
	if err != nil {
		return 1, err
	}
	res, err := loader.Load(ctx, cfg.Specs.Paths)
	if err != nil {
		return 1, err
	}
	if err := cli.WriteLoadResult(w, res, format); err != nil {
		return 1, err
	}
	if res.Report.Failed() > 0 || (strict && len(res.Report.Warnings) > 0) {
		return 1, nil
	}
	return 0, nil
}

func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("config", defaultConfigPath, "where to write the config file")
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(args)

	if _, err := os.Stat(*path); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "%s already exists (use -force to overwrite)\n", *path)
		os.Exit(1)
	}
	if err := config.Save(*path, config.Default()); err != nil {
		fmt.Fprintf(os.Stderr, "Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *path)
}
