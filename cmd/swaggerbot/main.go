// Package main is the swaggerbot CLI entry point.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/goel7054/swagger-bot/internal/config"
	"github.com/goel7054/swagger-bot/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/swaggerbot/config.yaml"
	defaultServerURL  = "http://localhost:3000"
)

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory wins if present, and a missing default file falls back
// to built-in defaults. Returns the config and the path actually loaded ("" for
// built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// specPaths is a repeatable -spec flag.
type specPaths []string

func (s *specPaths) String() string { return strings.Join(*s, ",") }

func (s *specPaths) Set(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("spec path must not be empty")
	}
	*s = append(*s, v)
	return nil
}

// commonFlags are shared by every subcommand that loads the corpus.
type commonFlags struct {
	configPath string
	debug      bool
	specs      specPaths
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", defaultConfigPath, "config file path")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging")
	fs.Var(&c.specs, "spec", "spec file or directory (repeatable; overrides specs.paths)")
}

// load resolves the config and applies flag overrides.
func (c *commonFlags) load() (*config.Config, string, error) {
	cfg, path, err := loadConfig(c.configPath)
	if err != nil {
		return nil, "", err
	}
	if len(c.specs) > 0 {
		cfg.Specs.Paths = append([]string(nil), c.specs...)
	}
	if c.debug {
		cfg.Debug = true
	}
	return cfg, path, nil
}

// cliLogger builds the quiet logger used by one-shot commands.
func cliLogger(debug bool) *zap.Logger {
	logger, err := utils.NewCLILogger(debug)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]
	switch command {
	case "server":
		runServer(args)
	case "ask":
		os.Exit(runAsk(args, os.Stdout))
	case "search":
		os.Exit(runSearch(args, os.Stdout))
	case "chat":
		runChat(args)
	case "mcp":
		runMCP(args)
	case "validate":
		os.Exit(runValidate(args, os.Stdout))
	case "status":
		os.Exit(runStatus(args, os.Stdout))
	case "init":
		runInit(args)
	case "version", "--version", "-v":
		fmt.Printf("swaggerbot version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// buildQuery joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves flags (and their values) to the front of the slice so
// that fs.Parse() sees them, keeping positional words in their original order.
// Go's flag package stops at the first non-flag argument. Flags registered on
// fs as non-boolean take the following token as their value.
func argsReorder(fs *flag.FlagSet, args []string) []string {
	flags := make([]string, 0, len(args))
	positional := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			flags = append(flags, positional...)
			return append(flags, args[i:]...)
		}
		if len(a) < 2 || a[0] != '-' {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") {
			continue
		}
		if takesValue(fs, name) && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	return append(flags, positional...)
}

func takesValue(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return false
	}
	return true
}

func printUsage() {
	fmt.Println(`swaggerbot - Ask questions about your OpenAPI and Swagger documents

Usage:
  swaggerbot server [flags]            Start the HTTP server
  swaggerbot ask [flags] <question>    Answer one question
  swaggerbot search [flags] <terms>    Keyword search over operations
  swaggerbot chat [flags]              Interactive terminal chat
  swaggerbot mcp [flags]               Serve MCP tools over stdio
  swaggerbot validate [flags]          Load specs and report problems
  swaggerbot status [flags]            Show corpus and catalog status
  swaggerbot init [flags]              Write a default config file
  swaggerbot version                   Show version
  swaggerbot help                      Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/swaggerbot/config.yaml)
  --debug            Enable debug logging
  --spec path        Spec file or directory; repeat for more (overrides specs.paths)

Ask Flags:
  --format string    Output format: text or json (default: text)
  --explain          Show per-field fuzzy scores
  --threshold float  Override the fuzzy match threshold (0..1)

Search Flags:
  --format string    Output format: text or json (default: text)
  --limit int        Maximum results (default from config)
  --fuzzy            Tolerate typos in terms
  --source string    Only search one spec

Status Flags:
  --server string    Server URL (default: http://localhost:3000). Use empty (--server "") to load specs locally.
  --format string    Output format: text or json (default: text)

Examples:
  swaggerbot server --spec ./specs
  swaggerbot ask "list all pets"
  swaggerbot ask --explain --spec petstore.yaml create pet
  swaggerbot search --fuzzy petz
  swaggerbot validate --spec ./specs --format json
  swaggerbot status --server ""`)
}
