// Package cli implements the pageflow command-line interface.
//
// # Commands
//
// The main commands are:
//   - paginate: Paginate a document and write the plan
//   - keys: List the measurement keys a document needs
//   - inspect: Browse a paginated document interactively
//   - routes: Render the routing graph of a plan
//   - serve: Run the HTTP server
//   - cache: Manage the plan cache
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pageflow/pkg/buildinfo"
	"github.com/matzehuels/pageflow/pkg/cache"
	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/document"
	"github.com/matzehuels/pageflow/pkg/observability"
	"github.com/matzehuels/pageflow/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "pageflow"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Pageflow paginates content into multi-column pages",
		Long:         `Pageflow places blocks and splittable lists into the columns of a page template, using measured heights where they are known and estimates where they are not, and routes overflow forward until every region fits.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.paginateCommand())
	root.AddCommand(c.keysCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.routesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, flags cacheFlags) (*pipeline.Runner, error) {
	cc, err := newCache(ctx, flags)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache.NewObserved(cc, observability.Cache()), nil, c.Logger), nil
}

// cacheFlags selects the plan cache backend.
type cacheFlags struct {
	noCache  bool
	redisURL string
}

func (f *cacheFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the plan cache")
	cmd.Flags().StringVar(&f.redisURL, "redis", os.Getenv("PAGEFLOW_REDIS_URL"), "cache plans in Redis at this URL instead of on disk")
}

func newCache(ctx context.Context, flags cacheFlags) (cache.Cache, error) {
	switch {
	case flags.noCache:
		return cache.NewNullCache(), nil
	case flags.redisURL != "":
		return cache.NewRedisCache(ctx, cache.RedisOptions{URL: flags.redisURL})
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/pageflow/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns the data directory using XDG standard
// (~/.local/share/pageflow/). Snapshots live here.
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// docFlags are shared by every command that reads a document.
type docFlags struct {
	paramsFile string
	audit      bool
}

func (f *docFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.paramsFile, "params", "", "TOML file with layout parameter overrides")
	cmd.Flags().BoolVar(&f.audit, "audit", false, "run the advisory segment planner and report mismatches")
}

// options loads the params file, if any, into pipeline options.
func (f *docFlags) options() (pipeline.Options, error) {
	var opts pipeline.Options
	if f.paramsFile != "" {
		p, err := document.ReadParamsFile(f.paramsFile)
		if err != nil {
			return opts, err
		}
		opts.Params = p
	}
	if f.audit {
		opts.Params.AdvisoryAudit = true
	}
	return opts, nil
}

// loadDocument reads a document file and reports it on the logger.
func (c *CLI) loadDocument(path string) (*document.Document, error) {
	doc, err := document.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded document",
		"path", path,
		"components", len(doc.Components),
		"measurements", len(doc.Measurements))
	return doc, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// diagnosticLines formats plan warnings and diagnostics for display.
func diagnosticLines(plan layout.Plan) []string {
	var lines []string
	for _, w := range plan.Warnings {
		lines = append(lines, "overflow: "+w.ComponentID+" at "+layout.Region(w.Page, w.Column).String())
	}
	for _, d := range plan.Diagnostics {
		lines = append(lines, strings.ToLower(string(d.Code))+": "+d.Message)
	}
	return lines
}
