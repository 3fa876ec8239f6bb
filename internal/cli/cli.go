// Package cli implements the drawbridge command-line interface.
//
// Commands convert rendered diagram sources into draw.io documents, run
// batch conversions with a progress UI, inspect the dispatch registry, and
// manage the artifact cache. The CLI is built with cobra; all commands log
// through charmbracelet/log and support --verbose for debug output.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/drawbridge/pkg/buildinfo"
	"github.com/matzehuels/drawbridge/pkg/cache"
	"github.com/matzehuels/drawbridge/pkg/config"
	"github.com/matzehuels/drawbridge/pkg/convert"
	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/render"
	"github.com/matzehuels/drawbridge/pkg/sandbox"
)

// appName is the application name used for directories and display.
const appName = "drawbridge"

// defaultRendererURL is where the rendering collaborator is expected when
// neither the config file nor --renderer-url says otherwise.
const defaultRendererURL = "http://localhost:3000"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath  string
	rendererURL string
	noCache     bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Drawbridge converts rendered diagrams into draw.io documents",
		Long:         `Drawbridge takes diagram-language sources (flowcharts, sequence diagrams, gantt charts, ...), sends them through a rendering collaborator, and reconstructs the result as an editable draw.io graph document.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a TOML config file")
	root.PersistentFlags().StringVar(&c.rendererURL, "renderer-url", "", "rendering service URL (overrides config)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "bypass the artifact cache")

	root.AddCommand(c.convertCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.sniffCommand())
	root.AddCommand(c.typesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.debugCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig resolves the effective configuration: defaults, then the
// optional config file, then command-line overrides.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg := config.Default()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if c.rendererURL != "" {
		cfg.RendererURL = c.rendererURL
	}
	if cfg.RendererURL == "" {
		cfg.RendererURL = defaultRendererURL
	}
	return cfg, nil
}

// newRunner creates a conversion runner for CLI use, with a sandbox pool of
// remote renderers and a file cache under the XDG cache directory.
func (c *CLI) newRunner(cfg config.Config) (*convert.Runner, *sandbox.Pool, error) {
	store, err := c.newCache()
	if err != nil {
		return nil, nil, err
	}
	url := cfg.RendererURL
	pool := sandbox.NewPool(cfg.Batch.PoolSize, func() render.Renderer {
		return &render.Remote{BaseURL: url}
	})
	return convert.NewRunner(cfg, pool, store, nil, c.Logger), pool, nil
}

func (c *CLI) newCache() (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/drawbridge/).
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

// readSource reads diagram source from a file, or stdin when path is "-".
func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// writeDocument validates the output path and writes the document to it.
func writeDocument(path string, doc []byte) error {
	if err := dberrors.ValidateOutputPath(path); err != nil {
		return err
	}
	return os.WriteFile(path, doc, 0o644)
}

// outputPath derives the document path for an input file: the input with
// its extension replaced by .drawio.
func outputPath(input, override string) string {
	if override != "" {
		return override
	}
	if input == "-" {
		return "diagram.drawio"
	}
	return input[:len(input)-len(filepath.Ext(input))] + ".drawio"
}
