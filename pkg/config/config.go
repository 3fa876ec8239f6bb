// Package config defines the conversion configuration value threaded through
// the pipeline.
//
// A Config is an explicit value, never a process-wide singleton, so
// concurrent batch conversions cannot interfere with each other's settings.
// Callers start from [Default] and override fields, or load overrides from a
// TOML file with [Load].
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
)

// Canvas holds coordinate-mapping parameters for the target document.
type Canvas struct {
	// Margin is the distance from the page origin to the top-left-most
	// element, in target units.
	Margin float64 `toml:"margin"`

	// MinZoom and MaxZoom clamp the uniform scale factor applied when
	// normalizing extracted geometry.
	MinZoom float64 `toml:"min_zoom"`
	MaxZoom float64 `toml:"max_zoom"`

	// FlipY inverts the Y axis when the renderer's coordinate system grows
	// upward while the target schema grows downward.
	FlipY bool `toml:"flip_y"`

	// ContainerPadding is added around the union of a container's children
	// when its geometry is recomputed.
	ContainerPadding float64 `toml:"container_padding"`

	// GridSize is the page grid written into document metadata.
	GridSize int `toml:"grid_size"`
}

// Layout holds parameters for the layered fallback layout.
type Layout struct {
	// RankSep is the distance between adjacent ranks.
	RankSep float64 `toml:"rank_sep"`

	// NodeSep is the distance between adjacent nodes within a rank.
	NodeSep float64 `toml:"node_sep"`

	// OrderingPasses is the number of barycenter down-up sweep pairs.
	OrderingPasses int `toml:"ordering_passes"`

	// OverlapTolerance is the bbox overlap fraction beyond which extracted
	// geometry is considered degenerate and the fallback layout runs.
	OverlapTolerance float64 `toml:"overlap_tolerance"`

	// DefaultNodeWidth and DefaultNodeHeight size nodes that carry no
	// usable extracted geometry.
	DefaultNodeWidth  float64 `toml:"default_node_width"`
	DefaultNodeHeight float64 `toml:"default_node_height"`
}

// Duration wraps time.Duration so TOML files can use "30s"-style strings.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Batch holds concurrency and retry parameters for batch conversion.
type Batch struct {
	// MaxConcurrency bounds the number of conversions in flight.
	MaxConcurrency int `toml:"max_concurrency"`

	// PoolSize is the number of rendering sandbox handles.
	PoolSize int `toml:"pool_size"`

	// Timeout is the wall-clock budget for a single conversion.
	Timeout Duration `toml:"timeout"`

	// RenderRetries is how many times a transient render failure is retried.
	RenderRetries int `toml:"render_retries"`

	// RetryDelay is the initial backoff delay, doubled per retry.
	RetryDelay Duration `toml:"retry_delay"`
}

// Config is the complete conversion configuration.
type Config struct {
	Canvas Canvas `toml:"canvas"`
	Layout Layout `toml:"layout"`
	Batch  Batch  `toml:"batch"`

	// Theme selects the default stylesheet family ("default", "neutral",
	// "dark").
	Theme string `toml:"theme"`

	// RendererURL is the endpoint of the remote rendering collaborator,
	// empty when a caller injects its own renderer.
	RendererURL string `toml:"renderer_url"`
}

// Default returns the baseline configuration.
// All values are target-canvas units (draw.io points) unless noted.
func Default() Config {
	return Config{
		Canvas: Canvas{
			Margin:           40,
			MinZoom:          0.25,
			MaxZoom:          4.0,
			ContainerPadding: 16,
			GridSize:         10,
		},
		Layout: Layout{
			RankSep:           80,
			NodeSep:           40,
			OrderingPasses:    4,
			OverlapTolerance:  0.6,
			DefaultNodeWidth:  120,
			DefaultNodeHeight: 60,
		},
		Batch: Batch{
			MaxConcurrency: 4,
			PoolSize:       2,
			Timeout:        Duration{30 * time.Second},
			RenderRetries:  3,
			RetryDelay:     Duration{time.Second},
		},
		Theme: "default",
	}
}

// Load reads TOML overrides from path on top of the defaults.
// Unknown keys are rejected so typos surface instead of silently using
// defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, dberrors.Wrap(dberrors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes TOML overrides on top of the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, dberrors.Wrap(dberrors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, dberrors.New(dberrors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.Canvas.MinZoom <= 0 || c.Canvas.MaxZoom < c.Canvas.MinZoom {
		return dberrors.New(dberrors.ErrCodeInvalidConfig,
			"zoom clamp must satisfy 0 < min_zoom <= max_zoom (got %g..%g)",
			c.Canvas.MinZoom, c.Canvas.MaxZoom)
	}
	if c.Layout.RankSep <= 0 || c.Layout.NodeSep <= 0 {
		return dberrors.New(dberrors.ErrCodeInvalidConfig, "rank_sep and node_sep must be positive")
	}
	if c.Layout.OrderingPasses < 1 {
		return dberrors.New(dberrors.ErrCodeInvalidConfig, "ordering_passes must be at least 1")
	}
	if c.Batch.MaxConcurrency < 1 {
		return dberrors.New(dberrors.ErrCodeInvalidConfig, "max_concurrency must be at least 1")
	}
	if c.Batch.PoolSize < 1 {
		return dberrors.New(dberrors.ErrCodeInvalidConfig, "pool_size must be at least 1")
	}
	if c.Batch.Timeout.Duration <= 0 {
		return dberrors.New(dberrors.ErrCodeInvalidConfig, "timeout must be positive")
	}
	return nil
}

// String returns a short human-readable summary for debug logging.
func (c Config) String() string {
	return fmt.Sprintf("config{theme=%s margin=%g zoom=%g..%g pool=%d conc=%d timeout=%s}",
		c.Theme, c.Canvas.Margin, c.Canvas.MinZoom, c.Canvas.MaxZoom,
		c.Batch.PoolSize, c.Batch.MaxConcurrency, c.Batch.Timeout.Duration)
}
