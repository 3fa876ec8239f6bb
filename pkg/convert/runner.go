package convert

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/drawbridge/pkg/cache"
	"github.com/matzehuels/drawbridge/pkg/classify"
	"github.com/matzehuels/drawbridge/pkg/config"
	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/layout"
	"github.com/matzehuels/drawbridge/pkg/mxdoc"
	"github.com/matzehuels/drawbridge/pkg/observability"
	"github.com/matzehuels/drawbridge/pkg/render"
	"github.com/matzehuels/drawbridge/pkg/sandbox"
	"github.com/matzehuels/drawbridge/pkg/semantic"
	"github.com/matzehuels/drawbridge/pkg/styles"
	"github.com/matzehuels/drawbridge/pkg/visual"
)

// Options tune a single conversion on top of the runner's configuration.
type Options struct {
	// Theme overrides the configured stylesheet family when non-empty.
	Theme string

	// Scale is the requested uniform zoom, clamped to the configured
	// bounds. Zero means 1.
	Scale float64

	// NoCache bypasses both cache layers for this conversion.
	NoCache bool
}

// Stats records per-stage timing and graph dimensions for one conversion.
type Stats struct {
	RenderTime   time.Duration
	ExtractTime  time.Duration
	ClassifyTime time.Duration
	LayoutTime   time.Duration
	BuildTime    time.Duration
	TotalTime    time.Duration

	Primitives    int
	Nodes         int
	Edges         int
	LayoutApplied bool
}

// CacheInfo reports which artifacts were served from cache.
type CacheInfo struct {
	TreeHit     bool
	DocumentHit bool
}

// Result is the outcome of a successful conversion.
type Result struct {
	RunID       string
	DiagramType string

	// Document is the serialized graph document XML.
	Document []byte

	// Graph is the styled, positioned semantic graph. Nil when the
	// document was served from cache.
	Graph *semantic.Graph

	// Warnings lists recovered degradations (classification or layout
	// fallbacks, unattached connectors).
	Warnings []string

	Stats     Stats
	CacheInfo CacheInfo
}

// Runner executes conversions. The zero value is not usable; construct with
// [NewRunner].
type Runner struct {
	// Config holds canvas, layout, and batch parameters.
	Config config.Config

	// Pool supplies rendering sandbox handles.
	Pool *sandbox.Pool

	// Cache stores rendered trees and serialized documents.
	Cache cache.Cache

	// Keyer generates cache keys.
	Keyer cache.Keyer

	// Logger receives structured progress logs.
	Logger *log.Logger

	// OnBatchItem, when set, is called with each batch item as it
	// completes. May be called from multiple goroutines.
	OnBatchItem func(BatchItem)
}

// NewRunner creates a conversion runner. A nil cache disables caching, a
// nil keyer selects the default key scheme, and a nil logger falls back to
// the global default. The pool is required.
func NewRunner(cfg config.Config, pool *sandbox.Pool, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Config: cfg,
		Pool:   pool,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Convert runs the full pipeline for one source: render, extract, classify,
// layout, style, build. Recoverable failures degrade (generic
// classification, grid layout) and surface as warnings; everything else
// aborts with a coded error.
func (r *Runner) Convert(ctx context.Context, src Source, opts Options) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()

	if err := dberrors.ValidateDiagramSource(src.Text); err != nil {
		return nil, err
	}
	diagramType, err := src.resolveType()
	if err != nil {
		return nil, err
	}
	if err := dberrors.ValidateDiagramType(diagramType); err != nil {
		return nil, err
	}

	// Dispatch before any rendering so unsupported types fail fast and
	// cheap.
	strategy, err := Lookup(diagramType)
	if err != nil {
		return nil, err
	}

	theme := opts.Theme
	if theme == "" {
		theme = r.Config.Theme
	}

	if timeout := r.Config.Batch.Timeout.Duration; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	observability.Conversion().OnConversionStart(ctx, runID, diagramType)
	var convErr error
	defer func() {
		observability.Conversion().OnConversionComplete(ctx, runID, diagramType, time.Since(start), convErr)
	}()

	result := &Result{RunID: runID, DiagramType: diagramType}

	// Render stage, with tree cache in front of the collaborator.
	svg, err := r.renderStage(ctx, runID, diagramType, theme, src.Text, opts.NoCache, result)
	if err != nil {
		convErr = err
		return nil, err
	}

	// Serialized documents are keyed by the rendered tree, so identical
	// renders with identical settings skip the rest of the pipeline.
	docKey := r.Keyer.DocumentKey(cache.Hash(svg), cache.DocumentKeyOpts{
		DiagramType: diagramType,
		Theme:       theme,
		Margin:      r.Config.Canvas.Margin,
		MinZoom:     r.Config.Canvas.MinZoom,
		MaxZoom:     r.Config.Canvas.MaxZoom,
		FlipY:       r.Config.Canvas.FlipY,
	})
	if !opts.NoCache {
		if data, ok, cerr := r.Cache.Get(ctx, docKey); cerr == nil && ok {
			observability.Cache().OnCacheHit(ctx, "document")
			result.Document = data
			result.CacheInfo.DocumentHit = true
			result.Stats.TotalTime = time.Since(start)
			r.Logger.Info("document cache hit", "run", runID, "type", diagramType)
			return result, nil
		}
		observability.Cache().OnCacheMiss(ctx, "document")
	}

	prims, err := r.extractStage(ctx, runID, svg, result)
	if err != nil {
		convErr = err
		return nil, err
	}

	g, err := r.classifyStage(ctx, runID, strategy, prims, result)
	if err != nil {
		convErr = err
		return nil, err
	}

	if err := r.layoutStage(ctx, runID, strategy.Policy, g, result); err != nil {
		convErr = err
		return nil, err
	}

	doc, err := r.buildStage(ctx, runID, strategy, diagramType, theme, opts.Scale, g, result)
	if err != nil {
		convErr = err
		return nil, err
	}

	xmlBytes, err := doc.XML()
	if err != nil {
		convErr = dberrors.Wrap(dberrors.ErrCodeBuild, err, "serialize document").WithStage("build")
		return nil, convErr
	}
	result.Document = xmlBytes
	result.Graph = g

	if !opts.NoCache {
		if cerr := r.Cache.Set(ctx, docKey, xmlBytes, cache.TTLDocument); cerr != nil {
			r.Logger.Warn("document cache write failed", "run", runID, "err", cerr)
		} else {
			observability.Cache().OnCacheSet(ctx, "document", len(xmlBytes))
		}
	}

	result.Stats.TotalTime = time.Since(start)
	r.Logger.Info("converted diagram",
		"run", runID,
		"type", diagramType,
		"nodes", result.Stats.Nodes,
		"edges", result.Stats.Edges,
		"warnings", len(result.Warnings),
		"duration", result.Stats.TotalTime)
	return result, nil
}

// renderStage produces the rendered visual tree, from cache when possible,
// otherwise through a pooled sandbox with transient-failure retry.
func (r *Runner) renderStage(ctx context.Context, runID, diagramType, theme, source string, noCache bool, result *Result) ([]byte, error) {
	treeKey := r.Keyer.TreeKey(cache.Hash([]byte(source)), cache.TreeKeyOpts{
		DiagramType: diagramType,
		Theme:       theme,
	})
	if !noCache {
		if data, ok, err := r.Cache.Get(ctx, treeKey); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, "tree")
			result.CacheInfo.TreeHit = true
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, "tree")
	}

	stageStart := time.Now()
	observability.Conversion().OnStageStart(ctx, runID, "render")
	observability.Render().OnRenderStart(ctx, diagramType)

	var svg []byte
	attempt := func() error {
		return r.Pool.With(ctx, func(h *sandbox.Handle) error {
			out, err := h.Render(ctx, diagramType, source)
			if err != nil {
				return err
			}
			svg = out
			return nil
		})
	}
	err := render.Retry(ctx, r.Config.Batch.RenderRetries, r.Config.Batch.RetryDelay.Duration, attempt,
		func(n int, rerr error) {
			observability.Render().OnRenderRetry(ctx, diagramType, n, rerr)
			r.Logger.Warn("retrying render", "run", runID, "type", diagramType, "attempt", n, "err", rerr)
		})
	if err != nil {
		err = render.Failure(err)
	}

	result.Stats.RenderTime = time.Since(stageStart)
	observability.Render().OnRenderComplete(ctx, diagramType, result.Stats.RenderTime, err)
	observability.Conversion().OnStageComplete(ctx, runID, "render", result.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("rendered diagram", "run", runID, "type", diagramType, "bytes", len(svg), "duration", result.Stats.RenderTime)

	if !noCache {
		if cerr := r.Cache.Set(ctx, treeKey, svg, cache.TTLTree); cerr != nil {
			r.Logger.Warn("tree cache write failed", "run", runID, "err", cerr)
		} else {
			observability.Cache().OnCacheSet(ctx, "tree", len(svg))
		}
	}
	return svg, nil
}

// extractStage parses the rendered tree into flat primitives. An empty
// tree is fatal for the conversion.
func (r *Runner) extractStage(ctx context.Context, runID string, svg []byte, result *Result) ([]visual.Primitive, error) {
	stageStart := time.Now()
	observability.Conversion().OnStageStart(ctx, runID, "extract")

	prims, err := func() ([]visual.Primitive, error) {
		tree, err := visual.Parse(svg)
		if err != nil {
			return nil, dberrors.Wrap(dberrors.ErrCodeExtraction, err, "parse rendered tree").WithStage("extract")
		}
		prims, err := visual.Extract(tree)
		if err != nil {
			return nil, err
		}
		if len(prims) == 0 {
			return nil, dberrors.New(dberrors.ErrCodeExtraction, "rendered tree contains no primitives").WithStage("extract")
		}
		return prims, nil
	}()

	result.Stats.ExtractTime = time.Since(stageStart)
	observability.Conversion().OnStageComplete(ctx, runID, "extract", result.Stats.ExtractTime, err)
	if err != nil {
		return nil, err
	}
	result.Stats.Primitives = len(prims)
	r.Logger.Info("extracted primitives", "run", runID, "count", len(prims), "duration", result.Stats.ExtractTime)
	return prims, nil
}

// classifyStage applies the grammar's rules, falling back to generic
// classification when the grammar cannot interpret the primitives.
func (r *Runner) classifyStage(ctx context.Context, runID string, strategy Strategy, prims []visual.Primitive, result *Result) (*semantic.Graph, error) {
	stageStart := time.Now()
	observability.Conversion().OnStageStart(ctx, runID, "classify")

	tol := classify.DefaultTolerances()
	g, warnings, err := strategy.Rules.Classify(prims, tol)
	if err != nil && dberrors.Recoverable(err) {
		msg := "classification failed, using generic rules: " + dberrors.UserMessage(err)
		result.Warnings = append(result.Warnings, msg)
		observability.Conversion().OnWarning(ctx, runID, "classify", msg)
		r.Logger.Warn("falling back to generic classification", "run", runID, "err", err)
		g, warnings, err = classify.Generic{}.Classify(prims, tol)
	}

	result.Stats.ClassifyTime = time.Since(stageStart)
	observability.Conversion().OnStageComplete(ctx, runID, "classify", result.Stats.ClassifyTime, err)
	if err != nil {
		return nil, err
	}
	result.Warnings = append(result.Warnings, warnings...)
	for _, w := range warnings {
		observability.Conversion().OnWarning(ctx, runID, "classify", w)
	}
	result.Stats.Nodes = g.NodeCount()
	result.Stats.Edges = g.EdgeCount()
	r.Logger.Info("classified primitives", "run", runID, "nodes", result.Stats.Nodes, "edges", result.Stats.Edges, "duration", result.Stats.ClassifyTime)
	return g, nil
}

// layoutStage decides whether synthetic placement is needed and applies it,
// degrading to grid placement when layered layout fails.
func (r *Runner) layoutStage(ctx context.Context, runID string, policy layout.Policy, g *semantic.Graph, result *Result) error {
	stageStart := time.Now()
	observability.Conversion().OnStageStart(ctx, runID, "layout")

	var err error
	needed := policy == layout.PolicyAlways || layout.NeedsLayout(g, r.Config.Layout.OverlapTolerance)
	if needed {
		layered := layout.Layered{
			RankSep:  r.Config.Layout.RankSep,
			NodeSep:  r.Config.Layout.NodeSep,
			Passes:   r.Config.Layout.OrderingPasses,
			DefaultW: r.Config.Layout.DefaultNodeWidth,
			DefaultH: r.Config.Layout.DefaultNodeHeight,
		}
		err = layered.Apply(g)
		if err != nil && dberrors.Recoverable(err) {
			msg := "layered layout failed, using grid placement: " + dberrors.UserMessage(err)
			result.Warnings = append(result.Warnings, msg)
			observability.Conversion().OnWarning(ctx, runID, "layout", msg)
			r.Logger.Warn("falling back to grid layout", "run", runID, "err", err)
			grid := layout.Grid{
				CellW: r.Config.Layout.DefaultNodeWidth,
				CellH: r.Config.Layout.DefaultNodeHeight,
				Gap:   r.Config.Layout.NodeSep,
			}
			err = grid.Apply(g)
		}
		result.Stats.LayoutApplied = err == nil
	}

	result.Stats.LayoutTime = time.Since(stageStart)
	observability.Conversion().OnStageComplete(ctx, runID, "layout", result.Stats.LayoutTime, err)
	if err != nil {
		return err
	}
	r.Logger.Info("layout stage done", "run", runID, "applied", needed, "duration", result.Stats.LayoutTime)
	return nil
}

// buildStage normalizes coordinates, applies styles, and assembles the
// document model.
func (r *Runner) buildStage(ctx context.Context, runID string, strategy Strategy, diagramType, theme string, scale float64, g *semantic.Graph, result *Result) (*mxdoc.Document, error) {
	stageStart := time.Now()
	observability.Conversion().OnStageStart(ctx, runID, "build")

	doc, err := func() (*mxdoc.Document, error) {
		nm := layout.Normalizer{
			Margin:  r.Config.Canvas.Margin,
			Scale:   scale,
			MinZoom: r.Config.Canvas.MinZoom,
			MaxZoom: r.Config.Canvas.MaxZoom,
			FlipY:   r.Config.Canvas.FlipY,
			Padding: r.Config.Canvas.ContainerPadding,
		}
		if err := nm.Normalize(g); err != nil {
			return nil, err
		}
		styles.Apply(g, strategy.defaults(diagramType, theme))
		b := mxdoc.Builder{
			Margin:    r.Config.Canvas.Margin,
			GridSize:  float64(r.Config.Canvas.GridSize),
			DiagramID: "drawbridge-" + diagramType,
		}
		return b.Build(g)
	}()

	result.Stats.BuildTime = time.Since(stageStart)
	observability.Conversion().OnStageComplete(ctx, runID, "build", result.Stats.BuildTime, err)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("built document", "run", runID, "duration", result.Stats.BuildTime)
	return doc, nil
}
