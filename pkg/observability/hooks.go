// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about conversion execution, cache operations, and calls to
// the rendering collaborator.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetConversionHooks(&myConversionHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Conversion().OnStageStart(ctx, runID, "classify")
//	// ... classify primitives ...
//	observability.Conversion().OnStageComplete(ctx, runID, "classify", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Conversion Hooks
// =============================================================================

// ConversionHooks receives events from the conversion pipeline.
type ConversionHooks interface {
	// OnConversionStart fires when a conversion run begins.
	OnConversionStart(ctx context.Context, runID, diagramType string)

	// OnConversionComplete fires when a conversion run finishes,
	// successfully or not.
	OnConversionComplete(ctx context.Context, runID, diagramType string, duration time.Duration, err error)

	// OnStageStart fires at the start of a pipeline stage
	// ("extract", "classify", "normalize", "layout", "style", "build").
	OnStageStart(ctx context.Context, runID, stage string)

	// OnStageComplete fires when a pipeline stage finishes.
	OnStageComplete(ctx context.Context, runID, stage string, duration time.Duration, err error)

	// OnWarning records a recovered error (classification or layout fallback).
	OnWarning(ctx context.Context, runID, stage, message string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from rendering collaborator calls.
type RenderHooks interface {
	// OnRenderStart records an outgoing render call.
	OnRenderStart(ctx context.Context, diagramType string)

	// OnRenderComplete records a finished render call.
	OnRenderComplete(ctx context.Context, diagramType string, duration time.Duration, err error)

	// OnRenderRetry records a retry after a transient render failure.
	OnRenderRetry(ctx context.Context, diagramType string, attempt int, err error)

	// OnSandboxRecycle records a sandbox handle being discarded and replaced.
	OnSandboxRecycle(ctx context.Context, reason string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopConversionHooks is a no-op implementation of ConversionHooks.
type NoopConversionHooks struct{}

func (NoopConversionHooks) OnConversionStart(context.Context, string, string) {}
func (NoopConversionHooks) OnConversionComplete(context.Context, string, string, time.Duration, error) {
}
func (NoopConversionHooks) OnStageStart(context.Context, string, string) {}
func (NoopConversionHooks) OnStageComplete(context.Context, string, string, time.Duration, error) {
}
func (NoopConversionHooks) OnWarning(context.Context, string, string, string) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRenderStart(context.Context, string)                          {}
func (NoopRenderHooks) OnRenderComplete(context.Context, string, time.Duration, error) {}
func (NoopRenderHooks) OnRenderRetry(context.Context, string, int, error)              {}
func (NoopRenderHooks) OnSandboxRecycle(context.Context, string)                       {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	conversionHooks ConversionHooks = NoopConversionHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	renderHooks     RenderHooks     = NoopRenderHooks{}
	hooksMu         sync.RWMutex
)

// SetConversionHooks registers custom conversion hooks.
// This should be called once at application startup before any conversions.
func SetConversionHooks(h ConversionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		conversionHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetRenderHooks registers custom render hooks.
// This should be called once at application startup before any render calls.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// Conversion returns the registered conversion hooks.
func Conversion() ConversionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return conversionHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	conversionHooks = NoopConversionHooks{}
	cacheHooks = NoopCacheHooks{}
	renderHooks = NoopRenderHooks{}
}
