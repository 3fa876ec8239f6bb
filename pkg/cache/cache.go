// Package cache provides caching for expensive conversion artifacts.
//
// Two artifact classes are cached: rendered visual trees (keyed by diagram
// source hash, since rendering dominates conversion time) and serialized
// graph documents (keyed by tree hash plus conversion settings). Backends
// include a file cache for CLI usage, a redis cache for server deployments,
// and a null cache for tests or when caching is disabled.
package cache

import (
	"context"
	"time"
)

// TTLs per artifact class.
const (
	// TTLTree is how long rendered visual trees are kept. Rendering output
	// for identical source is stable, so this can be generous.
	TTLTree = 7 * 24 * time.Hour

	// TTLDocument is how long serialized documents are kept.
	TTLDocument = 24 * time.Hour
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL (0 means no expiry).
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TreeKeyOpts are the settings that affect rendered output.
type TreeKeyOpts struct {
	DiagramType string `json:"diagram_type"`
	Theme       string `json:"theme"`
}

// DocumentKeyOpts are the settings that affect the serialized document.
type DocumentKeyOpts struct {
	DiagramType string  `json:"diagram_type"`
	Theme       string  `json:"theme"`
	Margin      float64 `json:"margin"`
	MinZoom     float64 `json:"min_zoom"`
	MaxZoom     float64 `json:"max_zoom"`
	FlipY       bool    `json:"flip_y"`
}

// Keyer generates cache keys for the two artifact classes.
type Keyer interface {
	// TreeKey generates a key for a rendered visual tree.
	TreeKey(sourceHash string, opts TreeKeyOpts) string

	// DocumentKey generates a key for a serialized graph document.
	DocumentKey(treeHash string, opts DocumentKeyOpts) string
}

// DefaultKeyer is the standard key generator.
// Keys are "prefix:sha256(parts)" so they are safe for every backend.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// TreeKey generates a key for a rendered visual tree.
func (k *DefaultKeyer) TreeKey(sourceHash string, opts TreeKeyOpts) string {
	return hashKey("tree", sourceHash, opts)
}

// DocumentKey generates a key for a serialized graph document.
func (k *DefaultKeyer) DocumentKey(treeHash string, opts DocumentKeyOpts) string {
	return hashKey("doc", treeHash, opts)
}
