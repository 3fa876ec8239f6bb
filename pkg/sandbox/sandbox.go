// Package sandbox manages the pool of rendering sandbox handles.
//
// Rendering runs in an external sandboxed environment; each handle stands
// for one usable sandbox instance. The pool is fixed-size and FIFO: an
// acquire blocks until a handle is free or the context ends. Handles that
// hosted a timed-out rendering are never reused, partially rendered state
// cannot be trusted; they are discarded and replaced with a fresh one.
package sandbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/observability"
	"github.com/matzehuels/drawbridge/pkg/render"
)

// ErrPoolClosed is returned by [Pool.Acquire] after [Pool.Close].
var ErrPoolClosed = errors.New("sandbox pool is closed")

// Handle is one sandbox instance. Not safe for concurrent use; ownership
// transfers on acquire and back on release.
type Handle struct {
	id       string
	renderer render.Renderer
	created  time.Time
	renders  int
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() string { return h.id }

// Render proxies to the sandbox's renderer, counting uses.
func (h *Handle) Render(ctx context.Context, diagramType, source string) ([]byte, error) {
	h.renders++
	return h.renderer.Render(ctx, diagramType, source)
}

// Factory creates the renderer for a fresh sandbox instance.
type Factory func() render.Renderer

// Pool is a bounded FIFO pool of sandbox handles.
type Pool struct {
	factory Factory
	handles chan *Handle

	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool holding size handles, all created eagerly.
// Size is clamped to at least 1.
func NewPool(size int, factory Factory) *Pool {
	size = max(size, 1)
	p := &Pool{
		factory: factory,
		handles: make(chan *Handle, size),
	}
	for i := 0; i < size; i++ {
		p.handles <- p.newHandle()
	}
	return p
}

func (p *Pool) newHandle() *Handle {
	return &Handle{
		id:       uuid.NewString(),
		renderer: p.factory(),
		created:  time.Now(),
	}
}

// Size returns the pool capacity.
func (p *Pool) Size() int { return cap(p.handles) }

// Acquire blocks until a handle is available or ctx is done. The caller
// must return the handle with [Pool.Release] or [Pool.Recycle]; prefer
// [Pool.With], which guarantees it.
func (p *Pool) Acquire(ctx context.Context) (*Handle, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	select {
	case h, ok := <-p.handles:
		if !ok {
			return nil, ErrPoolClosed
		}
		return h, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a healthy handle to the pool for reuse.
func (p *Pool) Release(h *Handle) {
	p.put(h)
}

// Recycle discards the handle and replaces it with a fresh sandbox. Called
// after timeouts and crashes, when the instance's state is suspect.
func (p *Pool) Recycle(h *Handle) {
	observability.Render().OnSandboxRecycle(context.Background(), h.id)
	p.put(p.newHandle())
}

func (p *Pool) put(h *Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.handles <- h:
	default:
		// Over-release; drop rather than block.
	}
}

// With runs fn with an acquired handle and guarantees the handle goes back
// to the pool on every exit path. Timeout and cancellation failures recycle
// the handle instead of reusing it.
func (p *Pool) With(ctx context.Context, fn func(h *Handle) error) error {
	h, err := p.Acquire(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			p.Recycle(h)
			panic(r)
		}
	}()

	if err := fn(h); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
			dberrors.Is(err, dberrors.ErrCodeTimeout) {
			p.Recycle(h)
		} else {
			p.Release(h)
		}
		return err
	}
	p.Release(h)
	return nil
}

// Close drains and closes the pool. Blocked Acquire calls return
// [ErrPoolClosed]; handles still checked out are dropped on release.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.handles)
	for range p.handles {
	}
}
