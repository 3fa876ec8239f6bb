// Package render is the boundary to the external rendering collaborator.
//
// The collaborator turns diagram source text into a rendered SVG visual
// tree; everything downstream of that call is this module's job. The
// collaborator is treated as a black box reachable over HTTP ([Remote]) or
// replaced wholesale in tests ([RendererFunc]). Transient failures are
// wrapped as [RetryableError] so the retry helper can tell them from
// permanent ones.
package render

import (
	"context"
	"errors"
	"time"

	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
)

// Renderer renders diagram source text to SVG bytes.
type Renderer interface {
	// Render blocks until the rendering completes, fails, or ctx is done.
	Render(ctx context.Context, diagramType, source string) ([]byte, error)
}

// RendererFunc adapts a function to [Renderer].
type RendererFunc func(ctx context.Context, diagramType, source string) ([]byte, error)

// Render implements [Renderer].
func (f RendererFunc) Render(ctx context.Context, diagramType, source string) ([]byte, error) {
	return f(ctx, diagramType, source)
}

// RetryableError wraps an error to indicate the rendering attempt may
// succeed if repeated. Wrap transient failures (network timeouts, 5xx
// responses, sandbox crashes) with this type so [Retry] knows to attempt
// the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry executes fn up to attempts times with exponential backoff.
// It only retries errors wrapped with [RetryableError]; other errors are
// returned immediately. The delay doubles after each failed attempt.
// Returns the last error if all attempts fail, or ctx.Err() if cancelled.
// onRetry, if non-nil, is invoked before each repeated attempt.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error, onRetry func(attempt int, err error)) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !isRetryable(err) {
			return err
		}

		if i < attempts-1 {
			if onRetry != nil {
				onRetry(i+1, lastErr)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Failure converts a renderer error into the conversion error taxonomy:
// context deadline errors become timeouts, everything else a render
// failure.
func Failure(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dberrors.Wrap(dberrors.ErrCodeTimeout, err, "rendering timed out").WithStage("render")
	}
	if errors.Is(err, context.Canceled) {
		return dberrors.Wrap(dberrors.ErrCodeTimeout, err, "rendering canceled").WithStage("render")
	}
	return dberrors.Wrap(dberrors.ErrCodeRender, err, "rendering failed").WithStage("render")
}
