package sandbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/render"
)

func fakeFactory() render.Renderer {
	return render.RendererFunc(func(ctx context.Context, diagramType, source string) ([]byte, error) {
		return []byte("<svg/>"), nil
	})
}

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := NewPool(2, fakeFactory)
	defer pool.Close()

	var inFlight, maxInFlight atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pool.With(context.Background(), func(h *Handle) error {
				cur := inFlight.Add(1)
				for {
					prev := maxInFlight.Load()
					if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
			if err != nil {
				t.Errorf("With() = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := maxInFlight.Load(); got > 2 {
		t.Errorf("max in flight = %d, want <= 2", got)
	}
}

func TestWithReleasesOnError(t *testing.T) {
	pool := NewPool(1, fakeFactory)
	defer pool.Close()

	boom := errors.New("boom")
	if err := pool.With(context.Background(), func(h *Handle) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("With() = %v", err)
	}

	// The handle must be back: a second acquisition succeeds immediately.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := pool.With(ctx, func(h *Handle) error { return nil }); err != nil {
		t.Errorf("pool leaked its handle: %v", err)
	}
}

func TestTimeoutRecyclesHandle(t *testing.T) {
	pool := NewPool(1, fakeFactory)
	defer pool.Close()

	var firstID string
	timeoutErr := dberrors.New(dberrors.ErrCodeTimeout, "rendering timed out")
	err := pool.With(context.Background(), func(h *Handle) error {
		firstID = h.ID()
		return timeoutErr
	})
	if !dberrors.Is(err, dberrors.ErrCodeTimeout) {
		t.Fatalf("With() = %v", err)
	}

	err = pool.With(context.Background(), func(h *Handle) error {
		if h.ID() == firstID {
			t.Error("timed-out handle was reused instead of recycled")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("With() after recycle = %v", err)
	}
}

func TestReleaseKeepsHandle(t *testing.T) {
	pool := NewPool(1, fakeFactory)
	defer pool.Close()

	var firstID string
	if err := pool.With(context.Background(), func(h *Handle) error {
		firstID = h.ID()
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := pool.With(context.Background(), func(h *Handle) error {
		if h.ID() != firstID {
			t.Error("healthy handle should be reused")
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestAcquireHonorsContext(t *testing.T) {
	pool := NewPool(1, fakeFactory)
	defer pool.Close()

	h, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Release(h)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := pool.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() = %v, want deadline exceeded", err)
	}
}

func TestAcquireAfterClose(t *testing.T) {
	pool := NewPool(1, fakeFactory)
	pool.Close()
	if _, err := pool.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Acquire() = %v, want ErrPoolClosed", err)
	}
}
