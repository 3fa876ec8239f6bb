package convert

import (
	"context"
	"errors"
	"sync"
	"time"

	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
)

// BatchItem is the per-source outcome of a batch conversion. Failed items
// carry the failing stage, error code, and message; successful items carry
// the full result.
type BatchItem struct {
	Index       int
	Name        string
	DiagramType string
	Success     bool

	// Stage, Code, and Message describe the failure. Empty on success.
	Stage   string
	Code    dberrors.Code
	Message string

	// Result is nil on failure.
	Result *Result
}

// BatchSummary aggregates a batch run. Items are ordered by source index
// regardless of completion order.
type BatchSummary struct {
	Items     []BatchItem
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// ConvertMany converts sources concurrently, at most
// Config.Batch.MaxConcurrency in flight at once. Each source succeeds or
// fails on its own; a failed item never aborts the rest. Cancelling the
// context stops unstarted items but lets in-flight conversions finish their
// own cancellation handling.
//
// The runner's OnBatchItem callback, when set, receives each item as it
// completes, possibly from multiple goroutines.
func (r *Runner) ConvertMany(ctx context.Context, sources []Source, opts Options) *BatchSummary {
	start := time.Now()
	summary := &BatchSummary{Items: make([]BatchItem, len(sources))}

	limit := r.Config.Batch.MaxConcurrency
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, src := range sources {
		item := BatchItem{Index: i, Name: src.Name, DiagramType: src.DiagramType}

		if err := ctx.Err(); err != nil {
			summary.Items[i] = failedItem(item, err)
			r.notifyBatchItem(summary.Items[i])
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, src Source, item BatchItem) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := r.Convert(ctx, src, opts)
			if err != nil {
				summary.Items[i] = failedItem(item, err)
			} else {
				item.Success = true
				item.DiagramType = res.DiagramType
				item.Result = res
				summary.Items[i] = item
			}
			r.notifyBatchItem(summary.Items[i])
		}(i, src, item)
	}
	wg.Wait()

	for _, item := range summary.Items {
		if item.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	summary.Duration = time.Since(start)
	r.Logger.Info("batch finished",
		"total", len(sources),
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"duration", summary.Duration)
	return summary
}

func (r *Runner) notifyBatchItem(item BatchItem) {
	if r.OnBatchItem != nil {
		r.OnBatchItem(item)
	}
}

func failedItem(item BatchItem, err error) BatchItem {
	item.Success = false
	item.Message = dberrors.UserMessage(err)
	item.Stage = dberrors.GetStage(err)
	item.Code = dberrors.GetCode(err)
	if item.Code == "" {
		switch {
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			item.Code = dberrors.ErrCodeTimeout
		default:
			item.Code = dberrors.ErrCodeInternal
		}
	}
	return item
}
