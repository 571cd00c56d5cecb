package moderation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/maimang/backend/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// BatchAction applies one single-entity transition. Implementations are
// closures over the engine (approve work, hide comment, ...).
type BatchAction func(ctx context.Context, id uint) error

// BatchCoordinator fans one action out over many ids with best-effort
// semantics: items run independently, a failure never blocks or rolls back
// the others, and every input id yields exactly one result.
type BatchCoordinator struct {
	Concurrency int
	ItemTimeout time.Duration
}

func NewBatchCoordinator(concurrency int, itemTimeout time.Duration) *BatchCoordinator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchCoordinator{Concurrency: concurrency, ItemTimeout: itemTimeout}
}

type BatchResult struct {
	results map[uint]error
}

// Succeeded returns the ids that completed, ascending.
func (r *BatchResult) Succeeded() []uint {
	var ids []uint
	for id, err := range r.results {
		if err == nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Failed returns id -> failure message for the items that did not.
func (r *BatchResult) Failed() map[uint]string {
	failed := make(map[uint]string)
	for id, err := range r.results {
		if err != nil {
			failed[id] = err.Error()
		}
	}
	return failed
}

func (r *BatchResult) Err(id uint) (error, bool) {
	err, ok := r.results[id]
	return err, ok
}

func (r *BatchResult) Len() int {
	return len(r.results)
}

// Apply runs action against every id, bounded by the configured
// concurrency. Duplicate ids collapse to one execution. Per-item timeouts
// surface as that item's failure; remaining items keep going.
func (c *BatchCoordinator) Apply(ctx context.Context, ids []uint, action BatchAction) *BatchResult {
	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	result := &BatchResult{results: make(map[uint]error, len(unique))}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Concurrency)
	for _, id := range unique {
		id := id
		g.Go(func() error {
			itemCtx := gctx
			if c.ItemTimeout > 0 {
				var cancel context.CancelFunc
				itemCtx, cancel = context.WithTimeout(gctx, c.ItemTimeout)
				defer cancel()
			}

			err := action(itemCtx, id)
			if err != nil {
				var timeout *TimeoutError
				if errors.As(err, &timeout) {
					metrics.RecordBatchItem(metrics.ResultError)
				} else {
					metrics.RecordBatchItem(metrics.ResultInvalid)
				}
			} else {
				metrics.RecordBatchItem(metrics.ResultSuccess)
			}

			mu.Lock()
			result.results[id] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return result
}
