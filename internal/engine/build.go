package engine

import (
	"context"
	"runtime"

	"github.com/hupe1980/ngtgo/model"
	"golang.org/x/sync/errgroup"
)

// batchFactor is the number of pending objects per worker and batch.
const batchFactor = 8

// Build links every pending object in ascending ID order and returns the
// number of linked objects.
//
// Pending objects are processed in batches. Within a batch up to poolSize
// workers search the graph as it was at the start of the batch and compare
// against the earlier members of the batch; the results are then linked
// one by one in ID order, so the outcome depends only on poolSize.
// Cancellation is checked between batches.
func (e *Engine) Build(ctx context.Context, poolSize int) (int, error) {
	if poolSize <= 0 {
		poolSize = runtime.GOMAXPROCS(0)
	}
	ids := make([]model.ObjectID, 0, e.pending.GetCardinality())
	it := e.pending.Iterator()
	for it.HasNext() {
		ids = append(ids, model.ObjectID(it.Next()))
	}

	batchSize := poolSize * batchFactor
	built := 0
	for start := 0; start < len(ids); start += batchSize {
		if err := ctx.Err(); err != nil {
			return built, err
		}
		batch := ids[start:min(start+batchSize, len(ids))]

		candidates := make([][]model.Edge, len(batch))
		var g errgroup.Group
		g.SetLimit(poolSize)
		for i, id := range batch {
			g.Go(func() error {
				candidates[i] = e.discover(id, batch[:i])
				return nil
			})
		}
		_ = g.Wait()

		for i, id := range batch {
			if err := e.link(id, candidates[i]); err != nil {
				return built, err
			}
			e.pending.Remove(uint32(id))
			built++
		}
	}
	return built, nil
}
