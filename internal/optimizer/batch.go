package optimizer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
)

// Request bundles one independent optimization.
type Request struct {
	Players  []types.Player `json:"players"`
	Settings Settings       `json:"settings"`
}

// BatchResult pairs a request with its outcome.
type BatchResult struct {
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
	Err    error   `json:"-"`
}

// OptimizeContext runs Optimize and gives up when ctx is done. The abandoned
// run finishes in the background and its result is dropped.
func OptimizeContext(ctx context.Context, players []types.Player, settings Settings) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type outcome struct {
		result *Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := Optimize(players, settings)
		done <- outcome{result, err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OptimizeMany runs independent requests concurrently with at most workers
// in flight. Each request gets its own exposure tracker and PRNG, so results
// match sequential Optimize calls. Per-request failures, including requests
// cut off by ctx, are reported in their BatchResult and never discard the
// requests that finished.
func OptimizeMany(ctx context.Context, requests []Request, workers int) ([]BatchResult, error) {
	results := make([]BatchResult, len(requests))

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i := range requests {
		i := i
		g.Go(func() error {
			res, err := OptimizeContext(ctx, requests[i].Players, requests[i].Settings)
			if err != nil {
				results[i] = BatchResult{Err: err, Error: err.Error()}
				return nil
			}
			results[i] = BatchResult{Result: res}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
