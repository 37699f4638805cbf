package dispatch

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// AutoWorkers selects one worker per CPU, capped at the number of jobs.
const AutoWorkers = 0

// ParseWorkers parses a worker count hint: "auto" or a positive integer.
func ParseWorkers(hint string) (int, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" || strings.EqualFold(hint, "auto") {
		return AutoWorkers, nil
	}
	n, err := strconv.Atoi(hint)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid worker count %q: want \"auto\" or a positive integer", hint)
	}
	return n, nil
}

// PoolSize resolves a worker hint against the number of jobs.
func PoolSize(workers, jobs int) int {
	if workers == AutoWorkers {
		workers = min(jobs, runtime.NumCPU())
	}
	return max(workers, 1)
}

// runOrdered calls fn for every item on at most concurrency goroutines and
// returns the results indexed by submission order. Items still waiting for a
// slot when ctx is cancelled are passed to skipped instead.
func runOrdered[T, R any](ctx context.Context, items []T, concurrency int, fn func(context.Context, T) R, skipped func(T) R) []R {
	if len(items) == 0 {
		return nil
	}
	concurrency = min(max(concurrency, 1), len(items))

	sem := make(chan struct{}, concurrency)
	results := make([]R, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = skipped(item)
				return
			}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				results[i] = skipped(item)
				return
			}
			results[i] = fn(ctx, item)
		}(i, item)
	}
	wg.Wait()
	return results
}
