// Package parallel provides the worker fan-out used to compute partial
// derivatives across free parameters. Each parameter's work is independent
// (immutable program, read-only parameter vector), so the only coordination
// is first-error cancellation and the caller's ordered merge.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether parallel execution is enabled.
	NumWorkers int  // Number of worker goroutines to use.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
	}
}

// Sequential returns a config that disables worker fan-out.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1}
}

// ForEach runs f(i) for i in [0, n). With parallelism enabled the indices
// are distributed over NumWorkers goroutines. The first error cancels the
// remaining work and is returned; context cancellation does the same with
// the context's error. Callers must treat their partial results as invalid
// whenever ForEach returns a non-nil error.
func ForEach(ctx context.Context, n int, cfg Config, f func(i int) error) error {
	if n <= 0 {
		return ctx.Err()
	}

	if !cfg.Enabled || cfg.NumWorkers <= 1 || n == 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := f(i); err != nil {
				return err
			}
		}
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	indices := make(chan int)
	workers := min(cfg.NumWorkers, n)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				if err := ctx.Err(); err != nil {
					fail(err)
					return
				}
				if err := f(i); err != nil {
					fail(err)
					return
				}
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case indices <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indices)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
