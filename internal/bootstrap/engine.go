package bootstrap

import (
	"context"
	"math/rand"
	"sync"
)

// DefaultIterations is the default number of resamples.
const DefaultIterations = 10000

// Engine runs bootstrap iterations. It is not safe for concurrent use; each
// analysis owns its own Engine.
type Engine struct {
	rng        *rand.Rand
	iterations int
	workers    int
	progress   func(done, total int)
}

type Option func(*Engine)

// WithIterations sets the number of resamples.
func WithIterations(n int) Option {
	return func(e *Engine) { e.iterations = n }
}

// WithWorkers spreads iterations over n goroutines.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithProgress registers a callback invoked after each finished iteration.
// It may be called from several goroutines.
func WithProgress(fn func(done, total int)) Option {
	return func(e *Engine) { e.progress = fn }
}

func NewEngine(rng *rand.Rand, opts ...Option) *Engine {
	e := &Engine{rng: rng, iterations: DefaultIterations, workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = 1
	}
	return e
}

// NewSeeded is NewEngine over rand.NewSource(seed).
func NewSeeded(seed int64, opts ...Option) *Engine {
	return NewEngine(rand.New(rand.NewSource(seed)), opts...)
}

func (e *Engine) Iterations() int { return e.iterations }

// Rand exposes the engine's random source.
func (e *Engine) Rand() *rand.Rand { return e.rng }

// Run calls fn once per iteration with a private random source and returns
// the outputs in iteration order. The first error aborts the run.
func Run[T any](ctx context.Context, e *Engine, fn func(rng *rand.Rand, i int) (T, error)) ([]T, error) {
	n := e.iterations
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = e.rng.Int63()
	}

	out := make([]T, n)
	var (
		mu       sync.Mutex
		firstErr error
		done     int
	)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	parallelFor(n, e.workers, func(start, end int) {
		for i := start; i < end; i++ {
			select {
			case <-ctx.Done():
				return
			default:
			}

			v, err := fn(rand.New(rand.NewSource(seeds[i])), i)

			mu.Lock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				cancel()
				return
			}
			out[i] = v
			done++
			d := done
			mu.Unlock()

			if e.progress != nil {
				e.progress(d, n)
			}
		}
	})

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Bootstrap resamples every dataset independently and applies stat to each
// resampled collection.
func Bootstrap[T any](ctx context.Context, e *Engine, data []Dataset, stat func([]Dataset) (T, error)) ([]T, error) {
	return Run(ctx, e, func(rng *rand.Rand, _ int) (T, error) {
		sample, err := Resample(rng, data)
		if err != nil {
			var zero T
			return zero, err
		}
		return stat(sample)
	})
}

// parallelFor executes fn over [0, n) in contiguous chunks.
func parallelFor(n, workers int, fn func(start, end int)) {
	if workers <= 1 || n <= 1 {
		fn(0, n)
		return
	}
	if workers > n {
		workers = n
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
