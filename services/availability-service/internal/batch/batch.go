// Package batch provides the rate-limited scheduler that paces outbound
// per-user API calls. The upstream provider enforces a requests-per-second
// ceiling; naive full concurrency triggers throttling errors, so work is cut
// into fixed-size batches with a pause between them.
package batch

import (
	"context"
	"time"
)

// Options controls batch sizing, pacing, and the failure policy.
type Options struct {
	// Concurrency is the number of tasks dispatched per batch. Values below
	// one are treated as one.
	Concurrency int

	// Interval is the pause between batches. No pause follows the final
	// batch.
	Interval time.Duration

	// ContinueOnError selects partial-success mode: failed tasks are
	// recorded and the run keeps going. With it unset the run fails fast on
	// the first error and collected results are discarded.
	ContinueOnError bool

	// Sleep is injectable for tests. Nil means a context-aware time.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run executes tasks in sequential batches of opts.Concurrency. Tasks within
// a batch run concurrently and the batch fully settles before the next one
// is dispatched; that settling point plus the inter-batch pause is the whole
// rate-limiting mechanism.
//
// In fail-fast mode the first task error aborts the run. In partial-success
// mode Run returns the successful results along with every task error;
// result order follows task order for successful tasks.
func Run[T any](ctx context.Context, tasks []func(ctx context.Context) (T, error), opts Options) ([]T, []error, error) {
	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var (
		results  []T
		taskErrs []error
	)

	for start := 0; start < len(tasks); start += limit {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		end := start + limit
		if end > len(tasks) {
			end = len(tasks)
		}
		chunk := tasks[start:end]

		chunkResults, chunkErrs := runChunk(ctx, chunk)

		for _, err := range chunkErrs {
			if !opts.ContinueOnError {
				return nil, nil, err
			}
			taskErrs = append(taskErrs, err)
		}
		results = append(results, chunkResults...)

		if end < len(tasks) && opts.Interval > 0 {
			if err := sleep(ctx, opts.Interval); err != nil {
				return nil, nil, err
			}
		}
	}

	return results, taskErrs, nil
}

// runChunk runs one batch concurrently and waits for every task to settle.
func runChunk[T any](ctx context.Context, chunk []func(ctx context.Context) (T, error)) ([]T, []error) {
	type outcome struct {
		value T
		err   error
	}

	outcomes := make([]outcome, len(chunk))

	done := make(chan int, len(chunk))
	for i, task := range chunk {
		go func(i int, task func(ctx context.Context) (T, error)) {
			value, err := task(ctx)
			outcomes[i] = outcome{value: value, err: err}
			done <- i
		}(i, task)
	}
	for range chunk {
		<-done
	}

	var (
		results []T
		errs    []error
	)
	for _, out := range outcomes {
		if out.err != nil {
			errs = append(errs, out.err)
			continue
		}
		results = append(results, out.value)
	}

	return results, errs
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
