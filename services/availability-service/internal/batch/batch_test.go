package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTasks(n int, fn func(i int) (int, error)) []func(ctx context.Context) (int, error) {
	tasks := make([]func(ctx context.Context) (int, error), n)
	for i := 0; i < n; i++ {
		i := i
		tasks[i] = func(ctx context.Context) (int, error) {
			return fn(i)
		}
	}
	return tasks
}

func TestRunBatchCountAndPacing(t *testing.T) {
	var sleeps int
	sleep := func(ctx context.Context, d time.Duration) error {
		sleeps++
		assert.Equal(t, 250*time.Millisecond, d)
		return nil
	}

	tasks := makeTasks(7, func(i int) (int, error) { return i, nil })

	results, taskErrs, err := Run(context.Background(), tasks, Options{
		Concurrency: 2,
		Interval:    250 * time.Millisecond,
		Sleep:       sleep,
	})
	require.NoError(t, err)
	assert.Empty(t, taskErrs)
	assert.Len(t, results, 7)

	// ceil(7/2) = 4 batches, pause between batches only: 3 sleeps.
	assert.Equal(t, 3, sleeps)
}

func TestRunNeverExceedsConcurrencyLimit(t *testing.T) {
	const limit = 3

	var inFlight, peak int64
	var mu sync.Mutex

	tasks := makeTasks(10, func(i int) (int, error) {
		current := atomic.AddInt64(&inFlight, 1)
		mu.Lock()
		if current > peak {
			peak = current
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return i, nil
	})

	_, _, err := Run(context.Background(), tasks, Options{
		Concurrency: limit,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(limit))
}

func TestRunFailFastDiscardsResults(t *testing.T) {
	boom := errors.New("boom")

	tasks := makeTasks(5, func(i int) (int, error) {
		if i == 2 {
			return 0, boom
		}
		return i, nil
	})

	results, taskErrs, err := Run(context.Background(), tasks, Options{Concurrency: 1, Sleep: noSleep})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, results)
	assert.Nil(t, taskErrs)
}

func TestRunPartialModeKeepsSuccesses(t *testing.T) {
	boom := errors.New("boom")

	tasks := makeTasks(5, func(i int) (int, error) {
		if i == 2 {
			return 0, boom
		}
		return i, nil
	})

	results, taskErrs, err := Run(context.Background(), tasks, Options{
		Concurrency:     2,
		ContinueOnError: true,
		Sleep:           noSleep,
	})
	require.NoError(t, err)
	require.Len(t, taskErrs, 1)
	assert.ErrorIs(t, taskErrs[0], boom)
	assert.ElementsMatch(t, []int{0, 1, 3, 4}, results)
}

func TestRunEmptyTaskList(t *testing.T) {
	results, taskErrs, err := Run[int](context.Background(), nil, Options{Concurrency: 2, Sleep: noSleep})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, taskErrs)
}

func TestRunNoSleepAfterFinalBatch(t *testing.T) {
	var sleeps int
	sleep := func(ctx context.Context, d time.Duration) error {
		sleeps++
		return nil
	}

	// 4 tasks at limit 2 is exactly 2 batches: one pause.
	tasks := makeTasks(4, func(i int) (int, error) { return i, nil })
	_, _, err := Run(context.Background(), tasks, Options{Concurrency: 2, Interval: time.Second, Sleep: sleep})
	require.NoError(t, err)
	assert.Equal(t, 1, sleeps)
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := makeTasks(3, func(i int) (int, error) { return i, nil })
	_, _, err := Run(ctx, tasks, Options{Concurrency: 1, Sleep: noSleep})
	assert.ErrorIs(t, err, context.Canceled)
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }
