package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/internal/metrickeys"
	"github.com/cschleiden/swf-workers/internal/workflowerrors"
	"github.com/cschleiden/swf-workers/log"
	"github.com/cschleiden/swf-workers/metrics"
)

// TaskWorker polls, executes and completes one kind of task.
type TaskWorker[Task, Result any] interface {
	// Get long-polls for a task. It returns nil if the poll did not yield a task to process.
	Get(context.Context) (*Task, error)

	// Execute processes the task. A nil result without error means nothing is to be reported.
	Execute(context.Context, *Task) (*Result, error)

	// Complete reports the result of the task.
	Complete(context.Context, *Result, *Task) error
}

// Worker runs a single poll loop for a TaskWorker on a dedicated goroutine. Tasks are processed
// one at a time on the loop goroutine.
type Worker[Task, TaskResult any] struct {
	options *WorkerOptions

	tw TaskWorker[Task, TaskResult]

	logger  *slog.Logger
	metrics metrics.Client
	clock   clock.Clock

	// mu guards the loop state. The loop decides to exit and clears running in one step, so a
	// Start either cancels a pending stop or launches a new loop.
	mu       sync.Mutex
	running  bool
	stopping bool
	done     chan struct{}
	err      error
}

func NewWorker[Task, TaskResult any](
	b backend.Backend, tw TaskWorker[Task, TaskResult], options *WorkerOptions,
) *Worker[Task, TaskResult] {
	done := make(chan struct{})
	close(done)

	return &Worker[Task, TaskResult]{
		options: options,
		tw:      tw,
		logger:  b.Logger().With(log.WorkerKey, options.Name),
		metrics: b.Metrics().WithTags(metrics.Tags{metrickeys.Worker: options.Name}),
		clock:   b.Options().Clock,
		done:    done,
	}
}

// Start launches the poll loop. Calling Start on a running worker has no effect other than
// canceling a Stop the loop has not acted on yet, the loop keeps its original context.
func (w *Worker[Task, TaskResult]) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopping = false

	if w.running {
		return nil
	}

	done := make(chan struct{})

	w.running = true
	w.done = done
	w.err = nil

	go w.run(ctx, done)

	return nil
}

// Stop requests the loop to end. An in-flight poll or task is not interrupted, the loop exits
// before its next poll.
func (w *Worker[Task, TaskResult]) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopping = true
}

// IsRunning returns true from Start until the loop has exited.
func (w *Worker[Task, TaskResult]) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.running
}

// Done returns a channel that is closed when the loop has exited.
func (w *Worker[Task, TaskResult]) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.done
}

// Err returns the error that terminated the loop, or nil if it was stopped or not started.
func (w *Worker[Task, TaskResult]) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.err
}

// WaitForCompletion blocks until the loop has exited and returns its error.
func (w *Worker[Task, TaskResult]) WaitForCompletion() error {
	<-w.Done()

	return w.Err()
}

func (w *Worker[Task, TaskResult]) run(ctx context.Context, done chan struct{}) {
	var err error

	defer func() {
		if r := recover(); r != nil {
			pe := workflowerrors.FromPanic(r)
			w.logger.ErrorContext(ctx, "worker loop panicked", "error", pe, log.StackTraceKey, pe.Stack())
			err = pe
		}

		w.mu.Lock()
		// A stopped loop might already have been replaced by a new one
		if w.done == done {
			w.err = err
			w.running = false
		}
		w.mu.Unlock()

		close(done)
	}()

	w.logger.DebugContext(ctx, "worker started")

	err = w.loop(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "worker stopped", "error", err)
	} else {
		w.logger.DebugContext(ctx, "worker stopped")
	}
}

func (w *Worker[Task, TaskResult]) loop(ctx context.Context) error {
	for !w.exitOnStop() {
		if ctx.Err() != nil {
			return nil
		}

		task, err := w.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}

		if task == nil {
			w.metrics.Counter(metrickeys.PollEmpty, metrics.Tags{}, 1)
			continue
		}

		// Tasks are allowed to complete when the root context is canceled
		w.handle(context.WithoutCancel(ctx), task)
	}

	return nil
}

// exitOnStop returns true if a stop was requested, the worker is no longer running then.
func (w *Worker[Task, TaskResult]) exitOnStop() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.stopping {
		return false
	}

	w.running = false

	return true
}

func (w *Worker[Task, TaskResult]) handle(ctx context.Context, t *Task) {
	defer func() {
		if r := recover(); r != nil {
			pe := workflowerrors.FromPanic(r)
			w.logger.ErrorContext(ctx, "task panicked", "error", pe, log.StackTraceKey, pe.Stack())
		}
	}()

	result, err := w.tw.Execute(ctx, t)
	if err != nil {
		w.logger.ErrorContext(ctx, "executing task", "error", err)
		return
	}

	if result == nil {
		return
	}

	if err := w.tw.Complete(ctx, result, t); err != nil {
		w.logger.ErrorContext(ctx, "completing task", "error", err)
	}
}

// poll retries failing polls with exponential backoff until the retry budget is exhausted.
func (w *Worker[Task, TaskResult]) poll(ctx context.Context) (*Task, error) {
	b := w.pollBackOff()

	var task *Task
	attempt := 0

	err := backoff.RetryNotify(func() error {
		attempt++

		t, err := w.tw.Get(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}

			return err
		}

		task = t
		return nil
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		w.metrics.Counter(metrickeys.PollErrors, metrics.Tags{}, 1)
		w.logger.ErrorContext(ctx, "error polling task", "error", err, log.AttemptKey, attempt, log.BackoffKey, next)
	})
	if err != nil {
		return nil, fmt.Errorf("polling %s tasks after %d attempts: %w", w.options.Name, attempt, err)
	}

	return task, nil
}

func (w *Worker[Task, TaskResult]) pollBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if w.clock != nil {
		b.Clock = w.clock
	}

	if r := w.options.PollRetry; r.InitialInterval > 0 {
		b.InitialInterval = r.InitialInterval
	}

	if r := w.options.PollRetry; r.MaxInterval > 0 {
		b.MaxInterval = r.MaxInterval
	}

	b.MaxElapsedTime = w.options.PollRetry.MaxElapsedTime
	b.Reset()

	return b
}
