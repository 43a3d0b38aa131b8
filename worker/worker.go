// Package worker runs the activity and decision loops against a backend.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/cschleiden/swf-workers/activity"
	"github.com/cschleiden/swf-workers/backend"
	internal "github.com/cschleiden/swf-workers/internal/worker"
)

type loop interface {
	Start(context.Context) error
	Stop()
	IsRunning() bool
	Done() <-chan struct{}
	Err() error
	WaitForCompletion() error
}

// Controller controls a single poll loop.
type Controller struct {
	loop loop
}

// NewActivityWorker creates a loop that polls activity tasks and runs the given activity for
// each of them.
func NewActivityWorker(b backend.Backend, a activity.Activity, options *Options) *Controller {
	options = options.withDefaults()

	return &Controller{
		loop: internal.NewActivityWorker(b, a, &internal.ActivityWorkerOptions{
			WorkerOptions:        internal.WorkerOptions{Name: "activity", PollRetry: options.PollRetry},
			TaskListOptions:      taskListOptions(options),
			RespondRetries:       options.RespondRetries,
			RespondRetryInterval: options.RespondRetryInterval,
		}),
	}
}

// NewDecisionWorker creates a loop that polls decision tasks and answers them with the decisions
// derived from their history.
func NewDecisionWorker(b backend.Backend, options *Options) *Controller {
	options = options.withDefaults()

	return &Controller{
		loop: internal.NewDecisionWorker(b, &internal.DecisionWorkerOptions{
			WorkerOptions:       internal.WorkerOptions{Name: "decision", PollRetry: options.PollRetry},
			TaskListOptions:     taskListOptions(options),
			WorkflowType:        options.WorkflowType,
			ActivityType:        options.ActivityType,
			ActivityIDGenerator: options.ActivityIDGenerator,
		}),
	}
}

func taskListOptions(options *Options) internal.TaskListOptions {
	return internal.TaskListOptions{
		Domain:   options.Domain,
		TaskList: options.TaskList,
		Identity: options.Identity,
	}
}

// Start launches the loop on its own goroutine. Starting a running loop has no effect.
func (c *Controller) Start(ctx context.Context) error {
	return c.loop.Start(ctx)
}

// Stop asks the loop to end before its next poll. A poll in flight is not interrupted.
func (c *Controller) Stop() {
	c.loop.Stop()
}

// IsRunning returns true until the loop has exited, for whatever reason.
func (c *Controller) IsRunning() bool {
	return c.loop.IsRunning()
}

// Done is closed when the loop has exited.
func (c *Controller) Done() <-chan struct{} {
	return c.loop.Done()
}

// Err returns the error that ended the loop. It is nil while running and after a regular stop.
func (c *Controller) Err() error {
	return c.loop.Err()
}

// WaitForCompletion blocks until the loop has exited and returns the error that ended it.
func (c *Controller) WaitForCompletion() error {
	return c.loop.WaitForCompletion()
}

// Worker runs an activity and a decision loop.
type Worker struct {
	activities *Controller
	decisions  *Controller
}

// New creates a worker that processes both activity and decision tasks.
func New(b backend.Backend, a activity.Activity, options *Options) *Worker {
	return &Worker{
		activities: NewActivityWorker(b, a, options),
		decisions:  NewDecisionWorker(b, options),
	}
}

func (w *Worker) Activities() *Controller {
	return w.activities
}

func (w *Worker) Decisions() *Controller {
	return w.decisions
}

// Start starts both loops.
//
// To stop the worker, call Stop or cancel the context passed to Start. To wait for the loops to
// exit, call `WaitForCompletion`.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.activities.Start(ctx); err != nil {
		return fmt.Errorf("starting activity worker: %w", err)
	}

	if err := w.decisions.Start(ctx); err != nil {
		w.activities.Stop()
		return fmt.Errorf("starting decision worker: %w", err)
	}

	return nil
}

func (w *Worker) Stop() {
	w.activities.Stop()
	w.decisions.Stop()
}

// WaitForCompletion waits for both loops to exit.
func (w *Worker) WaitForCompletion() error {
	var errs []error

	if err := w.activities.WaitForCompletion(); err != nil {
		errs = append(errs, fmt.Errorf("activity worker: %w", err))
	}

	if err := w.decisions.WaitForCompletion(); err != nil {
		errs = append(errs, fmt.Errorf("decision worker: %w", err))
	}

	return errors.Join(errs...)
}
