// Package local implements the orchestration service on top of a Store, for development and
// tests. It reproduces the task semantics of Amazon SWF the workers rely on: at most one
// outstanding decision task per execution, single use task tokens and task timeouts.
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/core"
	"github.com/cschleiden/swf-workers/core/task"
	"github.com/cschleiden/swf-workers/history"
	"github.com/cschleiden/swf-workers/internal/metrickeys"
	"github.com/cschleiden/swf-workers/log"
	"github.com/cschleiden/swf-workers/metrics"
)

var ErrInvalidDecision = errors.New("invalid decision")

// ReaperInterval is the interval at which expired task leases are timed out.
const ReaperInterval = time.Second

type Orchestrator struct {
	name    string
	store   Store
	options backend.Options

	logger  *slog.Logger
	metrics metrics.Client
	clock   clock.Clock

	newToken func() string

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var (
	_ backend.Backend = (*Orchestrator)(nil)
	_ backend.Starter = (*Orchestrator)(nil)
)

// New creates an orchestrator storing its state in the given store. The name identifies the
// store in logs and metrics. A background loop times out expired tasks until Close is called.
func New(name string, store Store, opts ...backend.BackendOption) *Orchestrator {
	options := backend.ApplyOptions(opts...)

	ctx, cancel := context.WithCancel(context.Background())

	o := &Orchestrator{
		name:     name,
		store:    store,
		options:  options,
		logger:   options.Logger.With(log.BackendKey, name),
		metrics:  options.Metrics.WithTags(metrics.Tags{metrickeys.Backend: name}),
		clock:    options.Clock,
		newToken: uuid.NewString,
		cancel:   cancel,
	}

	o.wg.Add(1)
	go o.reap(ctx)

	return o
}

func (o *Orchestrator) Logger() *slog.Logger {
	return o.logger
}

func (o *Orchestrator) Tracer() trace.Tracer {
	return o.options.TracerProvider.Tracer(backend.TracerName)
}

func (o *Orchestrator) Metrics() metrics.Client {
	return o.metrics
}

func (o *Orchestrator) Options() *backend.Options {
	return &o.options
}

// Store returns the underlying store.
func (o *Orchestrator) Store() Store {
	return o.store
}

func (o *Orchestrator) Close() error {
	var err error

	o.closeOnce.Do(func() {
		o.cancel()
		o.wg.Wait()

		err = o.store.Close()
	})

	return err
}

func (o *Orchestrator) StartWorkflowExecution(ctx context.Context, req *backend.StartWorkflowExecutionRequest) (core.WorkflowExecution, error) {
	if req.WorkflowID == "" {
		return core.WorkflowExecution{}, errors.New("workflow id is required")
	}

	if req.WorkflowType.Name == "" {
		return core.WorkflowExecution{}, errors.New("workflow type is required")
	}

	if err := core.ValidName(string(req.TaskList)); err != nil {
		return core.WorkflowExecution{}, fmt.Errorf("task list: %w", err)
	}

	now := o.clock.Now()

	e := &Execution{
		Domain:       req.Domain,
		Execution:    core.NewWorkflowExecution(req.WorkflowID, uuid.NewString()),
		WorkflowType: req.WorkflowType,
		TaskList:     req.TaskList,
		Status:       backend.ExecutionStatusOpen,
		CreatedAt:    now,
	}

	e.addEvent(now, history.EventType_WorkflowExecutionStarted, &history.ExecutionStartedAttributes{
		WorkflowType: req.WorkflowType,
		TaskList:     req.TaskList,
		Input:        req.Input,
	})

	o.scheduleDecisionTask(e, now)

	if err := o.store.CreateExecution(ctx, e); err != nil {
		return core.WorkflowExecution{}, fmt.Errorf("creating execution: %w", err)
	}

	o.metrics.Counter(metrickeys.WorkflowExecutionStarted, metrics.Tags{metrickeys.WorkflowType: req.WorkflowType.Name}, 1)
	o.logger.DebugContext(ctx, "started workflow execution",
		log.WorkflowIDKey, e.Execution.WorkflowID,
		log.RunIDKey, e.Execution.RunID,
		log.WorkflowTypeKey, req.WorkflowType.Name)

	return e.Execution, nil
}

func (o *Orchestrator) DescribeWorkflowExecution(ctx context.Context, domain core.Domain, execution core.WorkflowExecution) (*backend.ExecutionDescription, error) {
	e, err := o.store.GetExecution(ctx, domain, execution)
	if err != nil {
		return nil, err
	}

	return &backend.ExecutionDescription{
		Execution:    e.Execution,
		WorkflowType: e.WorkflowType,
		Status:       e.Status,
		Result:       e.Result,
	}, nil
}

// GetWorkflowExecutionHistory returns the complete history of the execution.
func (o *Orchestrator) GetWorkflowExecutionHistory(ctx context.Context, domain core.Domain, execution core.WorkflowExecution) ([]history.Event, error) {
	e, err := o.store.GetExecution(ctx, domain, execution)
	if err != nil {
		return nil, err
	}

	return e.Events, nil
}

func (o *Orchestrator) PollDecisionTask(ctx context.Context, domain core.Domain, taskList core.TaskList, identity string) (*task.Decision, error) {
	q := Queue{Kind: TaskKindDecision, Domain: domain, TaskList: taskList}

	for {
		qt, err := o.dequeue(ctx, q)
		if err != nil {
			return nil, err
		}

		if qt == nil {
			return &task.Decision{}, nil
		}

		// A dequeued task is started even if the poll is canceled meanwhile
		dt, err := o.startDecisionTask(context.WithoutCancel(ctx), qt, identity)
		if err != nil {
			return nil, err
		}

		if dt != nil {
			return dt, nil
		}
	}
}

func (o *Orchestrator) PollActivityTask(ctx context.Context, domain core.Domain, taskList core.TaskList, identity string) (*task.Activity, error) {
	q := Queue{Kind: TaskKindActivity, Domain: domain, TaskList: taskList}

	for {
		qt, err := o.dequeue(ctx, q)
		if err != nil {
			return nil, err
		}

		if qt == nil {
			return &task.Activity{}, nil
		}

		at, err := o.startActivityTask(context.WithoutCancel(ctx), qt, identity)
		if err != nil {
			return nil, err
		}

		if at != nil {
			return at, nil
		}
	}
}

// dequeue waits up to the poll timeout for a task.
func (o *Orchestrator) dequeue(ctx context.Context, q Queue) (*QueuedTask, error) {
	ctx, cancel := context.WithTimeout(ctx, o.options.PollTimeout)
	defer cancel()

	qt, err := o.store.Dequeue(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil
		}

		return nil, fmt.Errorf("dequeuing %s task: %w", q.Kind, err)
	}

	return qt, nil
}

// scheduleDecisionTask schedules a decision task unless one is outstanding. If the outstanding
// task is already started, a follow-up task is scheduled when it completes.
func (o *Orchestrator) scheduleDecisionTask(e *Execution, now time.Time) {
	if e.DecisionScheduledEventID != 0 {
		if e.DecisionStartedEventID != 0 {
			e.DecisionFollowUp = true
		}

		return
	}

	event := e.addEvent(now, history.EventType_DecisionTaskScheduled, &history.DecisionTaskScheduledAttributes{
		TaskList: e.TaskList,
	})
	e.DecisionScheduledEventID = event.ID

	e.schedule(Queue{Kind: TaskKindDecision, Domain: e.Domain, TaskList: e.TaskList}, QueuedTask{
		Kind:             TaskKindDecision,
		Domain:           e.Domain,
		Execution:        e.Execution,
		ScheduledEventID: event.ID,
	})
}

func (o *Orchestrator) lease(ctx context.Context, token string, kind TaskKind, qt *QueuedTask, startedEventID int64, timeout time.Duration) error {
	if err := o.store.Lease(ctx, &Lease{
		Token:            token,
		Kind:             kind,
		Domain:           qt.Domain,
		Execution:        qt.Execution,
		ScheduledEventID: qt.ScheduledEventID,
		StartedEventID:   startedEventID,
		ActivityID:       qt.ActivityID,
		ExpiresAt:        o.clock.Now().Add(timeout),
	}); err != nil {
		return fmt.Errorf("leasing %s task: %w", kind, err)
	}

	return nil
}

// release consumes the token of a started task of the given kind.
func (o *Orchestrator) release(ctx context.Context, token string, kind TaskKind) (*Lease, error) {
	l, err := o.store.Release(ctx, token)
	if err != nil {
		return nil, err
	}

	if l.Kind != kind {
		// Not ours to consume, put it back
		if err := o.store.Lease(ctx, l); err != nil {
			return nil, fmt.Errorf("restoring lease: %w", err)
		}

		return nil, backend.ErrUnknownTaskToken
	}

	return l, nil
}

// restoreLease puts back a released lease after the outcome could not be stored, the task can
// then be answered again or time out.
func (o *Orchestrator) restoreLease(ctx context.Context, l *Lease, cause error) error {
	if err := o.store.Lease(ctx, l); err != nil {
		return errors.Join(cause, fmt.Errorf("restoring lease: %w", err))
	}

	return cause
}

func (o *Orchestrator) dropTask(ctx context.Context, qt *QueuedTask) {
	o.logger.DebugContext(ctx, "dropping stale task",
		"kind", qt.Kind,
		log.WorkflowIDKey, qt.Execution.WorkflowID,
		log.RunIDKey, qt.Execution.RunID,
		log.EventIDKey, qt.ScheduledEventID)
}
