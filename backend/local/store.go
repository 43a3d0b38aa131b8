package local

import (
	"context"
	"fmt"
	"time"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/core"
	"github.com/cschleiden/swf-workers/history"
)

type TaskKind int

const (
	_ TaskKind = iota

	TaskKindDecision
	TaskKindActivity
)

func (k TaskKind) String() string {
	switch k {
	case TaskKindDecision:
		return "decision"
	case TaskKindActivity:
		return "activity"
	default:
		return "unknown"
	}
}

// Queue identifies a FIFO queue of tasks of one kind.
type Queue struct {
	Kind     TaskKind
	Domain   core.Domain
	TaskList core.TaskList
}

func (q Queue) String() string {
	return fmt.Sprintf("%s/%s/%s", q.Kind, q.Domain, q.TaskList)
}

// QueuedTask is a scheduled task waiting to be polled. It references the event that scheduled it,
// tasks whose event is no longer pending are dropped when polled.
type QueuedTask struct {
	Kind             TaskKind               `json:"kind"`
	Domain           core.Domain            `json:"domain"`
	Execution        core.WorkflowExecution `json:"execution"`
	ScheduledEventID int64                  `json:"scheduled_event_id"`
	ActivityID       string                 `json:"activity_id,omitempty"`
}

// ScheduledTask is a task to be added to a queue together with the execution write that
// scheduled it.
type ScheduledTask struct {
	Queue Queue
	Task  QueuedTask
}

// Lease is held for every started task until its outcome is reported or it expires.
type Lease struct {
	Token            string                 `json:"token"`
	Kind             TaskKind               `json:"kind"`
	Domain           core.Domain            `json:"domain"`
	Execution        core.WorkflowExecution `json:"execution"`
	ScheduledEventID int64                  `json:"scheduled_event_id"`
	StartedEventID   int64                  `json:"started_event_id"`
	ActivityID       string                 `json:"activity_id,omitempty"`
	ExpiresAt        time.Time              `json:"expires_at"`
}

// ActivityState tracks a scheduled activity until it is closed.
type ActivityState struct {
	ActivityType     core.ActivityType `json:"activity_type"`
	Input            string            `json:"input,omitempty"`
	ScheduledEventID int64             `json:"scheduled_event_id"`
	StartedEventID   int64             `json:"started_event_id,omitempty"`
}

// Execution is the persisted state of a workflow execution, including its complete history.
type Execution struct {
	Domain       core.Domain             `json:"domain"`
	Execution    core.WorkflowExecution  `json:"execution"`
	WorkflowType core.WorkflowType       `json:"workflow_type"`
	TaskList     core.TaskList           `json:"task_list"`
	Status       backend.ExecutionStatus `json:"status"`
	Result       string                  `json:"result,omitempty"`
	Events       []history.Event         `json:"events"`

	// DecisionScheduledEventID is set while a decision task is scheduled or started
	DecisionScheduledEventID int64 `json:"decision_scheduled_event_id,omitempty"`
	DecisionStartedEventID   int64 `json:"decision_started_event_id,omitempty"`

	// DecisionFollowUp is set when events arrive while a decision task is started
	DecisionFollowUp bool `json:"decision_follow_up,omitempty"`

	PreviousStartedEventID int64 `json:"previous_started_event_id,omitempty"`

	Activities map[string]*ActivityState `json:"activities,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`

	// Scheduled holds the tasks scheduled by the current change. Stores enqueue them in the
	// same atomic write as the execution, they are never persisted with it.
	Scheduled []ScheduledTask `json:"-"`
}

func (e *Execution) Open() bool {
	return e.Status == backend.ExecutionStatusOpen
}

func (e *Execution) addEvent(ts time.Time, eventType history.EventType, attributes interface{}) history.Event {
	event := history.NewHistoryEvent(int64(len(e.Events)+1), ts, eventType, attributes)
	e.Events = append(e.Events, event)

	return event
}

func (e *Execution) close(ts time.Time, status backend.ExecutionStatus) {
	e.Status = status
	e.ClosedAt = &ts
}

// Store persists executions, task queues and task leases for the orchestrator.
type Store interface {
	// CreateExecution stores a new execution and makes it the current run of its workflow id,
	// enqueuing e.Scheduled in the same write. It returns backend.ErrExecutionAlreadyStarted if
	// the current run is still open.
	CreateExecution(ctx context.Context, e *Execution) error

	// GetExecution returns the execution, or the current run if execution.RunID is empty. It
	// returns backend.ErrExecutionNotFound for unknown executions.
	GetExecution(ctx context.Context, domain core.Domain, execution core.WorkflowExecution) (*Execution, error)

	// UpdateExecution atomically reads the execution, applies fn and writes it back together
	// with the tasks fn added to Scheduled. fn might be called more than once, each time with a
	// freshly read execution. Nothing is written or enqueued if fn returns an error.
	UpdateExecution(ctx context.Context, domain core.Domain, execution core.WorkflowExecution, fn func(*Execution) error) error

	// Dequeue blocks until a task is available or ctx is done. It returns nil without error if
	// no task arrived in time.
	Dequeue(ctx context.Context, queue Queue) (*QueuedTask, error)

	Lease(ctx context.Context, l *Lease) error

	// Release removes and returns the lease for the token. It returns backend.ErrUnknownTaskToken
	// if there is none.
	Release(ctx context.Context, token string) (*Lease, error)

	// Expired removes and returns all leases that expired at the given time.
	Expired(ctx context.Context, now time.Time) ([]*Lease, error)

	Close() error
}

func (e *Execution) schedule(queue Queue, t QueuedTask) {
	e.Scheduled = append(e.Scheduled, ScheduledTask{Queue: queue, Task: t})
}

func (e *Execution) setActivity(id string, a *ActivityState) {
	if e.Activities == nil {
		e.Activities = make(map[string]*ActivityState)
	}

	e.Activities[id] = a
}
