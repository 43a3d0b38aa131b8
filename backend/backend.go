package backend

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/cschleiden/swf-workers/core"
	"github.com/cschleiden/swf-workers/core/task"
	"github.com/cschleiden/swf-workers/decision"
	"github.com/cschleiden/swf-workers/metrics"
)

var (
	// ErrUnknownTaskToken is returned when responding to a task whose token was already consumed
	// or has expired.
	ErrUnknownTaskToken = errors.New("unknown task token")

	ErrExecutionNotFound       = errors.New("workflow execution not found")
	ErrExecutionAlreadyStarted = errors.New("workflow execution already started")
)

const TracerName = "swf-workers"

// Backend is the task-queue capability of the orchestration service consumed by the workers.
//
//go:generate mockery --name=Backend --inpackage
type Backend interface {
	// PollActivityTask long-polls for an activity task. It blocks for up to a service defined
	// interval and returns an empty task if no work arrived in that time.
	PollActivityTask(ctx context.Context, domain core.Domain, taskList core.TaskList, identity string) (*task.Activity, error)

	// RespondActivityCompleted reports the successful completion of an activity task
	RespondActivityCompleted(ctx context.Context, token string, result string) error

	// RespondActivityFailed reports the failure of an activity task
	RespondActivityFailed(ctx context.Context, token string, reason, details string) error

	// PollDecisionTask long-polls for a decision task. It blocks for up to a service defined
	// interval and returns an empty task if no work arrived in that time. Returned tasks carry the
	// complete history of their workflow execution.
	PollDecisionTask(ctx context.Context, domain core.Domain, taskList core.TaskList, identity string) (*task.Decision, error)

	// RespondDecisionCompleted submits the decisions for a decision task. An empty list is valid.
	RespondDecisionCompleted(ctx context.Context, token string, decisions []decision.Decision) error

	// Logger returns the configured logger for the backend
	Logger() *slog.Logger

	// Tracer returns the configured trace provider for the backend
	Tracer() trace.Tracer

	// Metrics returns the configured metrics client for the backend
	Metrics() metrics.Client

	// Options returns the configured options for the backend
	Options() *Options

	// Close closes any underlying resources
	Close() error
}
