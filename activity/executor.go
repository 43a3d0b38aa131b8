package activity

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cschleiden/swf-workers/core/task"
	"github.com/cschleiden/swf-workers/internal/tracing"
	"github.com/cschleiden/swf-workers/internal/workflowerrors"
	"github.com/cschleiden/swf-workers/log"
)

// Failure is the reportable form of a failed activity execution.
type Failure struct {
	// Reason is the kind of the failure, the name of the error's type
	Reason string

	// Details is the failure's message
	Details string
}

// Outcome is the result of executing an activity. Exactly one of Result or Failure is set, an
// empty Result is a valid success.
type Outcome struct {
	Result string

	Failure *Failure
}

func (o Outcome) Failed() bool {
	return o.Failure != nil
}

// NewFailure converts an error into a failure.
func NewFailure(err error) *Failure {
	return &Failure{
		Reason:  workflowerrors.Kind(err),
		Details: err.Error(),
	}
}

type Executor struct {
	logger   *slog.Logger
	tracer   trace.Tracer
	activity Activity
}

func NewExecutor(logger *slog.Logger, tracer trace.Tracer, a Activity) *Executor {
	return &Executor{
		logger:   logger,
		tracer:   tracer,
		activity: a,
	}
}

// Execute runs the activity for the given input. Errors and panics are converted to a failed
// outcome, Execute itself never fails.
func (e *Executor) Execute(ctx context.Context, input string) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			pe := workflowerrors.NewPanicError(fmt.Sprintf("panic: %v", r))
			Logger(ctx).ErrorContext(ctx, "activity panicked", "error", pe, log.StackTraceKey, pe.Stack())

			outcome = Outcome{Failure: NewFailure(pe)}
		}
	}()

	result, err := e.activity(ctx, input)
	if err != nil {
		return Outcome{Failure: NewFailure(err)}
	}

	return Outcome{Result: result}
}

// ExecuteTask runs the activity for the given task with the task's state attached to the
// context.
func (e *Executor) ExecuteTask(ctx context.Context, t *task.Activity) Outcome {
	s := newState(t.ActivityID, t.ActivityType, t.WorkflowExecution, e.logger)
	ctx = withState(ctx, s)

	ctx, span := e.tracer.Start(ctx, "ActivityTaskExecution", trace.WithAttributes(
		attribute.String(tracing.ActivityID, t.ActivityID),
		attribute.String(tracing.ActivityType, t.ActivityType.Name),
		attribute.String(tracing.WorkflowID, t.WorkflowExecution.WorkflowID),
		attribute.String(tracing.RunID, t.WorkflowExecution.RunID),
		attribute.Int64(tracing.StartedEventID, t.StartedEventID),
	))
	defer span.End()

	outcome := e.Execute(ctx, t.Input)
	if outcome.Failed() {
		span.SetAttributes(attribute.String(tracing.FailureReason, outcome.Failure.Reason))
		span.SetStatus(codes.Error, outcome.Failure.Details)
	}

	return outcome
}
