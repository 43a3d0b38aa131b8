package worker

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/core/task"
	"github.com/cschleiden/swf-workers/decider"
	"github.com/cschleiden/swf-workers/decision"
	"github.com/cschleiden/swf-workers/internal/metrickeys"
	"github.com/cschleiden/swf-workers/internal/tracing"
	"github.com/cschleiden/swf-workers/internal/workflowerrors"
	"github.com/cschleiden/swf-workers/log"
	"github.com/cschleiden/swf-workers/metrics"
)

type DecisionResult struct {
	Decisions []decision.Decision
}

type DecisionTaskWorker struct {
	backend backend.Backend

	options *DecisionWorkerOptions

	decider *decider.Decider

	logger  *slog.Logger
	metrics metrics.Client
	tracer  trace.Tracer
}

func NewDecisionWorker(b backend.Backend, options *DecisionWorkerOptions) *Worker[task.Decision, DecisionResult] {
	var opts []decider.Option
	if options.ActivityIDGenerator != nil {
		opts = append(opts, decider.WithActivityIDGenerator(options.ActivityIDGenerator))
	}

	tw := &DecisionTaskWorker{
		backend: b,
		options: options,
		decider: decider.New(options.ActivityType, opts...),
		logger:  b.Logger(),
		metrics: b.Metrics().WithTags(metrics.Tags{metrickeys.WorkflowType: options.WorkflowType}),
		tracer:  b.Tracer(),
	}

	return NewWorker[task.Decision, DecisionResult](b, tw, &options.WorkerOptions)
}

// Get polls for a decision task. Tasks for other workflow types are skipped and never answered,
// the orchestrator times them out.
func (dw *DecisionTaskWorker) Get(ctx context.Context) (*task.Decision, error) {
	dw.logger.DebugContext(ctx, "polling for decision task",
		log.DomainKey, dw.options.Domain, log.TaskListKey, dw.options.TaskList)

	t, err := dw.backend.PollDecisionTask(ctx, dw.options.Domain, dw.options.TaskList, dw.options.Identity)
	if err != nil {
		return nil, err
	}

	if t.Empty() {
		return nil, nil
	}

	if t.WorkflowType.Name != dw.options.WorkflowType {
		dw.metrics.Counter(metrickeys.DecisionTaskSkipped, metrics.Tags{}, 1)
		dw.taskLogger(t).WarnContext(ctx, "skipping decision task for unexpected workflow type",
			log.WorkflowTypeKey, t.WorkflowType.Name)
		return nil, nil
	}

	return t, nil
}

func (dw *DecisionTaskWorker) Execute(ctx context.Context, t *task.Decision) (result *DecisionResult, err error) {
	logger := dw.taskLogger(t)

	ctx, span := dw.tracer.Start(ctx, "DecisionTaskExecution", trace.WithAttributes(
		attribute.String(tracing.WorkflowID, t.WorkflowExecution.WorkflowID),
		attribute.String(tracing.RunID, t.WorkflowExecution.RunID),
		attribute.String(tracing.WorkflowType, t.WorkflowType.Name),
		attribute.Int(tracing.DecisionTaskEvents, len(t.Events)),
		attribute.Int64(tracing.StartedEventID, t.StartedEventID),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			pe := workflowerrors.FromPanic(r)
			logger.ErrorContext(ctx, "decider panicked", "error", pe, log.StackTraceKey, pe.Stack())

			dw.metrics.Counter(metrickeys.DecisionTaskAbandoned, metrics.Tags{metrickeys.Kind: workflowerrors.Kind(pe)}, 1)
			result, err = nil, tracing.WithSpanError(span, fmt.Errorf("deciding: %w", pe))
		}
	}()

	logger.DebugContext(ctx, "deciding", log.EventCountKey, len(t.Events))

	decisions := dw.decider.Decide(t.Events)

	span.SetAttributes(attribute.Int(tracing.DecisionTaskDecisions, len(decisions)))
	dw.metrics.Distribution(metrickeys.DecisionsMade, metrics.Tags{}, float64(len(decisions)))

	return &DecisionResult{Decisions: decisions}, nil
}

func (dw *DecisionTaskWorker) Complete(ctx context.Context, result *DecisionResult, t *task.Decision) error {
	if err := dw.backend.RespondDecisionCompleted(ctx, t.Token, result.Decisions); err != nil {
		dw.metrics.Counter(metrickeys.DecisionTaskAbandoned, metrics.Tags{metrickeys.Kind: workflowerrors.Kind(err)}, 1)
		return fmt.Errorf("submitting decisions for %s: %w", t.WorkflowExecution, err)
	}

	dw.metrics.Counter(metrickeys.DecisionTaskProcessed, metrics.Tags{}, 1)
	dw.taskLogger(t).DebugContext(ctx, "submitted decisions", log.DecisionsKey, decisionTypes(result.Decisions))

	return nil
}

func (dw *DecisionTaskWorker) taskLogger(t *task.Decision) *slog.Logger {
	return dw.logger.With(
		log.TaskTokenKey, log.Token(t.Token),
		log.WorkflowIDKey, t.WorkflowExecution.WorkflowID,
		log.RunIDKey, t.WorkflowExecution.RunID,
	)
}

func decisionTypes(decisions []decision.Decision) []string {
	types := make([]string, 0, len(decisions))
	for _, d := range decisions {
		types = append(types, d.Type.String())
	}

	return types
}

var _ TaskWorker[task.Decision, DecisionResult] = (*DecisionTaskWorker)(nil)
