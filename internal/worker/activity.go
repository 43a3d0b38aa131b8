package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"

	"github.com/cschleiden/swf-workers/activity"
	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/core/task"
	"github.com/cschleiden/swf-workers/internal/metrickeys"
	"github.com/cschleiden/swf-workers/log"
	"github.com/cschleiden/swf-workers/metrics"
)

type ActivityTaskWorker struct {
	backend backend.Backend

	options *ActivityWorkerOptions

	executor *activity.Executor

	logger  *slog.Logger
	metrics metrics.Client
	clock   clock.Clock
}

func NewActivityWorker(
	b backend.Backend, a activity.Activity, options *ActivityWorkerOptions,
) *Worker[task.Activity, activity.Outcome] {
	tw := &ActivityTaskWorker{
		backend:  b,
		options:  options,
		executor: activity.NewExecutor(b.Logger(), b.Tracer(), a),
		logger:   b.Logger(),
		metrics:  b.Metrics(),
		clock:    b.Options().Clock,
	}

	return NewWorker[task.Activity, activity.Outcome](b, tw, &options.WorkerOptions)
}

func (aw *ActivityTaskWorker) Get(ctx context.Context) (*task.Activity, error) {
	aw.logger.DebugContext(ctx, "polling for activity task",
		log.DomainKey, aw.options.Domain, log.TaskListKey, aw.options.TaskList)

	t, err := aw.backend.PollActivityTask(ctx, aw.options.Domain, aw.options.TaskList, aw.options.Identity)
	if err != nil {
		return nil, err
	}

	if t.Empty() {
		return nil, nil
	}

	return t, nil
}

func (aw *ActivityTaskWorker) Execute(ctx context.Context, t *task.Activity) (*activity.Outcome, error) {
	logger := aw.taskLogger(t)
	logger.DebugContext(ctx, "executing activity task", log.ActivityInputKey, t.Input)

	ametrics := aw.metrics.WithTags(metrics.Tags{metrickeys.ActivityType: t.ActivityType.Name})
	timer := metrics.Timer(ametrics, aw.clock, metrickeys.ActivityTaskProcessed, metrics.Tags{})

	outcome := aw.executor.ExecuteTask(ctx, t)

	elapsed := timer.Stop()

	if outcome.Failed() {
		ametrics.Counter(metrickeys.ActivityTaskFailed, metrics.Tags{metrickeys.Reason: outcome.Failure.Reason}, 1)
		logger.InfoContext(ctx, "activity failed",
			log.ActivityReasonKey, outcome.Failure.Reason,
			log.ActivityDetailsKey, outcome.Failure.Details,
			log.DurationKey, elapsed.Milliseconds())
	} else {
		ametrics.Counter(metrickeys.ActivityTaskCompleted, metrics.Tags{}, 1)
		logger.DebugContext(ctx, "activity completed",
			log.ActivityResultKey, outcome.Result,
			log.DurationKey, elapsed.Milliseconds())
	}

	return &outcome, nil
}

// Complete reports the outcome under the task's token. Transient failures are retried, an
// unknown token is final.
func (aw *ActivityTaskWorker) Complete(ctx context.Context, outcome *activity.Outcome, t *task.Activity) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(aw.options.RespondRetryInterval), uint64(max(aw.options.RespondRetries, 0))),
		ctx,
	)

	err := backoff.Retry(func() error {
		var err error
		if outcome.Failed() {
			err = aw.backend.RespondActivityFailed(ctx, t.Token, outcome.Failure.Reason, outcome.Failure.Details)
		} else {
			err = aw.backend.RespondActivityCompleted(ctx, t.Token, outcome.Result)
		}

		if errors.Is(err, backend.ErrUnknownTaskToken) {
			return backoff.Permanent(err)
		}

		return err
	}, b)
	if err != nil {
		aw.metrics.Counter(metrickeys.ActivityRespondFailed, metrics.Tags{metrickeys.ActivityType: t.ActivityType.Name}, 1)
		return fmt.Errorf("reporting outcome of activity %s: %w", t.ActivityID, err)
	}

	return nil
}

func (aw *ActivityTaskWorker) taskLogger(t *task.Activity) *slog.Logger {
	return aw.logger.With(
		log.TaskTokenKey, log.Token(t.Token),
		log.ActivityIDKey, t.ActivityID,
		log.ActivityTypeKey, t.ActivityType.Name,
		log.WorkflowIDKey, t.WorkflowExecution.WorkflowID,
		log.RunIDKey, t.WorkflowExecution.RunID,
	)
}

var _ TaskWorker[task.Activity, activity.Outcome] = (*ActivityTaskWorker)(nil)
