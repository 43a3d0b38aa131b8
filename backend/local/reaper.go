package local

import (
	"context"
	"errors"
	"fmt"

	"github.com/cschleiden/swf-workers/internal/metrickeys"
	"github.com/cschleiden/swf-workers/log"
	"github.com/cschleiden/swf-workers/metrics"
)

func (o *Orchestrator) reap(ctx context.Context) {
	defer o.wg.Done()

	t := o.clock.Ticker(ReaperInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := o.ExpireTasks(ctx); err != nil && ctx.Err() == nil {
				o.logger.ErrorContext(ctx, "expiring tasks", "error", err)
			}
		}
	}
}

// ExpireTasks times out all started tasks whose lease has expired. Their tokens become invalid
// and a new decision task is scheduled for each affected execution. Leases of tasks that could
// not be timed out are put back, the next run retries them.
func (o *Orchestrator) ExpireTasks(ctx context.Context) error {
	now := o.clock.Now()

	leases, err := o.store.Expired(ctx, now)
	if err != nil {
		return fmt.Errorf("reading expired leases: %w", err)
	}

	var errs []error

	for _, l := range leases {
		var timedOut bool

		switch l.Kind {
		case TaskKindActivity:
			timedOut, err = o.timeoutActivityTask(ctx, l, now)
		case TaskKindDecision:
			timedOut, err = o.timeoutDecisionTask(ctx, l, now)
		}

		if err != nil {
			errs = append(errs, o.restoreLease(ctx, l, fmt.Errorf("timing out %s task: %w", l.Kind, err)))
			continue
		}

		if timedOut {
			o.metrics.Counter(metrickeys.TaskTimedOut, metrics.Tags{metrickeys.Kind: l.Kind.String()}, 1)
			o.logger.WarnContext(ctx, "task timed out",
				"kind", l.Kind,
				log.WorkflowIDKey, l.Execution.WorkflowID,
				log.RunIDKey, l.Execution.RunID,
				log.ActivityIDKey, l.ActivityID)
		}
	}

	return errors.Join(errs...)
}
