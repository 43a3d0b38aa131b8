package local

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/core/task"
	"github.com/cschleiden/swf-workers/decision"
	"github.com/cschleiden/swf-workers/history"
	"github.com/cschleiden/swf-workers/internal/metrickeys"
	"github.com/cschleiden/swf-workers/log"
	"github.com/cschleiden/swf-workers/metrics"
)

func (o *Orchestrator) startDecisionTask(ctx context.Context, qt *QueuedTask, identity string) (*task.Decision, error) {
	token := o.newToken()
	now := o.clock.Now()

	var dt *task.Decision

	err := o.store.UpdateExecution(ctx, qt.Domain, qt.Execution, func(e *Execution) error {
		dt = nil

		if !e.Open() || e.DecisionScheduledEventID != qt.ScheduledEventID || e.DecisionStartedEventID != 0 {
			return nil
		}

		started := e.addEvent(now, history.EventType_DecisionTaskStarted, &history.DecisionTaskStartedAttributes{
			ScheduledEventID: qt.ScheduledEventID,
			Identity:         identity,
		})
		e.DecisionStartedEventID = started.ID

		dt = &task.Decision{
			Token:                  token,
			WorkflowType:           e.WorkflowType,
			WorkflowExecution:      e.Execution,
			Events:                 append([]history.Event(nil), e.Events...),
			PreviousStartedEventID: e.PreviousStartedEventID,
			StartedEventID:         started.ID,
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, backend.ErrExecutionNotFound) {
			o.dropTask(ctx, qt)
			return nil, nil
		}

		return nil, fmt.Errorf("starting decision task: %w", err)
	}

	if dt == nil {
		o.dropTask(ctx, qt)
		return nil, nil
	}

	if err := o.lease(ctx, token, TaskKindDecision, qt, dt.StartedEventID, o.options.DecisionTaskTimeout); err != nil {
		return nil, err
	}

	return dt, nil
}

func validateDecisions(decisions []decision.Decision) error {
	for i, d := range decisions {
		switch d.Type {
		case decision.Type_ScheduleActivityTask:
			a := d.ScheduleActivityTask
			if a == nil {
				return fmt.Errorf("%w: decision %d: missing attributes", ErrInvalidDecision, i)
			}

			if a.ActivityID == "" {
				return fmt.Errorf("%w: decision %d: missing activity id", ErrInvalidDecision, i)
			}

			if a.ActivityType.Name == "" {
				return fmt.Errorf("%w: decision %d: missing activity type", ErrInvalidDecision, i)
			}

		case decision.Type_CompleteWorkflowExecution:
			if d.CompleteWorkflowExecution == nil {
				return fmt.Errorf("%w: decision %d: missing attributes", ErrInvalidDecision, i)
			}

		default:
			return fmt.Errorf("%w: decision %d: unsupported type %v", ErrInvalidDecision, i, d.Type)
		}
	}

	return nil
}

func (o *Orchestrator) RespondDecisionCompleted(ctx context.Context, token string, decisions []decision.Decision) error {
	// Invalid decisions are rejected without consuming the token
	if err := validateDecisions(decisions); err != nil {
		return err
	}

	l, err := o.release(ctx, token, TaskKindDecision)
	if err != nil {
		return err
	}

	now := o.clock.Now()

	var closed bool
	var e *Execution

	err = o.store.UpdateExecution(ctx, l.Domain, l.Execution, func(ex *Execution) error {
		e = ex
		closed = false

		if !e.Open() || e.DecisionStartedEventID != l.StartedEventID {
			return backend.ErrUnknownTaskToken
		}

		completed := e.addEvent(now, history.EventType_DecisionTaskCompleted, &history.DecisionTaskCompletedAttributes{
			ScheduledEventID: l.ScheduledEventID,
			StartedEventID:   l.StartedEventID,
		})

		e.PreviousStartedEventID = l.StartedEventID
		followUp := e.DecisionFollowUp
		e.DecisionScheduledEventID, e.DecisionStartedEventID, e.DecisionFollowUp = 0, 0, false

		for _, d := range decisions {
			if !e.Open() {
				break
			}

			switch d.Type {
			case decision.Type_ScheduleActivityTask:
				a := d.ScheduleActivityTask

				if _, ok := e.Activities[a.ActivityID]; ok {
					e.addEvent(now, history.EventType_ScheduleActivityTaskFailed, &history.ScheduleActivityTaskFailedAttributes{
						ActivityID:                   a.ActivityID,
						ActivityType:                 a.ActivityType,
						Cause:                        history.CauseActivityIDAlreadyInUse,
						DecisionTaskCompletedEventID: completed.ID,
					})

					followUp = true
					continue
				}

				event := e.addEvent(now, history.EventType_ActivityTaskScheduled, &history.ActivityTaskScheduledAttributes{
					ActivityID:                   a.ActivityID,
					ActivityType:                 a.ActivityType,
					TaskList:                     e.TaskList,
					Input:                        a.Input,
					DecisionTaskCompletedEventID: completed.ID,
				})

				e.setActivity(a.ActivityID, &ActivityState{
					ActivityType:     a.ActivityType,
					Input:            a.Input,
					ScheduledEventID: event.ID,
				})

				e.schedule(Queue{Kind: TaskKindActivity, Domain: e.Domain, TaskList: e.TaskList}, QueuedTask{
					Kind:             TaskKindActivity,
					Domain:           e.Domain,
					Execution:        e.Execution,
					ScheduledEventID: event.ID,
					ActivityID:       a.ActivityID,
				})

			case decision.Type_CompleteWorkflowExecution:
				e.addEvent(now, history.EventType_WorkflowExecutionCompleted, &history.ExecutionCompletedAttributes{
					Result:                       d.CompleteWorkflowExecution.Result,
					DecisionTaskCompletedEventID: completed.ID,
				})

				e.Result = d.CompleteWorkflowExecution.Result
				e.close(now, backend.ExecutionStatusCompleted)
				closed = true
			}
		}

		if e.Open() && followUp {
			o.scheduleDecisionTask(e, now)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, backend.ErrExecutionNotFound) || errors.Is(err, backend.ErrUnknownTaskToken) {
			return backend.ErrUnknownTaskToken
		}

		return o.restoreLease(ctx, l, fmt.Errorf("completing decision task: %w", err))
	}

	if closed {
		o.metrics.Counter(metrickeys.WorkflowExecutionCompleted, metrics.Tags{metrickeys.WorkflowType: e.WorkflowType.Name}, 1)
		o.logger.DebugContext(ctx, "workflow execution completed",
			log.WorkflowIDKey, e.Execution.WorkflowID,
			log.RunIDKey, e.Execution.RunID)
	}

	return nil
}

// timeoutDecisionTask times out a started decision task and schedules a new one.
func (o *Orchestrator) timeoutDecisionTask(ctx context.Context, l *Lease, now time.Time) (bool, error) {
	var timedOut bool

	err := o.store.UpdateExecution(ctx, l.Domain, l.Execution, func(e *Execution) error {
		timedOut = false

		if !e.Open() || e.DecisionStartedEventID != l.StartedEventID {
			return nil
		}

		e.addEvent(now, history.EventType_DecisionTaskTimedOut, &history.DecisionTaskTimedOutAttributes{
			ScheduledEventID: l.ScheduledEventID,
			StartedEventID:   l.StartedEventID,
		})

		e.DecisionScheduledEventID, e.DecisionStartedEventID, e.DecisionFollowUp = 0, 0, false
		o.scheduleDecisionTask(e, now)
		timedOut = true

		return nil
	})
	if err != nil {
		if errors.Is(err, backend.ErrExecutionNotFound) {
			return false, nil
		}

		return false, err
	}

	return timedOut, nil
}
