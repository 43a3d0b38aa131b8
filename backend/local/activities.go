package local

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/core/task"
	"github.com/cschleiden/swf-workers/history"
)

func (o *Orchestrator) startActivityTask(ctx context.Context, qt *QueuedTask, identity string) (*task.Activity, error) {
	token := o.newToken()
	now := o.clock.Now()

	var at *task.Activity

	err := o.store.UpdateExecution(ctx, qt.Domain, qt.Execution, func(e *Execution) error {
		at = nil

		if !e.Open() {
			return nil
		}

		a, ok := e.Activities[qt.ActivityID]
		if !ok || a.ScheduledEventID != qt.ScheduledEventID || a.StartedEventID != 0 {
			return nil
		}

		started := e.addEvent(now, history.EventType_ActivityTaskStarted, &history.ActivityTaskStartedAttributes{
			ScheduledEventID: a.ScheduledEventID,
			Identity:         identity,
		})
		a.StartedEventID = started.ID

		at = &task.Activity{
			Token:             token,
			ActivityID:        qt.ActivityID,
			ActivityType:      a.ActivityType,
			WorkflowExecution: e.Execution,
			Input:             a.Input,
			StartedEventID:    started.ID,
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, backend.ErrExecutionNotFound) {
			o.dropTask(ctx, qt)
			return nil, nil
		}

		return nil, fmt.Errorf("starting activity task: %w", err)
	}

	if at == nil {
		o.dropTask(ctx, qt)
		return nil, nil
	}

	if err := o.lease(ctx, token, TaskKindActivity, qt, at.StartedEventID, o.options.ActivityTaskTimeout); err != nil {
		return nil, err
	}

	return at, nil
}

func (o *Orchestrator) RespondActivityCompleted(ctx context.Context, token string, result string) error {
	return o.closeActivityTask(ctx, token, func(a *ActivityState) (history.EventType, interface{}) {
		return history.EventType_ActivityTaskCompleted, &history.ActivityTaskCompletedAttributes{
			ScheduledEventID: a.ScheduledEventID,
			StartedEventID:   a.StartedEventID,
			Result:           result,
		}
	})
}

func (o *Orchestrator) RespondActivityFailed(ctx context.Context, token string, reason, details string) error {
	return o.closeActivityTask(ctx, token, func(a *ActivityState) (history.EventType, interface{}) {
		return history.EventType_ActivityTaskFailed, &history.ActivityTaskFailedAttributes{
			ScheduledEventID: a.ScheduledEventID,
			StartedEventID:   a.StartedEventID,
			Reason:           reason,
			Details:          details,
		}
	})
}

type activityEventFn func(a *ActivityState) (history.EventType, interface{})

func (o *Orchestrator) closeActivityTask(ctx context.Context, token string, event activityEventFn) error {
	l, err := o.release(ctx, token, TaskKindActivity)
	if err != nil {
		return err
	}

	closed, err := o.closeActivity(ctx, l, o.clock.Now(), event)
	if err != nil {
		return o.restoreLease(ctx, l, err)
	}

	if !closed {
		return backend.ErrUnknownTaskToken
	}

	return nil
}

// closeActivity records the final event of a started activity and schedules a decision task.
// It returns false if the activity is no longer started under the lease.
func (o *Orchestrator) closeActivity(ctx context.Context, l *Lease, now time.Time, event activityEventFn) (bool, error) {
	var closed bool

	err := o.store.UpdateExecution(ctx, l.Domain, l.Execution, func(e *Execution) error {
		closed = false

		if !e.Open() {
			return nil
		}

		a, ok := e.Activities[l.ActivityID]
		if !ok || a.StartedEventID != l.StartedEventID {
			return nil
		}

		eventType, attributes := event(a)
		e.addEvent(now, eventType, attributes)
		delete(e.Activities, l.ActivityID)

		o.scheduleDecisionTask(e, now)
		closed = true

		return nil
	})
	if err != nil {
		if errors.Is(err, backend.ErrExecutionNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("closing activity task: %w", err)
	}

	return closed, nil
}

func (o *Orchestrator) timeoutActivityTask(ctx context.Context, l *Lease, now time.Time) (bool, error) {
	return o.closeActivity(ctx, l, now, func(a *ActivityState) (history.EventType, interface{}) {
		return history.EventType_ActivityTaskTimedOut, &history.ActivityTaskTimedOutAttributes{
			ScheduledEventID: a.ScheduledEventID,
			StartedEventID:   a.StartedEventID,
			TimeoutType:      history.TimeoutTypeStartToClose,
		}
	})
}
