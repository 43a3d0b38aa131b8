// Package decider derives the next orchestration decisions of a workflow from its history.
//
// The workflow it drives runs a single activity with the workflow input and completes with the
// activity's result. A failed or timed out activity is scheduled again. The decider holds no state
// between calls: every decision task carries the complete history and is replayed from the
// beginning.
package decider

import (
	"github.com/google/uuid"

	"github.com/cschleiden/swf-workers/core"
	"github.com/cschleiden/swf-workers/decision"
	"github.com/cschleiden/swf-workers/history"
)

type Decider struct {
	activityType core.ActivityType
	newID        func() string
}

type Option func(*Decider)

// WithActivityIDGenerator replaces the generator for the ids of newly scheduled activities.
// Generated ids must not collide with any earlier activity id of the same execution.
func WithActivityIDGenerator(f func() string) Option {
	return func(d *Decider) {
		d.newID = f
	}
}

func New(activityType core.ActivityType, opts ...Option) *Decider {
	d := &Decider{
		activityType: activityType,
		newID:        uuid.NewString,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// ActivityType returns the activity type scheduled by this decider.
func (d *Decider) ActivityType() core.ActivityType {
	return d.activityType
}

// Decide replays the given events and returns the decisions for the current decision task. An
// empty list means an activity is still in flight and nothing is to be done until it finishes.
func (d *Decider) Decide(events []history.Event) []decision.Decision {
	s := Replay(events)

	switch {
	case s.Completed:
		return []decision.Decision{decision.NewCompleteWorkflowExecution(s.Result)}

	case s.ScheduledActivities == 0 && s.OpenActivities == 0:
		return []decision.Decision{decision.NewScheduleActivityTask(d.activityType, d.newID(), s.Input)}

	default:
		return []decision.Decision{}
	}
}
