package decider

import (
	"github.com/cschleiden/swf-workers/history"
)

// State is the result of replaying a workflow history.
type State struct {
	// Input is the input of the workflow execution.
	Input string

	// ScheduledActivities counts activities scheduled but not yet started.
	ScheduledActivities int

	// OpenActivities counts activities started but not yet closed.
	OpenActivities int

	// Completed is set once any activity completed successfully.
	Completed bool

	// Result is the result of the last completed activity.
	Result string
}

// Replay scans the events in order. The counters mirror whatever the history states and may
// become negative for inconsistent histories.
func Replay(events []history.Event) State {
	var s State

	for _, event := range events {
		s.apply(event)
	}

	return s
}

func (s *State) apply(event history.Event) {
	switch event.Type {
	case history.EventType_WorkflowExecutionStarted:
		s.Input = ""
		if a, ok := event.Attributes.(*history.ExecutionStartedAttributes); ok && a != nil {
			s.Input = a.Input
		}

	case history.EventType_ActivityTaskScheduled:
		s.ScheduledActivities++

	case history.EventType_ScheduleActivityTaskFailed:
		s.ScheduledActivities--

	case history.EventType_ActivityTaskStarted:
		s.ScheduledActivities--
		s.OpenActivities++

	case history.EventType_ActivityTaskCompleted:
		s.OpenActivities--
		s.Completed = true
		s.Result = ""
		if a, ok := event.Attributes.(*history.ActivityTaskCompletedAttributes); ok && a != nil {
			s.Result = a.Result
		}

	case history.EventType_ActivityTaskFailed, history.EventType_ActivityTaskTimedOut:
		s.OpenActivities--

	default:
		// Ignore
	}
}
