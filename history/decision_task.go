package history

import "github.com/cschleiden/swf-workers/core"

type DecisionTaskScheduledAttributes struct {
	TaskList core.TaskList `json:"task_list,omitempty"`
}

type DecisionTaskStartedAttributes struct {
	ScheduledEventID int64 `json:"scheduled_event_id,omitempty"`

	Identity string `json:"identity,omitempty"`
}

type DecisionTaskCompletedAttributes struct {
	ScheduledEventID int64 `json:"scheduled_event_id,omitempty"`
	StartedEventID   int64 `json:"started_event_id,omitempty"`
}

type DecisionTaskTimedOutAttributes struct {
	ScheduledEventID int64 `json:"scheduled_event_id,omitempty"`
	StartedEventID   int64 `json:"started_event_id,omitempty"`
}
