package history

import "github.com/cschleiden/swf-workers/core"

type ActivityTaskScheduledAttributes struct {
	ActivityID string `json:"activity_id,omitempty"`

	ActivityType core.ActivityType `json:"activity_type,omitempty"`

	TaskList core.TaskList `json:"task_list,omitempty"`

	Input string `json:"input,omitempty"`

	DecisionTaskCompletedEventID int64 `json:"decision_task_completed_event_id,omitempty"`
}

// ScheduleActivityTaskFailedCause values used by the orchestrator.
const (
	CauseActivityIDAlreadyInUse   = "ACTIVITY_ID_ALREADY_IN_USE"
	CauseActivityTypeDoesNotExist = "ACTIVITY_TYPE_DOES_NOT_EXIST"
)

type ScheduleActivityTaskFailedAttributes struct {
	ActivityID string `json:"activity_id,omitempty"`

	ActivityType core.ActivityType `json:"activity_type,omitempty"`

	Cause string `json:"cause,omitempty"`

	DecisionTaskCompletedEventID int64 `json:"decision_task_completed_event_id,omitempty"`
}

type ActivityTaskStartedAttributes struct {
	ScheduledEventID int64 `json:"scheduled_event_id,omitempty"`

	Identity string `json:"identity,omitempty"`
}
