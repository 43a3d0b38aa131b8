package task

import (
	"github.com/cschleiden/swf-workers/core"
)

type Activity struct {
	// Token is the single use credential needed to report the outcome. An empty token means
	// the poll returned without work.
	Token string

	ActivityID string

	ActivityType core.ActivityType

	WorkflowExecution core.WorkflowExecution

	Input string

	// StartedEventID is the id of the ActivityTaskStarted event of this task
	StartedEventID int64
}

// Empty returns true if the poll did not return any work.
func (a *Activity) Empty() bool {
	return a == nil || a.Token == ""
}
