package task

import (
	"github.com/cschleiden/swf-workers/core"
	"github.com/cschleiden/swf-workers/history"
)

type Decision struct {
	// Token is the single use credential needed to submit decisions. An empty token means
	// the poll returned without work.
	Token string

	WorkflowType core.WorkflowType

	// WorkflowExecution is the workflow execution that this task is for
	WorkflowExecution core.WorkflowExecution

	// Events is the complete history of the execution, in order
	Events []history.Event

	// PreviousStartedEventID is the id of the DecisionTaskStarted event of the previously
	// processed decision task
	PreviousStartedEventID int64

	// StartedEventID is the id of the DecisionTaskStarted event of this task
	StartedEventID int64
}

// Empty returns true if the poll did not return any work.
func (d *Decision) Empty() bool {
	return d == nil || d.Token == ""
}
