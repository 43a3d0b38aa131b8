package decision

import (
	"fmt"

	"github.com/cschleiden/swf-workers/core"
)

type Type int

const (
	_ Type = iota

	Type_ScheduleActivityTask
	Type_CompleteWorkflowExecution
)

func (t Type) String() string {
	switch t {
	case Type_ScheduleActivityTask:
		return "ScheduleActivityTask"
	case Type_CompleteWorkflowExecution:
		return "CompleteWorkflowExecution"
	default:
		return "Unknown"
	}
}

// Decision is one instruction returned to the orchestrator in response to a decision task.
// Exactly one of the attribute fields matching Type is set.
type Decision struct {
	Type Type `json:"type,omitempty"`

	ScheduleActivityTask *ScheduleActivityTaskAttributes `json:"schedule_activity_task,omitempty"`

	CompleteWorkflowExecution *CompleteWorkflowExecutionAttributes `json:"complete_workflow_execution,omitempty"`
}

type ScheduleActivityTaskAttributes struct {
	ActivityType core.ActivityType `json:"activity_type,omitempty"`

	ActivityID string `json:"activity_id,omitempty"`

	Input string `json:"input,omitempty"`
}

type CompleteWorkflowExecutionAttributes struct {
	Result string `json:"result,omitempty"`
}

func NewScheduleActivityTask(activityType core.ActivityType, activityID, input string) Decision {
	return Decision{
		Type: Type_ScheduleActivityTask,
		ScheduleActivityTask: &ScheduleActivityTaskAttributes{
			ActivityType: activityType,
			ActivityID:   activityID,
			Input:        input,
		},
	}
}

func NewCompleteWorkflowExecution(result string) Decision {
	return Decision{
		Type: Type_CompleteWorkflowExecution,
		CompleteWorkflowExecution: &CompleteWorkflowExecutionAttributes{
			Result: result,
		},
	}
}

func (d Decision) String() string {
	switch d.Type {
	case Type_ScheduleActivityTask:
		if a := d.ScheduleActivityTask; a != nil {
			return fmt.Sprintf("%v(%s@%s, id=%s)", d.Type, a.ActivityType.Name, a.ActivityType.Version, a.ActivityID)
		}
	case Type_CompleteWorkflowExecution:
		return d.Type.String()
	}

	return d.Type.String()
}
