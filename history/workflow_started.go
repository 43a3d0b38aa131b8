package history

import "github.com/cschleiden/swf-workers/core"

type ExecutionStartedAttributes struct {
	WorkflowType core.WorkflowType `json:"workflow_type,omitempty"`

	TaskList core.TaskList `json:"task_list,omitempty"`

	Input string `json:"input,omitempty"`
}
